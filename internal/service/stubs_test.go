package service

import (
	"context"
	"io"
	"sort"
	"time"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/email"
	"strive/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stub repositories. Error fields let individual tests inject
// failures at specific steps.

// --- users ---

type stubUserRepo struct {
	users     map[primitive.ObjectID]*domain.User
	createErr error
	deleteErr error
	deleted   []primitive.ObjectID
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *stubUserRepo) put(u *domain.User) primitive.ObjectID {
	if u.ID == primitive.NilObjectID {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = u
	return u.ID
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	cp := *user
	id := r.put(&cp)
	return id, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, addr string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == addr {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) GetByInviteToken(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}
	for _, u := range r.users {
		if u.InviteToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id primitive.ObjectID, firstName, lastName string, organizationID primitive.ObjectID) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.OrganizationID = &organizationID
	return nil
}

func (r *stubUserRepo) SetCredentials(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.InviteToken = ""
	return nil
}

func (r *stubUserRepo) TouchLastSignIn(_ context.Context, id primitive.ObjectID) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	u.LastSignInAt = &now
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	r.deleted = append(r.deleted, id)
	return nil
}

// --- organizations ---

type stubOrgRepo struct {
	orgs    map[primitive.ObjectID]*domain.Organization
	creates int
	findErr error
}

func newStubOrgRepo() *stubOrgRepo {
	return &stubOrgRepo{orgs: make(map[primitive.ObjectID]*domain.Organization)}
}

func (r *stubOrgRepo) FindOrCreateByName(_ context.Context, name string) (*domain.Organization, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, o := range r.orgs {
		if o.Name == name {
			cp := *o
			return &cp, nil
		}
	}
	org := &domain.Organization{ID: primitive.NewObjectID(), Name: name, CreatedAt: time.Now()}
	r.orgs[org.ID] = org
	r.creates++
	cp := *org
	return &cp, nil
}

func (r *stubOrgRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Organization, error) {
	o, ok := r.orgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// --- players ---

type stubPlayerRepo struct {
	players   map[primitive.ObjectID]*domain.Player
	createErr error
	updateErr error
}

func newStubPlayerRepo() *stubPlayerRepo {
	return &stubPlayerRepo{players: make(map[primitive.ObjectID]*domain.Player)}
}

func (r *stubPlayerRepo) Create(_ context.Context, player *domain.Player) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	cp := *player
	cp.ID = primitive.NewObjectID()
	r.players[cp.ID] = &cp
	return cp.ID, nil
}

func (r *stubPlayerRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPlayerRepo) GetAll(_ context.Context) ([]domain.Player, error) {
	out := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out, nil
}

func (r *stubPlayerRepo) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.Player, error) {
	var out []domain.Player
	for _, p := range r.players {
		if p.CoachID == coachID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPlayerRepo) Update(_ context.Context, player *domain.Player) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.players[player.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *player
	r.players[player.ID] = &cp
	return nil
}

func (r *stubPlayerRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.players[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.players, id)
	return nil
}

// --- quizzes ---

type stubQuizRepo struct {
	quizzes map[primitive.ObjectID]*domain.Quiz
	deleted []primitive.ObjectID
}

func newStubQuizRepo() *stubQuizRepo {
	return &stubQuizRepo{quizzes: make(map[primitive.ObjectID]*domain.Quiz)}
}

func (r *stubQuizRepo) Create(_ context.Context, quiz *domain.Quiz) (primitive.ObjectID, error) {
	cp := *quiz
	cp.ID = primitive.NewObjectID()
	r.quizzes[cp.ID] = &cp
	return cp.ID, nil
}

func (r *stubQuizRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Quiz, error) {
	q, ok := r.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *stubQuizRepo) GetAll(_ context.Context) ([]domain.Quiz, error) {
	out := make([]domain.Quiz, 0, len(r.quizzes))
	for _, q := range r.quizzes {
		out = append(out, *q)
	}
	return out, nil
}

func (r *stubQuizRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.quizzes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.quizzes, id)
	r.deleted = append(r.deleted, id)
	return nil
}

// --- quiz versions ---

type stubVersionRepo struct {
	versions  map[primitive.ObjectID]*domain.QuizVersion
	createErr error
}

func newStubVersionRepo() *stubVersionRepo {
	return &stubVersionRepo{versions: make(map[primitive.ObjectID]*domain.QuizVersion)}
}

func (r *stubVersionRepo) put(v *domain.QuizVersion) primitive.ObjectID {
	if v.ID == primitive.NilObjectID {
		v.ID = primitive.NewObjectID()
	}
	r.versions[v.ID] = v
	return v.ID
}

func (r *stubVersionRepo) Create(_ context.Context, version *domain.QuizVersion) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	// Emulate the unique (quizId, versionNumber) index.
	for _, v := range r.versions {
		if v.QuizID == version.QuizID && v.VersionNumber == version.VersionNumber {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	cp := *version
	id := r.put(&cp)
	return id, nil
}

func (r *stubVersionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.QuizVersion, error) {
	v, ok := r.versions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *stubVersionRepo) GetByQuizID(_ context.Context, quizID primitive.ObjectID) ([]domain.QuizVersion, error) {
	var out []domain.QuizVersion
	for _, v := range r.versions {
		if v.QuizID == quizID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber < out[j].VersionNumber })
	return out, nil
}

func (r *stubVersionRepo) MaxVersionNumber(_ context.Context, quizID primitive.ObjectID) (int, error) {
	max := 0
	for _, v := range r.versions {
		if v.QuizID == quizID && v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max, nil
}

func (r *stubVersionRepo) UpdateData(_ context.Context, id primitive.ObjectID, data domain.QuizData) error {
	v, ok := r.versions[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.QuizData = data
	return nil
}

func (r *stubVersionRepo) DeactivateAll(_ context.Context, quizID primitive.ObjectID) error {
	for _, v := range r.versions {
		if v.QuizID == quizID {
			v.IsActive = false
		}
	}
	return nil
}

func (r *stubVersionRepo) Activate(_ context.Context, id primitive.ObjectID) error {
	v, ok := r.versions[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.IsActive = true
	return nil
}

func (r *stubVersionRepo) IncrementAdministered(_ context.Context, id primitive.ObjectID) error {
	v, ok := r.versions[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.TimesAdministered++
	return nil
}

func (r *stubVersionRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.versions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.versions, id)
	return nil
}

func (r *stubVersionRepo) DeleteByQuizID(_ context.Context, quizID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var deleted []primitive.ObjectID
	for id, v := range r.versions {
		if v.QuizID == quizID {
			deleted = append(deleted, id)
			delete(r.versions, id)
		}
	}
	return deleted, nil
}

func (r *stubVersionRepo) activeVersions(quizID primitive.ObjectID) []domain.QuizVersion {
	var out []domain.QuizVersion
	for _, v := range r.versions {
		if v.QuizID == quizID && v.IsActive {
			out = append(out, *v)
		}
	}
	return out
}

// --- coach access grants ---

type stubAccessRepo struct {
	grants    map[primitive.ObjectID]*domain.CoachAccess
	insertErr error
	deleteErr error
}

func newStubAccessRepo() *stubAccessRepo {
	return &stubAccessRepo{grants: make(map[primitive.ObjectID]*domain.CoachAccess)}
}

func (r *stubAccessRepo) GetByVersionID(_ context.Context, versionID primitive.ObjectID) ([]domain.CoachAccess, error) {
	var out []domain.CoachAccess
	for _, g := range r.grants {
		if g.QuizVersionID == versionID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *stubAccessRepo) GetByCoachID(_ context.Context, coachID primitive.ObjectID) (*domain.CoachAccess, error) {
	for _, g := range r.grants {
		if g.CoachID == coachID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubAccessRepo) FindConflicting(_ context.Context, versionID primitive.ObjectID, coachIDs []primitive.ObjectID) ([]domain.CoachAccess, error) {
	var out []domain.CoachAccess
	for _, g := range r.grants {
		if g.QuizVersionID == versionID {
			continue
		}
		for _, coachID := range coachIDs {
			if g.CoachID == coachID {
				out = append(out, *g)
			}
		}
	}
	return out, nil
}

func (r *stubAccessRepo) DeleteByVersionID(_ context.Context, versionID primitive.ObjectID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for id, g := range r.grants {
		if g.QuizVersionID == versionID {
			delete(r.grants, id)
		}
	}
	return nil
}

func (r *stubAccessRepo) DeleteByVersionIDs(_ context.Context, versionIDs []primitive.ObjectID) error {
	for _, versionID := range versionIDs {
		for id, g := range r.grants {
			if g.QuizVersionID == versionID {
				delete(r.grants, id)
			}
		}
	}
	return nil
}

func (r *stubAccessRepo) DeleteByCoachID(_ context.Context, coachID primitive.ObjectID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for id, g := range r.grants {
		if g.CoachID == coachID {
			delete(r.grants, id)
		}
	}
	return nil
}

func (r *stubAccessRepo) InsertMany(_ context.Context, newGrants []domain.CoachAccess) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	// Emulate the unique coachId index.
	for _, ng := range newGrants {
		for _, g := range r.grants {
			if g.CoachID == ng.CoachID {
				return repository.ErrConflict
			}
		}
	}
	for _, ng := range newGrants {
		cp := ng
		cp.ID = primitive.NewObjectID()
		r.grants[cp.ID] = &cp
	}
	return nil
}

// --- questionnaires ---

type stubQuestionnaireRepo struct {
	templates map[primitive.ObjectID]*domain.QuestionnaireTemplate
	responses map[primitive.ObjectID]*domain.QuestionnaireResponse
	latest    primitive.ObjectID
	bulkCalls int
}

func newStubQuestionnaireRepo() *stubQuestionnaireRepo {
	return &stubQuestionnaireRepo{
		templates: make(map[primitive.ObjectID]*domain.QuestionnaireTemplate),
		responses: make(map[primitive.ObjectID]*domain.QuestionnaireResponse),
	}
}

func (r *stubQuestionnaireRepo) CreateTemplate(_ context.Context, tpl *domain.QuestionnaireTemplate) (primitive.ObjectID, error) {
	cp := *tpl
	cp.ID = primitive.NewObjectID()
	cp.CreatedAt = time.Now()
	r.templates[cp.ID] = &cp
	r.latest = cp.ID
	return cp.ID, nil
}

func (r *stubQuestionnaireRepo) LatestTemplate(_ context.Context) (*domain.QuestionnaireTemplate, error) {
	tpl, ok := r.templates[r.latest]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *tpl
	return &cp, nil
}

func (r *stubQuestionnaireRepo) GetTemplateByID(_ context.Context, id primitive.ObjectID) (*domain.QuestionnaireTemplate, error) {
	tpl, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *tpl
	return &cp, nil
}

func (r *stubQuestionnaireRepo) CreateResponses(_ context.Context, responses []domain.QuestionnaireResponse) error {
	r.bulkCalls++
	for _, resp := range responses {
		cp := resp
		cp.ID = primitive.NewObjectID()
		r.responses[cp.ID] = &cp
	}
	return nil
}

func (r *stubQuestionnaireRepo) GetResponseByID(_ context.Context, id primitive.ObjectID) (*domain.QuestionnaireResponse, error) {
	resp, ok := r.responses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *resp
	return &cp, nil
}

func (r *stubQuestionnaireRepo) GetResponsesByPlayerID(_ context.Context, playerID primitive.ObjectID) ([]domain.QuestionnaireResponse, error) {
	var out []domain.QuestionnaireResponse
	for _, resp := range r.responses {
		if resp.PlayerID == playerID {
			out = append(out, *resp)
		}
	}
	return out, nil
}

func (r *stubQuestionnaireRepo) CompleteResponse(_ context.Context, id primitive.ObjectID, answers []string) error {
	resp, ok := r.responses[id]
	if !ok {
		return repository.ErrNotFound
	}
	resp.Status = domain.ResponseComplete
	resp.Answers = answers
	return nil
}

func (r *stubQuestionnaireRepo) DeleteResponsesByPlayerID(_ context.Context, playerID primitive.ObjectID) error {
	for id, resp := range r.responses {
		if resp.PlayerID == playerID {
			delete(r.responses, id)
		}
	}
	return nil
}

// --- storage ---

type stubStorage struct {
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
}

func (s *stubStorage) Upload(_ context.Context, objectKey string, _ string, body io.Reader) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	if body != nil {
		_, _ = io.Copy(io.Discard, body)
	}
	s.uploads = append(s.uploads, objectKey)
	return nil
}

func (s *stubStorage) PublicURL(objectKey string) string {
	return "https://storage.test/bucket/" + objectKey
}

func (s *stubStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/presigned/" + objectKey, nil
}

func (s *stubStorage) DeleteObject(_ context.Context, objectKey string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletes = append(s.deletes, objectKey)
	return nil
}

// --- mailer ---

type stubMailer struct {
	sent    []email.Invitation
	sendErr error
}

func (m *stubMailer) SendInvitation(_ context.Context, inv email.Invitation) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, inv)
	return nil
}

// --- helpers ---

func addCoach(users *stubUserRepo, emailAddr string) primitive.ObjectID {
	return users.put(&domain.User{
		Email:        emailAddr,
		Role:         domain.RoleCoach,
		PasswordHash: "x",
	})
}
