package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Quiz is a named family of versions sharing one identity across revisions.
type Quiz struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Choice is one selectable answer of a question with its numeric score.
type Choice struct {
	ID    string  `bson:"id" json:"id"`
	Text  string  `bson:"text" json:"text"`
	Value float64 `bson:"value" json:"value"`
}

// Question is one quiz question tied to a player assessment metric.
type Question struct {
	ID      string   `bson:"id" json:"id"`
	Text    string   `bson:"text" json:"text"`
	Metric  string   `bson:"metric" json:"metric"`
	Choices []Choice `bson:"choices" json:"choices"` // Order is significant
}

// QuizData is the structured payload of a quiz version.
type QuizData struct {
	Questions []Question `bson:"questions" json:"questions"` // Order is significant
}

// QuizVersion is one revision of a quiz family.
//
// Lifecycle: a version starts as an inactive draft and may be edited in
// place. Once it becomes the active version or has been administered at
// least once it is frozen; the only mutation path is cloning it into a new
// draft. At most one version per family may be active at a time.
type QuizVersion struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	QuizID            primitive.ObjectID `bson:"quizId" json:"quizId"`
	VersionNumber     int                `bson:"versionNumber" json:"versionNumber"` // Unique within family, starts at 1
	QuizData          QuizData           `bson:"quizData" json:"quizData"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	TimesAdministered int                `bson:"timesAdministered" json:"timesAdministered"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsFrozen reports whether direct edits are no longer permitted.
func (v *QuizVersion) IsFrozen() bool {
	return v.IsActive || v.TimesAdministered > 0
}

// CoachAccess grants one coach the right to administer one quiz version.
// A coach may hold at most one grant at a time (unique index on CoachID).
type CoachAccess struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	QuizVersionID primitive.ObjectID `bson:"quizVersionId" json:"quizVersionId"`
	CoachID       primitive.ObjectID `bson:"coachId" json:"coachId"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
