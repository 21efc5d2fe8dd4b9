package mongo

import (
	"context"
	"errors"
	"time"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	templateCollectionName = "questionnaire_templates"
	responseCollectionName = "questionnaire_responses"
)

// mongoQuestionnaireRepository implements repository.QuestionnaireRepository
// over the template and response collections.
type mongoQuestionnaireRepository struct {
	templates *mongo.Collection
	responses *mongo.Collection
}

// NewMongoQuestionnaireRepository creates a new Questionnaire repository.
func NewMongoQuestionnaireRepository(db *mongo.Database) repository.QuestionnaireRepository {
	return &mongoQuestionnaireRepository{
		templates: db.Collection(templateCollectionName),
		responses: db.Collection(responseCollectionName),
	}
}

// CreateTemplate inserts a new template version. Templates are append-only;
// there is no update path.
func (r *mongoQuestionnaireRepository) CreateTemplate(ctx context.Context, tpl *domain.QuestionnaireTemplate) (primitive.ObjectID, error) {
	if len(tpl.Questions) == 0 {
		return primitive.NilObjectID, errors.New("template requires at least one question")
	}

	tpl.ID = primitive.NewObjectID()
	tpl.CreatedAt = time.Now().UTC()

	result, err := r.templates.InsertOne(ctx, tpl)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted template ID")
	}
	return insertedID, nil
}

// LatestTemplate retrieves the most recently created template.
func (r *mongoQuestionnaireRepository) LatestTemplate(ctx context.Context) (*domain.QuestionnaireTemplate, error) {
	var tpl domain.QuestionnaireTemplate
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.templates.FindOne(ctx, bson.M{}, opts).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// GetTemplateByID retrieves one template.
func (r *mongoQuestionnaireRepository) GetTemplateByID(ctx context.Context, id primitive.ObjectID) (*domain.QuestionnaireTemplate, error) {
	var tpl domain.QuestionnaireTemplate
	err := r.templates.FindOne(ctx, bson.M{"_id": id}).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// CreateResponses bulk-inserts pending responses in a single operation so a
// distribution run either assigns every player or none.
func (r *mongoQuestionnaireRepository) CreateResponses(ctx context.Context, responses []domain.QuestionnaireResponse) error {
	if len(responses) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(responses))
	for i := range responses {
		responses[i].ID = primitive.NewObjectID()
		responses[i].CreatedAt = now
		responses[i].UpdatedAt = now
		docs = append(docs, responses[i])
	}

	_, err := r.responses.InsertMany(ctx, docs)
	return err
}

// GetResponseByID retrieves one response.
func (r *mongoQuestionnaireRepository) GetResponseByID(ctx context.Context, id primitive.ObjectID) (*domain.QuestionnaireResponse, error) {
	var resp domain.QuestionnaireResponse
	err := r.responses.FindOne(ctx, bson.M{"_id": id}).Decode(&resp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &resp, nil
}

// GetResponsesByPlayerID retrieves a player's responses, newest first.
func (r *mongoQuestionnaireRepository) GetResponsesByPlayerID(ctx context.Context, playerID primitive.ObjectID) ([]domain.QuestionnaireResponse, error) {
	var responses []domain.QuestionnaireResponse
	filter := bson.M{"playerId": playerID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.responses.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	if responses == nil {
		responses = []domain.QuestionnaireResponse{}
	}
	return responses, nil
}

// CompleteResponse stores the answers and flips the status to complete.
func (r *mongoQuestionnaireRepository) CompleteResponse(ctx context.Context, id primitive.ObjectID, answers []string) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"answers":   answers,
			"status":    domain.ResponseComplete,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.responses.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteResponsesByPlayerID removes every response belonging to a player.
// Part of the player deletion cascade.
func (r *mongoQuestionnaireRepository) DeleteResponsesByPlayerID(ctx context.Context, playerID primitive.ObjectID) error {
	_, err := r.responses.DeleteMany(ctx, bson.M{"playerId": playerID})
	return err
}

// EnsureQuestionnaireIndexes creates necessary indexes. Call during startup.
func EnsureQuestionnaireIndexes(ctx context.Context, templates, responses *mongo.Collection) {
	_, _ = templates.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	})
	_, _ = responses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "playerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	})
}
