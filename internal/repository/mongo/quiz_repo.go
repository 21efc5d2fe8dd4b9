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

const quizCollectionName = "quizzes"

// mongoQuizRepository implements repository.QuizRepository (quiz families).
type mongoQuizRepository struct {
	collection *mongo.Collection
}

// NewMongoQuizRepository creates a new Quiz repository.
func NewMongoQuizRepository(db *mongo.Database) repository.QuizRepository {
	return &mongoQuizRepository{
		collection: db.Collection(quizCollectionName),
	}
}

// Create inserts a new quiz family.
func (r *mongoQuizRepository) Create(ctx context.Context, quiz *domain.Quiz) (primitive.ObjectID, error) {
	if quiz.Name == "" {
		return primitive.NilObjectID, errors.New("quiz name is required")
	}

	quiz.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, quiz)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted quiz ID")
	}
	return insertedID, nil
}

// GetByID retrieves a quiz family by its ID.
func (r *mongoQuizRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Quiz, error) {
	var quiz domain.Quiz
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&quiz)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetAll retrieves every quiz family, newest first.
func (r *mongoQuizRepository) GetAll(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &quizzes); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	return quizzes, nil
}

// Delete removes a quiz family row. Versions and grants are removed by the
// service layer through the version and access repositories.
func (r *mongoQuizRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureQuizIndexes creates necessary indexes. Call during startup.
func EnsureQuizIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
