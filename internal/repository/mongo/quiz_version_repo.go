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

const quizVersionCollectionName = "quiz_versions"

// mongoQuizVersionRepository implements repository.QuizVersionRepository.
type mongoQuizVersionRepository struct {
	collection *mongo.Collection
}

// NewMongoQuizVersionRepository creates a new QuizVersion repository.
func NewMongoQuizVersionRepository(db *mongo.Database) repository.QuizVersionRepository {
	return &mongoQuizVersionRepository{
		collection: db.Collection(quizVersionCollectionName),
	}
}

// Create inserts a new version. The unique (quizId, versionNumber) index is
// the safeguard against racing clones claiming the same number; a duplicate
// maps to repository.ErrConflict so the caller can retry.
func (r *mongoQuizVersionRepository) Create(ctx context.Context, version *domain.QuizVersion) (primitive.ObjectID, error) {
	if version.QuizID == primitive.NilObjectID || version.VersionNumber < 1 {
		return primitive.NilObjectID, errors.New("version requires quizId and a versionNumber >= 1")
	}
	if version.QuizData.Questions == nil {
		version.QuizData.Questions = []domain.Question{}
	}

	version.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	version.CreatedAt = now
	version.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, version)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted version ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single version by its ID.
func (r *mongoQuizVersionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.QuizVersion, error) {
	var version domain.QuizVersion
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&version)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &version, nil
}

// GetByQuizID retrieves all versions of a family, ordered by version number.
func (r *mongoQuizVersionRepository) GetByQuizID(ctx context.Context, quizID primitive.ObjectID) ([]domain.QuizVersion, error) {
	var versions []domain.QuizVersion
	filter := bson.M{"quizId": quizID}
	findOptions := options.Find().SetSort(bson.D{{Key: "versionNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &versions); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	if versions == nil {
		versions = []domain.QuizVersion{}
	}
	return versions, nil
}

// MaxVersionNumber returns the highest version number in the family, or 0
// when the family has no versions.
func (r *mongoQuizVersionRepository) MaxVersionNumber(ctx context.Context, quizID primitive.ObjectID) (int, error) {
	var version domain.QuizVersion
	filter := bson.M{"quizId": quizID}
	opts := options.FindOne().SetSort(bson.D{{Key: "versionNumber", Value: -1}})

	err := r.collection.FindOne(ctx, filter, opts).Decode(&version)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return version.VersionNumber, nil
}

// UpdateData overwrites the quiz payload of a version. Freeze-state checks
// belong to the service layer.
func (r *mongoQuizVersionRepository) UpdateData(ctx context.Context, id primitive.ObjectID, data domain.QuizData) error {
	if data.Questions == nil {
		data.Questions = []domain.Question{}
	}
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"quizData": data, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeactivateAll clears the active flag on every version of the family.
func (r *mongoQuizVersionRepository) DeactivateAll(ctx context.Context, quizID primitive.ObjectID) error {
	filter := bson.M{"quizId": quizID, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// Activate sets the active flag on one version.
func (r *mongoQuizVersionRepository) Activate(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"isActive": true, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncrementAdministered bumps the administration counter of a version.
func (r *mongoQuizVersionRepository) IncrementAdministered(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{"timesAdministered": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a single version row.
func (r *mongoQuizVersionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByQuizID removes every version of a family and returns the deleted
// version IDs so the caller can cascade to access grants.
func (r *mongoQuizVersionRepository) DeleteByQuizID(ctx context.Context, quizID primitive.ObjectID) ([]primitive.ObjectID, error) {
	versions, err := r.GetByQuizID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(versions))
	for _, v := range versions {
		ids = append(ids, v.ID)
	}
	if len(ids) == 0 {
		return ids, nil
	}

	_, err = r.collection.DeleteMany(ctx, bson.M{"quizId": quizID})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// EnsureQuizVersionIndexes creates necessary indexes. Call during startup.
func EnsureQuizVersionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Version numbers are unique within a family.
			Keys:    bson.D{{Key: "quizId", Value: 1}, {Key: "versionNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Finding the active version of a family.
			Keys:    bson.D{{Key: "quizId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
