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

const coachAccessCollectionName = "quiz_coach_access"

// mongoCoachAccessRepository implements repository.CoachAccessRepository.
type mongoCoachAccessRepository struct {
	collection *mongo.Collection
}

// NewMongoCoachAccessRepository creates a new CoachAccess repository.
func NewMongoCoachAccessRepository(db *mongo.Database) repository.CoachAccessRepository {
	return &mongoCoachAccessRepository{
		collection: db.Collection(coachAccessCollectionName),
	}
}

// GetByVersionID retrieves every grant for one quiz version.
func (r *mongoCoachAccessRepository) GetByVersionID(ctx context.Context, versionID primitive.ObjectID) ([]domain.CoachAccess, error) {
	return r.find(ctx, bson.M{"quizVersionId": versionID})
}

// GetByCoachID retrieves the single grant held by a coach, if any.
func (r *mongoCoachAccessRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) (*domain.CoachAccess, error) {
	var grant domain.CoachAccess
	err := r.collection.FindOne(ctx, bson.M{"coachId": coachID}).Decode(&grant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &grant, nil
}

// FindConflicting returns grants held by any of the given coaches on a
// version other than versionID. Used by the workflow's pre-check so that a
// grant replacement never partially applies.
func (r *mongoCoachAccessRepository) FindConflicting(ctx context.Context, versionID primitive.ObjectID, coachIDs []primitive.ObjectID) ([]domain.CoachAccess, error) {
	if len(coachIDs) == 0 {
		return []domain.CoachAccess{}, nil
	}
	filter := bson.M{
		"coachId":       bson.M{"$in": coachIDs},
		"quizVersionId": bson.M{"$ne": versionID},
	}
	return r.find(ctx, filter)
}

func (r *mongoCoachAccessRepository) find(ctx context.Context, filter bson.M) ([]domain.CoachAccess, error) {
	var grants []domain.CoachAccess
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &grants); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	if grants == nil {
		grants = []domain.CoachAccess{}
	}
	return grants, nil
}

// DeleteByVersionID removes all grants for one version.
func (r *mongoCoachAccessRepository) DeleteByVersionID(ctx context.Context, versionID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"quizVersionId": versionID})
	return err
}

// DeleteByVersionIDs removes all grants referencing the given versions.
// Used by the family-delete cascade.
func (r *mongoCoachAccessRepository) DeleteByVersionIDs(ctx context.Context, versionIDs []primitive.ObjectID) error {
	if len(versionIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"quizVersionId": bson.M{"$in": versionIDs}})
	return err
}

// DeleteByCoachID removes the grant held by a coach. Part of the account
// deletion cascade.
func (r *mongoCoachAccessRepository) DeleteByCoachID(ctx context.Context, coachID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"coachId": coachID})
	return err
}

// InsertMany inserts the given grants in one unordered batch. Any duplicate
// on the coachId unique index maps to repository.ErrConflict; the workflow
// pre-checks conflicts, so hitting this means a concurrent change.
func (r *mongoCoachAccessRepository) InsertMany(ctx context.Context, grants []domain.CoachAccess) error {
	if len(grants) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(grants))
	for i := range grants {
		grants[i].ID = primitive.NewObjectID()
		grants[i].CreatedAt = now
		docs = append(docs, grants[i])
	}

	_, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// EnsureCoachAccessIndexes creates necessary indexes. Call during startup.
func EnsureCoachAccessIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Business rule: one grant per coach across ALL versions.
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "quizVersionId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
