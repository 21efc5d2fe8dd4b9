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

const organizationCollectionName = "organizations"

// mongoOrganizationRepository implements repository.OrganizationRepository.
type mongoOrganizationRepository struct {
	collection *mongo.Collection
}

// NewMongoOrganizationRepository creates a new Organization repository.
func NewMongoOrganizationRepository(db *mongo.Database) repository.OrganizationRepository {
	return &mongoOrganizationRepository{
		collection: db.Collection(organizationCollectionName),
	}
}

// FindOrCreateByName upserts an organization keyed by its unique name and
// returns the resulting document. Two concurrent invites for the same new
// organization resolve to the same row via the unique index.
func (r *mongoOrganizationRepository) FindOrCreateByName(ctx context.Context, name string) (*domain.Organization, error) {
	if name == "" {
		return nil, errors.New("organization name is required")
	}

	filter := bson.M{"name": name}
	update := bson.M{
		"$setOnInsert": bson.M{
			"name":      name,
			"createdAt": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var org domain.Organization
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&org)
	if err != nil {
		// A racing upsert can still trip the unique index; retry the read.
		if mongo.IsDuplicateKeyError(err) {
			findErr := r.collection.FindOne(ctx, filter).Decode(&org)
			if findErr != nil {
				return nil, findErr
			}
			return &org, nil
		}
		return nil, err
	}
	return &org, nil
}

// GetByID retrieves an organization by its ObjectID.
func (r *mongoOrganizationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// EnsureOrganizationIndexes creates necessary indexes. Call during startup.
func EnsureOrganizationIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
