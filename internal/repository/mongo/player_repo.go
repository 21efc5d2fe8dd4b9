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

const playerCollectionName = "players"

// mongoPlayerRepository implements repository.PlayerRepository.
type mongoPlayerRepository struct {
	collection *mongo.Collection
}

// NewMongoPlayerRepository creates a new Player repository.
func NewMongoPlayerRepository(db *mongo.Database) repository.PlayerRepository {
	return &mongoPlayerRepository{
		collection: db.Collection(playerCollectionName),
	}
}

// Create inserts a new player.
func (r *mongoPlayerRepository) Create(ctx context.Context, player *domain.Player) (primitive.ObjectID, error) {
	if player.FirstName == "" || player.LastName == "" || player.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("player requires firstName, lastName, and coachId")
	}

	player.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	player.CreatedAt = now
	player.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, player)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted player ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single player by its ID.
func (r *mongoPlayerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Player, error) {
	var player domain.Player
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&player)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &player, nil
}

// GetAll retrieves every player, newest first.
func (r *mongoPlayerRepository) GetAll(ctx context.Context) ([]domain.Player, error) {
	return r.find(ctx, bson.M{})
}

// GetByCoachID retrieves the players assigned to one coach.
func (r *mongoPlayerRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Player, error) {
	return r.find(ctx, bson.M{"coachId": coachID})
}

func (r *mongoPlayerRepository) find(ctx context.Context, filter bson.M) ([]domain.Player, error) {
	var players []domain.Player
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &players); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	if players == nil {
		players = []domain.Player{}
	}
	return players, nil
}

// Update overwrites the mutable fields of a player. The playbook fields are
// written unconditionally (including empty values) so that the service
// layer's clear-the-other-representation writes actually clear.
func (r *mongoPlayerRepository) Update(ctx context.Context, player *domain.Player) error {
	if player.ID == primitive.NilObjectID {
		return errors.New("player ID is required for update")
	}

	filter := bson.M{"_id": player.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"firstName":         player.FirstName,
			"lastName":          player.LastName,
			"coachId":           player.CoachID,
			"resilienceProfile": player.ResilienceProfile,
			"reliability":       player.Reliability,
			"selfBelief":        player.SelfBelief,
			"focus":             player.Focus,
			"adversity":         player.Adversity,
			"driver":            player.Driver,
			"coachingStyle":     player.CoachingStyle,
			"playbookText":      player.PlaybookText,
			"playbookFileKey":   player.PlaybookFileKey,
			"playbookUrl":       player.PlaybookURL,
			"updatedAt":         time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a player row.
func (r *mongoPlayerRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlayerIndexes creates necessary indexes. Call during startup.
func EnsurePlayerIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
