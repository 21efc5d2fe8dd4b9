package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is a name-keyed grouping entity for coaches.
// Created lazily on first reference (find-or-create by unique name).
type Organization struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"` // Unique
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
