package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResponseStatus tracks the lifecycle of a questionnaire response.
type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "pending"
	ResponseComplete ResponseStatus = "complete"
)

// QuestionnaireTemplate is an ordered list of question strings.
// Immutable once created; a new save always creates a new template.
type QuestionnaireTemplate struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Questions []string           `bson:"questions" json:"questions"` // Order is significant
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// QuestionnaireResponse is one player's (pending or completed) response to a
// template, created by the distribution run.
type QuestionnaireResponse struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlayerID   primitive.ObjectID `bson:"playerId" json:"playerId"`
	TemplateID primitive.ObjectID `bson:"templateId" json:"templateId"`
	Status     ResponseStatus     `bson:"status" json:"status"`
	Answers    []string           `bson:"answers,omitempty" json:"answers,omitempty"` // Present only when complete
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
