package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MetricLevel is the ordinal value of a player assessment metric.
// Empty string means the metric has not been assessed yet.
type MetricLevel string

const (
	MetricLow    MetricLevel = "Low"
	MetricMedium MetricLevel = "Medium"
	MetricHigh   MetricLevel = "High"
)

// ValidMetricLevel reports whether v is an allowed metric value (absent is allowed).
func ValidMetricLevel(v MetricLevel) bool {
	switch v {
	case "", MetricLow, MetricMedium, MetricHigh:
		return true
	}
	return false
}

// Player represents an athlete profile managed by an admin and viewed by the
// assigned coach.
//
// The playbook is exactly one of PlaybookText (rich text) or an uploaded
// document (PlaybookFileKey + PlaybookURL). Writes must clear the other
// representation; see PlayerService.
type Player struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"` // Required assignment

	// Seven ordinal assessment metrics.
	ResilienceProfile MetricLevel `bson:"resilienceProfile,omitempty" json:"resilienceProfile,omitempty"`
	Reliability       MetricLevel `bson:"reliability,omitempty" json:"reliability,omitempty"`
	SelfBelief        MetricLevel `bson:"selfBelief,omitempty" json:"selfBelief,omitempty"`
	Focus             MetricLevel `bson:"focus,omitempty" json:"focus,omitempty"`
	Adversity         MetricLevel `bson:"adversity,omitempty" json:"adversity,omitempty"`
	Driver            MetricLevel `bson:"driver,omitempty" json:"driver,omitempty"`
	CoachingStyle     MetricLevel `bson:"coachingStyle,omitempty" json:"coachingStyle,omitempty"`

	PlaybookText    string `bson:"playbookText,omitempty" json:"playbookText,omitempty"`
	PlaybookFileKey string `bson:"playbookFileKey,omitempty" json:"-"` // Object key in blob storage
	PlaybookURL     string `bson:"playbookUrl,omitempty" json:"playbookUrl,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasDocumentPlaybook reports whether the playbook is an uploaded document.
func (p *Player) HasDocumentPlaybook() bool {
	return p.PlaybookFileKey != ""
}
