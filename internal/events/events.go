// Package events defines the optimization lifecycle events and the bus
// contract they are published through.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a lifecycle event.
type Kind string

const (
	KindStarted   Kind = "optimization.started"
	KindProgress  Kind = "optimization.progress"
	KindCompleted Kind = "optimization.completed"
	KindFailed    Kind = "optimization.failed"
)

// Terminal reports whether the kind ends a scenario's lifecycle.
func (k Kind) Terminal() bool {
	return k == KindCompleted || k == KindFailed
}

// AggregateType carried by every optimization event.
const AggregateType = "OptimizationScenario"

// Event is one lifecycle notification keyed by scenario. Delivery is
// at-least-once; handlers must be idempotent on (ScenarioID, Kind).
type Event struct {
	ID            string    `json:"eventId"`
	Kind          Kind      `json:"kind"`
	ScenarioID    string    `json:"scenarioId"`
	AggregateType string    `json:"aggregateType"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       any       `json:"payload"`
}

// MarshalJSON emits the timestamp as an ISO-8601 UTC instant with
// millisecond precision.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	return json.Marshal(struct {
		alias
		Timestamp string `json:"timestamp"`
	}{
		alias:     alias(e),
		Timestamp: e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
	})
}

// Started is the payload of optimization.started.
type Started struct {
	ScenarioName string    `json:"scenarioName"`
	JobID        string    `json:"jobId"`
	StartedAt    time.Time `json:"startedAt"`
}

// Progress is the payload of optimization.progress.
type Progress struct {
	Progress float64 `json:"progress"` // 0..1
	Message  string  `json:"message"`
}

// Completed is the payload of optimization.completed.
type Completed struct {
	PlanID          string    `json:"planId"`
	PlanNumber      string    `json:"planNumber"`
	TotalWaste      int       `json:"totalWaste"`
	WastePercentage float64   `json:"wastePercentage"`
	StockUsedCount  int       `json:"stockUsedCount"`
	CompletedAt     time.Time `json:"completedAt"`
}

// Failed is the payload of optimization.failed.
type Failed struct {
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failedAt"`
}

// New stamps a payload into an event with a fresh id and timestamp.
func New(kind Kind, scenarioID string, payload any) Event {
	return Event{
		ID:            uuid.New().String(),
		Kind:          kind,
		ScenarioID:    scenarioID,
		AggregateType: AggregateType,
		Timestamp:     time.Now(),
		Payload:       payload,
	}
}

// Bus is the publish side of the external message bus.
type Bus interface {
	Publish(ctx context.Context, e Event) error
}
