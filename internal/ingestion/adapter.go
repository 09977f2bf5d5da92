// Package ingestion holds the five feed adapters, each normalizing a
// distinct upstream source into the shapes the orchestrator persists.
package ingestion

import (
	"context"
	"net/http"
	"time"

	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/sony/gobreaker"
)

// EventAdapter produces IngestedEvent-shaped candidates: geophysical,
// humanitarian-RSS, and social-SOS feeds implement this.
type EventAdapter interface {
	Name() models.SourceName
	Poll(ctx context.Context) ([]models.IngestedEvent, error)
}

// newBreakerClient wraps upstream HTTP calls in a circuit breaker so a
// flapping source stops being hammered every poll cycle; once open,
// adapters fall back to the mock generator for that source.
func newBreakerClient(name string) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return gobreaker.NewCircuitBreaker(st)
}

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
