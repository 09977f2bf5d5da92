package models

import "time"

type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestApproved   RequestStatus = "approved"
	RequestAssigned   RequestStatus = "assigned"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestRejected   RequestStatus = "rejected"
)

// UrgencySignal is one matched urgency cue from the NLP engine.
type UrgencySignal struct {
	Label    string
	Boost    int
}

// ResourceRequest is a victim-submitted free-text request for aid,
// enriched with the NLP engine's classification.
type ResourceRequest struct {
	ID                string
	Description       string
	Items             []string
	ResourceType       ResourceType
	Quantity          int
	Priority          string // low|medium|high|critical
	Status            RequestStatus
	NLPClassification map[string]any
	UrgencySignals    []UrgencySignal
	AIConfidence      float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Editable reports whether the request may still be mutated by its
// submitter.
func (r ResourceRequest) Editable() bool {
	return r.Status == RequestPending
}
