// Package chatbot drives a multi-step conversational intake flow that
// guides a victim through structured resource-request creation using
// the rule-based NLP engine. It has no external API dependencies: the
// whole conversation engine is a self-contained state machine.
package chatbot

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/models"
)

// State is one step of the intake conversation.
type State string

const (
	StateGreeting     State = "greeting"
	StateAskSituation State = "ask_situation"
	StateAskResource  State = "ask_resource"
	StateAskQuantity  State = "ask_quantity"
	StateAskLocation  State = "ask_location"
	StateAskPeople    State = "ask_people"
	StateAskMedical   State = "ask_medical"
	StateConfirm      State = "confirm"
	StateSubmitted    State = "submitted"
)

// Message is one turn of the conversation, stored for transcript
// purposes.
type Message struct {
	Role      string // "user" | "assistant"
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

// ExtractedData is the request data progressively built up over the
// course of a conversation.
type ExtractedData struct {
	SituationDescription string
	ResourceTypes         []models.ResourceType
	ResourceTypeScores    map[models.ResourceType]float64
	Quantity              int
	Location               string
	PeopleCount            int
	HasMedicalNeeds        bool
	MedicalDetails         string
	UrgencySignals         []models.UrgencySignal
	RecommendedPriority    string
	PriorityEscalated      bool
	Confidence             float64
	RawMessages            []string
}

func newExtractedData() ExtractedData {
	return ExtractedData{Quantity: 1, PeopleCount: 1, RecommendedPriority: "medium", Confidence: 0.5}
}

// ToMap renders the extracted data the way it's surfaced to callers,
// mirroring the fields a coordinator-facing summary needs.
func (d ExtractedData) ToMap() map[string]any {
	return map[string]any{
		"situation_description": d.SituationDescription,
		"resource_types":        d.ResourceTypes,
		"resource_type_scores":  d.ResourceTypeScores,
		"quantity":              d.Quantity,
		"location":              d.Location,
		"people_count":          d.PeopleCount,
		"has_medical_needs":     d.HasMedicalNeeds,
		"medical_details":       d.MedicalDetails,
		"urgency_signals":       d.UrgencySignals,
		"recommended_priority":  d.RecommendedPriority,
		"priority_escalated":    d.PriorityEscalated,
		"confidence":            d.Confidence,
	}
}

// Session is one victim's conversation with the intake assistant.
type Session struct {
	ID        string
	State     State
	Messages  []Message
	Extracted ExtractedData
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStore is the session registry the API handler talks to,
// letting the in-memory default and a Redis-backed implementation
// (for multi-instance deployment) share one call site. Save persists
// mutations ProcessMessage made to a session fetched via GetOrCreate
// or Get; the in-memory Store mutates in place and treats Save as a
// no-op, while a remote-backed store must re-serialize on every call.
type SessionStore interface {
	GetOrCreate(id string) *Session
	Get(id string) (*Session, bool)
	Save(sess *Session) error
	Delete(id string) bool
}

// Store is a process-wide, in-memory session registry. The zero value
// is not usable; construct with NewStore.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating one (with a fresh
// id if id is empty) when it doesn't exist yet.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			return sess
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	sess := &Session{
		ID:        id,
		State:     StateGreeting,
		Extracted: newExtractedData(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[id] = sess
	return sess
}

// Save is a no-op for the in-memory store: GetOrCreate and Get hand
// out the live pointer, so callers have already mutated the session
// in place.
func (s *Store) Save(sess *Session) error {
	return nil
}

// Delete removes a session, reporting whether one existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Get returns the session for id and whether it exists.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}
