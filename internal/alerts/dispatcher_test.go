package alerts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/reliefgrid/triage-platform/internal/config"
	"github.com/reliefgrid/triage-platform/internal/models"
)

type fakeStore struct {
	mu      sync.Mutex
	inserts []models.AlertNotification
}

func (f *fakeStore) InsertAlertNotification(ctx context.Context, n *models.AlertNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, *n)
	return nil
}

func TestEvaluateAndNotify_SkipsNonMatchingSeverity(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(config.AlertsConfig{
		SeverityThreshold: "critical",
		RecipientEmails:   []string{"ngo@example.org"},
	}, store)

	notifs, err := d.EvaluateAndNotify(context.Background(), models.IngestedEvent{ID: "e1", Severity: models.SeverityHigh}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifs) != 0 {
		t.Errorf("expected no notifications for non-matching severity, got %d", len(notifs))
	}
}

func TestEvaluateAndNotify_NoRecipientsReturnsEmpty(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(config.AlertsConfig{SeverityThreshold: "critical"}, store)

	notifs, err := d.EvaluateAndNotify(context.Background(), models.IngestedEvent{ID: "e1", Severity: models.SeverityCritical}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifs) != 0 {
		t.Errorf("expected no notifications with no recipients configured, got %d", len(notifs))
	}
}

func TestEvaluateAndNotify_LogFallbackWhenNoProvider(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(config.AlertsConfig{
		SeverityThreshold: "critical",
		RecipientEmails:   []string{"ngo@example.org", "admin@example.org"},
		RecipientRoles:    []string{"ngo", "admin"},
	}, store)

	notifs, err := d.EvaluateAndNotify(context.Background(), models.IngestedEvent{
		ID: "e1", Title: "Flood near river delta", Severity: models.SeverityCritical,
		Latitude: 10.5, Longitude: 20.25,
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifs) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifs))
	}
	for _, n := range notifs {
		if n.Channel != models.AlertChannelLog {
			t.Errorf("expected log channel with no provider configured, got %s", n.Channel)
		}
		if n.Status != models.AlertLogged {
			t.Errorf("expected logged status, got %s", n.Status)
		}
	}
	if len(store.inserts) != 2 {
		t.Errorf("expected both notifications persisted, got %d", len(store.inserts))
	}
}

func TestEvaluateAndNotify_EmailSentViaProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Message-Id", "msg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	store := &fakeStore{}
	d := NewDispatcher(config.AlertsConfig{
		SeverityThreshold: "critical",
		SendgridAPIKey:    "test-key",
		SendgridFromEmail: "alerts@reliefgrid.local",
		RecipientEmails:   []string{"ngo@example.org"},
	}, store)
	d.endpoint = server.URL

	notifs, err := d.EvaluateAndNotify(context.Background(), models.IngestedEvent{
		ID: "e1", Title: "Wildfire spreading", Severity: models.SeverityCritical,
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].Channel != models.AlertChannelEmail {
		t.Errorf("expected email channel, got %s", notifs[0].Channel)
	}
	if notifs[0].Status != models.AlertSent {
		t.Errorf("expected sent status, got %s", notifs[0].Status)
	}
	if notifs[0].ExternalRef != "msg-123" {
		t.Errorf("expected external ref from X-Message-Id header, got %q", notifs[0].ExternalRef)
	}
	if notifs[0].SentAt == nil {
		t.Error("expected SentAt to be set")
	}
}

func TestEvaluateAndNotify_EmailProviderFailureMarksFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("provider outage"))
	}))
	defer server.Close()

	store := &fakeStore{}
	d := NewDispatcher(config.AlertsConfig{
		SeverityThreshold: "critical",
		SendgridAPIKey:    "test-key",
		RecipientEmails:   []string{"ngo@example.org"},
	}, store)
	d.endpoint = server.URL

	notifs, err := d.EvaluateAndNotify(context.Background(), models.IngestedEvent{
		ID: "e1", Title: "Earthquake", Severity: models.SeverityCritical,
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].Status != models.AlertFailed {
		t.Errorf("expected failed status, got %s", notifs[0].Status)
	}
	if notifs[0].ErrorMessage == "" {
		t.Error("expected a non-empty error message")
	}
}

func TestBuildBody_IncludesLocationAndDescription(t *testing.T) {
	body := buildBody(models.IngestedEvent{
		Title:        "Test Event",
		Severity:     models.SeverityCritical,
		EventType:    models.EventEarthquake,
		Latitude:     1.23456,
		Longitude:    7.891,
		LocationName: "Coastal Town",
		Description:  "Widespread damage reported.",
	})
	if !strings.Contains(body, "Test Event") || !strings.Contains(body, "CRITICAL") || !strings.Contains(body, "Coastal Town") || !strings.Contains(body, "Widespread damage reported.") {
		t.Errorf("body missing expected content: %s", body)
	}
}
