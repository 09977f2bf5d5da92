// Package alerts dispatches severity-gated notifications to NGO/admin
// recipients when an ingested event (or its derived disaster) reaches
// the configured threshold, via a circuit-breaker-wrapped email
// provider with a log-only fallback when no provider is configured.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/config"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/sony/gobreaker"
)

// Recipient is one notification target; the full user directory this
// stands in for is out of scope, so recipients come from static
// configuration rather than a live query.
type Recipient struct {
	Email string
	Role  string
}

// Store is the subset of the store gateway the dispatcher needs.
type Store interface {
	InsertAlertNotification(ctx context.Context, n *models.AlertNotification) error
}

// Dispatcher evaluates events against the alert severity threshold
// and fans out to every configured recipient.
type Dispatcher struct {
	threshold  models.Severity
	recipients []Recipient

	sendgridAPIKey string
	fromEmail      string

	breaker  *gobreaker.CircuitBreaker
	client   *http.Client
	store    Store
	endpoint string
}

const sendEmailTimeout = 15 * time.Second

func NewDispatcher(cfg config.AlertsConfig, store Store) *Dispatcher {
	recipients := make([]Recipient, 0, len(cfg.RecipientEmails))
	for i, email := range cfg.RecipientEmails {
		role := "ngo"
		if i < len(cfg.RecipientRoles) && cfg.RecipientRoles[i] != "" {
			role = cfg.RecipientRoles[i]
		}
		recipients = append(recipients, Recipient{Email: email, Role: role})
	}

	return &Dispatcher{
		threshold:      models.Severity(cfg.SeverityThreshold),
		recipients:     recipients,
		sendgridAPIKey: cfg.SendgridAPIKey,
		fromEmail:      cfg.SendgridFromEmail,
		breaker:        newBreakerClient("sendgrid"),
		client:         &http.Client{Timeout: sendEmailTimeout},
		store:          store,
		endpoint:       sendgridURL,
	}
}

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

// EvaluateAndNotify dispatches one notification per configured
// recipient when event.Severity exactly matches the alert threshold;
// any other severity is silently skipped. Persistence failures for
// individual recipients are logged but don't stop the others.
func (d *Dispatcher) EvaluateAndNotify(ctx context.Context, event models.IngestedEvent, disasterID, predictionID *string) ([]models.AlertNotification, error) {
	if event.Severity != d.threshold {
		return nil, nil
	}

	if len(d.recipients) == 0 {
		slog.Warn("no NGO/admin recipients configured for alerts")
		return nil, nil
	}

	notifications := make([]models.AlertNotification, 0, len(d.recipients))
	for _, recip := range d.recipients {
		notif := d.send(ctx, event, disasterID, predictionID, recip)
		if err := d.store.InsertAlertNotification(ctx, &notif); err != nil {
			slog.Error("failed to persist alert notification", "recipient", recip.Email, "error", err.Error())
		}
		notifications = append(notifications, notif)
	}
	return notifications, nil
}

func (d *Dispatcher) send(ctx context.Context, event models.IngestedEvent, disasterID, predictionID *string, recip Recipient) models.AlertNotification {
	now := time.Now().UTC()
	subject := fmt.Sprintf("CRITICAL ALERT: %s", nonEmpty(event.Title, "Disaster Event"))
	body := buildBody(event)

	notif := models.AlertNotification{
		ID:            uuid.NewString(),
		EventID:       event.ID,
		DisasterID:    disasterID,
		PredictionID:  predictionID,
		Recipient:     recip.Email,
		RecipientRole: recip.Role,
		Subject:       subject,
		Body:          body,
		Severity:      event.Severity,
		CreatedAt:     now,
	}

	if recip.Email != "" && d.sendgridAPIKey != "" {
		externalRef, status, errMsg := d.sendEmail(ctx, recip.Email, subject, body)
		notif.Channel = models.AlertChannelEmail
		notif.Status = status
		notif.ExternalRef = externalRef
		notif.ErrorMessage = errMsg
		if status == models.AlertSent {
			sentAt := time.Now().UTC()
			notif.SentAt = &sentAt
		}
		return notif
	}

	notif.Channel = models.AlertChannelLog
	notif.Status = models.AlertLogged
	slog.Warn("critical alert (log-only, no email provider configured)", "subject", subject, "recipient", recip.Email)
	return notif
}

type sendgridPersonalization struct {
	To []sendgridAddress `json:"to"`
}

type sendgridAddress struct {
	Email string `json:"email"`
}

type sendgridFrom struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridPayload struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridFrom               `json:"from"`
	Subject          string                     `json:"subject"`
	Content          []sendgridContent          `json:"content"`
}

const sendgridURL = "https://api.sendgrid.com/v3/mail/send"

// sendEmail posts one message through SendGrid's v3 API, breaker-wrapped
// so a run of failures stops hammering the provider. Returns
// (externalRef, status, errorMessage).
func (d *Dispatcher) sendEmail(ctx context.Context, to, subject, body string) (string, models.AlertStatus, string) {
	result, err := d.breaker.Execute(func() (any, error) {
		return d.postEmail(ctx, to, subject, body)
	})
	if err != nil {
		slog.Error("sendgrid dispatch failed", "to", to, "error", err.Error())
		return "", models.AlertFailed, err.Error()
	}
	return result.(string), models.AlertSent, ""
}

func (d *Dispatcher) postEmail(ctx context.Context, to, subject, body string) (string, error) {
	payload := sendgridPayload{
		Personalizations: []sendgridPersonalization{{To: []sendgridAddress{{Email: to}}}},
		From:             sendgridFrom{Email: d.fromEmail, Name: "Disaster Management Alerts"},
		Subject:          subject,
		Content: []sendgridContent{
			{Type: "text/plain", Value: body},
			{Type: "text/html", Value: htmlBody(subject, body)},
		},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+d.sendgridAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusAccepted {
		return resp.Header.Get("X-Message-Id"), nil
	}

	errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
	return "", fmt.Errorf("sendgrid error %d: %s", resp.StatusCode, string(errBody))
}

func buildBody(event models.IngestedEvent) string {
	var lines []string
	lines = append(lines,
		"CRITICAL DISASTER ALERT",
		"",
		fmt.Sprintf("Event: %s", nonEmpty(event.Title, "Unknown")),
		fmt.Sprintf("Severity: %s", strings.ToUpper(string(event.Severity))),
		fmt.Sprintf("Type: %s", event.EventType),
	)
	if event.Latitude != 0 || event.Longitude != 0 {
		lines = append(lines, fmt.Sprintf("Location: %.4f, %.4f", event.Latitude, event.Longitude))
	}
	if event.LocationName != "" {
		lines = append(lines, fmt.Sprintf("Place: %s", event.LocationName))
	}
	if event.Description != "" {
		desc := event.Description
		if len(desc) > 500 {
			desc = desc[:500]
		}
		lines = append(lines, "", desc)
	}
	lines = append(lines, "", "Please log in to the Disaster Management Platform for full details.")
	return strings.Join(lines, "\n")
}

func htmlBody(subject, plainBody string) string {
	escaped := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(plainBody)
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<div style="background: #dc2626; color: white; padding: 16px; border-radius: 8px 8px 0 0;">
		<h2 style="margin: 0;">%s</h2>
	</div>
	<div style="background: #fef2f2; padding: 20px; border: 1px solid #fecaca; border-radius: 0 0 8px 8px;">
		<pre style="white-space: pre-wrap; font-family: Arial, sans-serif; font-size: 14px;">%s</pre>
	</div>
</div>`, subject, escaped)
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
