package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reliefgrid/triage-platform/internal/allocation"
	"github.com/reliefgrid/triage-platform/internal/chatbot"
	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/reliefgrid/triage-platform/internal/orchestrator"
	"github.com/reliefgrid/triage-platform/internal/sitrep"
	"github.com/reliefgrid/triage-platform/internal/store"
	"github.com/reliefgrid/triage-platform/internal/stream"
)

// Store is the subset of the Store Gateway the HTTP surface reads
// from directly, kept narrow so handler tests can supply a fake.
type Store interface {
	ListDisasters(ctx context.Context, f store.Filter) ([]models.Disaster, error)
	GetLocation(ctx context.Context, id string) (*models.Location, error)
	ListActiveAnomalyAlerts(ctx context.Context) ([]models.AnomalyAlert, error)
	AcknowledgeAnomalyAlert(ctx context.Context, id, by string) error
	GetLatestSituationReport(ctx context.Context) (*models.SituationReport, error)
	ListSituationReports(ctx context.Context, limit, offset int) ([]models.SituationReport, error)
	InsertResourceRequest(ctx context.Context, r *models.ResourceRequest) error
	ListAvailableResources(ctx context.Context) ([]models.Resource, error)
	ListResourceNeeds(ctx context.Context) ([]models.ResourceNeed, error)
	ApplyAllocations(ctx context.Context, allocations []models.Allocation, disasterID string) error
}

// Handler owns every route the manual-trigger and read-only surface
// exposes: source health/poll, the disaster GeoJSON feed, the chatbot
// turn endpoint, anomaly review, and situation reports.
type Handler struct {
	store        Store
	orchestrator *orchestrator.Orchestrator
	sessions     chatbot.SessionStore
	sitrep       *sitrep.Generator
	broadcaster  *stream.Broadcaster
}

func NewHandler(
	st Store,
	orch *orchestrator.Orchestrator,
	sessions chatbot.SessionStore,
	sitrepGenerator *sitrep.Generator,
	broadcaster *stream.Broadcaster,
) *Handler {
	return &Handler{store: st, orchestrator: orch, sessions: sessions, sitrep: sitrepGenerator, broadcaster: broadcaster}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/healthz", h.health)
	r.GET("/api/disasters", h.getDisasters)
	r.GET("/api/sources/status", h.sourcesStatus)
	r.POST("/api/sources/:name/poll", h.pollSource)
	r.POST("/api/chat", h.chat)
	r.GET("/api/anomalies", h.listAnomalies)
	r.POST("/api/anomalies/:id/acknowledge", h.acknowledgeAnomaly)
	r.GET("/api/sitreps", h.listSitreps)
	r.GET("/api/sitreps/latest", h.latestSitrep)
	r.POST("/api/sitreps/generate", h.generateSitrep)
	r.GET("/api/stream/disasters", h.streamDisasters)
	r.POST("/api/allocate", h.allocate)
}

// streamDisasters pushes every newly created disaster to the client as
// a server-sent event, for dashboards that want live updates instead
// of polling /api/disasters.
func (h *Handler) streamDisasters(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "broadcaster not wired"})
		return
	}

	ch, unsubscribe := h.broadcaster.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case d, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("disaster", d)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) health(c *gin.Context) {
	running := h.orchestrator != nil && h.orchestrator.IsRunning()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "orchestrator_running": running})
}

func (h *Handler) getDisasters(c *gin.Context) {
	filter := store.Filter{Limit: 100}

	if t := c.Query("type"); t != "" {
		filter.Eq = map[string]any{"type": t}
	}
	if s := c.Query("status"); s != "" {
		if filter.Eq == nil {
			filter.Eq = map[string]any{}
		}
		filter.Eq["status"] = s
	}
	if since := c.Query("since"); since != "" {
		if ts, err := time.Parse("2006-01-02", since); err == nil {
			filter.RangeCol = "start_date"
			filter.RangeSince = ts
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}
	filter.OrderBy = "start_date"
	filter.Desc = true

	disasters, err := h.store.ListDisasters(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch disasters"})
		return
	}

	locations := make(map[string]models.Location, len(disasters))
	for _, d := range disasters {
		if _, ok := locations[d.LocationID]; ok {
			continue
		}
		loc, err := h.store.GetLocation(c.Request.Context(), d.LocationID)
		if err == nil && loc != nil {
			locations[d.LocationID] = *loc
		}
	}

	fc := toGeoJSON(disasters, locations)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) sourcesStatus(c *gin.Context) {
	if h.orchestrator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "orchestrator not wired"})
		return
	}
	status, err := h.orchestrator.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch source status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) pollSource(c *gin.Context) {
	if h.orchestrator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "orchestrator not wired"})
		return
	}
	name := models.SourceName(c.Param("name"))
	n, err := h.orchestrator.PollSource(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": name, "new_rows": n})
}

type allocateRequest struct {
	DisasterID string `json:"disaster_id"`
}

// allocate runs the Hungarian-matching solver over every available
// resource and outstanding need, then persists the resulting
// assignments against the given disaster before returning the full
// result (including any needs the solver couldn't cover).
func (h *Handler) allocate(c *gin.Context) {
	var body allocateRequest
	_ = c.ShouldBindJSON(&body)

	resources, err := h.store.ListAvailableResources(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch available resources"})
		return
	}
	needs, err := h.store.ListResourceNeeds(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch resource needs"})
		return
	}

	result := allocation.Solve(c.Request.Context(), resources, needs, allocation.DefaultWeights, 0)

	if len(result.Allocations) > 0 {
		if err := h.store.ApplyAllocations(c.Request.Context(), result.Allocations, body.DisasterID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist allocations"})
			return
		}
	}

	c.JSON(http.StatusOK, result)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

// chat advances one turn of the intake conversation. A submitted
// request is persisted to the resource request table so a coordinator
// can pick it up from there; everything earlier in the conversation
// only lives in the session.
func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := h.sessions.GetOrCreate(req.SessionID)
	wasSubmitted := sess.State == chatbot.StateSubmitted
	reply := chatbot.ProcessMessage(sess, req.Message)

	if !wasSubmitted && sess.State == chatbot.StateSubmitted {
		if err := h.submitResourceRequest(c.Request.Context(), sess); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit request"})
			return
		}
	}

	if err := h.sessions.Save(sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (h *Handler) submitResourceRequest(ctx context.Context, sess *chatbot.Session) error {
	d := sess.Extracted
	resourceType := models.ResourceCustom
	if len(d.ResourceTypes) > 0 {
		resourceType = d.ResourceTypes[0]
	}

	now := time.Now().UTC()
	req := &models.ResourceRequest{
		ID:                 sess.ID,
		Description:        d.SituationDescription,
		ResourceType:       resourceType,
		Quantity:           d.Quantity,
		Priority:           d.RecommendedPriority,
		Status:             models.RequestPending,
		NLPClassification:  d.ToMap(),
		UrgencySignals:     d.UrgencySignals,
		AIConfidence:       d.Confidence,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return h.store.InsertResourceRequest(ctx, req)
}

func (h *Handler) listAnomalies(c *gin.Context) {
	alerts, err := h.store.ListActiveAnomalyAlerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch anomalies"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *Handler) acknowledgeAnomaly(c *gin.Context) {
	var body struct {
		By string `json:"by" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.AcknowledgeAnomalyAlert(c.Request.Context(), c.Param("id"), body.By); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to acknowledge anomaly"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}

func (h *Handler) listSitreps(c *gin.Context) {
	limit, offset := 20, 0
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if o := c.Query("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	reports, err := h.store.ListSituationReports(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch situation reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) latestSitrep(c *gin.Context) {
	report, err := h.store.GetLatestSituationReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch situation report"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no situation report generated yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) generateSitrep(c *gin.Context) {
	if h.sitrep == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sitrep generator not wired"})
		return
	}
	var body struct {
		RequestedBy string `json:"requested_by"`
	}
	_ = c.ShouldBindJSON(&body)
	if body.RequestedBy == "" {
		body.RequestedBy = "manual"
	}

	report, err := h.sitrep.Generate(c.Request.Context(), "on_demand", body.RequestedBy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate situation report"})
		return
	}
	c.JSON(http.StatusOK, report)
}
