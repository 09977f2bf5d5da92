package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func labelsOf(signals []models.UrgencySignal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.Label
	}
	return out
}

func TestExtractUrgencySignals_DetectsTrapped(t *testing.T) {
	signals := ExtractUrgencySignals("We are trapped under rubble, please help!")
	assert.Contains(t, labelsOf(signals), "trapped")
}

func TestExtractUrgencySignals_DetectsLifeThreatening(t *testing.T) {
	signals := ExtractUrgencySignals("My mother is unconscious and not breathing")
	assert.Contains(t, labelsOf(signals), "unconscious")
	hasHighBoost := false
	for _, s := range signals {
		if s.Boost >= 3 {
			hasHighBoost = true
		}
	}
	assert.True(t, hasHighBoost)
}

func TestExtractUrgencySignals_DetectsMultiple(t *testing.T) {
	text := "Elderly woman trapped with infant, severe bleeding, no water for 2 days"
	signals := ExtractUrgencySignals(text)
	assert.GreaterOrEqual(t, len(signals), 3)
}

func TestExtractUrgencySignals_EmptyText(t *testing.T) {
	assert.Empty(t, ExtractUrgencySignals(""))
}

func TestExtractUrgencySignals_Deduplicates(t *testing.T) {
	text := "trapped trapped trapped under rubble, still trapped"
	signals := ExtractUrgencySignals(text)
	count := 0
	for _, l := range labelsOf(signals) {
		if l == "trapped" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestClassifyResourceType_Water(t *testing.T) {
	types, _ := ClassifyResourceType("We desperately need clean water and bottles")
	assert.Contains(t, types, models.ResourceWater)
}

func TestClassifyResourceType_Medical(t *testing.T) {
	types, _ := ClassifyResourceType("Need a doctor and medicine for wound treatment")
	assert.Contains(t, types, models.ResourceMedical)
}

func TestClassifyResourceType_Evacuation(t *testing.T) {
	types, _ := ClassifyResourceType("Please send rescue helicopter, we are stranded")
	assert.Contains(t, types, models.ResourceEvacuation)
}

func TestClassifyResourceType_EmptyReturnsCustom(t *testing.T) {
	types, _ := ClassifyResourceType("")
	assert.Contains(t, types, models.ResourceCustom)
}

func TestClassifyResourceType_ScoresNormalized(t *testing.T) {
	_, scores := ClassifyResourceType("water water water medicine food")
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestEstimateQuantity(t *testing.T) {
	assert.Equal(t, 6, EstimateQuantity("family of 6 needs help"))
	assert.Equal(t, 15, EstimateQuantity("There are 15 people in our group"))
	assert.Equal(t, 20, EstimateQuantity("We need 20 bottles of water"))
	assert.Equal(t, 1, EstimateQuantity("we need help"))
	assert.Equal(t, 1, EstimateQuantity(""))
	assert.LessOrEqual(t, EstimateQuantity("need 99999 items"), 9999)
}

func TestEscalatePriority_NoSignals(t *testing.T) {
	priority, escalated := EscalatePriority("medium", nil)
	assert.Equal(t, "medium", priority)
	assert.False(t, escalated)
}

func TestEscalatePriority_ToCritical(t *testing.T) {
	signals := []models.UrgencySignal{{Label: "trapped", Boost: 3}}
	priority, escalated := EscalatePriority("low", signals)
	assert.Equal(t, "critical", priority)
	assert.True(t, escalated)
}

func TestEscalatePriority_MediumToHigh(t *testing.T) {
	signals := []models.UrgencySignal{{Label: "injury", Boost: 1}}
	priority, escalated := EscalatePriority("medium", signals)
	assert.Equal(t, "high", priority)
	assert.True(t, escalated)
}

func TestEscalatePriority_AlreadyCriticalStays(t *testing.T) {
	signals := []models.UrgencySignal{{Label: "trapped", Boost: 3}}
	priority, escalated := EscalatePriority("critical", signals)
	assert.Equal(t, "critical", priority)
	assert.False(t, escalated)
}

func TestClassify_Basic(t *testing.T) {
	result := Classify("We need food and water for 5 people, one person is injured", "medium")
	assert.GreaterOrEqual(t, len(result.ResourceTypes), 1)
	assert.GreaterOrEqual(t, result.EstimatedQuantity, 1)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)
}

func TestClassify_CriticalEscalation(t *testing.T) {
	result := Classify("Person trapped under collapsed building, unconscious, not breathing", "medium")
	assert.Equal(t, "critical", result.RecommendedPriority)
	assert.True(t, result.PriorityWasEscalated)
	assert.GreaterOrEqual(t, len(result.UrgencySignals), 1)
}
