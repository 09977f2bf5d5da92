package chatbot

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/reliefgrid/triage-platform/internal/models"
	"github.com/reliefgrid/triage-platform/internal/nlp"
)

var (
	yesPattern = regexp.MustCompile(`^(yes|yeah|yep|yup|correct|sure|ok|okay|y|confirm|right|that'?s? (right|correct))[.!\s]*$`)
	noPattern  = regexp.MustCompile(`^(no|nah|nope|wrong|incorrect|n|not really|start over|reset)[.!\s]*$`)
	numberPattern = regexp.MustCompile(`\b(\d+)\b`)
	peopleInAnswerPattern = regexp.MustCompile(`(?i)(\d+)\s*(people|persons?|family members?|of us)`)
	medicalPattern = regexp.MustCompile(`(?i)\b(injur|wound|bleed|fracture|medic|sick|fever|pain|diabet|asthma|chronic|surgery|pregnant|disability)`)
)

func detectYes(text string) bool {
	return yesPattern.MatchString(strings.ToLower(strings.TrimSpace(text)))
}

func detectNo(text string) bool {
	return noPattern.MatchString(strings.ToLower(strings.TrimSpace(text)))
}

func detectMedical(text string) bool {
	return medicalPattern.MatchString(strings.ToLower(text))
}

func extractNumber(text string) (int, bool) {
	m := numberPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// directResourceMap covers free text the classifier still can't place,
// mirroring the last-resort keyword lookup victims fall back to.
var directResourceMap = []struct {
	keyword string
	rtype   models.ResourceType
}{
	{"food", models.ResourceFood},
	{"water", models.ResourceWater},
	{"medical", models.ResourceMedical},
	{"shelter", models.ResourceShelter},
	{"clothing", models.ResourceClothing},
	{"clothes", models.ResourceClothing},
	{"evacuation", models.ResourceEvacuation},
	{"volunteers", models.ResourceVolunteers},
	{"financial", models.ResourceFinancialAid},
	{"money", models.ResourceFinancialAid},
}

// Reply is one assistant turn: the message text plus bookkeeping
// metadata describing what the engine did on this turn.
type Reply struct {
	SessionID string
	Message   string
	State     State
	Extracted map[string]any
	Metadata  map[string]any
}

// ProcessMessage advances a session's conversation by one user turn.
func ProcessMessage(sess *Session, userMessage string) Reply {
	sess.UpdatedAt = time.Now().UTC()
	sess.Messages = append(sess.Messages, Message{Role: "user", Content: userMessage, Timestamp: sess.UpdatedAt})
	sess.Extracted.RawMessages = append(sess.Extracted.RawMessages, userMessage)

	response, metadata := handleState(sess, userMessage)

	sess.Messages = append(sess.Messages, Message{
		Role: "assistant", Content: response, Timestamp: sess.UpdatedAt, Metadata: metadata,
	})

	return Reply{
		SessionID: sess.ID,
		Message:   response,
		State:     sess.State,
		Extracted: sess.Extracted.ToMap(),
		Metadata:  metadata,
	}
}

func handleState(sess *Session, input string) (string, map[string]any) {
	switch sess.State {
	case StateGreeting:
		sess.State = StateAskSituation
		return greetingMsg, map[string]any{"next_state": string(StateAskSituation)}
	case StateAskSituation:
		return handleSituation(sess, input)
	case StateAskResource:
		return handleResource(sess, input)
	case StateAskQuantity:
		return handleQuantity(sess, input)
	case StateAskLocation:
		return handleLocation(sess, input)
	case StateAskPeople:
		return handlePeople(sess, input)
	case StateAskMedical:
		return handleMedical(sess, input)
	case StateConfirm:
		return handleConfirm(sess, input)
	case StateSubmitted:
		return alreadySubmittedMsg, map[string]any{"already_submitted": true}
	}
	return "I'm sorry, something went wrong. Please try again.", map[string]any{}
}

func handleSituation(sess *Session, text string) (string, map[string]any) {
	d := &sess.Extracted
	d.SituationDescription = text

	fullText := strings.Join(d.RawMessages, " ")
	result := nlp.Classify(fullText, "medium")

	d.UrgencySignals = result.UrgencySignals
	d.RecommendedPriority = result.RecommendedPriority
	d.PriorityEscalated = result.PriorityWasEscalated
	d.Confidence = result.Confidence
	d.ResourceTypes = result.ResourceTypes
	d.ResourceTypeScores = result.ResourceTypeScores

	if qty := nlp.EstimateQuantity(text); qty > 1 {
		d.Quantity = qty
	}

	metadata := map[string]any{"classification": result}

	sess.State = StateAskResource
	if len(d.ResourceTypes) > 0 && !(len(d.ResourceTypes) == 1 && d.ResourceTypes[0] == models.ResourceCustom) {
		return resourceConfirmMsg(joinTypes(d.ResourceTypes, 3)), metadata
	}
	return resourceAskMsg, metadata
}

func handleResource(sess *Session, text string) (string, map[string]any) {
	d := &sess.Extracted

	if detectYes(text) && len(d.ResourceTypes) > 0 {
		primary := d.ResourceTypes[0]
		sess.State = StateAskQuantity
		return quantityAskMsg(string(primary)), map[string]any{}
	}

	types, scores := nlp.ClassifyResourceType(text)
	if len(types) > 0 && !(len(types) == 1 && types[0] == models.ResourceCustom) {
		d.ResourceTypes = types
		d.ResourceTypeScores = scores
		sess.State = StateAskQuantity
		return "Got it — I've updated your request to **" + joinTypes(types, 3) + "**.\n\n" +
			quantityAskMsg(string(types[0])), map[string]any{"updated_types": types}
	}

	textLower := strings.ToLower(strings.TrimSpace(text))
	for _, entry := range directResourceMap {
		if strings.Contains(textLower, entry.keyword) {
			d.ResourceTypes = []models.ResourceType{entry.rtype}
			d.ResourceTypeScores = map[models.ResourceType]float64{entry.rtype: 0.8}
			sess.State = StateAskQuantity
			return "Got it — **" + string(entry.rtype) + "**.\n\n" + quantityAskMsg(string(entry.rtype)),
				map[string]any{"updated_types": []models.ResourceType{entry.rtype}}
		}
	}

	return resourceRetryMsg, map[string]any{"retry": true}
}

func handleQuantity(sess *Session, text string) (string, map[string]any) {
	d := &sess.Extracted

	if qty, ok := extractNumber(text); ok && qty > 0 {
		if qty > 9999 {
			qty = 9999
		}
		d.Quantity = qty
	}

	if m := peopleInAnswerPattern.FindStringSubmatch(strings.ToLower(text)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			d.PeopleCount = n
		}
	}

	sess.State = StateAskLocation
	return locationAskMsg, map[string]any{"quantity_detected": d.Quantity}
}

func handleLocation(sess *Session, text string) (string, map[string]any) {
	sess.Extracted.Location = strings.TrimSpace(text)
	sess.State = StateAskPeople
	return peopleAskMsg, map[string]any{}
}

func handlePeople(sess *Session, text string) (string, map[string]any) {
	d := &sess.Extracted

	if qty, ok := extractNumber(text); ok && qty > 0 {
		d.PeopleCount = qty
	}

	if signals := nlp.ExtractUrgencySignals(text); len(signals) > 0 {
		d.UrgencySignals = append(d.UrgencySignals, signals...)
		newPriority, escalated := nlp.EscalatePriority("medium", d.UrgencySignals)
		d.RecommendedPriority = newPriority
		d.PriorityEscalated = escalated
	}

	if detectMedical(text) {
		d.HasMedicalNeeds = true
		d.MedicalDetails = text
		sess.State = StateConfirm
		return buildConfirmation(*d), map[string]any{"skipped_medical_ask": true}
	}

	sess.State = StateAskMedical
	return medicalAskMsg, map[string]any{}
}

func handleMedical(sess *Session, text string) (string, map[string]any) {
	d := &sess.Extracted

	if detectNo(text) {
		d.HasMedicalNeeds = false
	} else {
		d.HasMedicalNeeds = true
		d.MedicalDetails = text

		if signals := nlp.ExtractUrgencySignals(text); len(signals) > 0 {
			d.UrgencySignals = append(d.UrgencySignals, signals...)
			newPriority, escalated := nlp.EscalatePriority("medium", d.UrgencySignals)
			d.RecommendedPriority = newPriority
			d.PriorityEscalated = escalated
		}
	}

	sess.State = StateConfirm
	return buildConfirmation(*d), map[string]any{}
}

func handleConfirm(sess *Session, text string) (string, map[string]any) {
	switch {
	case detectYes(text):
		sess.State = StateSubmitted
		return submittedMsg, map[string]any{
			"submitted":       true,
			"extracted_data":  sess.Extracted.ToMap(),
		}
	case detectNo(text):
		sess.State = StateAskSituation
		sess.Extracted = newExtractedData()
		return resetMsg, map[string]any{"reset": true}
	default:
		return confirmRetryMsg, map[string]any{"awaiting_confirmation": true}
	}
}

func joinTypes(types []models.ResourceType, limit int) string {
	if limit > len(types) {
		limit = len(types)
	}
	names := make([]string, limit)
	for i := 0; i < limit; i++ {
		names[i] = string(types[i])
	}
	return strings.Join(names, ", ")
}
