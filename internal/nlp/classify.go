package nlp

import (
	"regexp"
	"sort"

	"github.com/reliefgrid/triage-platform/internal/models"
)

var resourceKeywords = map[models.ResourceType][]string{
	models.ResourceFood: {
		"food", "meal", "rice", "bread", "ration", "nutrition", "hungry",
		"starving", "eat", "cook", "canned", "supplies", "grocery",
	},
	models.ResourceWater: {
		"water", "drink", "thirst", "dehydrat", "purif", "clean water",
		"bottled water", "gallons",
	},
	models.ResourceMedical: {
		"medic", "doctor", "nurse", "ambulance", "hospital", "first aid",
		"bandage", "insulin", "inhaler", "medicine", "drug", "pharma",
		"wound", "bleeding", "injury", "fracture", "pain", "fever",
		"infection", "antibiot",
	},
	models.ResourceShelter: {
		"shelter", "tent", "tarp", "blanket", "roof", "housing", "sleep",
		"camp", "refuge", "cover", "mattress",
	},
	models.ResourceClothing: {
		"cloth", "shirt", "pants", "jacket", "coat", "shoe", "warm",
		"winter gear", "diaper",
	},
	models.ResourceEvacuation: {
		"evacuat", "transport", "rescue", "helicopter", "boat", "vehicle",
		"trapped", "stranded", "airlift",
	},
	models.ResourceVolunteers: {
		"volunteer", "helper", "manpower", "people to help", "assistance",
		"hands",
	},
	models.ResourceFinancialAid: {
		"money", "cash", "fund", "financial", "donation", "payment",
	},
}

type phraseRule struct {
	pattern    *regexp.Regexp
	resource   models.ResourceType
	confidence float64
}

var phraseRules = []phraseRule{
	{regexp.MustCompile(`(?i)need(s)?\s+(clean\s+)?water`), models.ResourceWater, 0.9},
	{regexp.MustCompile(`(?i)need(s)?\s+food`), models.ResourceFood, 0.9},
	{regexp.MustCompile(`(?i)(medical|first.?aid)\s+(help|attention|care|supplies)`), models.ResourceMedical, 0.9},
	{regexp.MustCompile(`(?i)need(s)?\s+(a\s+)?shelter`), models.ResourceShelter, 0.9},
	{regexp.MustCompile(`(?i)need(s)?\s+(to\s+be\s+)?evacuat\w*`), models.ResourceEvacuation, 0.9},
	{regexp.MustCompile(`(?i)need(s)?\s+cloth\w*`), models.ResourceClothing, 0.85},
	{regexp.MustCompile(`(?i)(house|home|building)\s+(collapse\w*|destroy\w*|damage\w*)`), models.ResourceShelter, 0.85},
	{regexp.MustCompile(`(?i)run(ning)?\s+out\s+of\s+(food|water|medicine)`), models.ResourceFood, 0.85},
	{regexp.MustCompile(`(?i)(no|without)\s+(access\s+to\s+)?(food|water|medicine)`), models.ResourceFood, 0.85},
	{regexp.MustCompile(`(?i)(financial|monetary)\s+(help|aid|assistance|support)`), models.ResourceFinancialAid, 0.9},
}

// ClassifyResourceType runs a two-pass classifier: high-confidence
// phrase rules first, then a keyword bag-of-words pass, returning
// every resource type scoring at least 0.3 (primary types) plus the
// full score map. When no type reaches 0.3 the primary list is Custom,
// scored 0.3.
func ClassifyResourceType(text string) ([]models.ResourceType, map[models.ResourceType]float64) {
	if text == "" {
		return []models.ResourceType{models.ResourceCustom}, map[models.ResourceType]float64{models.ResourceCustom: 0.3}
	}

	scores := make(map[models.ResourceType]float64)

	for _, rule := range phraseRules {
		if rule.pattern.MatchString(text) {
			if rule.confidence > scores[rule.resource] {
				scores[rule.resource] = rule.confidence
			}
		}
	}

	for rtype, keywords := range resourceKeywords {
		kwScore := 0.0
		for _, kw := range keywords {
			re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\w*\b`)
			matches := len(re.FindAllString(text, -1))
			if matches == 0 {
				continue
			}
			weight := 0.6
			if len(kw) > 4 {
				weight = 1.0
			}
			kwScore += float64(matches) * weight
		}
		if kwScore > 0 {
			normalized := kwScore / 3.0
			if normalized > 1.0 {
				normalized = 1.0
			}
			if normalized > scores[rtype] {
				scores[rtype] = normalized
			}
		}
	}

	if len(scores) == 0 {
		return []models.ResourceType{models.ResourceCustom}, map[models.ResourceType]float64{models.ResourceCustom: 0.3}
	}

	type scored struct {
		t models.ResourceType
		s float64
	}
	sorted := make([]scored, 0, len(scores))
	for t, s := range scores {
		sorted = append(sorted, scored{t, s})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].s != sorted[j].s {
			return sorted[i].s > sorted[j].s
		}
		return sorted[i].t < sorted[j].t
	})

	var primary []models.ResourceType
	for _, sc := range sorted {
		if sc.s >= 0.3 {
			primary = append(primary, sc.t)
		}
	}
	if len(primary) == 0 {
		primary = []models.ResourceType{models.ResourceCustom}
		scores[models.ResourceCustom] = 0.3
	}

	return primary, scores
}

var quantityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*(people|persons|family members?|families|adults|children|kids)`),
	regexp.MustCompile(`(?i)(\d+)\s*(bottles?|gallons?|liters?|litres?|packs?|boxes?|kits?|units?|bags?|cans?)`),
	regexp.MustCompile(`(?i)need\s+(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*(of us|of them|mouths?)`),
	regexp.MustCompile(`(?i)family of (\d+)`),
}

// EstimateQuantity extracts a quantity hint from free text, capped at
// 9999 and defaulting to 1 when no number is found.
func EstimateQuantity(text string) int {
	if text == "" {
		return 1
	}

	maxQty := 1
	for _, pattern := range quantityPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			qty := parseIntSafe(m[1])
			if qty > maxQty {
				maxQty = qty
			}
		}
	}
	if maxQty > 9999 {
		maxQty = 9999
	}
	return maxQty
}

func parseIntSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// ClassificationResult is the full NLP triage output for one victim
// request, mirroring what gets stored as ResourceRequest.NLPClassification.
type ClassificationResult struct {
	ResourceTypes         []models.ResourceType
	ResourceTypeScores    map[models.ResourceType]float64
	RecommendedPriority   string
	PriorityConfidence    float64
	OriginalPriority      string
	PriorityWasEscalated  bool
	EstimatedQuantity     int
	UrgencySignals        []models.UrgencySignal
	Confidence            float64
}

// Classify runs the full pipeline: urgency extraction, resource-type
// classification, quantity estimation, and priority escalation.
func Classify(description, userPriority string) ClassificationResult {
	signals := ExtractUrgencySignals(description)
	types, scores := ClassifyResourceType(description)
	quantity := EstimateQuantity(description)
	recommended, escalated := EscalatePriority(userPriority, signals)

	typeConf := 0.3
	for _, s := range scores {
		if s > typeConf {
			typeConf = s
		}
	}

	signalConf := 0.4
	if len(signals) > 0 {
		signalConf = float64(len(signals))*0.15 + 0.4
		if signalConf > 0.95 {
			signalConf = 0.95
		}
	}

	return ClassificationResult{
		ResourceTypes:        types,
		ResourceTypeScores:   scores,
		RecommendedPriority:  recommended,
		PriorityConfidence:   signalConf,
		OriginalPriority:     userPriority,
		PriorityWasEscalated: escalated,
		EstimatedQuantity:    quantity,
		UrgencySignals:       signals,
		Confidence:           round3((typeConf + signalConf) / 2),
	}
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
