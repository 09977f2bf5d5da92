// Package nlp classifies victim-submitted resource requests with
// rule-based keyword and phrase matching: resource type, estimated
// quantity, urgency signals, and priority escalation. No external
// model calls; everything here runs offline.
package nlp

import (
	"regexp"
	"sort"

	"github.com/reliefgrid/triage-platform/internal/models"
)

type urgencyRule struct {
	pattern *regexp.Regexp
	label   string
	boost   int
}

var urgencyRules = []urgencyRule{
	{regexp.MustCompile(`(?i)\b(unconscious|unresponsive|not breathing|cardiac arrest)\b`), "unconscious", 3},
	{regexp.MustCompile(`(?i)\b(trapped|pinned|buried|stuck under)\b`), "trapped", 3},
	{regexp.MustCompile(`(?i)\b(heavy bleeding|hemorrhag\w*|severe bleed\w*|blood loss)\b`), "severe_bleeding", 3},
	{regexp.MustCompile(`(?i)\b(drowning|submerged)\b`), "drowning", 3},
	{regexp.MustCompile(`(?i)\bcrush(ed|ing)?\b`), "crush_injury", 3},
	{regexp.MustCompile(`(?i)\b(not moving|paralyz\w*)\b`), "immobile", 2},
	{regexp.MustCompile(`(?i)\b(infant|newborn|baby|toddler)\b`), "infant", 2},
	{regexp.MustCompile(`(?i)\b(elderly|senior|aged|old (man|woman|person))\b`), "elderly", 2},
	{regexp.MustCompile(`(?i)\b(pregnant|expecting)\b`), "pregnant", 2},
	{regexp.MustCompile(`(?i)\b(disabled|wheelchair|disability)\b`), "disabled", 2},
	{regexp.MustCompile(`(?i)\bno (water|food|medicine) for \d+ day`), "prolonged_deprivation", 2},
	{regexp.MustCompile(`(?i)\b(dehydrat\w*|starv\w*)\b`), "dehydration_starvation", 2},
	{regexp.MustCompile(`(?i)\bno (clean )?water\b`), "no_water", 1},
	{regexp.MustCompile(`(?i)\b(no food|hungry|starving)\b`), "no_food", 1},
	{regexp.MustCompile(`(?i)\b(no shelter|homeless|exposed)\b`), "no_shelter", 1},
	{regexp.MustCompile(`(?i)\b(no medic(ine|ation)|out of med)\b`), "no_medicine", 1},
	{regexp.MustCompile(`(?i)\b(bleeding|wound|injur\w*|fracture|broken bone)\b`), "injury", 1},
	{regexp.MustCompile(`(?i)\b(infection|fever|sepsis)\b`), "infection", 1},
	{regexp.MustCompile(`(?i)\b(diabetes?|insulin)\b`), "chronic_medical", 1},
	{regexp.MustCompile(`(?i)\b(asthma|inhaler|breathing difficult)\b`), "respiratory", 1},
	{regexp.MustCompile(`(?i)\b(chest pain|heart)\b`), "cardiac_symptom", 2},
	{regexp.MustCompile(`(?i)\b(seizure|convuls\w*)\b`), "seizure", 2},
	{regexp.MustCompile(`(?i)\b\d{2,} (people|persons|family members|families)\b`), "large_group", 1},
	{regexp.MustCompile(`(?i)\b(children|kids)\b`), "children_present", 1},
}

// ExtractUrgencySignals scans text against the ordered urgency-rule
// table, keeping at most one match per label (first hit wins) and
// returning the result sorted by severity_boost descending.
func ExtractUrgencySignals(text string) []models.UrgencySignal {
	if text == "" {
		return nil
	}

	var signals []models.UrgencySignal
	seen := make(map[string]bool)

	for _, rule := range urgencyRules {
		if seen[rule.label] {
			continue
		}
		if rule.pattern.MatchString(text) {
			signals = append(signals, models.UrgencySignal{Label: rule.label, Boost: rule.boost})
			seen[rule.label] = true
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Boost > signals[j].Boost
	})
	return signals
}

var priorityLevels = []string{"low", "medium", "high", "critical"}

func priorityIndex(p string) int {
	for i, lvl := range priorityLevels {
		if lvl == p {
			return i
		}
	}
	return 1
}

// EscalatePriority raises basePriority by the largest severity_boost
// among signals, clamped at "critical". Returns the new priority and
// whether it actually moved.
func EscalatePriority(basePriority string, signals []models.UrgencySignal) (string, bool) {
	if len(signals) == 0 {
		return basePriority, false
	}

	maxBoost := 0
	for _, s := range signals {
		if s.Boost > maxBoost {
			maxBoost = s.Boost
		}
	}

	baseIdx := priorityIndex(basePriority)
	newIdx := baseIdx + maxBoost
	if newIdx > len(priorityLevels)-1 {
		newIdx = len(priorityLevels) - 1
	}
	return priorityLevels[newIdx], newIdx > baseIdx
}
