package domain

import (
	"strconv"
	"strings"
)

// Category groups symptoms by affected body system.
type Category string

const (
	CategorySkin        Category = "skin"
	CategoryDigestive   Category = "digestive"
	CategoryRespiratory Category = "respiratory"
	CategoryGeneral     Category = "general"
)

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategorySkin, CategoryDigestive, CategoryRespiratory, CategoryGeneral:
		return true
	}
	return false
}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategorySkin, CategoryDigestive, CategoryRespiratory, CategoryGeneral}
}

var categoryAliases = map[string]Category{
	"skin":             CategorySkin,
	"skin reactions":   CategorySkin,
	"hautreaktionen":   CategorySkin,
	"digestive":        CategoryDigestive,
	"magen-darm":       CategoryDigestive,
	"respiratory":      CategoryRespiratory,
	"atmung":           CategoryRespiratory,
	"general":          CategoryGeneral,
	"allgemeinzustand": CategoryGeneral,
}

// ParseCategory accepts canonical slugs as well as older English and German
// labels found in backups.
func ParseCategory(s string) (Category, bool) {
	c, ok := categoryAliases[NormalizeText(s)]
	return c, ok
}

// Severity is the symptom intensity on a 1–10 scale.
type Severity int

const (
	SeverityMin Severity = 1
	SeverityMax Severity = 10
)

func (s Severity) IsValid() bool {
	return s >= SeverityMin && s <= SeverityMax
}

var severityLabels = map[string]Severity{
	"mild":     2,
	"leicht":   2,
	"moderate": 5,
	"mittel":   5,
	"severe":   8,
	"schwer":   8,
}

// ParseSeverityLabel converts a three-level label or a numeric string into a
// Severity. The result is not range-checked.
func ParseSeverityLabel(s string) (Severity, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if v, ok := severityLabels[s]; ok {
		return v, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return Severity(n), true
}
