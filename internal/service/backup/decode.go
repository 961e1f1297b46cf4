package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

const (
	collFood     = "foodEntries"
	collSymptom  = "symptomEntries"
	collProfile  = "userProfiles"
	collSettings = "appSettings"
)

type wireDocument struct {
	FoodEntries    []json.RawMessage `json:"foodEntries"`
	SymptomEntries []json.RawMessage `json:"symptomEntries"`
	UserProfiles   []json.RawMessage `json:"userProfiles"`
	AppSettings    json.RawMessage   `json:"appSettings"`
	ExportDate     json.RawMessage   `json:"exportDate"`
	Version        json.RawMessage   `json:"version"`
}

type foodWire struct {
	ID         *string   `json:"id"`
	Timestamp  *string   `json:"timestamp"`
	FoodItems  *string   `json:"foodItems"`
	Photo      *string   `json:"photo"`
	ProfileIDs *[]string `json:"profileIds"`
}

type symptomWire struct {
	ID                *string         `json:"id"`
	LoggedAt          *string         `json:"loggedAt"`
	Symptom           *string         `json:"symptom"`
	Category          *string         `json:"category"`
	Severity          json.RawMessage `json:"severity"`
	StartTime         *string         `json:"startTime"`
	Duration          json.RawMessage `json:"duration"`
	LinkedFoodEntryID *string         `json:"linkedFoodEntryId"`
	ProfileID         *string         `json:"profileId"`
}

type profileWire struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
	domain.ProfileDetails
	CreatedAt *string `json:"createdAt"`
	UpdatedAt *string `json:"updatedAt"`
}

// Decode parses and validates a backup document. Failures wrap
// ErrMalformedDocument, ErrInvalidSchema or, as a *RecordShapeError,
// ErrInvalidRecordShape. Profiles without timestamps get fallback.
func Decode(data []byte, fallback time.Time) (*Document, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
	}

	top, ok := probe.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level must be an object", domain.ErrInvalidSchema)
	}
	for _, key := range []string{collFood, collSymptom, collProfile} {
		v, present := top[key]
		if !present {
			return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidSchema, key)
		}
		if _, isArray := v.([]any); !isArray {
			return nil, fmt.Errorf("%w: %s must be an array", domain.ErrInvalidSchema, key)
		}
	}

	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchema, err)
	}

	doc := &Document{
		Version:        decodeString(wire.Version),
		FoodEntries:    make([]domain.FoodEntry, 0, len(wire.FoodEntries)),
		SymptomEntries: make([]domain.SymptomEntry, 0, len(wire.SymptomEntries)),
		UserProfiles:   make([]domain.Profile, 0, len(wire.UserProfiles)),
	}
	if t, err := parseTime(decodeString(wire.ExportDate)); err == nil {
		doc.ExportDate = t
	}

	c := &checker{}
	seen := make(map[string]struct{})
	for i, raw := range wire.UserProfiles {
		if p, ok := c.profile(i, raw, fallback); ok && c.unique(collProfile, i, p.ID, seen) {
			doc.UserProfiles = append(doc.UserProfiles, p)
		}
	}
	clear(seen)
	for i, raw := range wire.FoodEntries {
		if f, ok := c.food(i, raw); ok && c.unique(collFood, i, f.ID, seen) {
			doc.FoodEntries = append(doc.FoodEntries, f)
		}
	}
	clear(seen)
	for i, raw := range wire.SymptomEntries {
		if e, ok := c.symptom(i, raw); ok && c.unique(collSymptom, i, e.ID, seen) {
			doc.SymptomEntries = append(doc.SymptomEntries, e)
		}
	}
	doc.AppSettings = c.settings(wire.AppSettings)

	if len(c.problems) > 0 {
		return nil, &domain.RecordShapeError{Problems: c.problems}
	}
	return doc, nil
}

type checker struct {
	problems []domain.RecordProblem
}

func (c *checker) add(coll string, i int, field, msg string) {
	c.problems = append(c.problems, domain.RecordProblem{Collection: coll, Index: i, Field: field, Message: msg})
}

func (c *checker) unmarshal(coll string, i int, raw json.RawMessage, dst any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		c.add(coll, i, "", "must be an object")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			c.add(coll, i, te.Field, "has the wrong type")
		} else {
			c.add(coll, i, "", err.Error())
		}
		return false
	}
	return true
}

func (c *checker) unique(coll string, i int, id string, seen map[string]struct{}) bool {
	if _, dup := seen[id]; dup {
		c.add(coll, i, "id", "duplicate id "+id)
		return false
	}
	seen[id] = struct{}{}
	return true
}

// requiredString reports a problem when v is missing or blank.
func (c *checker) requiredString(coll string, i int, field string, v *string) (string, bool) {
	if v == nil || strings.TrimSpace(*v) == "" {
		c.add(coll, i, field, "required")
		return "", false
	}
	return *v, true
}

func (c *checker) requiredTime(coll string, i int, field string, v *string) (time.Time, bool) {
	if v == nil {
		c.add(coll, i, field, "required")
		return time.Time{}, false
	}
	t, err := parseTime(*v)
	if err != nil {
		c.add(coll, i, field, "must be an RFC 3339 timestamp")
		return time.Time{}, false
	}
	return t, true
}

func (c *checker) profile(i int, raw json.RawMessage, fallback time.Time) (domain.Profile, bool) {
	var w profileWire
	if !c.unmarshal(collProfile, i, raw, &w) {
		return domain.Profile{}, false
	}
	before := len(c.problems)

	id, _ := c.requiredString(collProfile, i, "id", w.ID)
	name, _ := c.requiredString(collProfile, i, "name", w.Name)

	created := fallback.UTC().Truncate(time.Microsecond)
	if w.CreatedAt != nil {
		created, _ = c.requiredTime(collProfile, i, "createdAt", w.CreatedAt)
	}
	updated := created
	if w.UpdatedAt != nil {
		updated, _ = c.requiredTime(collProfile, i, "updatedAt", w.UpdatedAt)
	}

	if len(c.problems) > before {
		return domain.Profile{}, false
	}
	return domain.Profile{
		ID:             id,
		Name:           strings.TrimSpace(name),
		ProfileDetails: w.ProfileDetails,
		CreatedAt:      created,
		UpdatedAt:      updated,
	}, true
}

func (c *checker) food(i int, raw json.RawMessage) (domain.FoodEntry, bool) {
	var w foodWire
	if !c.unmarshal(collFood, i, raw, &w) {
		return domain.FoodEntry{}, false
	}
	before := len(c.problems)

	id, _ := c.requiredString(collFood, i, "id", w.ID)
	ts, _ := c.requiredTime(collFood, i, "timestamp", w.Timestamp)
	if w.FoodItems == nil {
		c.add(collFood, i, "foodItems", "required")
	}
	if w.ProfileIDs == nil {
		c.add(collFood, i, "profileIds", "must be an array")
	}

	if len(c.problems) > before {
		return domain.FoodEntry{}, false
	}
	return domain.FoodEntry{
		ID:         id,
		Timestamp:  ts,
		FoodItems:  *w.FoodItems,
		Photo:      domain.TrimOrNil(w.Photo),
		ProfileIDs: domain.CleanList(*w.ProfileIDs),
	}, true
}

func (c *checker) symptom(i int, raw json.RawMessage) (domain.SymptomEntry, bool) {
	var w symptomWire
	if !c.unmarshal(collSymptom, i, raw, &w) {
		return domain.SymptomEntry{}, false
	}
	before := len(c.problems)

	id, _ := c.requiredString(collSymptom, i, "id", w.ID)
	logged, _ := c.requiredTime(collSymptom, i, "loggedAt", w.LoggedAt)
	desc, _ := c.requiredString(collSymptom, i, "symptom", w.Symptom)
	start, _ := c.requiredTime(collSymptom, i, "startTime", w.StartTime)
	owner, _ := c.requiredString(collSymptom, i, "profileId", w.ProfileID)

	var category domain.Category
	if w.Category == nil {
		c.add(collSymptom, i, "category", "required")
	} else if cat, ok := domain.ParseCategory(*w.Category); ok {
		category = cat
	} else {
		c.add(collSymptom, i, "category", "unknown category "+strconv.Quote(*w.Category))
	}

	severity, err := decodeSeverity(w.Severity)
	if err != nil {
		c.add(collSymptom, i, "severity", err.Error())
	}
	duration, err := decodeDuration(w.Duration)
	if err != nil {
		c.add(collSymptom, i, "duration", err.Error())
	}

	if len(c.problems) > before {
		return domain.SymptomEntry{}, false
	}
	return domain.SymptomEntry{
		ID:                id,
		LoggedAt:          logged,
		Symptom:           strings.TrimSpace(desc),
		Category:          category,
		Severity:          severity,
		StartTime:         start,
		Duration:          duration,
		LinkedFoodEntryID: domain.TrimOrNil(w.LinkedFoodEntryID),
		ProfileID:         owner,
	}, true
}

func (c *checker) settings(raw json.RawMessage) domain.AppSettings {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.AppSettings{}
	}
	var s domain.AppSettings
	if !c.unmarshal(collSettings, 0, raw, &s) {
		return domain.AppSettings{}
	}
	return s
}

// decodeSeverity accepts an integer 1–10, a numeric string or a legacy
// three-level label.
func decodeSeverity(raw json.RawMessage) (domain.Severity, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("required")
	}

	var sev domain.Severity
	if raw[0] == '"' {
		var label string
		if err := json.Unmarshal(raw, &label); err != nil {
			return 0, errors.New("has the wrong type")
		}
		v, ok := domain.ParseSeverityLabel(label)
		if !ok {
			return 0, fmt.Errorf("unknown severity %q", label)
		}
		sev = v
	} else {
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, errors.New("has the wrong type")
		}
		if n != math.Trunc(n) {
			return 0, errors.New("must be a whole number")
		}
		sev = domain.Severity(n)
	}

	if !sev.IsValid() {
		return 0, errors.New("must be between 1 and 10")
	}
	return sev, nil
}

// decodeDuration accepts free text or a number of minutes.
func decodeDuration(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("required")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", errors.New("has the wrong type")
		}
		return strings.TrimSpace(s), nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("has the wrong type")
	}
	return strconv.FormatFloat(n, 'f', -1, 64) + " min", nil
}

func decodeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Truncate(time.Microsecond), nil
}
