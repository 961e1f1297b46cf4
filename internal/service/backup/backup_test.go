package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/allergycare-backend/internal/adapter/kvstore"
	"github.com/heartmarshall/allergycare-backend/internal/domain"
	"github.com/heartmarshall/allergycare-backend/internal/service/diary"
	"github.com/heartmarshall/allergycare-backend/internal/service/profile"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

var base = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

type env struct {
	store    *kvstore.Store
	profiles *kvstore.ProfileRepo
	foods    *kvstore.FoodRepo
	symptoms *kvstore.SymptomRepo
	state    *kvstore.StateRepo
	svc      *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store, err := kvstore.Open(context.Background(), filepath.Join(t.TempDir(), "backup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e := &env{
		store:    store,
		profiles: kvstore.NewProfileRepo(store),
		foods:    kvstore.NewFoodRepo(store),
		symptoms: kvstore.NewSymptomRepo(store),
		state:    kvstore.NewStateRepo(store),
	}
	e.svc = NewService(testLogger(), e.profiles, e.foods, e.symptoms, e.state, store)
	e.svc.now = func() time.Time { return base.Add(48 * time.Hour) }
	return e
}

func (e *env) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := e.profiles.Create(ctx, domain.Profile{
		ID: "p1", Name: "Mia", CreatedAt: base, UpdatedAt: base,
		ProfileDetails: domain.ProfileDetails{Weight: ptr(31.5), KnownAllergies: []string{"peanut"}},
	})
	require.NoError(t, err)
	_, err = e.profiles.Create(ctx, domain.Profile{ID: "p2", Name: "Tom", CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)

	_, err = e.foods.Create(ctx, domain.FoodEntry{
		ID: "f1", Timestamp: base, FoodItems: "Milk, Bread", ProfileIDs: []string{"p1", "p2"},
		Photo: ptr("data:image/png;base64,AAAA"),
	})
	require.NoError(t, err)

	_, err = e.symptoms.Create(ctx, domain.SymptomEntry{
		ID: "s1", LoggedAt: base.Add(3 * time.Hour), Symptom: "rash", Category: domain.CategorySkin,
		Severity: 6, StartTime: base.Add(2 * time.Hour), Duration: "1h", ProfileID: "p1",
		LinkedFoodEntryID: ptr("f1"),
	})
	require.NoError(t, err)

	require.NoError(t, e.state.SaveSettings(ctx, domain.AppSettings{Name: ptr("Family")}))
}

func (e *env) snapshot(t *testing.T) *Document {
	t.Helper()
	doc, err := e.svc.Export(context.Background())
	require.NoError(t, err)
	doc.ExportDate = time.Time{}
	return doc
}

// ---------------------------------------------------------------------------
// Export / round trip
// ---------------------------------------------------------------------------

func TestExport_Document(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.seed(t)

	doc, err := e.svc.Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, doc.Version)
	assert.Equal(t, base.Add(48*time.Hour), doc.ExportDate)
	assert.Len(t, doc.UserProfiles, 2)
	assert.Len(t, doc.FoodEntries, 1)
	assert.Len(t, doc.SymptomEntries, 1)
	require.NotNil(t, doc.AppSettings.Name)

	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, doc))
	assert.Contains(t, buf.String(), "\n  \"foodEntries\": [")
	assert.Contains(t, buf.String(), `"version": "1.0"`)

	assert.Equal(t, "allergycare-backup-2024-01-03.json", FileName(doc.ExportDate))
}

func TestImport_RoundTrip(t *testing.T) {
	t.Parallel()

	src := newEnv(t)
	src.seed(t)
	before := src.snapshot(t)

	var buf bytes.Buffer
	doc, err := src.svc.Export(context.Background())
	require.NoError(t, err)
	require.NoError(t, WriteTo(&buf, doc))

	// Into the same store.
	report, err := src.svc.Import(context.Background(), bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, before, src.snapshot(t))

	// Into a fresh store.
	dst := newEnv(t)
	report, err = dst.svc.Import(context.Background(), bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Profiles)
	assert.Equal(t, 1, report.FoodEntries)
	assert.Equal(t, 1, report.SymptomEntries)
	assert.Equal(t, CurrentVersion, report.Version)
	assert.Equal(t, before, dst.snapshot(t))
}

func TestImport_RoundTripOfServiceWrittenEntries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t)
	profiles := profile.NewService(testLogger(), e.profiles, e.foods, e.symptoms, e.store)
	entries := diary.NewService(testLogger(), e.foods, e.symptoms, e.profiles, e.state, e.store)

	p, err := profiles.CreateProfile(ctx, profile.CreateProfileInput{Name: "Mia"})
	require.NoError(t, err)
	_, err = entries.CreateFoodEntry(ctx, diary.CreateFoodEntryInput{FoodItems: "Milk", ProfileIDs: []string{p.ID}})
	require.NoError(t, err)
	_, err = entries.CreateSymptomEntry(ctx, diary.CreateSymptomEntryInput{
		Symptom:   "Rash",
		Category:  "skin",
		Severity:  4,
		StartTime: time.Date(2024, 1, 1, 10, 0, 0, 123456789, time.UTC),
		Duration:  "1h",
		ProfileID: p.ID,
	})
	require.NoError(t, err)

	before := e.snapshot(t)

	var buf bytes.Buffer
	doc, err := e.svc.Export(ctx)
	require.NoError(t, err)
	require.NoError(t, WriteTo(&buf, doc))

	_, err = e.svc.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, before, e.snapshot(t))
}

// ---------------------------------------------------------------------------
// Import failures
// ---------------------------------------------------------------------------

func TestImport_FailureClassesLeaveStoreUntouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want error
	}{
		{"not json", `{"foodEntries": [`, domain.ErrMalformedDocument},
		{"array top level", `[1, 2]`, domain.ErrInvalidSchema},
		{"missing userProfiles", `{"foodEntries": [], "symptomEntries": []}`, domain.ErrInvalidSchema},
		{"food entries not array", `{"foodEntries": {}, "symptomEntries": [], "userProfiles": []}`, domain.ErrInvalidSchema},
		{
			"food without timestamp",
			`{"foodEntries": [{"id": "f", "foodItems": "x", "profileIds": []}], "symptomEntries": [], "userProfiles": []}`,
			domain.ErrInvalidRecordShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			e.seed(t)
			before := e.snapshot(t)

			_, err := e.svc.Import(context.Background(), strings.NewReader(tt.body))
			require.ErrorIs(t, err, tt.want)
			for _, other := range []error{domain.ErrMalformedDocument, domain.ErrInvalidSchema, domain.ErrInvalidRecordShape} {
				if other != tt.want {
					assert.NotErrorIs(t, err, other)
				}
			}
			assert.Equal(t, before, e.snapshot(t))
		})
	}
}

func TestImport_WriteFailureRollsBack(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.seed(t)
	before := e.snapshot(t)

	boom := errors.New("disk full")
	e.svc.settings = failingSettings{e.state, boom}

	body := `{"foodEntries": [], "symptomEntries": [], "userProfiles": [], "version": "1.0"}`
	_, err := e.svc.Import(context.Background(), strings.NewReader(body))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, before, e.snapshot(t))
}

type failingSettings struct {
	*kvstore.StateRepo
	err error
}

func (f failingSettings) SaveSettings(context.Context, domain.AppSettings) error { return f.err }

// ---------------------------------------------------------------------------
// Decode
// ---------------------------------------------------------------------------

func TestDecode_RecordShapeDetails(t *testing.T) {
	t.Parallel()

	body := `{
		"userProfiles": [{"id": "p1"}, "oops", {"id": "p3", "name": "A", "weight": "heavy"}],
		"foodEntries": [{"id": "f1", "timestamp": "yesterday", "foodItems": "x", "profileIds": []}],
		"symptomEntries": [{"id": "s1", "loggedAt": "2024-01-01T00:00:00Z", "symptom": "x",
			"category": "ears", "severity": 12, "startTime": "2024-01-01T00:00:00Z", "profileId": "p1"}]
	}`

	_, err := Decode([]byte(body), base)

	var se *domain.RecordShapeError
	require.ErrorAs(t, err, &se)

	got := make([]string, 0, len(se.Problems))
	for _, p := range se.Problems {
		got = append(got, p.Collection+"."+p.Field)
	}
	assert.ElementsMatch(t, []string{
		"userProfiles.name",
		"userProfiles.",
		"userProfiles.weight",
		"foodEntries.timestamp",
		"symptomEntries.category",
		"symptomEntries.severity",
		"symptomEntries.duration",
	}, got)
	assert.Equal(t, 1, se.Problems[1].Index)
}

func TestDecode_LegacyLabels(t *testing.T) {
	t.Parallel()

	body := `{
		"userProfiles": [{"id": "p1", "name": "Mia"}],
		"foodEntries": [],
		"symptomEntries": [
			{"id": "a", "loggedAt": "2024-01-01T00:00:00.000Z", "symptom": "x", "category": "Hautreaktionen",
			 "severity": "schwer", "startTime": "2024-01-01T00:00:00.000Z", "duration": 30, "profileId": "p1"},
			{"id": "b", "loggedAt": "2024-01-01T00:00:00Z", "symptom": "y", "category": "Magen-Darm",
			 "severity": "mild", "startTime": "2024-01-01T00:00:00Z", "duration": "2h", "profileId": "p1"},
			{"id": "c", "loggedAt": "2024-01-01T00:00:00Z", "symptom": "z", "category": "respiratory",
			 "severity": "7", "startTime": "2024-01-01T00:00:00Z", "duration": "", "profileId": "p1"}
		]
	}`

	doc, err := Decode([]byte(body), base)
	require.NoError(t, err)

	require.Len(t, doc.SymptomEntries, 3)
	assert.Equal(t, domain.CategorySkin, doc.SymptomEntries[0].Category)
	assert.Equal(t, domain.Severity(8), doc.SymptomEntries[0].Severity)
	assert.Equal(t, "30 min", doc.SymptomEntries[0].Duration)
	assert.Equal(t, domain.CategoryDigestive, doc.SymptomEntries[1].Category)
	assert.Equal(t, domain.Severity(2), doc.SymptomEntries[1].Severity)
	assert.Equal(t, domain.Severity(7), doc.SymptomEntries[2].Severity)

	assert.Equal(t, base, doc.UserProfiles[0].CreatedAt)
	assert.Equal(t, base, doc.UserProfiles[0].UpdatedAt)
	assert.Empty(t, doc.Version)
}

func TestDecode_DuplicateIDs(t *testing.T) {
	t.Parallel()

	body := `{"userProfiles": [{"id": "p1", "name": "A"}, {"id": "p1", "name": "B"}], "foodEntries": [], "symptomEntries": []}`
	_, err := Decode([]byte(body), base)
	assert.ErrorIs(t, err, domain.ErrInvalidRecordShape)
	assert.Contains(t, err.Error(), "duplicate id p1")
}

// ---------------------------------------------------------------------------
// Version and dangling references
// ---------------------------------------------------------------------------

func TestImport_OlderVersionWarns(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	body := `{"foodEntries": [], "symptomEntries": [], "userProfiles": [{"id": "p1", "name": "Mia"}], "version": "0.9"}`

	report, err := e.svc.Import(context.Background(), strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, "0.9", report.Version)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "0.9")

	profiles, err := e.profiles.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestImport_PrunesDanglingReferences(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	doc := map[string]any{
		"version":      "1.0",
		"userProfiles": []any{map[string]any{"id": "p1", "name": "Mia"}},
		"foodEntries": []any{map[string]any{
			"id": "f1", "timestamp": "2024-01-01T08:00:00Z", "foodItems": "egg", "profileIds": []string{"p1", "ghost"},
		}},
		"symptomEntries": []any{
			map[string]any{
				"id": "s1", "loggedAt": "2024-01-01T09:00:00Z", "symptom": "itch", "category": "skin",
				"severity": 3, "startTime": "2024-01-01T09:00:00Z", "duration": "1h", "profileId": "p1",
			},
			map[string]any{
				"id": "s2", "loggedAt": "2024-01-01T09:00:00Z", "symptom": "cough", "category": "respiratory",
				"severity": 5, "startTime": "2024-01-01T09:00:00Z", "duration": "1h", "profileId": "ghost",
			},
		},
	}
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	report, err := e.svc.Import(context.Background(), bytes.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, 1, report.SymptomEntries)
	assert.Len(t, report.Warnings, 2)

	foods, err := e.foods.List(context.Background())
	require.NoError(t, err)
	require.Len(t, foods, 1)
	assert.Equal(t, []string{"p1"}, foods[0].ProfileIDs)

	settings, err := e.state.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.AppSettings{}, settings)
}
