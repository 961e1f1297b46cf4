package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// migration upgrades a document written by an older release in place and
// returns warnings for anything it could not carry over.
type migration func(doc *Document) []string

// migrations is keyed by the version a migration upgrades from. Every
// release so far wrote the same layout, so none is registered yet.
var migrations = map[string]migration{}

// Import replaces the whole store with the content of r. Nothing is written
// unless the document decodes, validates and fits in one transaction.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	doc, err := Decode(data, s.now())
	if err != nil {
		s.log.WarnContext(ctx, "backup rejected", slog.String("error", err.Error()))
		return nil, err
	}

	warnings := migrate(doc)
	warnings = append(warnings, pruneDangling(doc)...)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.profiles.ReplaceAll(ctx, doc.UserProfiles); err != nil {
			return fmt.Errorf("replace profiles: %w", err)
		}
		if err := s.foods.ReplaceAll(ctx, doc.FoodEntries); err != nil {
			return fmt.Errorf("replace food entries: %w", err)
		}
		if err := s.symptoms.ReplaceAll(ctx, doc.SymptomEntries); err != nil {
			return fmt.Errorf("replace symptom entries: %w", err)
		}
		if err := s.settings.SaveSettings(ctx, doc.AppSettings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	report := &ImportReport{
		Profiles:       len(doc.UserProfiles),
		FoodEntries:    len(doc.FoodEntries),
		SymptomEntries: len(doc.SymptomEntries),
		Version:        doc.Version,
		Warnings:       warnings,
	}
	if report.Warnings == nil {
		report.Warnings = []string{}
	}

	s.log.InfoContext(ctx, "backup imported",
		slog.Int("profiles", report.Profiles),
		slog.Int("food_entries", report.FoodEntries),
		slog.Int("symptom_entries", report.SymptomEntries),
		slog.String("version", report.Version),
		slog.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// migrate brings doc to CurrentVersion. Unknown or missing versions are
// imported as-is with a warning.
func migrate(doc *Document) []string {
	switch doc.Version {
	case CurrentVersion:
		return nil
	case "":
		return []string{fmt.Sprintf("backup has no version; read as %s", CurrentVersion)}
	}

	warnings := []string{fmt.Sprintf("backup version %s differs from %s", doc.Version, CurrentVersion)}
	if m, ok := migrations[doc.Version]; ok {
		return append(warnings, m(doc)...)
	}
	return append(warnings, "no migration known; records imported as-is")
}

// pruneDangling drops references to profiles missing from the document:
// unknown ids are removed from food entries and orphaned symptoms are
// skipped.
func pruneDangling(doc *Document) []string {
	keep := domain.ProfileIDSet(doc.UserProfiles)
	var warnings []string

	for i := range doc.FoodEntries {
		before := len(doc.FoodEntries[i].ProfileIDs)
		if doc.FoodEntries[i].PruneProfileRefs(keep) {
			warnings = append(warnings, fmt.Sprintf("food entry %s: removed %d unknown profile reference(s)",
				doc.FoodEntries[i].ID, before-len(doc.FoodEntries[i].ProfileIDs)))
		}
	}

	kept := doc.SymptomEntries[:0]
	for _, e := range doc.SymptomEntries {
		if _, ok := keep[e.ProfileID]; !ok {
			warnings = append(warnings, fmt.Sprintf("symptom entry %s: skipped, unknown profile %s", e.ID, e.ProfileID))
			continue
		}
		kept = append(kept, e)
	}
	doc.SymptomEntries = kept

	return warnings
}
