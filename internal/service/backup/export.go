package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Export snapshots the four collections. They are read in parallel.
func (s *Service) Export(ctx context.Context) (*Document, error) {
	doc := &Document{Version: CurrentVersion}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		doc.UserProfiles, err = s.profiles.List(gctx)
		return wrap("list profiles", err)
	})
	g.Go(func() (err error) {
		doc.FoodEntries, err = s.foods.List(gctx)
		return wrap("list food entries", err)
	})
	g.Go(func() (err error) {
		doc.SymptomEntries, err = s.symptoms.List(gctx)
		return wrap("list symptom entries", err)
	})
	g.Go(func() (err error) {
		doc.AppSettings, err = s.settings.GetSettings(gctx)
		return wrap("get settings", err)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	doc.ExportDate = s.now()
	s.log.InfoContext(ctx, "backup exported",
		slog.Int("profiles", len(doc.UserProfiles)),
		slog.Int("food_entries", len(doc.FoodEntries)),
		slog.Int("symptom_entries", len(doc.SymptomEntries)),
	)
	return doc, nil
}

// WriteTo writes doc as indented JSON.
func WriteTo(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
