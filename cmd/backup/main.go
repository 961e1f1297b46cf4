// Command backup exports the record store to a JSON document or restores
// it from one.
//
//	backup export [-out file]   write the backup to file (default stdout)
//	backup import -in file      replace the store with the file content
//
// Exit codes: 0 = success, 1 = error, 2 = usage.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/app"
	"github.com/heartmarshall/allergycare-backend/internal/service/backup"
	"github.com/heartmarshall/allergycare-backend/pkg/ctxutil"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.yaml (default: $CONFIG_PATH or ./config.yaml)")
	out := fs.String("out", "", "export: output file (default stdout)")
	in := fs.String("in", "", "import: backup file to restore")
	timeout := fs.Duration("timeout", 5*time.Minute, "overall time limit")
	fs.Parse(os.Args[2:]) //nolint:errcheck

	ctx, cancel := context.WithTimeout(ctxutil.WithSource(context.Background(), ctxutil.SourceCLI), *timeout)
	defer cancel()

	var run func(context.Context, *app.Runtime) error
	switch cmd {
	case "export":
		run = func(ctx context.Context, rt *app.Runtime) error { return export(ctx, rt, *out) }
	case "import":
		if *in == "" {
			fmt.Fprintln(os.Stderr, "import requires -in")
			os.Exit(2)
		}
		run = func(ctx context.Context, rt *app.Runtime) error { return restore(ctx, rt, *in) }
	default:
		usage()
	}

	rt, err := app.Bootstrap(ctx, *configPath)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	err = run(ctx, rt)
	if closeErr := rt.Close(ctx); closeErr != nil {
		rt.Log.Warn("close runtime", slog.String("error", closeErr.Error()))
	}
	if err != nil {
		rt.Log.Error(cmd+" failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func export(ctx context.Context, rt *app.Runtime, path string) error {
	doc, err := rt.Services.Backup.Export(ctx)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	if err := backup.WriteTo(w, doc); err != nil {
		return err
	}

	rt.Log.Info("export completed",
		slog.Int("profiles", len(doc.UserProfiles)),
		slog.Int("food_entries", len(doc.FoodEntries)),
		slog.Int("symptom_entries", len(doc.SymptomEntries)),
	)
	return nil
}

func restore(ctx context.Context, rt *app.Runtime, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	report, err := rt.Services.Backup.Import(ctx, f)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: backup export [-out file] | backup import -in file")
	os.Exit(2)
}
