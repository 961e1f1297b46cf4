// Command analyze runs a trigger analysis over the diary and prints the
// report as JSON.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/app"
	"github.com/heartmarshall/allergycare-backend/internal/service/analysis"
	"github.com/heartmarshall/allergycare-backend/pkg/ctxutil"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: $CONFIG_PATH or ./config.yaml)")
	profile := flag.String("profile", "", "only this profile id")
	from := flag.String("from", "", "first day, YYYY-MM-DD")
	to := flag.String("to", "", "last day, YYYY-MM-DD")
	minSeverity := flag.Int("min-severity", 0, "ignore symptoms below this severity (1-10)")
	categories := flag.String("categories", "", "comma-separated symptom categories")
	wait := flag.Bool("wait", false, "wait for the advisory narrative")
	timeout := flag.Duration("timeout", time.Minute, "overall time limit")
	flag.Parse()

	ctx, cancel := context.WithTimeout(ctxutil.WithSource(context.Background(), ctxutil.SourceCLI), *timeout)
	defer cancel()

	rt, err := app.Bootstrap(ctx, *configPath)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	input := analysis.TriggerAnalysisInput{From: *from, To: *to, Wait: *wait}
	if *profile != "" {
		input.ProfileID = profile
	}
	if *minSeverity != 0 {
		input.MinSeverity = minSeverity
	}
	if *categories != "" {
		input.Categories = strings.Split(*categories, ",")
	}

	report, err := rt.Services.Analysis.AnalyzeTriggers(ctx, input)
	if err == nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	}
	if closeErr := rt.Close(ctx); closeErr != nil {
		rt.Log.Warn("close runtime", slog.String("error", closeErr.Error()))
	}
	if err != nil {
		rt.Log.Error("analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
