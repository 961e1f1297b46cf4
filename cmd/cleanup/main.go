// Command cleanup removes references to deleted profiles: unknown profile
// ids are dropped from food entries and orphaned symptoms are deleted. It
// is safe to run repeatedly, e.g. from cron.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/app"
	"github.com/heartmarshall/allergycare-backend/pkg/ctxutil"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: $CONFIG_PATH or ./config.yaml)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall time limit")
	flag.Parse()

	ctx, cancel := context.WithTimeout(ctxutil.WithSource(context.Background(), ctxutil.SourceCLI), *timeout)
	defer cancel()

	rt, err := app.Bootstrap(ctx, *configPath)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	res, err := rt.Services.Profile.Cleanup(ctx)
	if closeErr := rt.Close(ctx); closeErr != nil {
		rt.Log.Warn("close runtime", slog.String("error", closeErr.Error()))
	}
	if err != nil {
		rt.Log.Error("cleanup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rt.Log.Info("cleanup completed",
		slog.Int("food_refs_removed", res.FoodRefsRemoved),
		slog.Int("symptoms_removed", res.SymptomsRemoved),
	)
}
