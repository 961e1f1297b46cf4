// Package mcpserver exposes the diary to Model Context Protocol clients.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
	"github.com/heartmarshall/allergycare-backend/internal/service/analysis"
	"github.com/heartmarshall/allergycare-backend/internal/service/backup"
	"github.com/heartmarshall/allergycare-backend/internal/service/diary"
)

// ServerName is announced to MCP clients.
const ServerName = "allergycare"

type profileService interface {
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
}

type diaryService interface {
	CreateFoodEntry(ctx context.Context, input diary.CreateFoodEntryInput) (*domain.FoodEntry, error)
	CreateSymptomEntry(ctx context.Context, input diary.CreateSymptomEntryInput) (*domain.SymptomEntry, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

type analysisService interface {
	AnalyzeTriggers(ctx context.Context, input analysis.TriggerAnalysisInput) (*analysis.Report, error)
}

type backupService interface {
	Export(ctx context.Context) (*backup.Document, error)
}

// Services are the application services the tools call into.
type Services struct {
	Profiles profileService
	Diary    diaryService
	Analysis analysisService
	Backup   backupService
}

// New creates an MCP server with every diary tool registered.
func New(svc Services, version string) *mcp.Server {
	t := &tools{svc: svc}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_profiles",
		Description: "List all household profiles with their ids, names and health details",
	}, t.ListProfiles)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "log_food",
		Description: "Record a meal as a comma-separated list of foods eaten by one or more profiles",
	}, t.LogFood)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "log_symptom",
		Description: "Record a symptom (skin, digestive, respiratory, general) with severity 1-10 for one profile",
	}, t.LogSymptom)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "analyze_triggers",
		Description: "Rank foods that preceded symptoms within 24 hours by confidence, with optional filters",
	}, t.AnalyzeTriggers)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "export_backup",
		Description: "Export the whole diary as a backup JSON document",
	}, t.ExportBackup)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_stats",
		Description: "Totals of profiles, meals and symptoms plus activity of the last seven days",
	}, t.GetStats)

	return srv
}
