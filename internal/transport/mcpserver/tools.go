package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
	"github.com/heartmarshall/allergycare-backend/internal/service/analysis"
	"github.com/heartmarshall/allergycare-backend/internal/service/diary"
	"github.com/heartmarshall/allergycare-backend/pkg/ctxutil"
)

type tools struct {
	svc Services
	now func() time.Time
}

type LogFoodInput struct {
	FoodItems  string   `json:"foodItems" jsonschema:"Comma-separated foods, e.g. Milk, Bread"`
	ProfileIDs []string `json:"profileIds" jsonschema:"Ids of the profiles who ate the meal"`
}

type LogSymptomInput struct {
	Symptom           string `json:"symptom" jsonschema:"Short description, e.g. Hives"`
	Category          string `json:"category" jsonschema:"One of skin, digestive, respiratory, general"`
	Severity          int    `json:"severity" jsonschema:"Severity from 1 (mild) to 10 (severe)"`
	StartTime         string `json:"startTime,omitempty" jsonschema:"RFC 3339 onset time; defaults to now"`
	Duration          string `json:"duration" jsonschema:"Free text, e.g. 2 hours"`
	ProfileID         string `json:"profileId" jsonschema:"Id of the affected profile"`
	LinkedFoodEntryID string `json:"linkedFoodEntryId,omitempty" jsonschema:"Optional id of the suspected meal"`
}

type AnalyzeTriggersInput struct {
	ProfileID     string   `json:"profileId,omitempty" jsonschema:"Only entries of this profile"`
	From          string   `json:"from,omitempty" jsonschema:"First day, YYYY-MM-DD"`
	To            string   `json:"to,omitempty" jsonschema:"Last day, YYYY-MM-DD"`
	MinSeverity   int      `json:"minSeverity,omitempty" jsonschema:"Ignore symptoms below this severity"`
	Categories    []string `json:"categories,omitempty" jsonschema:"Only these symptom categories"`
	WaitNarrative bool     `json:"waitNarrative,omitempty" jsonschema:"Wait for the language-model narrative"`
}

func (t *tools) ListProfiles(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	profiles, err := t.svc.Profiles.ListProfiles(withSource(ctx))
	if err != nil {
		return toolFailure("list profiles", err), nil, nil
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	return toolJSON(profiles)
}

func (t *tools) LogFood(ctx context.Context, _ *mcp.CallToolRequest, input LogFoodInput) (*mcp.CallToolResult, any, error) {
	entry, err := t.svc.Diary.CreateFoodEntry(withSource(ctx), diary.CreateFoodEntryInput{
		FoodItems:  input.FoodItems,
		ProfileIDs: input.ProfileIDs,
	})
	if err != nil {
		return toolFailure("log food", err), nil, nil
	}
	return toolJSON(entry)
}

func (t *tools) LogSymptom(ctx context.Context, _ *mcp.CallToolRequest, input LogSymptomInput) (*mcp.CallToolResult, any, error) {
	start := t.clock()
	if s := strings.TrimSpace(input.StartTime); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return toolError("Failed to log symptom: startTime must be RFC 3339, e.g. 2026-03-10T14:30:00Z"), nil, nil
		}
		start = parsed
	}

	in := diary.CreateSymptomEntryInput{
		Symptom:   input.Symptom,
		Category:  input.Category,
		Severity:  domain.Severity(input.Severity),
		StartTime: start,
		Duration:  input.Duration,
		ProfileID: input.ProfileID,
	}
	if input.LinkedFoodEntryID != "" {
		in.LinkedFoodEntryID = &input.LinkedFoodEntryID
	}

	entry, err := t.svc.Diary.CreateSymptomEntry(withSource(ctx), in)
	if err != nil {
		return toolFailure("log symptom", err), nil, nil
	}
	return toolJSON(entry)
}

func (t *tools) AnalyzeTriggers(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeTriggersInput) (*mcp.CallToolResult, any, error) {
	in := analysis.TriggerAnalysisInput{
		From:       input.From,
		To:         input.To,
		Categories: input.Categories,
		Wait:       input.WaitNarrative,
	}
	if input.ProfileID != "" {
		in.ProfileID = &input.ProfileID
	}
	if input.MinSeverity != 0 {
		in.MinSeverity = &input.MinSeverity
	}

	report, err := t.svc.Analysis.AnalyzeTriggers(withSource(ctx), in)
	if err != nil {
		return toolFailure("analyze triggers", err), nil, nil
	}
	return toolJSON(report)
}

func (t *tools) ExportBackup(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	doc, err := t.svc.Backup.Export(withSource(ctx))
	if err != nil {
		return toolFailure("export backup", err), nil, nil
	}
	return toolJSON(doc)
}

func (t *tools) GetStats(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	stats, err := t.svc.Diary.Stats(withSource(ctx))
	if err != nil {
		return toolFailure("get stats", err), nil, nil
	}
	return toolJSON(stats)
}

func (t *tools) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now().UTC().Truncate(time.Microsecond)
}

func withSource(ctx context.Context) context.Context {
	return ctxutil.WithSource(ctx, ctxutil.SourceMCP)
}

// toolFailure renders a service error as a tool error the model can act on.
// Validation problems are listed per field.
func toolFailure(op string, err error) *mcp.CallToolResult {
	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		parts := make([]string, 0, len(valErr.Errors))
		for _, fe := range valErr.Errors {
			parts = append(parts, fe.Field+": "+fe.Message)
		}
		return toolError("Failed to %s: %s", op, strings.Join(parts, "; "))
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return toolError("Failed to %s: %v", op, domain.ErrStoreUnavailable)
	}
	return toolError("Failed to %s: %v", op, err)
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
