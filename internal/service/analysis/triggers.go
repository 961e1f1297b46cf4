package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
	"github.com/heartmarshall/allergycare-backend/internal/service/analysis/trigger"
)

// Report is the result of one trigger analysis run.
type Report struct {
	GeneratedAt time.Time                 `json:"generatedAt"`
	Triggers    []domain.TriggerCandidate `json:"triggers"`
	Summary     trigger.Summary           `json:"summary"`
	Advisory    *Task                     `json:"advisory,omitempty"`
}

// AnalyzeTriggers ranks candidate foods for the filtered entries. When both
// filtered sets are non-empty an advisory task is started; its outcome never
// changes the ranking.
func (s *Service) AnalyzeTriggers(ctx context.Context, input TriggerAnalysisInput) (*Report, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	filter, err := input.filter(s.loc)
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}

	allFoods, allSymptoms, _, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	foods, symptoms := trigger.Filter(allFoods, allSymptoms, filter)
	candidates := trigger.Analyze(foods, symptoms)

	report := &Report{
		GeneratedAt: s.now(),
		Triggers:    candidates,
		Summary:     trigger.Summarize(candidates, s.highConf, len(symptoms), len(foods)),
	}

	if len(foods) > 0 && len(symptoms) > 0 {
		foodNames, symptomNames := trigger.Distinct(foods, symptoms)
		task := s.tasks.start(ctx, TaskKindTriggers, func(ctx context.Context) (*domain.Suggestion, error) {
			return s.advisor.SuggestTriggers(ctx, foodNames, symptomNames)
		})
		if input.Wait {
			task, _ = s.tasks.wait(ctx, task.ID)
		}
		report.Advisory = &task
	}

	s.log.InfoContext(ctx, "trigger analysis completed",
		slog.Int("foods", len(foods)),
		slog.Int("symptoms", len(symptoms)),
		slog.Int("candidates", len(candidates)),
	)
	return report, nil
}

// GetTask returns the current state of an advisory task.
func (s *Service) GetTask(_ context.Context, id string) (*Task, error) {
	task, ok := s.tasks.get(id)
	if !ok {
		return nil, fmt.Errorf("get task %s: %w", id, domain.ErrNotFound)
	}
	return &task, nil
}

// WaitTask blocks until the task finishes or ctx ends.
func (s *Service) WaitTask(ctx context.Context, id string) (*Task, error) {
	task, ok := s.tasks.wait(ctx, id)
	if !ok {
		return nil, fmt.Errorf("wait task %s: %w", id, domain.ErrNotFound)
	}
	return &task, nil
}
