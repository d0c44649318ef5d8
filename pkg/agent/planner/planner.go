// Package planner is the biomechanics capability: it turns a fitness goal
// and constraints into a structured workout plan drawn from a fixed
// exercise catalog. Selection is deterministic so the same request always
// produces the same plan.
package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/msequeira/fitmesh/pkg/agent"
	"github.com/msequeira/fitmesh/pkg/telemetry"
)

const (
	defaultDuration    = 45
	compromiseDuration = 30

	// Per-set cost estimate used to budget exercises into the duration.
	workSecondsPerSet = 45
)

type Planner struct{}

func New() *Planner { return &Planner{} }

func (p *Planner) Name() string { return "biolab" }

func (p *Planner) Execute(ctx context.Context, req agent.Request) (<-chan agent.Event, error) {
	events := make(chan agent.Event)
	go func() {
		defer close(events)
		log := telemetry.FromContext(ctx)

		emit := func(ev agent.Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(agent.Event{Type: agent.EventStatus, Message: "Analyzing fitness goal"}) {
			return
		}

		plan := p.buildPlan(req)
		log.Info("workout plan built",
			"goal", req.Goal,
			"exercises", len(plan.Exercises),
			"duration", plan.EstimatedDuration,
			"compromise", plan.IsCompromise)

		for _, ex := range plan.Exercises {
			chunk := fmt.Sprintf("%d. %s: %d sets x %s, rest %ds\n",
				ex.Number, ex.Name, ex.Sets, ex.Reps, ex.RestSeconds)
			if !emit(agent.Event{Type: agent.EventChunk, Chunk: chunk}) {
				return
			}
		}

		emit(agent.Event{Type: agent.EventResult, Result: &agent.Result{
			Text: summarize(plan),
			Data: map[string]any{"workout": plan},
		}})
	}()
	return events, nil
}

func (p *Planner) buildPlan(req agent.Request) *agent.WorkoutPlan {
	duration := req.Constraints.Duration
	if duration <= 0 {
		duration = defaultDuration
	}
	if req.Compromise && duration > compromiseDuration {
		duration = compromiseDuration
	}

	groups := req.Constraints.MuscleGroups
	if len(groups) == 0 || contains(groups, "full body") {
		groups = allMuscleGroups()
	}

	plan := &agent.WorkoutPlan{
		Title:        planTitle(req),
		Goal:         req.Goal,
		IsCompromise: req.Compromise,
	}

	budget := duration * 60
	spent := 0
	equipmentSet := map[string]bool{}

	for len(plan.Exercises) < 8 {
		added := false
		for _, group := range groups {
			entry, ok := pickExercise(group, req.Constraints.Equipment, plan.Exercises)
			if !ok {
				continue
			}
			ex := entry.exercise()
			if req.Compromise {
				// Intensity over duration: tighter rest, same working sets.
				ex.RestSeconds = entry.rest / 2
				ex.Notes = "Keep rest short to preserve training stimulus."
			}
			cost := ex.Sets * (workSecondsPerSet + ex.RestSeconds)
			if spent+cost > budget && len(plan.Exercises) > 0 {
				continue
			}
			spent += cost
			ex.Number = len(plan.Exercises) + 1
			plan.Exercises = append(plan.Exercises, ex)
			for _, item := range ex.Equipment {
				equipmentSet[item] = true
			}
			added = true
			if len(plan.Exercises) >= 8 {
				break
			}
		}
		if !added {
			break
		}
	}

	plan.EstimatedDuration = (spent + 59) / 60
	if plan.EstimatedDuration > duration {
		plan.EstimatedDuration = duration
	}
	plan.RequiredEquipment = sortedKeys(equipmentSet)
	if req.Compromise {
		plan.Notes = "Compromise plan: prioritizes intensity over duration within the available window."
	}
	return plan
}

func planTitle(req agent.Request) string {
	goal := strings.TrimSpace(req.Goal)
	if goal == "" {
		goal = "General fitness"
	}
	kind := "Workout"
	if req.Compromise {
		kind = "Adjusted Workout"
	}
	return fmt.Sprintf("%s: %s", kind, goal)
}

func summarize(plan *agent.WorkoutPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d min, %d exercises)", plan.Title, plan.EstimatedDuration, len(plan.Exercises))
	if len(plan.RequiredEquipment) > 0 {
		fmt.Fprintf(&b, " using %s", strings.Join(plan.RequiredEquipment, ", "))
	} else {
		b.WriteString(" with bodyweight only")
	}
	if plan.Notes != "" {
		b.WriteString(". " + plan.Notes)
	}
	return b.String()
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
