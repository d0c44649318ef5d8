// Package validator is the lifesync capability: it checks a proposed
// workout plan against the user's calendar and the equipment on hand at
// their location, and reports conflicts with suggestions instead of
// rejecting the plan outright.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/msequeira/fitmesh/pkg/agent"
	"github.com/msequeira/fitmesh/pkg/inventory"
	"github.com/msequeira/fitmesh/pkg/telemetry"
)

type Validator struct {
	inv *inventory.Store
	// location is checked when the request names none.
	location string
}

func New(inv *inventory.Store, defaultLocation string) *Validator {
	return &Validator{inv: inv, location: defaultLocation}
}

func (v *Validator) Name() string { return "lifesync" }

func (v *Validator) Execute(ctx context.Context, req agent.Request) (<-chan agent.Event, error) {
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

		plan, date, location := v.extractPlan(req)
		if location == "" {
			location = v.location
		}

		if !emit(agent.Event{Type: agent.EventStatus, Message: "Checking calendar availability"}) {
			return
		}
		avail, err := v.inv.Availability(ctx, date, plan.EstimatedDuration)
		if err != nil {
			emit(agent.Event{Type: agent.EventError, Err: fmt.Errorf("calendar lookup: %w", err)})
			return
		}

		if !emit(agent.Event{Type: agent.EventStatus, Message: "Checking equipment inventory"}) {
			return
		}
		required := requiredEquipment(plan)
		feasibility, err := v.inv.CheckWorkout(ctx, required, location)
		if err != nil {
			emit(agent.Event{Type: agent.EventError, Err: fmt.Errorf("equipment lookup: %w", err)})
			return
		}

		analysis := buildAnalysis(plan, avail, feasibility)
		log.Info("plan validated",
			"title", plan.Title,
			"conflicts", len(analysis.Conflicts),
			"location", feasibility.Location)

		emit(agent.Event{Type: agent.EventResult, Result: &agent.Result{
			Text: analysis.Recommendation,
			Data: map[string]any{"analysis": analysis},
		}})
	}()
	return events, nil
}

// extractPlan pulls the workout under validation out of the request's data
// part, falling back to the request constraints when the caller sent only
// free text.
func (v *Validator) extractPlan(req agent.Request) (*agent.WorkoutPlan, string, string) {
	var date, location string
	if req.Data != nil {
		if s, ok := req.Data["date"].(string); ok {
			date = s
		}
		if s, ok := req.Data["location"].(string); ok {
			location = s
		}
		if raw, ok := req.Data["workout"]; ok {
			if plan, err := agent.DecodeWorkout(raw); err == nil {
				if plan.EstimatedDuration <= 0 {
					plan.EstimatedDuration = 60
				}
				return plan, date, location
			}
		}
	}

	duration := req.Constraints.Duration
	if duration <= 0 {
		duration = 60
	}
	return &agent.WorkoutPlan{
		Title:             strings.TrimSpace(req.Goal),
		EstimatedDuration: duration,
		RequiredEquipment: req.Constraints.Equipment,
	}, date, location
}

func requiredEquipment(plan *agent.WorkoutPlan) []string {
	set := map[string]bool{}
	var out []string
	add := func(item string) {
		key := strings.ToLower(item)
		if !set[key] {
			set[key] = true
			out = append(out, item)
		}
	}
	for _, item := range plan.RequiredEquipment {
		add(item)
	}
	for _, ex := range plan.Exercises {
		for _, item := range ex.Equipment {
			add(item)
		}
	}
	return out
}

func buildAnalysis(plan *agent.WorkoutPlan, avail *inventory.Availability, feas *inventory.Feasibility) *agent.Analysis {
	var conflicts []agent.Conflict

	if avail.MaxContinuousMinutes < plan.EstimatedDuration {
		severity := "medium"
		if avail.MaxContinuousMinutes < 30 {
			severity = "high"
		}
		conflicts = append(conflicts, agent.Conflict{
			Type:     agent.ConflictTime,
			Severity: severity,
			Message: fmt.Sprintf("Plan needs %d minutes but the longest free window is %d minutes.",
				plan.EstimatedDuration, avail.MaxContinuousMinutes),
			Suggestion: avail.Recommendation,
		})
	}

	if !feas.Feasible {
		severity := "medium"
		if len(feas.AvailableEquipment) == 0 {
			severity = "high"
		}
		conflicts = append(conflicts, agent.Conflict{
			Type:     agent.ConflictEquipment,
			Severity: severity,
			Message: fmt.Sprintf("Location %q is missing: %s.",
				feas.Location, strings.Join(feas.MissingEquipment, ", ")),
			Suggestion: feas.Recommendation,
		})
	}

	analysis := &agent.Analysis{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
	}
	if !analysis.HasConflicts {
		analysis.Recommendation = fmt.Sprintf(
			"Plan fits the schedule and the equipment at %q. %s",
			feas.Location, avail.Recommendation)
		return analysis
	}

	var hints []string
	if avail.MaxContinuousMinutes < plan.EstimatedDuration {
		hints = append(hints, fmt.Sprintf("shorten the workout to %d minutes or less", avail.MaxContinuousMinutes))
	}
	if !feas.Feasible {
		if len(feas.AvailableEquipment) > 0 {
			hints = append(hints, fmt.Sprintf("use only: %s", strings.Join(feas.AvailableEquipment, ", ")))
		} else {
			hints = append(hints, "switch to bodyweight exercises")
		}
	}
	analysis.Recommendation = "Adjust the plan: " + strings.Join(hints, "; ") + "."
	return analysis
}
