// Package coach is the coordinator capability: it asks the planner for a
// workout, has the validator check it against real-world constraints, and
// requests at most one compromise plan when conflicts come back.
package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/msequeira/fitmesh/pkg/a2a"
	"github.com/msequeira/fitmesh/pkg/agent"
	"github.com/msequeira/fitmesh/pkg/audit"
	"github.com/msequeira/fitmesh/pkg/telemetry"
)

// PeerClient is the slice of the A2A client the coordinator needs.
type PeerClient interface {
	Peer() string
	Send(ctx context.Context, msg a2a.Message) (*a2a.TaskResult, error)
}

type Coordinator struct {
	planner   PeerClient
	validator PeerClient
	audit     *audit.Logger
}

type Option func(*Coordinator)

// WithAudit records plan request, validation and refinement events.
func WithAudit(log *audit.Logger) Option {
	return func(c *Coordinator) { c.audit = log }
}

func New(planner, validator PeerClient, opts ...Option) *Coordinator {
	c := &Coordinator{planner: planner, validator: validator}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Name() string { return "coach" }

func (c *Coordinator) Execute(ctx context.Context, req agent.Request) (<-chan agent.Event, error) {
	events := make(chan agent.Event)
	go func() {
		defer close(events)

		emit := func(ev agent.Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		result, err := c.orchestrate(ctx, req, emit)
		if err != nil {
			emit(agent.Event{Type: agent.EventError, Err: err})
			return
		}
		emit(agent.Event{Type: agent.EventResult, Result: result})
	}()
	return events, nil
}

// orchestrate runs the fixed plan/validate/refine sequence. The planner is
// called once, or exactly twice when the validator reports conflicts; the
// refined plan is not re-validated.
func (c *Coordinator) orchestrate(ctx context.Context, req agent.Request, emit func(agent.Event) bool) (*agent.Result, error) {
	log := telemetry.FromContext(ctx)
	date, location := extractSchedule(req)

	if !emit(agent.Event{Type: agent.EventStatus, Message: "Requesting workout plan"}) {
		return nil, ctx.Err()
	}
	c.auditEvent(ctx, audit.EventPlanRequest, map[string]any{"goal": req.Goal})
	plan, err := c.requestPlan(ctx, req, nil, "")
	if err != nil {
		return nil, fmt.Errorf("planner %s: %w", c.planner.Peer(), err)
	}

	if !emit(agent.Event{Type: agent.EventStatus, Message: "Validating plan against schedule and equipment"}) {
		return nil, ctx.Err()
	}
	analysis, err := c.validatePlan(ctx, plan, date, location)
	if err != nil {
		return nil, fmt.Errorf("validator %s: %w", c.validator.Peer(), err)
	}
	c.auditEvent(ctx, audit.EventPlanValidate, map[string]any{
		"title":     plan.Title,
		"conflicts": len(analysis.Conflicts),
	})

	if !analysis.HasConflicts {
		log.Info("plan accepted", "title", plan.Title)
		return &agent.Result{
			Text: fmt.Sprintf("%s. %s", summarize(plan), analysis.Recommendation),
			Data: map[string]any{"workout": plan, "analysis": analysis},
		}, nil
	}

	if !emit(agent.Event{Type: agent.EventStatus, Message: "Conflicts found, requesting adjusted plan"}) {
		return nil, ctx.Err()
	}
	telemetry.Metrics.OrchestrationRefinements.Inc()
	log.Info("requesting compromise plan",
		"title", plan.Title, "conflicts", len(analysis.Conflicts))
	c.auditEvent(ctx, audit.EventPlanRefine, map[string]any{
		"conflicts":      len(analysis.Conflicts),
		"recommendation": analysis.Recommendation,
	})

	refined, err := c.requestPlan(ctx, req, analysis.Conflicts, analysis.Recommendation)
	if err != nil {
		return nil, fmt.Errorf("planner %s: %w", c.planner.Peer(), err)
	}

	return &agent.Result{
		Text: fmt.Sprintf("Original plan had %d conflict(s); adjusted plan: %s",
			len(analysis.Conflicts), summarize(refined)),
		Data: map[string]any{
			"workout":      refined,
			"analysis":     analysis,
			"isCompromise": true,
		},
	}, nil
}

// requestPlan calls the planner. A non-nil conflicts list turns the call
// into a compromise request carrying the validator's findings as context.
func (c *Coordinator) requestPlan(ctx context.Context, req agent.Request, conflicts []agent.Conflict, recommendation string) (*agent.WorkoutPlan, error) {
	isCompromise := conflicts != nil
	constraints := req.Constraints
	if isCompromise && (constraints.Duration == 0 || constraints.Duration > 30) {
		constraints.Duration = 30
	}

	var text strings.Builder
	if isCompromise {
		fmt.Fprintf(&text, "Create a MODIFIED workout for: %s\n\nThe original workout had conflicts:\n", req.Goal)
		for _, conflict := range conflicts {
			fmt.Fprintf(&text, "- %s: %s\n", conflict.Type, conflict.Message)
		}
		fmt.Fprintf(&text, "\nValidator recommendation: %s\n", recommendation)
		text.WriteString("Please prioritize intensity over duration.")
	} else {
		fmt.Fprintf(&text, "Create a workout plan: %s", req.Goal)
		if constraints.Duration > 0 {
			fmt.Fprintf(&text, " (%d minutes)", constraints.Duration)
		}
		if len(constraints.Equipment) > 0 {
			fmt.Fprintf(&text, " using %s", strings.Join(constraints.Equipment, ", "))
		}
		if len(constraints.MuscleGroups) > 0 {
			fmt.Fprintf(&text, " targeting %s", strings.Join(constraints.MuscleGroups, ", "))
		}
	}

	msg := a2a.UserMessage(
		a2a.TextPart(text.String()),
		a2a.DataPart(map[string]any{
			"goal": req.Goal,
			"constraints": map[string]any{
				"duration":     constraints.Duration,
				"equipment":    constraints.Equipment,
				"muscleGroups": constraints.MuscleGroups,
			},
			"isCompromise": isCompromise,
		}),
	)

	res, err := c.planner.Send(ctx, msg)
	if err != nil {
		return nil, err
	}
	raw, ok := dataField(res.Result, "workout")
	if !ok {
		return nil, fmt.Errorf("response carried no workout plan")
	}
	return agent.DecodeWorkout(raw)
}

func (c *Coordinator) validatePlan(ctx context.Context, plan *agent.WorkoutPlan, date, location string) (*agent.Analysis, error) {
	text := fmt.Sprintf("Validate this workout: %s (%d min)", plan.Title, plan.EstimatedDuration)
	if len(plan.RequiredEquipment) > 0 {
		text += fmt.Sprintf(". Equipment needed: %s", strings.Join(plan.RequiredEquipment, ", "))
	}

	msg := a2a.UserMessage(
		a2a.TextPart(text),
		a2a.DataPart(map[string]any{
			"workout":  plan,
			"date":     date,
			"location": location,
		}),
	)

	res, err := c.validator.Send(ctx, msg)
	if err != nil {
		return nil, err
	}
	raw, ok := dataField(res.Result, "analysis")
	if !ok {
		return nil, fmt.Errorf("response carried no analysis")
	}
	return agent.DecodeAnalysis(raw)
}

func (c *Coordinator) auditEvent(ctx context.Context, eventType string, detail any) {
	if c.audit == nil {
		return
	}
	_ = c.audit.Log(ctx, eventType, agent.TaskIDFromContext(ctx), "coach", "orchestrator", detail)
}

func extractSchedule(req agent.Request) (date, location string) {
	location = "home"
	if req.Data == nil {
		return
	}
	if s, ok := req.Data["date"].(string); ok {
		date = s
	}
	if s, ok := req.Data["location"].(string); ok && s != "" {
		location = s
	}
	return
}

// dataField finds key in the first data part of a result message.
func dataField(msg *a2a.Message, key string) (any, bool) {
	if msg == nil {
		return nil, false
	}
	for _, part := range msg.Parts {
		if part.Type == "data" && part.Data != nil {
			if v, ok := part.Data[key]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func summarize(plan *agent.WorkoutPlan) string {
	return fmt.Sprintf("%s (%d min, %d exercises)",
		plan.Title, plan.EstimatedDuration, len(plan.Exercises))
}
