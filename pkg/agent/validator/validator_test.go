package validator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/msequeira/fitmesh/pkg/agent"
	"github.com/msequeira/fitmesh/pkg/inventory"
	"github.com/msequeira/fitmesh/pkg/store"
)

func testValidator(t *testing.T, defaultLocation string) *Validator {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	inv, err := inventory.New(db.DB())
	if err != nil {
		t.Fatalf("initializing inventory: %v", err)
	}
	return New(inv, defaultLocation)
}

func runValidator(t *testing.T, req agent.Request) *agent.Analysis {
	t.Helper()
	v := testValidator(t, "")
	events, err := v.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var result *agent.Result
	for ev := range events {
		if ev.Type == agent.EventError {
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
		if ev.Type == agent.EventResult {
			result = ev.Result
		}
	}
	if result == nil {
		t.Fatal("no result event")
	}

	raw, ok := result.Data["analysis"]
	if !ok {
		t.Fatal("result data carries no analysis")
	}
	analysis, err := agent.DecodeAnalysis(raw)
	if err != nil {
		t.Fatalf("DecodeAnalysis: %v", err)
	}
	return analysis
}

func workoutData(title string, duration int, equipment []string) map[string]any {
	return map[string]any{
		"workout": map[string]any{
			"title":             title,
			"estimatedDuration": duration,
			"requiredEquipment": equipment,
		},
		"location": "gym",
	}
}

func TestValidatorAcceptsFeasiblePlan(t *testing.T) {
	// 15 minutes fits every mock schedule and the gym has everything.
	analysis := runValidator(t, agent.Request{
		Data: workoutData("Quick Gym Session", 15, []string{"barbell", "bench"}),
	})

	if analysis.HasConflicts {
		t.Fatalf("HasConflicts = true, conflicts: %+v", analysis.Conflicts)
	}
	if analysis.Recommendation == "" {
		t.Error("empty recommendation")
	}
}

func TestValidatorFlagsTimeConflict(t *testing.T) {
	// 400 minutes exceeds the longest free window in any mock schedule.
	analysis := runValidator(t, agent.Request{
		Data: workoutData("Marathon Session", 400, nil),
	})

	if !analysis.HasConflicts {
		t.Fatal("HasConflicts = false, want a time conflict")
	}
	found := false
	for _, conflict := range analysis.Conflicts {
		if conflict.Type == agent.ConflictTime {
			found = true
			if conflict.Suggestion == "" {
				t.Error("time conflict has no suggestion")
			}
		}
	}
	if !found {
		t.Errorf("no time conflict in %+v", analysis.Conflicts)
	}
}

func TestValidatorFlagsEquipmentConflict(t *testing.T) {
	data := workoutData("Barbell Day", 15, []string{"barbell", "squat rack"})
	data["location"] = "office"
	analysis := runValidator(t, agent.Request{Data: data})

	if !analysis.HasConflicts {
		t.Fatal("HasConflicts = false, want an equipment conflict")
	}
	found := false
	for _, conflict := range analysis.Conflicts {
		if conflict.Type == agent.ConflictEquipment {
			found = true
		}
	}
	if !found {
		t.Errorf("no equipment conflict in %+v", analysis.Conflicts)
	}
}

func TestValidatorReportsBothConflicts(t *testing.T) {
	data := workoutData("Impossible Session", 400, []string{"barbell"})
	data["location"] = "office"
	analysis := runValidator(t, agent.Request{Data: data})

	if len(analysis.Conflicts) != 2 {
		t.Fatalf("conflicts = %d, want 2: %+v", len(analysis.Conflicts), analysis.Conflicts)
	}
}

func TestValidatorCollectsEquipmentFromExercises(t *testing.T) {
	data := map[string]any{
		"workout": map[string]any{
			"title":             "Mixed",
			"estimatedDuration": 15,
			"exercises": []any{
				map[string]any{"name": "Squat", "equipment": []any{"barbell"}},
				map[string]any{"name": "Curl", "equipment": []any{"dumbbells"}},
			},
		},
		"location": "park",
	}
	analysis := runValidator(t, agent.Request{Data: data})

	if !analysis.HasConflicts {
		t.Fatal("HasConflicts = false, want an equipment conflict at the park")
	}
}

func TestValidatorUsesConfiguredDefaultLocation(t *testing.T) {
	v := testValidator(t, "gym")

	// The request names no location, so the configured default applies and
	// the barbell is found at the gym instead of the home fallback.
	events, err := v.Execute(context.Background(), agent.Request{
		Goal:        "barbell work",
		Constraints: agent.Constraints{Duration: 15, Equipment: []string{"barbell"}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var result *agent.Result
	for ev := range events {
		if ev.Type == agent.EventError {
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
		if ev.Type == agent.EventResult {
			result = ev.Result
		}
	}
	if result == nil {
		t.Fatal("no result event")
	}
	analysis, err := agent.DecodeAnalysis(result.Data["analysis"])
	if err != nil {
		t.Fatalf("DecodeAnalysis: %v", err)
	}
	for _, conflict := range analysis.Conflicts {
		if conflict.Type == agent.ConflictEquipment {
			t.Errorf("unexpected equipment conflict at the default location: %+v", conflict)
		}
	}
}

func TestValidatorFallsBackToConstraints(t *testing.T) {
	analysis := runValidator(t, agent.Request{
		Goal: "quick bodyweight workout",
		Constraints: agent.Constraints{
			Duration: 15,
		},
	})

	for _, conflict := range analysis.Conflicts {
		if conflict.Type == agent.ConflictEquipment {
			t.Errorf("unexpected equipment conflict: %+v", conflict)
		}
	}
}
