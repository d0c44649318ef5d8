package planner

import (
	"strings"

	"github.com/msequeira/fitmesh/pkg/agent"
)

type catalogEntry struct {
	name      string
	group     string
	equipment []string
	sets      int
	reps      string
	rest      int
}

func (e catalogEntry) exercise() agent.Exercise {
	return agent.Exercise{
		Name:        e.name,
		MuscleGroup: e.group,
		Equipment:   e.equipment,
		Sets:        e.sets,
		Reps:        e.reps,
		RestSeconds: e.rest,
	}
}

// catalog is ordered within each group from most to least equipment
// dependent; the last entry per group is always bodyweight so every group
// has a fallback.
var catalog = map[string][]catalogEntry{
	"chest": {
		{"Barbell Bench Press", "chest", []string{"barbell", "bench"}, 4, "6-8", 120},
		{"Dumbbell Press", "chest", []string{"dumbbells", "bench"}, 3, "8-12", 90},
		{"Resistance Band Chest Press", "chest", []string{"resistance bands"}, 3, "12-15", 60},
		{"Push-Ups", "chest", nil, 3, "15-20", 60},
	},
	"back": {
		{"Barbell Row", "back", []string{"barbell"}, 4, "6-8", 120},
		{"Pull-Ups", "back", []string{"pull-up bar"}, 3, "8-12", 90},
		{"Resistance Band Row", "back", []string{"resistance bands"}, 3, "12-15", 60},
		{"Superman Hold", "back", nil, 3, "30s", 45},
	},
	"legs": {
		{"Barbell Squat", "legs", []string{"barbell"}, 4, "6-8", 150},
		{"Dumbbell Goblet Squat", "legs", []string{"dumbbells"}, 3, "10-12", 90},
		{"Kettlebell Swing", "legs", []string{"kettlebell"}, 3, "15-20", 60},
		{"Bodyweight Squat", "legs", nil, 3, "20-25", 60},
	},
	"shoulders": {
		{"Barbell Overhead Press", "shoulders", []string{"barbell"}, 4, "6-8", 120},
		{"Dumbbell Shoulder Press", "shoulders", []string{"dumbbells"}, 3, "8-12", 90},
		{"Resistance Band Lateral Raise", "shoulders", []string{"resistance bands"}, 3, "12-15", 60},
		{"Pike Push-Ups", "shoulders", nil, 3, "10-15", 60},
	},
	"arms": {
		{"Dumbbell Curl", "arms", []string{"dumbbells"}, 3, "10-12", 60},
		{"Resistance Band Curl", "arms", []string{"resistance bands"}, 3, "12-15", 45},
		{"Diamond Push-Ups", "arms", nil, 3, "10-15", 60},
	},
	"core": {
		{"Hanging Leg Raise", "core", []string{"pull-up bar"}, 3, "10-15", 60},
		{"Plank", "core", []string{"yoga mat"}, 3, "45s", 45},
		{"Crunches", "core", nil, 3, "20-25", 45},
	},
	"glutes": {
		{"Barbell Hip Thrust", "glutes", []string{"barbell", "bench"}, 4, "8-10", 90},
		{"Dumbbell Romanian Deadlift", "glutes", []string{"dumbbells"}, 3, "10-12", 90},
		{"Glute Bridge", "glutes", nil, 3, "15-20", 45},
	},
}

var groupOrder = []string{"chest", "back", "legs", "shoulders", "core", "arms", "glutes"}

func allMuscleGroups() []string {
	return append([]string(nil), groupOrder...)
}

// pickExercise returns the first catalog entry for the group that fits the
// allowed equipment and is not already in the plan. Empty allowed means no
// equipment restriction.
func pickExercise(group string, allowed []string, chosen []agent.Exercise) (catalogEntry, bool) {
	entries, ok := catalog[strings.ToLower(group)]
	if !ok {
		return catalogEntry{}, false
	}
	for _, entry := range entries {
		if hasExercise(chosen, entry.name) {
			continue
		}
		if len(allowed) == 0 || equipmentFits(entry.equipment, allowed) {
			return entry, true
		}
	}
	return catalogEntry{}, false
}

func hasExercise(chosen []agent.Exercise, name string) bool {
	for _, ex := range chosen {
		if ex.Name == name {
			return true
		}
	}
	return false
}

func equipmentFits(required, allowed []string) bool {
	for _, item := range required {
		found := false
		for _, have := range allowed {
			if strings.EqualFold(item, have) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
