package inventory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	s, err := New(db)
	if err != nil {
		t.Fatalf("initializing inventory: %v", err)
	}
	return s
}

func TestEquipmentAtGym(t *testing.T) {
	s := testStore(t)
	list, err := s.EquipmentAt(context.Background(), "gym")
	if err != nil {
		t.Fatalf("EquipmentAt: %v", err)
	}
	if list.Location != "gym" {
		t.Errorf("Location = %q, want gym", list.Location)
	}
	if len(list.Available) != 14 {
		t.Errorf("Available = %d items, want 14", len(list.Available))
	}
	if len(list.Missing) != 0 {
		t.Errorf("Missing = %v, want none", list.Missing)
	}
}

func TestEquipmentAtAliases(t *testing.T) {
	s := testStore(t)
	cases := map[string]string{
		"house":          "home",
		"apartment":      "home",
		"Fitness Center": "gym",
		"work":           "office",
		"outdoors":       "park",
		"travel":         "traveling",
	}
	for input, want := range cases {
		list, err := s.EquipmentAt(context.Background(), input)
		if err != nil {
			t.Fatalf("EquipmentAt(%q): %v", input, err)
		}
		if list.Location != want {
			t.Errorf("EquipmentAt(%q).Location = %q, want %q", input, list.Location, want)
		}
	}
}

func TestEquipmentAtUnknownLocation(t *testing.T) {
	s := testStore(t)
	list, err := s.EquipmentAt(context.Background(), "space station")
	if err != nil {
		t.Fatalf("EquipmentAt: %v", err)
	}
	if list.Location != "traveling" {
		t.Errorf("Location = %q, want traveling for unknown locations", list.Location)
	}
	if len(list.Available) != 1 || list.Available[0] != "resistance_bands" {
		t.Errorf("Available = %v, want only resistance_bands", list.Available)
	}
}

func TestCheckWorkoutFeasible(t *testing.T) {
	s := testStore(t)
	f, err := s.CheckWorkout(context.Background(), []string{"barbell", "bench"}, "gym")
	if err != nil {
		t.Fatalf("CheckWorkout: %v", err)
	}
	if !f.Feasible {
		t.Errorf("Feasible = false, missing = %v", f.MissingEquipment)
	}
}

func TestCheckWorkoutMissingEquipment(t *testing.T) {
	s := testStore(t)
	f, err := s.CheckWorkout(context.Background(), []string{"barbell", "yoga mat"}, "office")
	if err != nil {
		t.Fatalf("CheckWorkout: %v", err)
	}
	if f.Feasible {
		t.Fatal("Feasible = true, want false at the office")
	}
	// Spaces normalize to underscores, so the yoga mat is found.
	if len(f.MissingEquipment) != 1 || f.MissingEquipment[0] != "barbell" {
		t.Errorf("MissingEquipment = %v, want [barbell]", f.MissingEquipment)
	}
}

func TestCheckWorkoutNormalizesHyphenatedNames(t *testing.T) {
	s := testStore(t)

	// The park stocks a pullup_bar; the hyphenated spelling must find it.
	f, err := s.CheckWorkout(context.Background(), []string{"pull-up bar"}, "park")
	if err != nil {
		t.Fatalf("CheckWorkout: %v", err)
	}
	if !f.Feasible {
		t.Errorf("Feasible = false for a pull-up bar at the park, missing = %v", f.MissingEquipment)
	}

	f, err = s.CheckWorkout(context.Background(), []string{"kettlebell", "yoga mat"}, "gym")
	if err != nil {
		t.Fatalf("CheckWorkout: %v", err)
	}
	if !f.Feasible {
		t.Errorf("Feasible = false at the gym, missing = %v", f.MissingEquipment)
	}
}

func TestEquipmentKey(t *testing.T) {
	cases := map[string]string{
		"Pull-Up Bar":      "pullup_bar",
		"pullup_bar":       "pullup_bar",
		"yoga mat":         "yoga_mat",
		"resistance bands": "resistance_bands",
		"Kettlebell":       "kettlebell",
	}
	for input, want := range cases {
		if got := equipmentKey(input); got != want {
			t.Errorf("equipmentKey(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestAvailabilityIsStableForDate(t *testing.T) {
	s := testStore(t)
	first, err := s.Availability(context.Background(), "2026-08-24", 45)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	second, err := s.Availability(context.Background(), "2026-08-24", 45)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if first.MaxContinuousMinutes != second.MaxContinuousMinutes {
		t.Errorf("MaxContinuousMinutes differs between calls: %d vs %d",
			first.MaxContinuousMinutes, second.MaxContinuousMinutes)
	}
	if len(first.Slots) != len(second.Slots) {
		t.Errorf("slot count differs between calls")
	}
}

func TestAvailabilityMaxContinuous(t *testing.T) {
	s := testStore(t)
	// Every mock schedule has between 90 and 360 continuous free minutes.
	av, err := s.Availability(context.Background(), "2026-01-15", 60)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if av.MaxContinuousMinutes < 90 || av.MaxContinuousMinutes > 360 {
		t.Errorf("MaxContinuousMinutes = %d, outside the seeded schedule range", av.MaxContinuousMinutes)
	}
	if av.Recommendation == "" {
		t.Error("empty recommendation")
	}
}

func TestSlotMinutes(t *testing.T) {
	cases := []struct {
		start, end string
		want       int
	}{
		{"09:00", "10:00", 60},
		{"15:00", "15:30", 30},
		{"15:00", "21:00", 360},
		{"bad", "10:00", 0},
	}
	for _, tc := range cases {
		if got := slotMinutes(tc.start, tc.end); got != tc.want {
			t.Errorf("slotMinutes(%q, %q) = %d, want %d", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	s := testStore(t)
	if err := s.seed(); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	var count int64
	if err := s.db.Model(&EquipmentItem{}).Where("location = ?", "gym").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 14 {
		t.Errorf("gym equipment rows = %d, want 14 after reseeding", count)
	}
}

func TestRecommendationTiers(t *testing.T) {
	slots := []Slot{{Start: "09:00", End: "10:00", Available: true}}

	if got := recommend(slots, 60, 45); got == "" || got[0] != 'Y' {
		t.Errorf("fits tier = %q, want a slot listing", got)
	}
	if got := recommend(nil, 40, 60); got != "Limited availability. Maximum continuous free time is 40 minutes. Consider a shorter workout." {
		t.Errorf("limited tier = %q", got)
	}
	if got := recommend(nil, 20, 60); got != "Very limited availability. Only 20 minutes free. Consider a quick HIIT session or reschedule." {
		t.Errorf("very limited tier = %q", got)
	}
	if got := recommend(nil, 5, 60); got != "No significant free time available today. Consider rescheduling the workout." {
		t.Errorf("none tier = %q", got)
	}
}
