// Package inventory is the mock logistics backend: per-location equipment
// stock and daily calendar schedules, persisted in SQLite and queried by
// the validator capability.
package inventory

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

type EquipmentItem struct {
	ID        uint   `gorm:"primaryKey"`
	Location  string `gorm:"column:location;not null;index:idx_equipment_location"`
	Name      string `gorm:"column:name;not null"`
	Available bool   `gorm:"column:available;not null"`
}

func (EquipmentItem) TableName() string { return "equipment" }

type CalendarSlot struct {
	ID             uint   `gorm:"primaryKey"`
	Schedule       string `gorm:"column:schedule;not null;index:idx_slot_schedule"`
	Start          string `gorm:"column:start_time;not null"`
	End            string `gorm:"column:end_time;not null"`
	Available      bool   `gorm:"column:available;not null"`
	ConflictReason string `gorm:"column:conflict_reason;not null;default:''"`
}

func (CalendarSlot) TableName() string { return "calendar_slots" }

type Store struct {
	db *gorm.DB
}

// New prepares the inventory tables on an open database and seeds the mock
// data on first use.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&EquipmentItem{}, &CalendarSlot{}); err != nil {
		return nil, fmt.Errorf("inventory: running migrations: %w", err)
	}
	s := &Store{db: db}
	if err := s.seed(); err != nil {
		return nil, err
	}
	return s, nil
}

type Slot struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	Available      bool   `json:"available"`
	ConflictReason string `json:"conflictReason,omitempty"`
}

type Availability struct {
	Date                 string `json:"date"`
	Slots                []Slot `json:"slots"`
	MaxContinuousMinutes int    `json:"maxContinuousMinutes"`
	Recommendation       string `json:"recommendation"`
}

type EquipmentList struct {
	Location  string   `json:"location"`
	Available []string `json:"available"`
	Missing   []string `json:"missing"`
}

type Feasibility struct {
	Feasible           bool     `json:"feasible"`
	Location           string   `json:"location"`
	AvailableEquipment []string `json:"availableEquipment"`
	MissingEquipment   []string `json:"missingEquipment"`
	Recommendation     string   `json:"recommendation"`
}

var scheduleNames = []string{"busy_day", "moderate_day", "light_day"}

// Availability returns the free slots for the given date and how they
// measure against the requested duration. The schedule is picked by a
// stable hash of the date so repeated queries for one day agree.
func (s *Store) Availability(ctx context.Context, date string, durationMinutes int) (*Availability, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if durationMinutes <= 0 {
		durationMinutes = 60
	}

	h := fnv.New32a()
	h.Write([]byte(date))
	schedule := scheduleNames[int(h.Sum32())%len(scheduleNames)]

	var rows []CalendarSlot
	err := s.db.WithContext(ctx).
		Where("schedule = ?", schedule).
		Order("start_time").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("inventory: loading schedule %q: %w", schedule, err)
	}

	slots := make([]Slot, 0, len(rows))
	maxContinuous, current := 0, 0
	for _, row := range rows {
		slots = append(slots, Slot{
			Start:          row.Start,
			End:            row.End,
			Available:      row.Available,
			ConflictReason: row.ConflictReason,
		})
		if row.Available {
			current += slotMinutes(row.Start, row.End)
			if current > maxContinuous {
				maxContinuous = current
			}
		} else {
			current = 0
		}
	}

	return &Availability{
		Date:                 date,
		Slots:                slots,
		MaxContinuousMinutes: maxContinuous,
		Recommendation:       recommend(slots, maxContinuous, durationMinutes),
	}, nil
}

func recommend(slots []Slot, maxContinuous, duration int) string {
	switch {
	case maxContinuous >= duration:
		var suitable []string
		for _, slot := range slots {
			if slot.Available && slotMinutes(slot.Start, slot.End) >= duration {
				suitable = append(suitable, slot.Start+"-"+slot.End)
			}
		}
		return fmt.Sprintf("You have %d time slot(s) available for a %d-minute workout: %s",
			len(suitable), duration, strings.Join(suitable, ", "))
	case maxContinuous >= 30:
		return fmt.Sprintf("Limited availability. Maximum continuous free time is %d minutes. Consider a shorter workout.", maxContinuous)
	case maxContinuous >= 15:
		return fmt.Sprintf("Very limited availability. Only %d minutes free. Consider a quick HIIT session or reschedule.", maxContinuous)
	default:
		return "No significant free time available today. Consider rescheduling the workout."
	}
}

func slotMinutes(start, end string) int {
	s, err1 := time.Parse("15:04", start)
	e, err2 := time.Parse("15:04", end)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(e.Sub(s).Minutes())
}

var locationAliases = map[string]string{
	"house":          "home",
	"apartment":      "home",
	"fitness center": "gym",
	"fitness_center": "gym",
	"work":           "office",
	"workplace":      "office",
	"outdoor":        "park",
	"outdoors":       "park",
	"travel":         "traveling",
	"on the road":    "traveling",
}

func normalizeLocation(location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		loc = "home"
	}
	if alias, ok := locationAliases[loc]; ok {
		loc = alias
	}
	return loc
}

// EquipmentAt returns what is on hand at a location. Unknown locations are
// treated like traveling, the minimal-equipment case.
func (s *Store) EquipmentAt(ctx context.Context, location string) (*EquipmentList, error) {
	loc := normalizeLocation(location)

	var rows []EquipmentItem
	err := s.db.WithContext(ctx).Where("location = ?", loc).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("inventory: loading equipment for %q: %w", loc, err)
	}
	if len(rows) == 0 && loc != "traveling" {
		return s.EquipmentAt(ctx, "traveling")
	}

	out := &EquipmentList{Location: loc}
	for _, row := range rows {
		if row.Available {
			out.Available = append(out.Available, row.Name)
		} else {
			out.Missing = append(out.Missing, row.Name)
		}
	}
	sort.Strings(out.Available)
	sort.Strings(out.Missing)
	return out, nil
}

// equipmentKey normalizes an item name for matching: lowercase, hyphens
// dropped, spaces mapped to underscores. "Pull-Up Bar" and "pullup_bar"
// resolve to the same key.
func equipmentKey(name string) string {
	key := strings.ToLower(name)
	key = strings.ReplaceAll(key, "-", "")
	return strings.ReplaceAll(key, " ", "_")
}

// CheckWorkout reports whether every required item is available at the
// location. Names on both sides are matched through equipmentKey.
func (s *Store) CheckWorkout(ctx context.Context, required []string, location string) (*Feasibility, error) {
	list, err := s.EquipmentAt(ctx, location)
	if err != nil {
		return nil, err
	}

	available := make(map[string]bool, len(list.Available))
	for _, name := range list.Available {
		available[equipmentKey(name)] = true
	}

	var missing []string
	for _, item := range required {
		if !available[equipmentKey(item)] {
			missing = append(missing, item)
		}
	}

	f := &Feasibility{
		Feasible:           len(missing) == 0,
		Location:           list.Location,
		AvailableEquipment: list.Available,
		MissingEquipment:   missing,
	}
	if f.Feasible {
		f.Recommendation = "All required equipment is available."
	} else {
		f.Recommendation = fmt.Sprintf("Missing equipment: %s. Consider alternatives or a different location.",
			strings.Join(missing, ", "))
	}
	return f, nil
}
