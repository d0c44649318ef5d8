package inventory

import "gorm.io/gorm"

type locationStock struct {
	available []string
	missing   []string
}

var seedEquipment = map[string]locationStock{
	"home": {
		available: []string{"dumbbells", "resistance_bands", "pullup_bar", "yoga_mat", "foam_roller"},
		missing:   []string{"barbell", "squat_rack", "bench", "cable_machine", "leg_press", "smith_machine"},
	},
	"gym": {
		available: []string{
			"barbell", "dumbbells", "kettlebell", "squat_rack", "bench", "cable_machine", "leg_press",
			"pullup_bar", "dip_bars", "smith_machine", "rowing_machine", "treadmill", "resistance_bands",
			"yoga_mat",
		},
	},
	"hotel": {
		available: []string{"dumbbells", "treadmill", "stationary_bike", "yoga_mat"},
		missing:   []string{"barbell", "squat_rack", "bench", "cable_machine", "pullup_bar", "dip_bars"},
	},
	"office": {
		available: []string{"resistance_bands", "yoga_mat"},
		missing:   []string{"barbell", "dumbbells", "squat_rack", "bench", "cable_machine", "pullup_bar"},
	},
	"park": {
		available: []string{"pullup_bar", "dip_bars", "bench"},
		missing:   []string{"barbell", "dumbbells", "cable_machine", "squat_rack", "resistance_bands"},
	},
	"traveling": {
		available: []string{"resistance_bands"},
		missing:   []string{"barbell", "dumbbells", "squat_rack", "bench", "cable_machine", "pullup_bar"},
	},
}

type seedSlot struct {
	start, end string
	available  bool
	reason     string
}

var seedSchedules = map[string][]seedSlot{
	"busy_day": {
		{"08:00", "09:00", false, "Team standup"},
		{"09:00", "10:00", true, ""},
		{"10:00", "12:00", false, "Client meeting"},
		{"12:00", "13:00", false, "Lunch with colleague"},
		{"13:00", "15:00", false, "Project review"},
		{"15:00", "15:30", true, ""},
		{"15:30", "17:00", false, "Sprint planning"},
		{"17:00", "17:30", true, ""},
		{"17:30", "18:00", false, "Commute"},
		{"18:00", "18:30", true, ""},
		{"18:30", "19:30", false, "Dinner"},
		{"19:30", "21:00", true, ""},
	},
	"moderate_day": {
		{"06:00", "07:00", true, ""},
		{"07:00", "08:00", false, "Get ready for work"},
		{"08:00", "09:00", false, "Commute"},
		{"09:00", "12:00", false, "Work block"},
		{"12:00", "13:00", true, ""},
		{"13:00", "17:00", false, "Work block"},
		{"17:00", "18:00", true, ""},
		{"18:00", "19:00", true, ""},
		{"19:00", "20:00", false, "Family time"},
		{"20:00", "21:30", true, ""},
	},
	"light_day": {
		{"06:00", "08:00", true, ""},
		{"08:00", "09:00", false, "Morning routine"},
		{"09:00", "10:00", true, ""},
		{"10:00", "11:00", false, "Quick call"},
		{"11:00", "14:00", true, ""},
		{"14:00", "15:00", false, "Appointment"},
		{"15:00", "21:00", true, ""},
	},
}

// seed populates the mock data once; an already-seeded database is left
// untouched.
func (s *Store) seed() error {
	var count int64
	if err := s.db.Model(&EquipmentItem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for loc, stock := range seedEquipment {
			for _, name := range stock.available {
				if err := tx.Create(&EquipmentItem{Location: loc, Name: name, Available: true}).Error; err != nil {
					return err
				}
			}
			for _, name := range stock.missing {
				if err := tx.Create(&EquipmentItem{Location: loc, Name: name, Available: false}).Error; err != nil {
					return err
				}
			}
		}
		for schedule, slots := range seedSchedules {
			for _, slot := range slots {
				err := tx.Create(&CalendarSlot{
					Schedule:       schedule,
					Start:          slot.start,
					End:            slot.end,
					Available:      slot.available,
					ConflictReason: slot.reason,
				}).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}
