package agent

import "encoding/json"

const (
	ConflictTime      = "time"
	ConflictEquipment = "equipment"
)

type Exercise struct {
	Number      int      `json:"number"`
	Name        string   `json:"name"`
	MuscleGroup string   `json:"muscleGroup"`
	Equipment   []string `json:"equipment"`
	Sets        int      `json:"sets"`
	Reps        string   `json:"reps"`
	RestSeconds int      `json:"restSeconds"`
	Notes       string   `json:"notes,omitempty"`
}

type WorkoutPlan struct {
	Title             string     `json:"title"`
	Goal              string     `json:"goal,omitempty"`
	EstimatedDuration int        `json:"estimatedDuration"`
	RequiredEquipment []string   `json:"requiredEquipment"`
	Exercises         []Exercise `json:"exercises"`
	IsCompromise      bool       `json:"isCompromise,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

type Conflict struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Analysis is the validator's verdict on a proposed plan.
type Analysis struct {
	HasConflicts   bool       `json:"hasConflicts"`
	Conflicts      []Conflict `json:"conflicts"`
	Recommendation string     `json:"recommendation"`
}

// DecodeWorkout converts a JSON-shaped value (as found in a message data
// part) back into a WorkoutPlan.
func DecodeWorkout(v any) (*WorkoutPlan, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var plan WorkoutPlan
	if err := json.Unmarshal(b, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// DecodeAnalysis converts a JSON-shaped value back into an Analysis.
func DecodeAnalysis(v any) (*Analysis, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var a Analysis
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
