package a2a

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/msequeira/fitmesh/pkg/agent"
)

// Free-text extraction vocabularies. Matching is case-insensitive and
// substring-based; a structured data part always wins over extraction.
var (
	knownEquipment = []string{
		"dumbbells", "barbell", "resistance bands", "pull-up bar",
		"kettlebell", "bench", "treadmill", "yoga mat",
	}
	knownMuscleGroups = []string{
		"chest", "back", "legs", "shoulders", "arms", "core",
		"glutes", "full body",
	}
	compromiseTriggers = []string{"compromise", "adjust", "modify", "alternative"}

	// Accepts "45 min", "45min", "45 minutes" and the hyphenated
	// "45-minute" form.
	durationPattern = regexp.MustCompile(`(\d+)\s*-?\s*min`)
)

// ParseRequest turns an inbound task message into the capability request.
// Text parts are concatenated in order; the first data part, when present,
// supplies goal, constraints and the compromise flag directly. Fields the
// data part leaves empty are filled by keyword extraction from the text.
func ParseRequest(msg Message) agent.Request {
	var texts []string
	var data map[string]any
	for _, p := range msg.Parts {
		switch p.Type {
		case "text":
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		case "data":
			if data == nil {
				data = p.Data
			}
		}
	}

	req := agent.Request{
		Text: strings.Join(texts, " "),
		Data: data,
	}

	if data != nil {
		if goal, ok := data["goal"].(string); ok {
			req.Goal = goal
		}
		if c, ok := data["constraints"].(map[string]any); ok {
			req.Constraints = parseConstraints(c)
		}
		if v, ok := data["isCompromise"].(bool); ok {
			req.Compromise = v
		}
	}

	lower := strings.ToLower(req.Text)
	if req.Goal == "" {
		req.Goal = req.Text
	}
	if req.Constraints.Duration == 0 {
		req.Constraints.Duration = extractDuration(lower)
	}
	if len(req.Constraints.Equipment) == 0 {
		req.Constraints.Equipment = extractVocab(lower, knownEquipment)
	}
	if len(req.Constraints.MuscleGroups) == 0 {
		req.Constraints.MuscleGroups = extractVocab(lower, knownMuscleGroups)
	}
	if !req.Compromise {
		for _, trigger := range compromiseTriggers {
			if strings.Contains(lower, trigger) {
				req.Compromise = true
				break
			}
		}
	}
	return req
}

func parseConstraints(c map[string]any) agent.Constraints {
	var out agent.Constraints
	switch v := c["duration"].(type) {
	case float64:
		out.Duration = int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			out.Duration = n
		}
	}
	out.Equipment = toStrings(c["equipment"])
	out.MuscleGroups = toStrings(c["muscleGroups"])
	if d, ok := c["difficulty"].(string); ok {
		out.Difficulty = d
	}
	return out
}

func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func extractDuration(lower string) int {
	m := durationPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func extractVocab(lower string, vocab []string) []string {
	var found []string
	for _, term := range vocab {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}
