package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Severity is the ordinal diagnostic grading returned by the inference
// service: 0 = No DR / Mild, 1 = Moderate, 2 = Severe / Proliferative.
// The ordering drives display colour only, never sorting.
type Severity int

const (
	SeverityMild     Severity = 0
	SeverityModerate Severity = 1
	SeveritySevere   Severity = 2
)

// UnmarshalJSON accepts the severity as a JSON number, a float or a
// quoted string. The service declares an integer but older pipeline
// versions emitted strings, so the client parses defensively.
func (s *Severity) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	raw = strings.TrimSpace(strings.Trim(raw, `"`))
	if raw == "" || raw == "null" {
		*s = SeverityMild
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid severity %q: %w", raw, err)
	}
	*s = Severity(int(f))
	return nil
}

// MarshalJSON writes the severity as the integer the service expects.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}

// String returns the stage label shown next to the diagnosis.
func (s Severity) String() string {
	switch s {
	case SeveritySevere:
		return "Severe / Proliferative"
	case SeverityModerate:
		return "Moderate"
	default:
		return "No DR / Mild"
	}
}

// SeverityColor is the semantic display colour of a severity stage. The
// TUI maps these onto concrete terminal colours.
type SeverityColor string

const (
	ColorDanger  SeverityColor = "danger"
	ColorWarning SeverityColor = "warning"
	ColorSuccess SeverityColor = "success"
)

// Color maps a stage to its display colour: 2 is red, 1 is yellow and
// everything else, unknown stages included, falls back to green.
func (s Severity) Color() SeverityColor {
	switch s {
	case SeveritySevere:
		return ColorDanger
	case SeverityModerate:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// ParseSeverity coerces a text-or-number value to a Severity, mirroring
// the tolerance of UnmarshalJSON for values read from filters or flags.
func ParseSeverity(v string) (Severity, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return SeverityMild, fmt.Errorf("invalid severity %q", v)
	}
	return Severity(int(f)), nil
}

// SeverityFilter selects records by stage, or all stages.
type SeverityFilter struct {
	all   bool
	value Severity
}

// FilterAll matches every record regardless of stage.
func FilterAll() SeverityFilter {
	return SeverityFilter{all: true}
}

// FilterStage matches only records of the given stage.
func FilterStage(s Severity) SeverityFilter {
	return SeverityFilter{value: s}
}

// ParseSeverityFilter parses "All" (case-insensitive) or a stage value.
func ParseSeverityFilter(v string) (SeverityFilter, error) {
	if strings.EqualFold(strings.TrimSpace(v), "All") {
		return FilterAll(), nil
	}
	s, err := ParseSeverity(v)
	if err != nil {
		return SeverityFilter{}, err
	}
	return FilterStage(s), nil
}

// Matches reports whether the stage passes the filter.
func (f SeverityFilter) Matches(s Severity) bool {
	return f.all || f.value == s
}

// String renders the filter for display ("All" or the stage number).
func (f SeverityFilter) String() string {
	if f.all {
		return "All"
	}
	return strconv.Itoa(int(f.value))
}
