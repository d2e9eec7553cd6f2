package linecalc

import "fmt"

// OverrideState tells whether computed totals may be overwritten.
//
// A line (or an invoice) starts in Auto. Editing any of its three totals by
// hand moves it to Manual, which locks all three against automatic
// recomputation. Only RecalculateAll moves it back to Auto.
type OverrideState uint8

const (
	Auto OverrideState = iota
	Manual
)

// OverrideFromFlag maps a persisted manually-edited flag to a state.
func OverrideFromFlag(manual bool) OverrideState {
	if manual {
		return Manual
	}
	return Auto
}

func (s OverrideState) IsManual() bool { return s == Manual }

func (s OverrideState) String() string {
	switch s {
	case Manual:
		return "manual"
	default:
		return "auto"
	}
}

func (s OverrideState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *OverrideState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "auto", "":
		*s = Auto
	case "manual":
		*s = Manual
	default:
		return fmt.Errorf("unknown override state %q", string(text))
	}
	return nil
}
