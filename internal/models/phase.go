package models

import "strings"

// Phase is a traffic-light phase as shown to the operator.
type Phase string

const (
	PhaseRed    Phase = "RED"
	PhaseYellow Phase = "YELLOW"
	PhaseGreen  Phase = "GREEN"
	PhaseOff    Phase = "OFF"
)

// phaseAliases maps every accepted spelling (already upper-cased) to its phase.
// Firmware builds report either English or Spanish names.
var phaseAliases = map[string]Phase{
	"RED":      PhaseRed,
	"ROJO":     PhaseRed,
	"YELLOW":   PhaseYellow,
	"AMARILLO": PhaseYellow,
	"GREEN":    PhaseGreen,
	"VERDE":    PhaseGreen,
	"OFF":      PhaseOff,
	"APAGADO":  PhaseOff,
}

// ParsePhase normalizes a device-reported state. Non-string or unknown values
// return ok=false and must be ignored by callers.
func ParsePhase(v any) (Phase, bool) {
	s, isString := v.(string)
	if !isString {
		return "", false
	}
	p, ok := phaseAliases[strings.ToUpper(strings.TrimSpace(s))]
	return p, ok
}

// Next returns the phase that follows p in the fixed cycle GREEN -> YELLOW -> RED -> GREEN.
// OFF is not part of the cycle; it restarts at GREEN.
func (p Phase) Next() Phase {
	switch p {
	case PhaseGreen:
		return PhaseYellow
	case PhaseYellow:
		return PhaseRed
	default:
		return PhaseGreen
	}
}
