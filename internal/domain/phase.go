package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Phase is one step of the fixed coupling cycle. The order is invariant:
// coolant solve, map to combustion, combustion solve, map to coolant, then
// the next iteration begins at the coolant solve again.
type Phase int

const (
	PhaseCoolant Phase = iota
	PhaseMappingToCombustion
	PhaseCombustion
	PhaseMappingToCoolant
)

// phaseNames are the wire names used in the run record and in log sinks.
var phaseNames = map[Phase]string{
	PhaseCoolant:             "coolant",
	PhaseMappingToCombustion: "mapping-to-combustion",
	PhaseCombustion:          "combustion",
	PhaseMappingToCoolant:    "mapping-to-coolant",
}

// String returns the wire name of the phase.
func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Next returns the successor of p in cycle order.
func (p Phase) Next() Phase {
	return (p + 1) % 4
}

// IsSolver reports whether p runs a CFD solver in a domain folder.
func (p Phase) IsSolver() bool {
	return p == PhaseCoolant || p == PhaseCombustion
}

// IsMapping reports whether p runs the HTC mapping binary. Mapping phases
// have no domain folder to inspect and are always re-run in full on resume.
func (p Phase) IsMapping() bool {
	return !p.IsSolver()
}

// ClosesCycle reports whether completing p finishes a full coupling
// iteration. Convergence and the iteration budget are only evaluated at
// this boundary.
func (p Phase) ClosesCycle() bool {
	return p == PhaseMappingToCoolant
}

// ParsePhase converts a wire name back to a Phase.
func ParsePhase(s string) (Phase, error) {
	for p, n := range phaseNames {
		if n == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// MarshalYAML encodes the phase by its wire name.
func (p Phase) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// UnmarshalYAML decodes a phase from its wire name.
func (p *Phase) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePhase(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
