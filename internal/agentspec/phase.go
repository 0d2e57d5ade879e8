package agentspec

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase is a workflow stage that groups agent specs.
type Phase string

const (
	PhaseFoundation   Phase = "foundation"
	PhasePlanning     Phase = "planning"
	PhaseRoles        Phase = "roles"
	PhaseProcess      Phase = "process"
	PhaseDevelopment  Phase = "development"
	PhaseFinalization Phase = "finalization"
	PhaseOperations   Phase = "operations"
	PhaseUnknown      Phase = "unknown"
)

// phaseBuckets maps a two-character phase bucket to its phase.
var phaseBuckets = map[string]Phase{
	"00": PhaseFoundation,
	"10": PhasePlanning,
	"20": PhaseRoles,
	"30": PhaseProcess,
	"40": PhaseDevelopment,
	"50": PhaseFinalization,
	"99": PhaseOperations,
}

var orderedPhases = []Phase{
	PhaseFoundation,
	PhasePlanning,
	PhaseRoles,
	PhaseProcess,
	PhaseDevelopment,
	PhaseFinalization,
	PhaseOperations,
}

// Phases returns the known phases in workflow order. Unknown is not included.
func Phases() []Phase {
	out := make([]Phase, len(orderedPhases))
	copy(out, orderedPhases)
	return out
}

// Order returns the position of p in workflow order, or -1 for unknown phases.
func (p Phase) Order() int {
	for i, known := range orderedPhases {
		if known == p {
			return i
		}
	}
	return -1
}

// String implements fmt.Stringer.
func (p Phase) String() string {
	return string(p)
}

// ParsePhase converts a case-insensitive phase name into a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	if p.Order() < 0 {
		return PhaseUnknown, fmt.Errorf("unknown phase %q (valid: %s)", s, phaseNames())
	}
	return p, nil
}

func phaseNames() string {
	names := make([]string, len(orderedPhases))
	for i, p := range orderedPhases {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// PhasePrefix returns the part of id before the first "-", or "00" when id
// contains no "-".
func PhasePrefix(id string) string {
	prefix, _, found := strings.Cut(id, "-")
	if !found {
		return "00"
	}
	return prefix
}

// PhaseBucket collapses a phase prefix into its lookup bucket:
// "01".."09" become "00", other prefixes of two or more characters keep their
// first character followed by "0", shorter prefixes are used as-is.
func PhaseBucket(prefix string) string {
	switch {
	case len(prefix) == 2 && prefix[0] == '0' && isDigit(prefix[1]) && prefix != "00":
		return "00"
	case len(prefix) >= 2:
		return prefix[:1] + "0"
	default:
		return prefix
	}
}

// PhaseForID derives the phase of an agent from its id.
// A prefix that is itself a table key ("99") maps directly; everything else
// goes through PhaseBucket.
func PhaseForID(id string) Phase {
	prefix := PhasePrefix(id)
	if p, ok := phaseBuckets[prefix]; ok {
		return p
	}
	if p, ok := phaseBuckets[PhaseBucket(prefix)]; ok {
		return p
	}
	return PhaseUnknown
}

// PhaseNumber parses the integer value of a phase prefix, defaulting to 0.
func PhaseNumber(prefix string) int {
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return 0
	}
	return n
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
