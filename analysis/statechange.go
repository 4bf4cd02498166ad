package analysis

import "github.com/AndreaOrru/gilgamesh/cpu65816"

// UnknownReason classifies why a walk could not continue deterministically.
type UnknownReason int

const (
	// ReasonNone means no unknown condition was hit.
	ReasonNone UnknownReason = iota
	// ReasonIndirectJump is an indirect JMP/JSR with no matching jump table.
	ReasonIndirectJump
	// ReasonMutableCode is execution reaching RAM.
	ReasonMutableCode
	// ReasonStackManipulation is a return/pop on a shadow stack that
	// doesn't match the pushes that built it.
	ReasonStackManipulation
	// ReasonMultipleReturnStates is a callee with more than one distinct
	// known exit state.
	ReasonMultipleReturnStates
	// ReasonSuspectInstruction is BRK/COP.
	ReasonSuspectInstruction
	// ReasonUnknown is propagated up from an unknown callee.
	ReasonUnknown
)

func (r UnknownReason) String() string {
	switch r {
	case ReasonIndirectJump:
		return "IndirectJump"
	case ReasonMutableCode:
		return "MutableCode"
	case ReasonStackManipulation:
		return "StackManipulation"
	case ReasonMultipleReturnStates:
		return "MultipleReturnStates"
	case ReasonSuspectInstruction:
		return "SuspectInstruction"
	case ReasonUnknown:
		return "Unknown"
	default:
		return "None"
	}
}

// StateChange is the delta a code path produces over CPU state: an
// independent optional tri-state for each flag, plus an optional reason
// that dominates and means the change cannot be resolved deterministically.
type StateChange struct {
	M      *bool
	X      *bool
	E      *bool
	Reason UnknownReason
}

// NewUnknownStateChange builds a StateChange carrying only an unknown reason.
func NewUnknownStateChange(reason UnknownReason) StateChange {
	return StateChange{Reason: reason}
}

// IsUnknown reports whether this change carries a dominating unknown reason.
func (c StateChange) IsUnknown() bool { return c.Reason != ReasonNone }

// Set forces the flags named by mask (cpu65816.FlagM|cpu65816.FlagX) to true.
func (c StateChange) Set(mask int) StateChange {
	t := true
	if mask&cpu65816.FlagM != 0 {
		c.M = &t
	}
	if mask&cpu65816.FlagX != 0 {
		c.X = &t
	}
	return c
}

// Reset forces the flags named by mask to false.
func (c StateChange) Reset(mask int) StateChange {
	f := false
	if mask&cpu65816.FlagM != 0 {
		c.M = &f
	}
	if mask&cpu65816.FlagX != 0 {
		c.X = &f
	}
	return c
}

// stateInference records what the subroutine's entry state must have been,
// deduced from operand-sized instructions seen before any change to that
// flag. Used only to simplify SEP/REP deltas.
type stateInference struct {
	M *bool
	X *bool
}

// applyInference clears any flag of c that agrees with the inferred value —
// it is a no-op given what the entry state must already have been.
func (c StateChange) applyInference(inf stateInference) StateChange {
	if c.M != nil && inf.M != nil && *c.M == *inf.M {
		c.M = nil
	}
	if c.X != nil && inf.X != nil && *c.X == *inf.X {
		c.X = nil
	}
	return c
}

// equalFlags reports whether two changes carry the same M/X/E deltas,
// ignoring the unknown reason. Used to deduplicate known state changes.
func (c StateChange) equalFlags(o StateChange) bool {
	return boolPtrEqual(c.M, o.M) && boolPtrEqual(c.X, o.X) && boolPtrEqual(c.E, o.E)
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
