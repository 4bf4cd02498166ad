package analysis

import "sort"

// Subroutine is the collection of instructions reached under a single
// entry PC, plus the state changes observed across every walk that
// returned from it.
type Subroutine struct {
	PC           SubroutinePC
	Label        string
	Instructions map[InstructionPC]*Instruction // insertion order tracked separately
	order        []InstructionPC

	KnownStateChanges   []StateChange
	UnknownStateChanges []StateChange
}

// NewSubroutine creates an empty subroutine entry.
func NewSubroutine(pc SubroutinePC, label string) *Subroutine {
	return &Subroutine{
		PC:           pc,
		Label:        label,
		Instructions: make(map[InstructionPC]*Instruction),
	}
}

// AddInstruction records an instruction as belonging to this subroutine.
func (s *Subroutine) AddInstruction(i *Instruction) {
	if _, exists := s.Instructions[i.PC]; !exists {
		s.order = append(s.order, i.PC)
	}
	s.Instructions[i.PC] = i
}

// OrderedInstructions returns the subroutine's instructions in PC order.
func (s *Subroutine) OrderedInstructions() []*Instruction {
	out := make([]*Instruction, 0, len(s.Instructions))
	pcs := make([]InstructionPC, len(s.order))
	copy(pcs, s.order)
	sort.Slice(pcs, func(a, b int) bool { return pcs[a] < pcs[b] })
	for _, pc := range pcs {
		out = append(out, s.Instructions[pc])
	}
	return out
}

// AddStateChange registers a state change observed on a walk through this
// subroutine: into KnownStateChanges when deterministic, into
// UnknownStateChanges when it carries a dominating unknown reason.
func (s *Subroutine) AddStateChange(change StateChange) {
	if change.IsUnknown() {
		s.UnknownStateChanges = append(s.UnknownStateChanges, change)
		return
	}
	for _, existing := range s.KnownStateChanges {
		if existing.equalFlags(change) {
			return
		}
	}
	s.KnownStateChanges = append(s.KnownStateChanges, change)
}

// IsUnknown reports whether any walk through this subroutine hit an
// unresolved condition.
func (s *Subroutine) IsUnknown() bool {
	return len(s.UnknownStateChanges) > 0
}

// IsTerminating reports whether at least one walk reached a return.
// Only standardRet populates KnownStateChanges; UnknownStateChanges comes
// from walks that never reach RTS/RTL/RTI (mutable code, indirect jumps,
// stack manipulation, and the like), so it must not count here.
func (s *Subroutine) IsTerminating() bool {
	return len(s.KnownStateChanges) > 0
}
