package analysis

import "github.com/AndreaOrru/gilgamesh/cpu65816"

// frameKind distinguishes a plain pushed byte from a PHP state snapshot.
type frameKind int

const (
	frameByte frameKind = iota
	frameStateSnapshot
)

// stackEntry is one abstract byte on the shadow stack: which instruction
// placed it, and (for PHP frames) the CPU state it captured.
type stackEntry struct {
	kind        frameKind
	instruction *Instruction // the push/JSR/JSL that placed this byte, if known
	snapshot    stateSnapshot
}

type stateSnapshot struct {
	state       cpu65816.State
	stateChange StateChange
}

// stack is the by-value abstract shadow stack: a list of entries, one per
// byte, used to match pushes to pops and recognize well-formed returns.
type stack struct {
	entries []stackEntry
}

// pushBytes pushes n bytes tagged with the instruction that placed them
// (a JSR/JSL return address, or a PHx/PEx instruction).
func (s *stack) pushBytes(instr *Instruction, n int) {
	for i := 0; i < n; i++ {
		s.entries = append(s.entries, stackEntry{kind: frameByte, instruction: instr})
	}
}

// pushState pushes a PHP frame: a single abstract slot carrying the whole
// CPU state at the time of the push, restored atomically by a matching PLP.
func (s *stack) pushState(instr *Instruction, state cpu65816.State, change StateChange) {
	s.entries = append(s.entries, stackEntry{
		kind:        frameStateSnapshot,
		instruction: instr,
		snapshot:    stateSnapshot{state: state, stateChange: change},
	})
}

// popBytes pops n entries, in LIFO order, returning the ones that were
// popped (top of stack first). Always returns exactly n entries: if the
// stack holds fewer than n, the missing deep entries come back as the
// zero value (instruction == nil), which reads as an unowned return-address
// byte to checkReturnManipulation.
func (s *stack) popBytes(n int) []stackEntry {
	avail := len(s.entries)
	if avail > n {
		avail = n
	}
	start := len(s.entries) - avail
	taken := make([]stackEntry, avail)
	copy(taken, s.entries[start:])
	s.entries = s.entries[:start]
	// Reverse so index 0 is the top of stack (most recently pushed).
	for i, j := 0, len(taken)-1; i < j; i, j = i+1, j-1 {
		taken[i], taken[j] = taken[j], taken[i]
	}
	out := make([]stackEntry, n)
	copy(out, taken)
	return out
}

// popOne pops the single top entry.
func (s *stack) popOne() stackEntry {
	return s.popBytes(1)[0]
}

// clone returns a by-value copy, matching the interpreter's own fork
// semantics: the shadow stack is a value, not a shared reference.
func (s stack) clone() stack {
	cp := make([]stackEntry, len(s.entries))
	copy(cp, s.entries)
	return stack{entries: cp}
}
