// Package analysis is the 65816 static-analysis engine: it recovers a
// ROM's control-flow graph by abstractly interpreting CPU state across
// every reachable code path, rather than sweeping bytes linearly.
package analysis

import (
	"fmt"
	"sort"

	"github.com/AndreaOrru/gilgamesh/cpu65816"
	"github.com/AndreaOrru/gilgamesh/rom"
)

// EntryPoint is a (label, pc, state) seed at which analysis starts.
// Uniqueness is by pc alone.
type EntryPoint struct {
	Label string
	PC    PC
	State cpu65816.State
}

// Analysis is the top-level container: it owns the ROM view, the
// instruction and subroutine stores, the reference graph, the assertion
// and jump-table overlays, and drives the CPU interpreter from each entry
// point.
type Analysis struct {
	ROM *rom.ROM

	entryPoints     []EntryPoint
	entryPointIndex map[PC]int

	instructions map[InstructionPC]map[cpu65816.State]*Instruction
	subroutines  map[SubroutinePC]*Subroutine
	references   map[InstructionPC][]Reference

	assertions *assertionStore
	jumpTables map[InstructionPC]*JumpTable
}

// New builds an analysis over an already-loaded ROM, seeding the standard
// reset and NMI entry points.
func New(r *rom.ROM) *Analysis {
	a := &Analysis{
		ROM:             r,
		entryPointIndex: make(map[PC]int),
		assertions:      newAssertionStore(),
		jumpTables:      make(map[InstructionPC]*JumpTable),
	}
	a.clear()
	a.AddEntryPoint("reset", r.ResetVector(), cpu65816.NewState(true, true, false))
	a.AddEntryPoint("nmi", r.NMIVector(), cpu65816.NewState(true, true, false))
	return a
}

// FromPath loads a ROM from disk and builds an analysis over it.
func FromPath(path string) (*Analysis, error) {
	r, err := rom.Load(path)
	if err != nil {
		return nil, fmt.Errorf("building analysis: %w", err)
	}
	return New(r), nil
}

// clear purges instructions, subroutines and references, but preserves
// entry points, assertions and jump tables: those are inputs, not derived
// state.
func (a *Analysis) clear() {
	a.instructions = make(map[InstructionPC]map[cpu65816.State]*Instruction)
	a.subroutines = make(map[SubroutinePC]*Subroutine)
	a.references = make(map[InstructionPC][]Reference)
}

// AddEntryPoint adds or replaces the entry point at pc.
func (a *Analysis) AddEntryPoint(label string, pc PC, state cpu65816.State) {
	if idx, ok := a.entryPointIndex[pc]; ok {
		a.entryPoints[idx] = EntryPoint{Label: label, PC: pc, State: state}
		return
	}
	a.entryPointIndex[pc] = len(a.entryPoints)
	a.entryPoints = append(a.entryPoints, EntryPoint{Label: label, PC: pc, State: state})
}

// RemoveEntryPoint removes the entry point at pc, if one exists.
func (a *Analysis) RemoveEntryPoint(pc PC) {
	idx, ok := a.entryPointIndex[pc]
	if !ok {
		return
	}
	a.entryPoints = append(a.entryPoints[:idx], a.entryPoints[idx+1:]...)
	delete(a.entryPointIndex, pc)
	for p, i := range a.entryPointIndex {
		if i > idx {
			a.entryPointIndex[p] = i - 1
		}
	}
}

// EntryPoints returns the entry points in insertion order.
func (a *Analysis) EntryPoints() []EntryPoint {
	out := make([]EntryPoint, len(a.entryPoints))
	copy(out, a.entryPoints)
	return out
}

// AddAssertionInstruction installs an instruction-scoped state-change
// override.
func (a *Analysis) AddAssertionInstruction(pc InstructionPC, change StateChange) {
	a.assertions.addInstruction(pc, change)
}

// AddAssertionSubroutine installs a subroutine-return-scoped state-change
// override, applying only when pc is reached from subroutinePC.
func (a *Analysis) AddAssertionSubroutine(pc InstructionPC, subroutinePC SubroutinePC, change StateChange) {
	a.assertions.addSubroutine(pc, subroutinePC, change)
}

// AssertionAt returns the assertion applying at (pc, subroutinePC), if any.
func (a *Analysis) AssertionAt(pc InstructionPC, subroutinePC SubroutinePC) (Assertion, bool) {
	return a.assertions.at(pc, subroutinePC)
}

// DeclareJumpTable declares an indirect-jump table at callerPC and
// materializes its targets immediately by reading the ROM.
func (a *Analysis) DeclareJumpTable(callerPC InstructionPC, lo, hi, stride int, status JumpTableStatus) {
	caller := a.AnyInstruction(callerPC)
	var arg PC
	if caller != nil {
		arg = PC(caller.MaskedArgument())
	}
	a.jumpTables[callerPC] = declareJumpTable(a.ROM, callerPC, arg, lo, hi, stride, status)
}

// jumpTableAt returns the jump table declared at callerPC, if any.
func (a *Analysis) jumpTableAt(callerPC PC) (*JumpTable, bool) {
	jt, ok := a.jumpTables[callerPC]
	return jt, ok
}

// addSubroutine creates a Subroutine at pc if one doesn't already exist,
// with label defaulting to sub_XXXXXX.
func (a *Analysis) addSubroutine(pc SubroutinePC, label string) *Subroutine {
	if s, ok := a.subroutines[pc]; ok {
		return s
	}
	if label == "" {
		label = fmt.Sprintf("sub_%06X", uint32(pc.Mask()))
	}
	s := NewSubroutine(pc, label)
	a.subroutines[pc] = s
	return s
}

// addInstruction records a newly decoded instruction, deduplicated by
// (pc, state). Returns (instruction, true) if this is the first time this
// exact tuple was seen; returns (existing, false) otherwise, signaling the
// interpreter should stop this walk.
func (a *Analysis) addInstruction(pc InstructionPC, subroutinePC SubroutinePC, opcode byte, argument uint32, state cpu65816.State) (*Instruction, bool) {
	byState, ok := a.instructions[pc]
	if !ok {
		byState = make(map[cpu65816.State]*Instruction)
		a.instructions[pc] = byState
	}
	if existing, ok := byState[state]; ok {
		return existing, false
	}

	instr := &Instruction{
		PC:           pc,
		SubroutinePC: subroutinePC,
		Opcode:       opcode,
		Argument:     argument,
		State:        state,
	}
	byState[state] = instr

	sub := a.addSubroutine(subroutinePC, "")
	sub.AddInstruction(instr)
	return instr, true
}

// addReference records a directed edge from source to target, scoped by
// the subroutine doing the referring.
func (a *Analysis) addReference(source InstructionPC, target PC, subroutinePC SubroutinePC) {
	refs := a.references[source]
	ref := Reference{Target: target, SubroutinePC: subroutinePC}
	for _, existing := range refs {
		if existing == ref {
			return
		}
	}
	a.references[source] = append(refs, ref)
}

// Run analyzes the ROM: it clears derived state, walks every entry point
// with a fresh CPU interpreter, then assigns local labels.
func (a *Analysis) Run() {
	a.clear()

	for _, e := range a.entryPoints {
		a.addSubroutine(e.PC, e.Label)
		cpu := newInterpreter(a, e.PC, e.PC, e.State)
		cpu.run()
	}

	a.generateLocalLabels()
}

// generateLocalLabels assigns loc_XXXXXX labels to every reference target
// that isn't itself a subroutine entry point.
func (a *Analysis) generateLocalLabels() {
	for _, refs := range a.references {
		for _, ref := range refs {
			if _, isSubroutine := a.subroutines[ref.Target]; isSubroutine {
				continue
			}
			sub, ok := a.subroutines[ref.SubroutinePC]
			if !ok {
				continue
			}
			if instr, ok := sub.Instructions[ref.Target]; ok {
				instr.Label = fmt.Sprintf("loc_%06X", uint32(ref.Target.Mask()))
			}
		}
	}
}

// Subroutines returns every discovered subroutine, ordered by PC.
func (a *Analysis) Subroutines() []*Subroutine {
	out := make([]*Subroutine, 0, len(a.subroutines))
	for _, s := range a.subroutines {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PC < out[j].PC })
	return out
}

// Subroutine returns the subroutine at pc, if any.
func (a *Analysis) Subroutine(pc SubroutinePC) (*Subroutine, bool) {
	s, ok := a.subroutines[pc]
	return s, ok
}

// InstructionsAt returns every decoded instruction at pc, one per distinct
// entry state.
func (a *Analysis) InstructionsAt(pc InstructionPC) []*Instruction {
	byState := a.instructions[pc]
	out := make([]*Instruction, 0, len(byState))
	for _, instr := range byState {
		out = append(out, instr)
	}
	return out
}

// AnyInstruction returns one instruction decoded at pc, under whichever
// entry state was seen; useful for rendering and jump-table resolution,
// where the exact entry state doesn't matter.
func (a *Analysis) AnyInstruction(pc InstructionPC) *Instruction {
	for _, instr := range a.instructions[pc] {
		return instr
	}
	return nil
}

// ReferencesFrom returns every reference originating at source.
func (a *Analysis) ReferencesFrom(source InstructionPC) []Reference {
	refs := a.references[source]
	out := make([]Reference, len(refs))
	copy(out, refs)
	return out
}
