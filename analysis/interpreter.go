package analysis

import (
	"sort"

	"github.com/AndreaOrru/gilgamesh/cpu65816"
)

// interpreter is the abstract CPU executor: a depth-first symbolic walker
// over one code path. It is a small value type — forking at a branch is a
// by-value copy, not a goroutine or a shared-state clone.
type interpreter struct {
	analysis     *Analysis
	pc           PC
	subroutinePC SubroutinePC
	state        cpu65816.State
	stateChange  StateChange
	inference    stateInference
	stack        stack
	stop         bool

	// carry is an abstract, best-effort track of the carry flag, used only
	// to resolve what XCE does to the emulation-mode flag along the
	// idiomatic CLC/SEC;XCE reset sequence. It is not part of the CPU
	// state model the rest of the analysis exposes.
	carry *bool
}

func newInterpreter(a *Analysis, pc, subroutinePC PC, state cpu65816.State) *interpreter {
	return &interpreter{analysis: a, pc: pc, subroutinePC: subroutinePC, state: state}
}

// fork returns a by-value copy of the interpreter, ready to explore a
// different path (branch-not-taken, or a jump-table arm) from the same
// point.
func (c *interpreter) fork() *interpreter {
	cp := *c
	cp.stack = c.stack.clone()
	cp.stop = false
	return &cp
}

func (c *interpreter) subroutine() *Subroutine {
	sub, _ := c.analysis.Subroutine(c.subroutinePC)
	return sub
}

// run steps until the walk stops.
func (c *interpreter) run() {
	for !c.stop {
		c.step()
	}
}

// step fetches and dispatches the next instruction.
func (c *interpreter) step() {
	if c.analysis.ROM.IsRAM(c.pc) {
		c.unknownStateChange(ReasonMutableCode)
		return
	}

	opcode := c.analysis.ROM.ReadByte(c.pc)
	argument := uint32(c.analysis.ROM.ReadAddress((c.pc + 1).Mask()))
	instr, inserted := c.analysis.addInstruction(c.pc, c.subroutinePC, opcode, argument, c.state)
	if !inserted {
		c.stop = true
		return
	}
	c.execute(instr)
}

// execute advances past instr and dispatches on its category.
func (c *interpreter) execute(instr *Instruction) {
	c.pc = (c.pc + PC(instr.Size())).Mask()
	c.deriveStateInference(instr)

	if assertion, ok := c.analysis.AssertionAt(c.pc, c.subroutinePC); ok {
		if assertion.Change.IsUnknown() {
			c.unknownStateChange(assertion.Change.Reason)
			return
		}
		c.applyStateChange(assertion.Change)
	}

	switch instr.Category() {
	case cpu65816.CategoryBranch:
		c.branch(instr)
	case cpu65816.CategoryCall:
		c.call(instr)
	case cpu65816.CategoryJump:
		c.jump(instr)
	case cpu65816.CategoryReturn:
		c.ret(instr)
	case cpu65816.CategorySepRep:
		c.sepRep(instr)
	case cpu65816.CategoryInterrupt:
		c.unknownStateChange(ReasonSuspectInstruction)
	case cpu65816.CategoryPush:
		c.push(instr)
	case cpu65816.CategoryPop:
		c.pop(instr)
	default:
		c.other(instr)
	}
}

// branch forks a parallel walk for the not-taken path, then takes the
// branch in the current one.
func (c *interpreter) branch(instr *Instruction) {
	notTaken := c.fork()
	notTaken.run()

	target, _ := instr.AbsoluteArgument()
	c.analysis.addReference(instr.PC, target, c.subroutinePC)
	c.pc = target
}

// call emulates JSR/JSL: spawns a child interpreter over the callee, then
// propagates its exit state back into the current path.
func (c *interpreter) call(instr *Instruction) {
	target, ok := instr.AbsoluteArgument()
	if !ok {
		c.unknownStateChange(ReasonIndirectJump)
		return
	}

	retSize := 2
	if instr.Operation() == cpu65816.OpJSL {
		retSize = 3
	}

	child := &interpreter{
		analysis:     c.analysis,
		pc:           target,
		subroutinePC: target,
		state:        c.state,
		stack:        c.stack.clone(),
		carry:        c.carry,
	}
	child.stack.pushBytes(instr, retSize)

	c.analysis.addSubroutine(target, "")
	c.analysis.addReference(instr.PC, target, c.subroutinePC)
	child.run()

	c.propagateSubroutineState(target)
}

// jump emulates JMP/JML, resolving indirect jumps through a declared jump
// table when one exists at this instruction's PC.
func (c *interpreter) jump(instr *Instruction) {
	if target, ok := instr.AbsoluteArgument(); ok {
		c.analysis.addReference(instr.PC, target, c.subroutinePC)
		c.pc = target
		return
	}

	if jt, ok := c.analysis.jumpTableAt(instr.PC); ok {
		c.resolveJumpTable(instr, jt)
		return
	}
	c.unknownStateChange(ReasonIndirectJump)
}

// resolveJumpTable forks a child walk for every resolved table target and
// stops the current path: a multi-way jump has no single continuation.
func (c *interpreter) resolveJumpTable(instr *Instruction, jt *JumpTable) {
	indices := make([]int, 0, len(jt.Targets))
	for x := range jt.Targets {
		indices = append(indices, x)
	}
	sort.Ints(indices)

	for _, x := range indices {
		target := jt.Targets[x]
		c.analysis.addReference(instr.PC, target, c.subroutinePC)
		child := c.fork()
		child.pc = target
		child.run()
	}
	c.stop = true
}

// ret emulates RTS/RTL/RTI.
func (c *interpreter) ret(instr *Instruction) {
	if instr.Operation() == cpu65816.OpRTI {
		c.standardRet()
		return
	}

	retSize := 2
	if instr.Operation() == cpu65816.OpRTL {
		retSize = 3
	}
	entries := c.stack.popBytes(retSize)
	if c.checkReturnManipulation(instr.Operation(), entries) {
		c.unknownStateChange(ReasonStackManipulation)
		return
	}
	c.standardRet()
}

// standardRet registers the accumulated state change as a known exit state
// for the current subroutine and stops this walk.
func (c *interpreter) standardRet() {
	c.subroutine().AddStateChange(c.stateChange)
	c.stop = true
}

// checkReturnManipulation reports whether the popped stack entries were not
// placed by a matching JSR/JSL (RTS requires JSR, RTL requires JSL); any
// popped byte with no owning instruction, or owned by the wrong call form,
// counts as manipulation.
func (c *interpreter) checkReturnManipulation(op cpu65816.Op, entries []stackEntry) bool {
	for _, entry := range entries {
		if entry.instruction == nil {
			return true
		}
		switch op {
		case cpu65816.OpRTS:
			if entry.instruction.Operation() != cpu65816.OpJSR {
				return true
			}
		case cpu65816.OpRTL:
			if entry.instruction.Operation() != cpu65816.OpJSL {
				return true
			}
		}
	}
	return false
}

// sepRep emulates SEP/REP, then simplifies the accumulated state change
// against what we've already inferred the entry state must have been.
func (c *interpreter) sepRep(instr *Instruction) {
	mask := int(instr.Argument)
	switch instr.Operation() {
	case cpu65816.OpSEP:
		c.state = c.state.Set(mask)
		c.stateChange = c.stateChange.Set(mask)
	case cpu65816.OpREP:
		c.state = c.state.Reset(mask)
		c.stateChange = c.stateChange.Reset(mask)
	}
	c.stateChange = c.stateChange.applyInference(c.inference)
}

// push emulates the PHx/PEA/PER/PEI family.
func (c *interpreter) push(instr *Instruction) {
	switch instr.Operation() {
	case cpu65816.OpPHP:
		c.stack.pushState(instr, c.state, c.stateChange)
	case cpu65816.OpPHA:
		c.stack.pushBytes(instr, c.state.SizeA())
	case cpu65816.OpPHX, cpu65816.OpPHY:
		c.stack.pushBytes(instr, c.state.SizeX())
	case cpu65816.OpPHB, cpu65816.OpPHK:
		c.stack.pushBytes(instr, 1)
	case cpu65816.OpPHD, cpu65816.OpPEA, cpu65816.OpPER, cpu65816.OpPEI:
		c.stack.pushBytes(instr, 2)
	}
}

// pop emulates the PLx family. PLP expects the top frame to be a snapshot
// placed by a matching PHP; anything else is stack manipulation.
func (c *interpreter) pop(instr *Instruction) {
	switch instr.Operation() {
	case cpu65816.OpPLP:
		entry := c.stack.popOne()
		if entry.kind == frameStateSnapshot && entry.instruction != nil &&
			entry.instruction.Operation() == cpu65816.OpPHP {
			c.state = entry.snapshot.state
			c.stateChange = entry.snapshot.stateChange
		} else {
			c.unknownStateChange(ReasonStackManipulation)
		}
	case cpu65816.OpPLA:
		c.stack.popBytes(c.state.SizeA())
	case cpu65816.OpPLX, cpu65816.OpPLY:
		c.stack.popBytes(c.state.SizeX())
	case cpu65816.OpPLB:
		c.stack.popOne()
	case cpu65816.OpPLD:
		c.stack.popBytes(2)
	}
}

// other handles every instruction outside the control-flow categories. The
// analysis models CPU flags only, not register or memory contents, except
// for a minimal abstract carry track needed to resolve XCE (see carry).
func (c *interpreter) other(instr *Instruction) {
	switch instr.Operation() {
	case cpu65816.OpCLC:
		f := false
		c.carry = &f
	case cpu65816.OpSEC:
		t := true
		c.carry = &t
	case cpu65816.OpXCE:
		if c.carry != nil {
			newE := *c.carry
			newCarry := c.state.E
			c.carry = &newCarry
			c.state.E = newE
			e := newE
			c.stateChange.E = &e
		}
	default:
		if affectsCarry(instr.Operation()) {
			c.carry = nil
		}
	}
}

func affectsCarry(op cpu65816.Op) bool {
	switch op {
	case cpu65816.OpADC, cpu65816.OpSBC, cpu65816.OpCMP, cpu65816.OpCPX, cpu65816.OpCPY,
		cpu65816.OpASL, cpu65816.OpLSR, cpu65816.OpROL, cpu65816.OpROR:
		return true
	default:
		return false
	}
}

// propagateSubroutineState folds a callee's resolved exit state into the
// current path after a call returns. A callee with any unknown exit is
// unknown to the caller too; a callee with more than one distinct known
// exit state can't be followed deterministically either.
func (c *interpreter) propagateSubroutineState(target SubroutinePC) {
	callee := c.subroutineAt(target)
	if callee.IsUnknown() {
		c.unknownStateChange(ReasonUnknown)
		return
	}
	if len(callee.KnownStateChanges) == 1 {
		c.applyStateChange(callee.KnownStateChanges[0])
		return
	}
	c.unknownStateChange(ReasonMultipleReturnStates)
}

func (c *interpreter) subroutineAt(pc SubroutinePC) *Subroutine {
	sub, _ := c.analysis.Subroutine(pc)
	return sub
}

// applyStateChange folds change into both the live CPU state and the
// state change accumulated so far on this path.
func (c *interpreter) applyStateChange(change StateChange) {
	if change.M != nil {
		c.state.M = *change.M
		m := *change.M
		c.stateChange.M = &m
	}
	if change.X != nil {
		c.state.X = *change.X
		x := *change.X
		c.stateChange.X = &x
	}
	if change.E != nil {
		c.state.E = *change.E
		e := *change.E
		c.stateChange.E = &e
	}
}

// deriveStateInference deduces what the subroutine's entry state must have
// been from an operand-sized instruction seen before any change to that
// flag: the decode would have differed otherwise.
func (c *interpreter) deriveStateInference(instr *Instruction) {
	if instr.AddressMode() == cpu65816.ModeImmediateM && c.stateChange.M == nil {
		m := c.state.M
		c.inference.M = &m
	}
	if instr.AddressMode() == cpu65816.ModeImmediateX && c.stateChange.X == nil {
		x := c.state.X
		c.inference.X = &x
	}
}

// unknownStateChange records an unresolved path outcome on the current
// subroutine and stops this walk.
func (c *interpreter) unknownStateChange(reason UnknownReason) {
	c.subroutine().AddStateChange(NewUnknownStateChange(reason))
	c.stop = true
}
