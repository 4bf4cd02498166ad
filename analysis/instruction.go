package analysis

import (
	"github.com/AndreaOrru/gilgamesh/cpu65816"
	"github.com/AndreaOrru/gilgamesh/rom"
)

// PC is a 24-bit ROM address. InstructionPC and SubroutinePC are aliases
// used for clarity at call sites, matching the roles a PC plays.
type PC = rom.PC
type InstructionPC = PC
type SubroutinePC = PC

// Reference is a directed edge from one instruction's PC to a target PC,
// scoped by the subroutine doing the referring.
type Reference struct {
	Target       PC
	SubroutinePC SubroutinePC
}

// Instruction is a decoded instruction at a specific (pc, entry-state).
// Two occurrences at the same pc but under different entry states are
// distinct, because an immediate operand's size depends on m/x.
type Instruction struct {
	PC           InstructionPC
	SubroutinePC SubroutinePC
	Opcode       byte
	Argument     uint32 // raw 3-byte little-endian read after the opcode; see MaskedArgument
	State        cpu65816.State
	Label        string
	comment      string
}

// key uniquely identifies an instruction for dedup purposes: full identity
// including the entry state.
type instructionKey struct {
	pc    InstructionPC
	state cpu65816.State
}

func (i *Instruction) key() instructionKey {
	return instructionKey{pc: i.PC, state: i.State}
}

// Operation returns the instruction's mnemonic.
func (i *Instruction) Operation() cpu65816.Op {
	op, _, _ := cpu65816.Decode(i.Opcode)
	return op
}

// AddressMode returns the instruction's addressing mode.
func (i *Instruction) AddressMode() cpu65816.AddressMode {
	_, mode, _ := cpu65816.Decode(i.Opcode)
	return mode
}

// Category returns the instruction's dispatch category.
func (i *Instruction) Category() cpu65816.Category {
	_, _, cat := cpu65816.Decode(i.Opcode)
	return cat
}

// Size is the instruction's total length in bytes, including the opcode.
func (i *Instruction) Size() int {
	return 1 + cpu65816.OperandSize(i.AddressMode(), i.State)
}

// ArgumentSize is the operand width in bytes (Size() - 1).
func (i *Instruction) ArgumentSize() int {
	return i.Size() - 1
}

// RawArgument returns the instruction's raw operand bytes, as read directly
// out of ROM. This always spans a full 3-byte read regardless of the
// instruction's actual operand width (see interpreter.go's decode step), so
// callers that need just the operand must use MaskedArgument instead.
func (i *Instruction) RawArgument() uint32 {
	return i.Argument
}

// MaskedArgument returns the operand truncated to ArgumentSize() bytes,
// discarding the high bytes RawArgument inherits from the trailing ROM
// bytes read past a narrow operand.
func (i *Instruction) MaskedArgument() uint32 {
	bits := uint(8 * i.ArgumentSize())
	if bits >= 32 {
		return i.Argument
	}
	return i.Argument & ((1 << bits) - 1)
}

// AbsoluteArgument resolves the instruction's operand to an absolute PC
// where statically possible. Indirect and register-indexed modes have no
// statically resolvable target and return (0, false).
func (i *Instruction) AbsoluteArgument() (PC, bool) {
	switch i.AddressMode() {
	case cpu65816.ModePCRelative:
		offset := int8(i.Argument)
		target := int32(i.PC) + int32(i.Size()) + int32(offset)
		return wrapWithinBank(i.PC, target), true
	case cpu65816.ModePCRelativeLong:
		offset := int16(i.Argument)
		target := int32(i.PC) + int32(i.Size()) + int32(offset)
		return wrapWithinBank(i.PC, target), true
	case cpu65816.ModeAbsolute:
		return (i.PC & 0xFF0000) | PC(uint16(i.Argument)), true
	case cpu65816.ModeAbsoluteLong:
		return PC(i.Argument).Mask(), true
	default:
		return 0, false
	}
}

// wrapWithinBank folds a signed PC-relative displacement back into the
// instruction's own bank, as the 65816 program counter does.
func wrapWithinBank(base PC, target int32) PC {
	bank := base & 0xFF0000
	return bank | PC(uint16(target))
}

// Comment returns the instruction's free-text annotation, if any.
func (i *Instruction) Comment() string { return i.comment }

// SetComment sets the instruction's free-text annotation.
func (i *Instruction) SetComment(c string) { i.comment = c }

// ChangesA reports whether the instruction can modify the accumulator.
func (i *Instruction) ChangesA() bool {
	switch i.Operation() {
	case cpu65816.OpLDA, cpu65816.OpADC, cpu65816.OpSBC, cpu65816.OpAND,
		cpu65816.OpORA, cpu65816.OpEOR, cpu65816.OpINC, cpu65816.OpDEC,
		cpu65816.OpASL, cpu65816.OpLSR, cpu65816.OpROL, cpu65816.OpROR,
		cpu65816.OpTXA, cpu65816.OpTYA, cpu65816.OpTDC, cpu65816.OpPLA,
		cpu65816.OpXBA:
		return true
	default:
		return false
	}
}

// ChangesX reports whether the instruction can modify X or Y.
func (i *Instruction) ChangesX() bool {
	switch i.Operation() {
	case cpu65816.OpLDX, cpu65816.OpLDY, cpu65816.OpINX, cpu65816.OpINY,
		cpu65816.OpDEX, cpu65816.OpDEY, cpu65816.OpTAX, cpu65816.OpTAY,
		cpu65816.OpTSX, cpu65816.OpTXY, cpu65816.OpTYX, cpu65816.OpPLX,
		cpu65816.OpPLY:
		return true
	default:
		return false
	}
}

// ChangesStackPointer reports whether the instruction directly sets S.
func (i *Instruction) ChangesStackPointer() bool {
	switch i.Operation() {
	case cpu65816.OpTXS, cpu65816.OpTCS:
		return true
	default:
		return false
	}
}

// IsControl reports whether the instruction transfers control (branch,
// call, jump or return).
func (i *Instruction) IsControl() bool {
	switch i.Category() {
	case cpu65816.CategoryBranch, cpu65816.CategoryCall,
		cpu65816.CategoryJump, cpu65816.CategoryReturn:
		return true
	default:
		return false
	}
}

// PCPair identifies the instruction by (pc, subroutine pc).
func (i *Instruction) PCPair() (InstructionPC, SubroutinePC) {
	return i.PC, i.SubroutinePC
}

// ArgumentLabel resolves the instruction's absolute argument to a label,
// when the target names a known subroutine or a labeled local instruction.
func (i *Instruction) ArgumentLabel(a *Analysis) (string, bool) {
	target, ok := i.AbsoluteArgument()
	if !ok {
		return "", false
	}
	if sub, ok := a.Subroutine(target); ok {
		return sub.Label, true
	}
	if instr := a.AnyInstruction(target); instr != nil && instr.Label != "" {
		return instr.Label, true
	}
	return "", false
}
