// Package render turns an analyzed ROM into a readable text listing: one
// label-prefixed block per subroutine, grounded on the teacher's
// disassembler/disassemble.go output shape (loc_XXXX labels, one
// instruction per line, "%-8s %s" mnemonic/operand columns), generalized
// from a flat linear sweep to the CFG the analysis package recovers.
package render

import (
	"fmt"
	"strings"

	"github.com/AndreaOrru/gilgamesh/analysis"
	"github.com/AndreaOrru/gilgamesh/cpu65816"
)

// Listing renders every subroutine the analysis discovered, in PC order.
func Listing(a *analysis.Analysis) string {
	var out strings.Builder
	for _, sub := range a.Subroutines() {
		writeSubroutine(&out, a, sub)
		out.WriteByte('\n')
	}
	return out.String()
}

func writeSubroutine(out *strings.Builder, a *analysis.Analysis, sub *analysis.Subroutine) {
	fmt.Fprintf(out, "%s:\n", sub.Label)
	for _, change := range sub.KnownStateChanges {
		fmt.Fprintf(out, "    ; known: %s\n", formatStateChange(change))
	}
	for _, change := range sub.UnknownStateChanges {
		fmt.Fprintf(out, "    ; unknown: %s\n", change.Reason)
	}

	for _, instr := range sub.OrderedInstructions() {
		if instr.Label != "" && instr.Label != sub.Label {
			fmt.Fprintf(out, "%s:\n", instr.Label)
		}
		writeInstruction(out, a, instr)
	}
}

func writeInstruction(out *strings.Builder, a *analysis.Analysis, instr *analysis.Instruction) {
	mnemonic := strings.ToLower(instr.Operation().String())
	operand := operandText(a, instr)
	if comment := instr.Comment(); comment != "" {
		operand = fmt.Sprintf("%-16s ; %s", operand, comment)
	}
	if operand == "" {
		fmt.Fprintf(out, "    %06X  %s\n", uint32(instr.PC), mnemonic)
		return
	}
	fmt.Fprintf(out, "    %06X  %-8s %s\n", uint32(instr.PC), mnemonic, operand)
}

// formatStateChange renders the subset of m/x/e the change actually touches.
func formatStateChange(c analysis.StateChange) string {
	var parts []string
	if c.M != nil {
		parts = append(parts, fmt.Sprintf("m=%v", *c.M))
	}
	if c.X != nil {
		parts = append(parts, fmt.Sprintf("x=%v", *c.X))
	}
	if c.E != nil {
		parts = append(parts, fmt.Sprintf("e=%v", *c.E))
	}
	if len(parts) == 0 {
		return "(no change)"
	}
	return strings.Join(parts, ", ")
}

// operandText formats an instruction's operand per its addressing mode,
// preferring a resolved label over a bare hex address where one exists.
func operandText(a *analysis.Analysis, instr *analysis.Instruction) string {
	mode := instr.AddressMode()
	// MaskedArgument, not RawArgument: RawArgument always carries a full
	// 3-byte ROM read regardless of the operand's real width, so operands
	// narrower than 3 bytes would otherwise print garbage high digits
	// pulled from whatever ROM bytes trail the instruction.
	arg := instr.MaskedArgument()

	switch mode {
	case cpu65816.ModeImplied, cpu65816.ModeAccumulator:
		return ""
	case cpu65816.ModeImmediateM, cpu65816.ModeImmediateX, cpu65816.ModeImmediate8:
		return fmt.Sprintf("#$%0*X", 2*instr.ArgumentSize(), arg)
	case cpu65816.ModeDirect:
		return fmt.Sprintf("$%02X", arg)
	case cpu65816.ModeDirectX:
		return fmt.Sprintf("$%02X,X", arg)
	case cpu65816.ModeDirectY:
		return fmt.Sprintf("$%02X,Y", arg)
	case cpu65816.ModeDirectIndirect:
		return fmt.Sprintf("($%02X)", arg)
	case cpu65816.ModeDirectIndirectLong:
		return fmt.Sprintf("[$%02X]", arg)
	case cpu65816.ModeDirectIndirectX:
		return fmt.Sprintf("($%02X,X)", arg)
	case cpu65816.ModeDirectIndirectIndexedY:
		return fmt.Sprintf("($%02X),Y", arg)
	case cpu65816.ModeDirectIndirectLongIndexedY:
		return fmt.Sprintf("[$%02X],Y", arg)
	case cpu65816.ModeStackRelative:
		return fmt.Sprintf("$%02X,S", arg)
	case cpu65816.ModeStackRelativeIndirectIndexedY:
		return fmt.Sprintf("($%02X,S),Y", arg)
	case cpu65816.ModeAbsolute:
		if label, ok := instr.ArgumentLabel(a); ok {
			return label
		}
		return fmt.Sprintf("$%04X", arg)
	case cpu65816.ModeAbsoluteX:
		return fmt.Sprintf("$%04X,X", arg)
	case cpu65816.ModeAbsoluteY:
		return fmt.Sprintf("$%04X,Y", arg)
	case cpu65816.ModeAbsoluteLong:
		if label, ok := instr.ArgumentLabel(a); ok {
			return label
		}
		return fmt.Sprintf("$%06X", arg)
	case cpu65816.ModeAbsoluteLongX:
		return fmt.Sprintf("$%06X,X", arg)
	case cpu65816.ModeAbsoluteIndirect:
		return fmt.Sprintf("($%04X)", arg)
	case cpu65816.ModeAbsoluteIndirectLong:
		return fmt.Sprintf("[$%04X]", arg)
	case cpu65816.ModeAbsoluteIndexedIndirect:
		return fmt.Sprintf("($%04X,X)", arg)
	case cpu65816.ModePCRelative, cpu65816.ModePCRelativeLong:
		if label, ok := instr.ArgumentLabel(a); ok {
			return label
		}
		if target, ok := instr.AbsoluteArgument(); ok {
			return fmt.Sprintf("$%06X", uint32(target))
		}
		return fmt.Sprintf("$%X", arg)
	case cpu65816.ModeBlockMove:
		return fmt.Sprintf("$%02X,$%02X", arg&0xFF, (arg>>8)&0xFF)
	default:
		return fmt.Sprintf("$%X", arg)
	}
}
