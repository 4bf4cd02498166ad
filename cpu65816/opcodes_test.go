package cpu65816_test

import (
	"testing"

	"github.com/AndreaOrru/gilgamesh/cpu65816"
)

func TestDecodeBasic(t *testing.T) {
	tests := []struct {
		opcode byte
		op     cpu65816.Op
		mode   cpu65816.AddressMode
		cat    cpu65816.Category
	}{
		{0x78, cpu65816.OpSEI, cpu65816.ModeImplied, cpu65816.CategoryOther},
		{0x18, cpu65816.OpCLC, cpu65816.ModeImplied, cpu65816.CategoryOther},
		{0xFB, cpu65816.OpXCE, cpu65816.ModeImplied, cpu65816.CategoryOther},
		{0x6B, cpu65816.OpRTL, cpu65816.ModeImplied, cpu65816.CategoryReturn},
		{0x60, cpu65816.OpRTS, cpu65816.ModeImplied, cpu65816.CategoryReturn},
		{0xC2, cpu65816.OpREP, cpu65816.ModeImmediate8, cpu65816.CategorySepRep},
		{0xE2, cpu65816.OpSEP, cpu65816.ModeImmediate8, cpu65816.CategorySepRep},
		{0x20, cpu65816.OpJSR, cpu65816.ModeAbsolute, cpu65816.CategoryCall},
		{0x22, cpu65816.OpJSL, cpu65816.ModeAbsoluteLong, cpu65816.CategoryCall},
		{0x4C, cpu65816.OpJMP, cpu65816.ModeAbsolute, cpu65816.CategoryJump},
		{0x6C, cpu65816.OpJMP, cpu65816.ModeAbsoluteIndirect, cpu65816.CategoryJump},
		{0xA9, cpu65816.OpLDA, cpu65816.ModeImmediateM, cpu65816.CategoryOther},
		{0xA2, cpu65816.OpLDX, cpu65816.ModeImmediateX, cpu65816.CategoryOther},
		{0x00, cpu65816.OpBRK, cpu65816.ModeImmediate8, cpu65816.CategoryInterrupt},
		{0x80, cpu65816.OpBRA, cpu65816.ModePCRelative, cpu65816.CategoryBranch},
		{0x82, cpu65816.OpBRL, cpu65816.ModePCRelativeLong, cpu65816.CategoryBranch},
		{0x08, cpu65816.OpPHP, cpu65816.ModeImplied, cpu65816.CategoryPush},
		{0x28, cpu65816.OpPLP, cpu65816.ModeImplied, cpu65816.CategoryPop},
	}
	for _, tt := range tests {
		op, mode, cat := cpu65816.Decode(tt.opcode)
		if op != tt.op || mode != tt.mode || cat != tt.cat {
			t.Errorf("Decode(%#02x) = (%v,%v,%v), want (%v,%v,%v)",
				tt.opcode, op, mode, cat, tt.op, tt.mode, tt.cat)
		}
	}
}

func TestOperandSizeImmediateFollowsState(t *testing.T) {
	wide := cpu65816.NewState(false, false, false)
	narrow := cpu65816.NewState(true, true, false)

	if got := cpu65816.OperandSize(cpu65816.ModeImmediateM, wide); got != 2 {
		t.Errorf("ImmediateM wide = %d, want 2", got)
	}
	if got := cpu65816.OperandSize(cpu65816.ModeImmediateM, narrow); got != 1 {
		t.Errorf("ImmediateM narrow = %d, want 1", got)
	}
	if got := cpu65816.OperandSize(cpu65816.ModeImmediateX, wide); got != 2 {
		t.Errorf("ImmediateX wide = %d, want 2", got)
	}
	if got := cpu65816.OperandSize(cpu65816.ModeAbsoluteLong, wide); got != 3 {
		t.Errorf("AbsoluteLong = %d, want 3", got)
	}
}
