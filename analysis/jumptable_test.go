package analysis

import (
	"testing"

	"github.com/AndreaOrru/gilgamesh/rom"
)

func TestDeclareJumpTableStride2(t *testing.T) {
	data := make([]byte, 0x8000)
	// Table at file offset 0 (PC bank $00, offset $8000): two word targets.
	data[0] = 0x00
	data[1] = 0x90 // index 0 -> $009000
	data[2] = 0x10
	data[3] = 0x90 // index 2 -> $009010 (past hi=1, so not read)
	setResetVector(data, 0x8000)

	r, err := rom.New(data)
	if err != nil {
		t.Fatalf("rom.New: %v", err)
	}

	jt := declareJumpTable(r, 0x008100, 0x008000, 0, 1, 2, JumpTableComplete)
	if len(jt.Targets) != 1 {
		t.Fatalf("len(Targets) = %d, want 1 (lo=0,hi=1,stride=2 -> one index)", len(jt.Targets))
	}
	if jt.Targets[0] != 0x009000 {
		t.Errorf("Targets[0] = %06X, want 009000", uint32(jt.Targets[0]))
	}
}

func TestDeclareJumpTableStride3Long(t *testing.T) {
	data := make([]byte, 0x8000)
	data[0] = 0x34
	data[1] = 0x12
	data[2] = 0x01 // index 0 -> $011234
	setResetVector(data, 0x8000)

	r, err := rom.New(data)
	if err != nil {
		t.Fatalf("rom.New: %v", err)
	}

	jt := declareJumpTable(r, 0x008100, 0x008000, 0, 0, 3, JumpTablePartial)
	if jt.Status != JumpTablePartial {
		t.Errorf("Status = %v, want JumpTablePartial", jt.Status)
	}
	if jt.Targets[0] != 0x011234 {
		t.Errorf("Targets[0] = %06X, want 011234", uint32(jt.Targets[0]))
	}
}

func setResetVector(data []byte, pc uint16) {
	data[0x7FFC] = byte(pc)
	data[0x7FFD] = byte(pc >> 8)
}
