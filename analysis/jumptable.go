package analysis

import "github.com/AndreaOrru/gilgamesh/rom"

// JumpTableStatus reports whether a declared jump table has been fully
// enumerated.
type JumpTableStatus int

const (
	JumpTableComplete JumpTableStatus = iota
	JumpTablePartial
)

// JumpTable is a user-declared indirect-jump site: a caller PC, an
// inclusive index range, and the resolved index -> target map.
type JumpTable struct {
	CallerPC InstructionPC
	Lo, Hi   int
	Stride   int // 2 for short addresses, 3 for long
	Status   JumpTableStatus
	Targets  map[int]PC
}

// declareJumpTable materializes a jump table's targets by reading the
// caller's address region: a 16-bit word per index for stride 2, or a
// 24-bit address for stride 3, read at (caller.bank | (caller.argument+x)).
func declareJumpTable(r *rom.ROM, callerPC InstructionPC, callerArgument PC, lo, hi, stride int, status JumpTableStatus) *JumpTable {
	jt := &JumpTable{
		CallerPC: callerPC,
		Lo:       lo,
		Hi:       hi,
		Stride:   stride,
		Status:   status,
		Targets:  make(map[int]PC),
	}
	bank := callerPC & 0xFF0000
	for x := lo; x <= hi; x += stride {
		addr := bank | PC(uint32(callerArgument)+uint32(x))
		var target PC
		if stride == 3 {
			target = r.ReadAddress(addr)
		} else {
			target = (bank) | PC(r.ReadWord(addr))
		}
		jt.Targets[x] = target
	}
	return jt
}
