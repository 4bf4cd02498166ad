package rom_test

import (
	"testing"

	"github.com/AndreaOrru/gilgamesh/rom"
)

func makeLoROM(size int) []byte {
	data := make([]byte, size)
	// Minimal LoROM header at $7FC0.
	data[0x7FD5] = 0x20 // LoROM, slow
	return data
}

func TestReadByteWrap(t *testing.T) {
	data := makeLoROM(0x8000)
	data[0x7FFF] = 0xAB // file offset for bank $00, offset $FFFF
	r, err := rom.New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := r.ReadByte(0x00FFFF); got != 0xAB {
		t.Errorf("ReadByte(0x00FFFF) = %#x, want 0xAB", got)
	}
}

func TestReadWordLittleEndian(t *testing.T) {
	data := makeLoROM(0x8000)
	data[0] = 0x34
	data[1] = 0x12
	r, _ := rom.New(data)
	if got := r.ReadWord(0x008000); got != 0x1234 {
		t.Errorf("ReadWord = %#x, want 0x1234", got)
	}
}

func TestReadAddress(t *testing.T) {
	data := makeLoROM(0x8000)
	data[0] = 0x00
	data[1] = 0x80
	data[2] = 0x01
	r, _ := rom.New(data)
	if got := r.ReadAddress(0x018000); got != 0x018000 {
		t.Errorf("ReadAddress = %#x, want 0x018000", got)
	}
}

func TestIsRAM(t *testing.T) {
	data := makeLoROM(0x8000)
	r, _ := rom.New(data)
	cases := []struct {
		pc   rom.PC
		want bool
	}{
		{0x7E0000, true},
		{0x7F1234, true},
		{0x001000, true},  // low mirror of bank $00
		{0x008000, false}, // ROM region
		{0xC01000, false},
	}
	for _, c := range cases {
		if got := r.IsRAM(c.pc); got != c.want {
			t.Errorf("IsRAM(%s) = %v, want %v", c.pc, got, c.want)
		}
	}
}

func TestOutOfBoundsReadsZero(t *testing.T) {
	data := makeLoROM(0x8000)
	r, _ := rom.New(data)
	if got := r.ReadByte(0x001000); got != 0 {
		t.Errorf("ReadByte in unmapped LoROM low half = %#x, want 0", got)
	}
}

func TestDetectHiROM(t *testing.T) {
	data := make([]byte, 0x10000)
	data[0xFFD5] = 0x21 // HiROM, slow
	data[0xFFDC] = 0x34
	data[0xFFDD] = 0x12
	data[0xFFDE] = 0xCB
	data[0xFFDF] = 0xED // checksum ^ complement == 0xFFFF
	r, err := rom.New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Mapping() != rom.HiROM {
		t.Errorf("Mapping() = %v, want HiROM", r.Mapping())
	}
}
