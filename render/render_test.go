package render_test

import (
	"strings"
	"testing"

	"github.com/AndreaOrru/gilgamesh/analysis"
	"github.com/AndreaOrru/gilgamesh/render"
	"github.com/AndreaOrru/gilgamesh/rom"
)

func newTestROM(t *testing.T, program []byte, resetPC uint16) *rom.ROM {
	t.Helper()
	data := make([]byte, 0x8000)
	copy(data, program)
	data[0x7FFC] = byte(resetPC)
	data[0x7FFD] = byte(resetPC >> 8)

	r, err := rom.New(data)
	if err != nil {
		t.Fatalf("rom.New: %v", err)
	}
	return r
}

func TestListingIncludesMnemonicsAndStateChange(t *testing.T) {
	r := newTestROM(t, []byte{0x78, 0x18, 0xFB, 0x6B}, 0x8000)
	a := analysis.New(r)
	a.Run()

	out := render.Listing(a)
	for _, want := range []string{"reset:", "sei", "clc", "xce", "rtl", "e=false"} {
		if !strings.Contains(strings.ToLower(out), strings.ToLower(want)) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestListingShowsUnknownReason(t *testing.T) {
	r := newTestROM(t, []byte{0x6C, 0x00, 0x00}, 0x8000)
	a := analysis.New(r)
	a.Run()

	out := render.Listing(a)
	if !strings.Contains(out, "IndirectJump") {
		t.Errorf("listing missing unknown reason:\n%s", out)
	}
}
