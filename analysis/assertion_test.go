package analysis

import "testing"

func TestAssertionInstructionScoped(t *testing.T) {
	store := newAssertionStore()
	change := StateChange{M: boolPtr(true)}
	store.addInstruction(0x8010, change)

	got, ok := store.at(0x8010, 0x8000)
	if !ok {
		t.Fatal("expected an assertion at 0x8010")
	}
	if got.Kind != AssertionInstruction {
		t.Errorf("Kind = %v, want AssertionInstruction", got.Kind)
	}
	if !got.Change.equalFlags(change) {
		t.Errorf("Change = %+v, want %+v", got.Change, change)
	}
}

func TestAssertionSubroutineScopedRequiresMatchingCaller(t *testing.T) {
	store := newAssertionStore()
	change := StateChange{X: boolPtr(false)}
	store.addSubroutine(0x8010, 0x8000, change)

	if _, ok := store.at(0x8010, 0x9000); ok {
		t.Error("assertion fired for the wrong calling subroutine")
	}
	got, ok := store.at(0x8010, 0x8000)
	if !ok {
		t.Fatal("expected an assertion for the matching caller")
	}
	if !got.Change.equalFlags(change) {
		t.Errorf("Change = %+v, want %+v", got.Change, change)
	}
}

func TestAssertionInstructionScopeTakesPrecedence(t *testing.T) {
	store := newAssertionStore()
	store.addSubroutine(0x8010, 0x8000, StateChange{X: boolPtr(false)})
	store.addInstruction(0x8010, StateChange{M: boolPtr(true)})

	got, _ := store.at(0x8010, 0x8000)
	if got.Kind != AssertionInstruction {
		t.Errorf("Kind = %v, want AssertionInstruction to win over subroutine scope", got.Kind)
	}
}
