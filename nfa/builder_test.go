package nfa

import (
	"errors"
	"strings"
	"testing"

	"github.com/coregx/linex/syntax"
)

func TestBuilder_HandBuilt(t *testing.T) {
	// ab|c
	b := NewBuilder()
	match := b.AddMatch()
	bState := b.AddChar(syntax.NewRangeSet(syntax.Range{Lo: 'b', Hi: 'b'}), match)
	aState := b.AddChar(syntax.NewRangeSet(syntax.Range{Lo: 'a', Hi: 'a'}), bState)
	cState := b.AddChar(syntax.NewRangeSet(syntax.Range{Lo: 'c', Hi: 'c'}), match)
	split := b.AddSplit(aState, cState)
	b.SetStarts(split, split)

	n, err := b.Build(WithAnchored(true))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !n.IsAnchored() || !n.IsAlwaysAnchored() {
		t.Error("expected anchored NFA")
	}
	if n.CaptureCount() != 1 {
		t.Errorf("CaptureCount() = %d, want 1", n.CaptureCount())
	}

	left, right := n.State(split).Split()
	if left != aState || right != cState {
		t.Errorf("Split() = (%d, %d), want (%d, %d)", left, right, aState, cState)
	}
	set, next := n.State(aState).Char()
	if !set.Contains('a') || next != bState {
		t.Errorf("Char() = (%s, %d)", set, next)
	}

	vm := NewPikeVM(n)
	cache := vm.NewCache()
	for h, want := range map[string]bool{"ab": true, "c": true, "a": false, "xab": false} {
		if got := vm.IsMatch(cache, h, 0); got != want {
			t.Errorf("IsMatch(%q) = %v, want %v", h, got, want)
		}
	}
}

func TestBuilder_Accessors(t *testing.T) {
	b := NewBuilder()
	match := b.AddMatch()
	look := b.AddLook(LookWordBoundary, match)
	capture := b.AddCapture(1, look)
	eps := b.AddEpsilon(capture)
	fail := b.AddFail()
	b.SetStarts(eps, eps)

	n, err := b.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if got := n.State(eps).Epsilon(); got != capture {
		t.Errorf("Epsilon() = %d, want %d", got, capture)
	}
	if slot, next := n.State(capture).Capture(); slot != 1 || next != look {
		t.Errorf("Capture() = (%d, %d)", slot, next)
	}
	if l, next := n.State(look).Look(); l != LookWordBoundary || next != match {
		t.Errorf("Look() = (%s, %d)", l, next)
	}
	if n.State(fail).Kind() != StateFail {
		t.Errorf("Kind() = %s, want Fail", n.State(fail).Kind())
	}
	if !n.IsMatch(match) || n.IsMatch(fail) {
		t.Error("IsMatch reports wrong states")
	}
	if n.State(InvalidState) != nil || n.State(StateID(n.States())) != nil {
		t.Error("State should be nil for invalid IDs")
	}

	// Accessors of the wrong kind return sentinels
	if l, r := n.State(match).Split(); l != InvalidState || r != InvalidState {
		t.Error("Split() on Match should return InvalidState")
	}
	if set, next := n.State(match).Char(); set != nil || next != InvalidState {
		t.Error("Char() on Match should return nil, InvalidState")
	}
}

func TestBuilder_Patch(t *testing.T) {
	b := NewBuilder()
	match := b.AddMatch()
	eps := b.AddEpsilon(InvalidState)
	split := b.AddSplit(InvalidState, InvalidState)

	if err := b.Patch(eps, match); err != nil {
		t.Errorf("Patch(epsilon) error: %v", err)
	}
	if err := b.Patch(split, match); err == nil {
		t.Error("Patch(split) should fail")
	}
	if err := b.Patch(match, eps); err == nil {
		t.Error("Patch(match) should fail")
	}
	if err := b.Patch(StateID(100), match); err == nil {
		t.Error("Patch out of bounds should fail")
	}
	if err := b.PatchSplit(split, eps, match); err != nil {
		t.Errorf("PatchSplit error: %v", err)
	}
	if err := b.PatchSplit(eps, match, match); err == nil {
		t.Error("PatchSplit on epsilon should fail")
	}
}

func TestBuilder_Validate(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *Builder)
		wantMsg string
	}{
		{
			name:    "missing start",
			build:   func(b *Builder) { b.AddMatch() },
			wantMsg: "anchored start state not set",
		},
		{
			name: "start out of bounds",
			build: func(b *Builder) {
				b.AddMatch()
				b.SetStarts(5, 0)
			},
			wantMsg: "anchored start state out of bounds",
		},
		{
			name: "dangling next",
			build: func(b *Builder) {
				b.AddMatch()
				eps := b.AddEpsilon(InvalidState)
				b.SetStarts(eps, eps)
			},
			wantMsg: "invalid next state",
		},
		{
			name: "two match states",
			build: func(b *Builder) {
				m := b.AddMatch()
				b.AddMatch()
				b.SetStarts(m, m)
			},
			wantMsg: "exactly one match state",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.build(b)
			_, err := b.Build()
			var berr *BuildError
			if !errors.As(err, &berr) {
				t.Fatalf("expected *BuildError, got %v", err)
			}
			if !strings.Contains(berr.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", berr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestCompileError(t *testing.T) {
	err := &CompileError{Pattern: "a(", Err: ErrTooComplex}
	if !errors.Is(err, ErrTooComplex) {
		t.Error("CompileError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), `"a("`) {
		t.Errorf("Error() = %q", err.Error())
	}
	if got := (&CompileError{Err: ErrTooComplex}).Error(); got != "NFA compilation failed: pattern too complex" {
		t.Errorf("Error() = %q", got)
	}
}
