package wfc

import (
	"errors"
	"testing"
)

func TestCompatibilityDirectional(t *testing.T) {
	compat := NewCompatibility()
	compat.Declare("door", "corridor")
	compat.Allow("door", "corridor")
	compat.Complete()

	// Acceptance is directional; the reverse pair stays incompatible
	// until set explicitly.
	if !compat.Compatible("door", "corridor") {
		t.Error(`Compatible("door", "corridor") = false, want true`)
	}
	if compat.Compatible("corridor", "door") {
		t.Error(`Compatible("corridor", "door") = true, want false`)
	}
}

func TestCompatibilityAllowMutual(t *testing.T) {
	compat := NewCompatibility()
	compat.AllowMutual("road", "road")
	compat.AllowMutual("road", "bridge")
	compat.Complete()

	pairs := [][2]Socket{
		{"road", "road"},
		{"road", "bridge"},
		{"bridge", "road"},
	}
	for _, p := range pairs {
		if !compat.Compatible(p[0], p[1]) {
			t.Errorf("Compatible(%q, %q) = false, want true", p[0], p[1])
		}
	}
	if compat.Compatible("bridge", "bridge") {
		t.Error(`Compatible("bridge", "bridge") = true, want false`)
	}
}

func TestCompatibilityDefined(t *testing.T) {
	compat := NewCompatibility()
	compat.Declare("a", "b")
	compat.Set("a", "b", false)

	if !compat.Defined("a", "b") {
		t.Error(`Defined("a", "b") = false, want true`)
	}
	if compat.Defined("b", "a") {
		t.Error(`Defined("b", "a") = true before Complete, want false`)
	}
	if compat.Defined("a", "missing") {
		t.Error(`Defined("a", "missing") = true, want false`)
	}

	compat.Complete()
	if !compat.Defined("b", "a") {
		t.Error(`Defined("b", "a") = false after Complete, want true`)
	}
}

func TestCompatibilityValidate(t *testing.T) {
	empty := NewCompatibility()
	if err := empty.Validate(); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("Validate() on empty table = %v, want ErrInvalidCatalog", err)
	}

	partial := NewCompatibility()
	partial.Declare("a", "b")
	partial.Set("a", "a", true)
	if err := partial.Validate(); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("Validate() on partial table = %v, want ErrInvalidCatalog", err)
	}

	partial.Complete()
	if err := partial.Validate(); err != nil {
		t.Errorf("Validate() after Complete = %v, want nil", err)
	}
}

func TestCompatibilitySockets(t *testing.T) {
	compat := NewCompatibility()
	compat.Declare("first", "second")
	compat.Declare("second", "third")

	got := compat.Sockets()
	want := []Socket{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("Sockets() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sockets()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if !compat.Declared("third") {
		t.Error(`Declared("third") = false, want true`)
	}
	if compat.Declared("fourth") {
		t.Error(`Declared("fourth") = true, want false`)
	}
}
