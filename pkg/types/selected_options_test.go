package types

import (
	"testing"

	"github.com/google/uuid"
)

func TestSelectedOptionsFingerprintIgnoresOrdering(t *testing.T) {
	productID := uuid.New()

	a := SelectedOptions{
		"Tamanho":      {"Grande"},
		"Acompanhante": {"Coalhada", "Homus"},
	}
	b := SelectedOptions{
		"Acompanhante": {"Homus", "Coalhada"},
		"Tamanho":      {"Grande"},
	}

	if a.Fingerprint(productID) != b.Fingerprint(productID) {
		t.Fatalf("expected identical fingerprints for reordered selections")
	}
}

func TestSelectedOptionsFingerprintDistinguishesSelections(t *testing.T) {
	productID := uuid.New()

	base := SelectedOptions{"Tamanho": {"Grande"}}
	other := SelectedOptions{"Tamanho": {"Pequena"}}

	if base.Fingerprint(productID) == other.Fingerprint(productID) {
		t.Fatalf("different selections must not collide")
	}
	if base.Fingerprint(productID) == base.Fingerprint(uuid.New()) {
		t.Fatalf("different products must not collide")
	}
}

func TestSelectedOptionsNormalizeDropsEmptyGroups(t *testing.T) {
	raw := SelectedOptions{
		"Tamanho": {"Grande"},
		"Extras":  {},
	}

	normalized := raw.Normalize()
	if _, ok := normalized["Extras"]; ok {
		t.Fatalf("expected empty group to be dropped")
	}
	if len(normalized["Tamanho"]) != 1 {
		t.Fatalf("expected Tamanho to survive normalization")
	}

	productID := uuid.New()
	trimmed := SelectedOptions{"Tamanho": {"Grande"}}
	if raw.Fingerprint(productID) != trimmed.Fingerprint(productID) {
		t.Fatalf("empty groups should not affect line identity")
	}
}

func TestSelectedOptionsClone(t *testing.T) {
	original := SelectedOptions{"Tamanho": {"Grande"}}
	clone := original.Clone()
	clone["Tamanho"][0] = "Pequena"

	if original["Tamanho"][0] != "Grande" {
		t.Fatalf("clone mutated the original selection")
	}
}
