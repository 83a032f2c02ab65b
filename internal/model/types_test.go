package model

import (
	"errors"
	"testing"
)

func TestAntibodyRecalled(t *testing.T) {
	if !(Antibody{Antigen: Antigen{Value: 5}, Effort: 0}).Recalled() {
		t.Fatal("zero-effort antibody should report recalled")
	}
	if (Antibody{Antigen: Antigen{Value: 5}, Effort: 3}).Recalled() {
		t.Fatal("produced antibody should not report recalled")
	}
}

func TestInvalidAntigenErrorCarriesValue(t *testing.T) {
	var err error = &InvalidAntigenError{Value: -1}

	var invalid *InvalidAntigenError
	if !errors.As(err, &invalid) {
		t.Fatal("expected InvalidAntigenError")
	}
	if invalid.Value != -1 {
		t.Fatalf("unexpected value: %d", invalid.Value)
	}
	if invalid.Error() != "invalid antigen value: -1" {
		t.Fatalf("unexpected message: %s", invalid.Error())
	}
}
