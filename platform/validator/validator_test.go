package validator

import "testing"

type submitRequest struct {
	WindowDays    int    `validate:"required,window_days"`
	MilestoneType *int   `validate:"omitempty,milestone_type"`
	Week          string `validate:"omitempty,iso_week"`
}

func TestCustomTagsAcceptDomainValues(t *testing.T) {
	val := New()
	five := 5

	if err := val.Struct(submitRequest{WindowDays: 14, MilestoneType: &five, Week: "2026-W05"}); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if err := val.Struct(submitRequest{WindowDays: 7}); err != nil {
		t.Fatalf("expected optional fields to be skipped, got %v", err)
	}
}

func TestCustomTagsRejectOutOfDomainValues(t *testing.T) {
	val := New()
	three := 3

	if err := val.Struct(submitRequest{WindowDays: 10}); err == nil {
		t.Fatalf("expected window 10 to be rejected")
	}
	if err := val.Struct(submitRequest{WindowDays: 7, MilestoneType: &three}); err == nil {
		t.Fatalf("expected milestone type 3 to be rejected")
	}
	if err := val.Struct(submitRequest{WindowDays: 7, Week: "2026-5"}); err == nil {
		t.Fatalf("expected malformed week to be rejected")
	}
}
