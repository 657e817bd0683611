package apperr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestGetKindFindsWrappedDomainError(t *testing.T) {
	err := fmt.Errorf("load record: %w", NotFound("match record not found"))

	if GetKind(err) != KindNotFound {
		t.Fatalf("expected KindNotFound through wrapping, got %v", GetKind(err))
	}
	if !Is(err, KindNotFound) {
		t.Fatalf("expected Is(KindNotFound) to be true")
	}
}

func TestStateConflictMapsToHTTPConflict(t *testing.T) {
	err := StateConflict("instance is not pending")
	if err.HTTPStatus() != http.StatusConflict {
		t.Fatalf("expected 409, got %d", err.HTTPStatus())
	}
}

func TestPartialFailureCarriesCounts(t *testing.T) {
	err := PartialFailure(2, 10)
	if err.Kind != KindPartialFailure {
		t.Fatalf("expected KindPartialFailure, got %v", err.Kind)
	}
	details, ok := err.Details.(map[string]int64)
	if !ok {
		t.Fatalf("expected map details, got %T", err.Details)
	}
	if details["failed"] != 2 || details["total"] != 10 {
		t.Fatalf("unexpected details %v", details)
	}
	if err.Error() != "2 of 10 items failed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
