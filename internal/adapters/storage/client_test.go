package storage

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestObjectKeyKeepsExtension(t *testing.T) {
	got := ObjectKey("reconciliation/2026-03-01_2026-03-31", "summary.json", "ab12cd34")
	want := "reconciliation/2026-03-01_2026-03-31/summary_ab12cd34.json"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestObjectErrorMapsMissingKey(t *testing.T) {
	err := objectError("reconciliation/x.json", minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."})
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}

	err = objectError("reconciliation/x.json", minio.ErrorResponse{Code: "AccessDenied"})
	if errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected other errors to pass through, got %v", err)
	}
}
