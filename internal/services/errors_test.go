package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"matchreel/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProvider, "ingest", "transfer", "upload failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ingest", "transfer", "upload failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want services.Kind
	}{
		{nil, ""},
		{services.Wrap(services.ErrValidation, "eventlog", "parse", "malformed", nil), services.KindValidation},
		{services.Wrap(services.ErrForbidden, "access", "require admin", "", nil), services.KindForbidden},
		{services.Wrap(services.ErrProvider, "mux", "create upload", "", errors.New("503")), services.KindProvider},
		{fmt.Errorf("%w: %w", services.ErrOrphanedUpload, services.ErrPersistence), services.KindOrphanedUpload},
		{errors.New("plain"), services.KindInternal},
	}
	for _, tc := range tests {
		if got := services.Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
