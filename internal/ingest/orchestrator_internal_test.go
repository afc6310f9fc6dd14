package ingest

import (
	"errors"
	"testing"

	"matchreel/internal/eventlog"
	"matchreel/internal/services"
)

func TestCheckDraftsRejectsRowsTheStoreWouldRefuse(t *testing.T) {
	tests := []struct {
		name   string
		drafts []eventlog.Draft
		ok     bool
	}{
		{"empty", nil, true},
		{"valid", []eventlog.Draft{{Tag: "Goal", StartMs: 0, EndMs: 0}, {Tag: "Foul", StartMs: 10, EndMs: 20}}, true},
		{"negative start", []eventlog.Draft{{Tag: "Goal", StartMs: -1, EndMs: 5}}, false},
		{"end before start", []eventlog.Draft{{Tag: "Goal", StartMs: 10, EndMs: 9}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := checkDrafts(tc.drafts)
			if tc.ok && err != nil {
				t.Fatalf("expected drafts to pass, got %v", err)
			}
			if !tc.ok && !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}
