package ingest

import (
	"errors"
	"fmt"
)

// Stage names the step an ingestion attempt failed in.
type Stage string

const (
	StageValidate     Stage = "validate"
	StageCreateUpload Stage = "create_upload"
	StageTransfer     Stage = "transfer"
	StagePersist      Stage = "persist"
)

// Error describes a failed ingestion attempt.
type Error struct {
	Stage Stage
	// UploadID is set once the provider has issued an upload.
	UploadID string
	// Transferred reports whether the video bytes reached the provider.
	Transferred bool
	Err         error
}

func (e *Error) Error() string {
	if e.UploadID != "" {
		return fmt.Sprintf("ingest %s (upload %s): %v", e.Stage, e.UploadID, e.Err)
	}
	return fmt.Sprintf("ingest %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Orphaned reports that the video exists at the provider but no match
// references it.
func (e *Error) Orphaned() bool {
	return e != nil && e.Transferred && e.Stage == StagePersist
}

// Retryable reports whether resubmitting the same request is safe and may
// succeed: nothing was persisted locally and no video was left behind.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Stage == StageCreateUpload || e.Stage == StageTransfer
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
