package api

import (
	"net/http"

	"matchreel/internal/ingest"
	"matchreel/internal/services"
)

// StatusFor maps a classified error to an HTTP status code.
func StatusFor(err error) int {
	switch services.Classify(err) {
	case "":
		return http.StatusOK
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindProvider:
		return http.StatusBadGateway
	case services.KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse builds the error body for err. Ingestion failures say
// whether the video was uploaded and whether a retry is safe.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error(), Kind: string(services.Classify(err))}
	if ie, ok := ingest.AsError(err); ok {
		resp.Uploaded = ie.Orphaned()
		resp.Retry = ie.Retryable()
		if ie.Orphaned() {
			resp.UploadID = ie.UploadID
		}
	}
	return resp
}
