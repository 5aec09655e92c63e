package vault

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized indicates the backend rejected the credential. The
	// stored credential has already been removed when this is returned.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoFiles indicates an upload was requested with an empty batch.
	ErrNoFiles = errors.New("no files to upload")
)

// RequestFailedError is returned for any non-2xx response other than 401,
// and for success responses whose body could not be decoded.
type RequestFailedError struct {
	Status  int
	Message string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

// UploadFailedError is returned when an upload batch is rejected.
type UploadFailedError struct {
	Message string
	Err     error
}

func (e *UploadFailedError) Error() string {
	return "upload failed: " + e.Message
}

func (e *UploadFailedError) Unwrap() error {
	return e.Err
}

func failureMessage(status int, body []byte) string {
	if msg := trimBody(body); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
