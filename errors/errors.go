package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// AppError is the custom error type for the processing pipeline.
// Permanent errors must not be redelivered: the job is acknowledged and the
// meeting is marked ERROR. Transient errors leave the message to the bus for
// redelivery.
type AppError struct {
	Raw       error
	Code      ErrorCode
	Message   string
	Permanent bool
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As
func (e AppError) Unwrap() error {
	return e.Raw
}

// ErrInvalidEnvelope marks a malformed job envelope (never retried)
func ErrInvalidEnvelope(message string) AppError {
	return AppError{
		Code:      ErrorCode_INVALID_ENVELOPE,
		Message:   message,
		Permanent: true,
		Timestamp: time.Now(),
	}
}

// ErrMeetingNotFound marks a payload referencing an unknown meeting
func ErrMeetingNotFound(meetingID string) AppError {
	return AppError{
		Code:      ErrorCode_MEETING_NOT_FOUND,
		Message:   fmt.Sprintf("meeting metadata not found: %s", meetingID),
		Permanent: true,
		Timestamp: time.Now(),
	}
}

// ErrContentEmpty marks an empty transcript object
func ErrContentEmpty() AppError {
	return AppError{
		Code:      ErrorCode_CONTENT_EMPTY,
		Message:   "file is empty",
		Permanent: true,
		Timestamp: time.Now(),
	}
}

// ErrContentTooShort marks a transcript below the minimum useful length
func ErrContentTooShort(got, min int) AppError {
	return AppError{
		Code:      ErrorCode_CONTENT_TOO_SHORT,
		Message:   fmt.Sprintf("file content too short: %d characters (min %d)", got, min),
		Permanent: true,
		Timestamp: time.Now(),
	}
}

// ErrContentTooLarge marks a transcript over the configured size cap
func ErrContentTooLarge(sizeBytes, maxBytes int64) AppError {
	return AppError{
		Code:      ErrorCode_CONTENT_TOO_LARGE,
		Message:   fmt.Sprintf("file too large: %.1fMB (max %.1fMB)", float64(sizeBytes)/1024/1024, float64(maxBytes)/1024/1024),
		Permanent: true,
		Timestamp: time.Now(),
	}
}

// ErrExtraction wraps an extraction failure that exhausted its retries.
// Transient at the job level: the bus redelivers and the idempotency ledger
// makes the replay safe.
func ErrExtraction(err error) AppError {
	return AppError{
		Raw:       err,
		Code:      ErrorCode_EXTRACTION_FAILED,
		Message:   "extraction failed after retries",
		Permanent: false,
		Timestamp: time.Now(),
	}
}

// ErrTranscription wraps an audio transcription failure. Failures the
// provider reports for the audio itself are permanent, infrastructure
// failures are not.
func ErrTranscription(err error, permanent bool) AppError {
	return AppError{
		Raw:       err,
		Code:      ErrorCode_TRANSCRIPTION_FAILED,
		Message:   "audio transcription failed",
		Permanent: permanent,
		Timestamp: time.Now(),
	}
}

// ErrStorage wraps a blob fetch failure (transient)
func ErrStorage(err error) AppError {
	return AppError{
		Raw:       err,
		Code:      ErrorCode_STORAGE,
		Message:   "failed to fetch transcript object",
		Permanent: false,
		Timestamp: time.Now(),
	}
}

// ErrInternal wraps an unclassified error; treated as transient so the bus
// redelivers after the best-effort meeting ERROR update.
func ErrInternal(err error) AppError {
	return AppError{
		Raw:       err,
		Code:      ErrorCode_INTERNAL,
		Message:   "internal error",
		Permanent: false,
		Timestamp: time.Now(),
	}
}

// IsPermanent reports whether err (anywhere in its chain) is a permanent
// pipeline failure that must be acknowledged without redelivery.
func IsPermanent(err error) bool {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Permanent
	}
	return false
}

// CodeOf returns the pipeline error code of err, or ErrorCode_INTERNAL when
// the chain carries no AppError.
func CodeOf(err error) ErrorCode {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCode_INTERNAL
}
