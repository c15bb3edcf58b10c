package errors

// ErrorCode identifies a pipeline failure class
type ErrorCode string

const (
	ErrorCode_INTERNAL             ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ENVELOPE     ErrorCode = "INVALID_ENVELOPE"
	ErrorCode_MEETING_NOT_FOUND    ErrorCode = "MEETING_NOT_FOUND"
	ErrorCode_CONTENT_EMPTY        ErrorCode = "CONTENT_EMPTY"
	ErrorCode_CONTENT_TOO_SHORT    ErrorCode = "CONTENT_TOO_SHORT"
	ErrorCode_CONTENT_TOO_LARGE    ErrorCode = "CONTENT_TOO_LARGE"
	ErrorCode_EXTRACTION_FAILED    ErrorCode = "EXTRACTION_FAILED"
	ErrorCode_TRANSCRIPTION_FAILED ErrorCode = "TRANSCRIPTION_FAILED"
	ErrorCode_STORAGE              ErrorCode = "STORAGE"
)

// String implements fmt.Stringer
func (c ErrorCode) String() string {
	return string(c)
}
