package jobcontext

import (
	"context"
	"time"
)

type KeyContext string

var (
	keyMessageID    KeyContext = "message_id"
	keyMeetingID    KeyContext = "meeting_id"
	keyJobStartTime KeyContext = "job_start_time"
)

// JobMetadata holds metadata for a job execution
type JobMetadata struct {
	MessageID string
	MeetingID string
	StartTime time.Time
}

// JobBegin initializes a job context with metadata and timeout
// Creates a derived context with a 5 minute deadline so a stuck extraction
// cannot hold the push request forever.
func JobBegin(parentCtx context.Context, messageID, meetingID string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parentCtx, 5*time.Minute)

	ctx = context.WithValue(ctx, keyMessageID, messageID)
	ctx = context.WithValue(ctx, keyMeetingID, meetingID)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())

	return ctx, cancel
}

// GetMessageID extracts the bus message ID from context
func GetMessageID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(keyMessageID).(string)
	return id, ok
}

// GetMeetingID extracts the meeting ID from context
func GetMeetingID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(keyMeetingID).(string)
	return id, ok
}

// GetJobStartTime extracts job start time from context
func GetJobStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyJobStartTime).(time.Time)
	return startTime, ok
}

// GetJobMetadata extracts all job metadata from context
func GetJobMetadata(ctx context.Context) *JobMetadata {
	messageID, _ := GetMessageID(ctx)
	meetingID, _ := GetMeetingID(ctx)
	startTime, _ := GetJobStartTime(ctx)

	return &JobMetadata{
		MessageID: messageID,
		MeetingID: meetingID,
		StartTime: startTime,
	}
}

// ElapsedMS returns milliseconds since the job started, 0 when unknown
func ElapsedMS(ctx context.Context) int64 {
	startTime, ok := GetJobStartTime(ctx)
	if !ok {
		return 0
	}
	return time.Since(startTime).Milliseconds()
}
