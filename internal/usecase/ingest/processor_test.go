package ingest

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kumemura-df/struct-project/errors"
	"github.com/kumemura-df/struct-project/internal/domain/entities"
	"github.com/kumemura-df/struct-project/internal/infrastructure/cache"
	"github.com/kumemura-df/struct-project/internal/usecase/persist"
	"github.com/kumemura-df/struct-project/pkg/ai"
	"github.com/kumemura-df/struct-project/pkg/config"
)

type fakeMeetingRepo struct {
	meetings map[uuid.UUID]*entities.Meeting
	statuses []entities.MeetingStatus
	lastErr  string
	getErr   error
	updErr   error
}

func (f *fakeMeetingRepo) CreateMeeting(ctx context.Context, m *entities.Meeting) error {
	f.meetings[m.ID] = m
	return nil
}

func (f *fakeMeetingRepo) GetMeetingByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.meetings[id], nil
}

func (f *fakeMeetingRepo) UpdateMeetingStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus, errorMessage string) error {
	if f.updErr != nil {
		return f.updErr
	}
	if m, ok := f.meetings[id]; ok && !m.Status.IsTerminal() {
		m.Status = status
		m.ErrorMessage = errorMessage
	}
	f.statuses = append(f.statuses, status)
	f.lastErr = errorMessage
	return nil
}

func (f *fakeMeetingRepo) UpdateMeetingLanguage(ctx context.Context, id uuid.UUID, language string) error {
	return nil
}

type fakeLedger struct {
	processed map[string]bool
	isErr     error
	markErr   error
	marked    []string
}

func (f *fakeLedger) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	if f.isErr != nil {
		return false, f.isErr
	}
	return f.processed[messageID], nil
}

func (f *fakeLedger) MarkProcessed(ctx context.Context, record *entities.ProcessedMessage) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.processed[record.MessageID] = true
	f.marked = append(f.marked, record.MessageID)
	return nil
}

type fakeBlobs struct {
	objects map[string][]byte
	statErr error
}

func (f *fakeBlobs) StatSize(ctx context.Context, ref string) (int64, error) {
	if f.statErr != nil {
		return 0, f.statErr
	}
	data, ok := f.objects[ref]
	if !ok {
		return 0, errors.New("object not found")
	}
	return int64(len(data)), nil
}

func (f *fakeBlobs) FetchObject(ctx context.Context, ref string) ([]byte, error) {
	data, ok := f.objects[ref]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type fakeExtractor struct {
	result *entities.ExtractionResult
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(ctx context.Context, text string, referenceDate time.Time) (*entities.ExtractionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakePersister struct {
	stats *persist.Stats
	errs  []error
	calls int
}

func (f *fakePersister) Persist(ctx context.Context, meeting *entities.Meeting, extraction *entities.ExtractionResult) (*persist.Stats, []error) {
	f.calls++
	return f.stats, f.errs
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeTranscriber) Language() string { return "en" }

type fixture struct {
	meetings    *fakeMeetingRepo
	ledger      *fakeLedger
	blobs       *fakeBlobs
	extractor   *fakeExtractor
	persister   *fakePersister
	transcriber *fakeTranscriber
	processor   *Processor
	meetingID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	meetingID := uuid.New()
	meeting := entities.NewMeeting("tenant-1", "Weekly Sync")
	meeting.ID = meetingID

	f := &fixture{
		meetings: &fakeMeetingRepo{meetings: map[uuid.UUID]*entities.Meeting{meetingID: meeting}},
		ledger:   &fakeLedger{processed: map[string]bool{}},
		blobs: &fakeBlobs{objects: map[string][]byte{
			"transcripts/notes.txt": []byte("Alice: we decided to ship Friday"),
			"recordings/sync.mp3":   []byte("fake-audio-bytes"),
		}},
		extractor:   &fakeExtractor{result: &entities.ExtractionResult{}},
		persister:   &fakePersister{stats: &persist.Stats{Tasks: 1}},
		transcriber: &fakeTranscriber{text: "Alice: the rollout finished"},
		meetingID:   meetingID,
	}
	f.processor = NewProcessor(
		f.meetings,
		f.ledger,
		cache.NewMemoryStore(),
		f.blobs,
		f.transcriber,
		f.extractor,
		f.persister,
		config.WorkerConfig{MaxFileSizeMB: 1, MinContentChars: 10},
		nil,
	)
	return f
}

func textJob(f *fixture) Job {
	return Job{
		MessageID:     "msg-1",
		MeetingID:     f.meetingID.String(),
		TranscriptRef: "transcripts/notes.txt",
	}
}

func TestProcess_Success(t *testing.T) {
	f := newFixture(t)

	result := f.processor.Process(context.Background(), textJob(f))
	if result.Outcome != OutcomeAck {
		t.Fatalf("expected ack, got %v (err=%v)", result.Outcome, result.Err)
	}
	if result.Stats == nil || result.Stats.Tasks != 1 {
		t.Errorf("unexpected stats %+v", result.Stats)
	}
	if got := f.meetings.meetings[f.meetingID].Status; got != entities.MeetingStatusDone {
		t.Errorf("expected DONE, got %s", got)
	}
	if !f.ledger.processed["msg-1"] {
		t.Error("expected the message to be ledgered")
	}
	// Text path goes straight to PROCESSING, then DONE
	if len(f.meetings.statuses) != 2 || f.meetings.statuses[0] != entities.MeetingStatusProcessing {
		t.Errorf("unexpected status sequence %v", f.meetings.statuses)
	}
}

func TestProcess_ReplayIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.ledger.processed["msg-1"] = true

	result := f.processor.Process(context.Background(), textJob(f))
	if result.Outcome != OutcomeAck {
		t.Fatalf("expected ack, got %v", result.Outcome)
	}
	if f.extractor.calls != 0 || f.persister.calls != 0 {
		t.Error("a replayed message must not re-run the pipeline")
	}
	if len(f.meetings.statuses) != 0 {
		t.Errorf("a replayed message must not touch the meeting, got %v", f.meetings.statuses)
	}
}

func TestProcess_DoneMeetingIsNoOp(t *testing.T) {
	// Ledger write lost after completion: the DONE check still covers replay
	f := newFixture(t)
	f.meetings.meetings[f.meetingID].Status = entities.MeetingStatusDone

	result := f.processor.Process(context.Background(), textJob(f))
	if result.Outcome != OutcomeAck {
		t.Fatalf("expected ack, got %v", result.Outcome)
	}
	if f.extractor.calls != 0 {
		t.Error("a DONE meeting must not be reprocessed")
	}
}

func TestProcess_InvalidMeetingIDAcks(t *testing.T) {
	f := newFixture(t)
	job := textJob(f)
	job.MeetingID = "not-a-uuid"

	result := f.processor.Process(context.Background(), job)
	if result.Outcome != OutcomeAck {
		t.Fatalf("expected ack, got %v", result.Outcome)
	}
	if result.Err == nil {
		t.Fatal("expected an error")
	}
	if apperrors.CodeOf(result.Err) != apperrors.ErrorCode_INVALID_ENVELOPE {
		t.Errorf("unexpected code %s", apperrors.CodeOf(result.Err))
	}
}

func TestProcess_UnknownMeetingAcks(t *testing.T) {
	f := newFixture(t)
	job := textJob(f)
	job.MeetingID = uuid.NewString()

	result := f.processor.Process(context.Background(), job)
	if result.Outcome != OutcomeAck {
		t.Fatalf("expected ack, got %v", result.Outcome)
	}
	if apperrors.CodeOf(result.Err) != apperrors.ErrorCode_MEETING_NOT_FOUND {
		t.Errorf("unexpected code %s", apperrors.CodeOf(result.Err))
	}
}

func TestProcess_ContentTooShortIsPermanent(t *testing.T) {
	f := newFixture(t)
	f.blobs.objects["transcripts/notes.txt"] = []byte("hi")

	result := f.processor.Process(context.Background(), textJob(f))
	if result.Outcome != OutcomeAck {
		t.Fatalf("permanent failures must ack, got %v", result.Outcome)
	}
	meeting := f.meetings.meetings[f.meetingID]
	if meeting.Status != entities.MeetingStatusError {
		t.Errorf("expected ERROR, got %s", meeting.Status)
	}
	if meeting.ErrorMessage == "" {
		t.Error("expected an error message on the meeting")
	}
	if f.ledger.processed["msg-1"] {
		t.Error("a failed job must not be ledgered")
	}
}

func TestProcess_ContentTooLargeIsPermanent(t *testing.T) {
	f := newFixture(t)
	f.blobs.objects["transcripts/notes.txt"] = make([]byte, 2*1024*1024)

	result := f.processor.Process(context.Background(), textJob(f))
	if result.Outcome != OutcomeAck {
		t.Fatalf("expected ack, got %v", result.Outcome)
	}
	if apperrors.CodeOf(result.Err) != apperrors.ErrorCode_CONTENT_TOO_LARGE {
		t.Errorf("unexpected code %s", apperrors.CodeOf(result.Err))
	}
}

func TestProcess_StorageFailureRedelivers(t *testing.T) {
	f := newFixture(t)
	f.blobs.statErr = errors.New("connection refused")

	result := f.processor.Process(context.Background(), textJob(f))
	if result.Outcome != OutcomeRedeliver {
		t.Fatalf("transient storage failure must redeliver, got %v", result.Outcome)
	}
	if f.meetings.meetings[f.meetingID].Status != entities.MeetingStatusError {
		t.Error("meeting should be marked ERROR pending redelivery")
	}
}

func TestProcess_ExtractionFailureRedelivers(t *testing.T) {
	f := newFixture(t)
	f.extractor.err = errors.New("model unavailable")

	result := f.processor.Process(context.Background(), textJob(f))
	if result.Outcome != OutcomeRedeliver {
		t.Fatalf("expected redeliver, got %v", result.Outcome)
	}
	if f.persister.calls != 0 {
		t.Error("nothing may be persisted after a failed extraction")
	}
}

func TestProcess_AudioPathTranscribes(t *testing.T) {
	f := newFixture(t)
	job := textJob(f)
	job.TranscriptRef = "recordings/sync.mp3"

	result := f.processor.Process(context.Background(), job)
	if result.Outcome != OutcomeAck {
		t.Fatalf("expected ack, got %v (err=%v)", result.Outcome, result.Err)
	}
	// TRANSCRIBING, then PROCESSING, then DONE
	want := []entities.MeetingStatus{
		entities.MeetingStatusTranscribing,
		entities.MeetingStatusProcessing,
		entities.MeetingStatusDone,
	}
	if len(f.meetings.statuses) != len(want) {
		t.Fatalf("unexpected status sequence %v", f.meetings.statuses)
	}
	for i, s := range want {
		if f.meetings.statuses[i] != s {
			t.Errorf("status[%d]: expected %s, got %s", i, s, f.meetings.statuses[i])
		}
	}
}

func TestProcess_RejectedAudioIsPermanent(t *testing.T) {
	f := newFixture(t)
	f.transcriber.err = ai.ErrAudioRejected
	job := textJob(f)
	job.TranscriptRef = "recordings/sync.mp3"

	result := f.processor.Process(context.Background(), job)
	if result.Outcome != OutcomeAck {
		t.Fatalf("rejected audio must ack, got %v", result.Outcome)
	}
	if apperrors.CodeOf(result.Err) != apperrors.ErrorCode_TRANSCRIPTION_FAILED {
		t.Errorf("unexpected code %s", apperrors.CodeOf(result.Err))
	}
}

func TestProcess_ProcessedTextSkipsStorage(t *testing.T) {
	f := newFixture(t)
	f.blobs.objects = map[string][]byte{}
	job := Job{
		MessageID:     "msg-2",
		MeetingID:     f.meetingID.String(),
		ProcessedText: "Alice: we decided to ship Friday",
	}

	result := f.processor.Process(context.Background(), job)
	if result.Outcome != OutcomeAck {
		t.Fatalf("expected ack, got %v (err=%v)", result.Outcome, result.Err)
	}
	if f.extractor.calls != 1 {
		t.Error("pre-parsed text must still be extracted")
	}
}

func TestProcess_MissingRefAndTextIsPermanent(t *testing.T) {
	f := newFixture(t)
	job := Job{MessageID: "msg-3", MeetingID: f.meetingID.String()}

	result := f.processor.Process(context.Background(), job)
	if result.Outcome != OutcomeAck {
		t.Fatalf("expected ack, got %v", result.Outcome)
	}
	if apperrors.CodeOf(result.Err) != apperrors.ErrorCode_INVALID_ENVELOPE {
		t.Errorf("unexpected code %s", apperrors.CodeOf(result.Err))
	}
}

func TestProcess_LedgerWriteFailureStillAcks(t *testing.T) {
	f := newFixture(t)
	f.ledger.markErr = errors.New("ledger down")

	result := f.processor.Process(context.Background(), textJob(f))
	if result.Outcome != OutcomeAck {
		t.Fatalf("a lost ledger write must not fail the job, got %v", result.Outcome)
	}
	if f.meetings.meetings[f.meetingID].Status != entities.MeetingStatusDone {
		t.Error("meeting must still reach DONE")
	}
}

func TestProcess_ErrorMessageTruncated(t *testing.T) {
	f := newFixture(t)
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	f.extractor.err = errors.New(string(long))
	f.extractor.result = nil

	f.processor.Process(context.Background(), textJob(f))
	if got := len([]rune(f.meetings.lastErr)); got > 500 {
		t.Errorf("error message must be capped at 500 chars, got %d", got)
	}
	if f.meetings.lastErr == "" {
		t.Error("expected a recorded error message")
	}
}

func TestProcess_CacheFastPathSkipsLedger(t *testing.T) {
	f := newFixture(t)
	store := cache.NewMemoryStore()
	_ = store.Set(context.Background(), "processed:msg-1", "1", time.Hour)
	f.processor = NewProcessor(
		f.meetings, f.ledger, store, f.blobs, f.transcriber, f.extractor, f.persister,
		config.WorkerConfig{MaxFileSizeMB: 1, MinContentChars: 10}, nil,
	)
	f.ledger.isErr = errors.New("db down")

	result := f.processor.Process(context.Background(), textJob(f))
	if result.Outcome != OutcomeAck {
		t.Fatalf("cache hit must ack without the ledger, got %v", result.Outcome)
	}
}
