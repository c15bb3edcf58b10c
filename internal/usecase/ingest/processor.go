package ingest

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kumemura-df/struct-project/errors"
	"github.com/kumemura-df/struct-project/internal/domain/entities"
	"github.com/kumemura-df/struct-project/internal/domain/repositories"
	"github.com/kumemura-df/struct-project/internal/infrastructure/cache"
	"github.com/kumemura-df/struct-project/internal/usecase/persist"
	"github.com/kumemura-df/struct-project/internal/usecase/transcript"
	"github.com/kumemura-df/struct-project/pkg/ai"
	"github.com/kumemura-df/struct-project/pkg/config"
	"github.com/kumemura-df/struct-project/pkg/jobcontext"
)

// Outcome tells the delivery layer what to do with the message
type Outcome int

const (
	// OutcomeAck acknowledges: done, no-op replay, or permanent failure
	OutcomeAck Outcome = iota
	// OutcomeRedeliver leaves the message for bus-level redelivery
	OutcomeRedeliver
)

// Job is the decoded payload of one envelope
type Job struct {
	MessageID     string
	MeetingID     string
	TranscriptRef string
	ProcessedText string
}

// Result of processing one job
type Result struct {
	Outcome Outcome
	Stats   *persist.Stats
	Err     error
}

// BlobStore fetches transcript objects by reference
type BlobStore interface {
	StatSize(ctx context.Context, ref string) (int64, error)
	FetchObject(ctx context.Context, ref string) ([]byte, error)
}

// Extractor converts flattened transcript text into typed entities
type Extractor interface {
	Extract(ctx context.Context, text string, referenceDate time.Time) (*entities.ExtractionResult, error)
}

// Persister writes one meeting's extraction
type Persister interface {
	Persist(ctx context.Context, meeting *entities.Meeting, extraction *entities.ExtractionResult) (*persist.Stats, []error)
}

// AudioTranscriber turns an audio stream into transcript text
type AudioTranscriber interface {
	Transcribe(ctx context.Context, r io.Reader) (string, error)
	Language() string
}

const (
	maxErrorMessageLen = 500
	seenKeyPrefix      = "processed:"
	seenTTL            = 24 * time.Hour
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// Processor drives one job through the meeting state machine. Safe under
// at-least-once delivery: the ledger and the DONE check make replays no-ops,
// and nothing is ledgered until persistence succeeded.
type Processor struct {
	meetingRepo   repositories.MeetingRepository
	processedRepo repositories.ProcessedMessageRepository
	seen          cache.Store
	blobs         BlobStore
	transcriber   AudioTranscriber
	extractor     Extractor
	persister     Persister
	cfg           config.WorkerConfig
	logger        *zap.Logger
}

// NewProcessor creates a job processor
func NewProcessor(
	meetingRepo repositories.MeetingRepository,
	processedRepo repositories.ProcessedMessageRepository,
	seen cache.Store,
	blobs BlobStore,
	transcriber AudioTranscriber,
	extractor Extractor,
	persister Persister,
	cfg config.WorkerConfig,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		meetingRepo:   meetingRepo,
		processedRepo: processedRepo,
		seen:          seen,
		blobs:         blobs,
		transcriber:   transcriber,
		extractor:     extractor,
		persister:     persister,
		cfg:           cfg,
		logger:        logger,
	}
}

// Process runs one job to completion and reports the delivery outcome
func (p *Processor) Process(parentCtx context.Context, job Job) Result {
	ctx, cancel := jobcontext.JobBegin(parentCtx, job.MessageID, job.MeetingID)
	defer cancel()

	meetingID, err := uuid.Parse(job.MeetingID)
	if err != nil {
		// Meeting id unusable: nothing to mark ERROR, acknowledge
		return p.ack(ctx, nil, errors.ErrInvalidEnvelope("meeting_id is not a valid uuid"))
	}
	if job.TranscriptRef == "" && job.ProcessedText == "" {
		return p.failPermanent(ctx, meetingID, errors.ErrInvalidEnvelope("payload carries neither a transcript reference nor processed text"))
	}

	// Idempotency: cache fast path, then the ledger
	if hit, _, cacheErr := p.seenHit(ctx, job.MessageID); cacheErr == nil && hit {
		return p.ack(ctx, nil, nil)
	}
	processed, err := p.processedRepo.IsProcessed(ctx, job.MessageID)
	if err != nil {
		return p.redeliver(ctx, meetingID, errors.ErrInternal(err))
	}
	if processed {
		p.cacheSeen(ctx, job.MessageID)
		if p.logger != nil {
			p.logger.Info("⏭️ Message already processed, skipping",
				zap.String("message_id", job.MessageID),
			)
		}
		return p.ack(ctx, nil, nil)
	}

	meeting, err := p.meetingRepo.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return p.redeliver(ctx, meetingID, errors.ErrInternal(err))
	}
	if meeting == nil {
		return p.ack(ctx, nil, errors.ErrMeetingNotFound(job.MeetingID))
	}
	// Covers a ledger write that failed after persistence succeeded
	if meeting.Status.IsTerminal() {
		if p.logger != nil {
			p.logger.Info("⏭️ Meeting already DONE, skipping",
				zap.String("meeting_id", job.MeetingID),
			)
		}
		return p.ack(ctx, nil, nil)
	}

	audio := job.ProcessedText == "" && isAudioRef(job.TranscriptRef)
	firstStatus := entities.MeetingStatusProcessing
	if audio {
		firstStatus = entities.MeetingStatusTranscribing
	}
	if err := p.meetingRepo.UpdateMeetingStatus(ctx, meetingID, firstStatus, ""); err != nil {
		return p.redeliver(ctx, meetingID, errors.ErrInternal(err))
	}

	text, err := p.obtainText(ctx, job, audio)
	if err != nil {
		return p.fail(ctx, meetingID, err)
	}

	if audio {
		if err := p.meetingRepo.UpdateMeetingStatus(ctx, meetingID, entities.MeetingStatusProcessing, ""); err != nil {
			return p.redeliver(ctx, meetingID, errors.ErrInternal(err))
		}
		// Best effort; the transcript is already in hand
		if err := p.meetingRepo.UpdateMeetingLanguage(ctx, meetingID, p.transcriber.Language()); err != nil {
			if p.logger != nil {
				p.logger.Warn("⚠️ Failed to record meeting language", zap.Error(err))
			}
		}
	}

	parsed := transcript.Parse(text, job.TranscriptRef)
	if p.logger != nil {
		p.logger.Info("📄 Transcript parsed",
			zap.String("meeting_id", job.MeetingID),
			zap.String("format", string(parsed.Format)),
			zap.Int("segments", parsed.Metadata.SegmentCount),
		)
	}

	anchor := meeting.CreatedAt
	if meeting.MeetingDate != nil {
		anchor = *meeting.MeetingDate
	}
	extraction, err := p.extractor.Extract(ctx, parsed.FlatText, anchor)
	if err != nil {
		return p.fail(ctx, meetingID, errors.ErrExtraction(err))
	}

	stats, partialErrs := p.persister.Persist(ctx, meeting, extraction)
	// Partial persistence failures never block DONE; batches are independent
	if len(partialErrs) > 0 && p.logger != nil {
		p.logger.Warn("⚠️ Persisted with partial failures",
			zap.String("meeting_id", job.MeetingID),
			zap.Int("errors", len(partialErrs)),
		)
	}

	if err := p.meetingRepo.UpdateMeetingStatus(ctx, meetingID, entities.MeetingStatusDone, ""); err != nil {
		return p.redeliver(ctx, meetingID, errors.ErrInternal(err))
	}

	// Ledger write failure is non-fatal: the DONE check covers the replay
	if err := p.processedRepo.MarkProcessed(ctx, entities.NewProcessedMessage(job.MessageID, meetingID)); err != nil {
		if p.logger != nil {
			p.logger.Warn("⚠️ Failed to write idempotency ledger",
				zap.String("message_id", job.MessageID),
				zap.Error(err),
			)
		}
	} else {
		p.cacheSeen(ctx, job.MessageID)
	}

	if p.logger != nil {
		p.logger.Info("✅ Job completed",
			zap.String("message_id", job.MessageID),
			zap.String("meeting_id", job.MeetingID),
			zap.Int64("duration_ms", jobcontext.ElapsedMS(ctx)),
		)
	}
	return Result{Outcome: OutcomeAck, Stats: stats}
}

// obtainText produces the transcript text for extraction: pre-parsed text
// from the payload, a transcribed audio object, or the fetched blob.
func (p *Processor) obtainText(ctx context.Context, job Job, audio bool) (string, error) {
	if job.ProcessedText != "" {
		return job.ProcessedText, nil
	}

	size, err := p.blobs.StatSize(ctx, job.TranscriptRef)
	if err != nil {
		return "", errors.ErrStorage(err)
	}
	maxBytes := int64(p.cfg.MaxFileSizeMB) * 1024 * 1024
	if size > maxBytes {
		return "", errors.ErrContentTooLarge(size, maxBytes)
	}
	if size == 0 {
		return "", errors.ErrContentEmpty()
	}

	data, err := p.blobs.FetchObject(ctx, job.TranscriptRef)
	if err != nil {
		return "", errors.ErrStorage(err)
	}

	if audio {
		text, err := p.transcriber.Transcribe(ctx, bytes.NewReader(data))
		if err != nil {
			return "", errors.ErrTranscription(err, stderrors.Is(err, ai.ErrAudioRejected))
		}
		return text, nil
	}

	text := string(data)
	if trimmed := strings.TrimSpace(text); len([]rune(trimmed)) < p.cfg.MinContentChars {
		return "", errors.ErrContentTooShort(len([]rune(trimmed)), p.cfg.MinContentChars)
	}
	return text, nil
}

// fail routes a classified error: permanent failures mark ERROR and ack,
// transient ones mark ERROR best-effort and leave the message for redelivery.
func (p *Processor) fail(ctx context.Context, meetingID uuid.UUID, err error) Result {
	if errors.IsPermanent(err) {
		return p.failPermanent(ctx, meetingID, err)
	}
	return p.redeliver(ctx, meetingID, err)
}

func (p *Processor) failPermanent(ctx context.Context, meetingID uuid.UUID, err error) Result {
	p.markError(ctx, meetingID, err)
	if p.logger != nil {
		meta := jobcontext.GetJobMetadata(ctx)
		p.logger.Error("❌ Permanent failure, acknowledging",
			zap.String("message_id", meta.MessageID),
			zap.String("meeting_id", meetingID.String()),
			zap.Int64("duration_ms", jobcontext.ElapsedMS(ctx)),
			zap.Error(err),
		)
	}
	return Result{Outcome: OutcomeAck, Err: err}
}

func (p *Processor) redeliver(ctx context.Context, meetingID uuid.UUID, err error) Result {
	p.markError(ctx, meetingID, err)
	if p.logger != nil {
		meta := jobcontext.GetJobMetadata(ctx)
		p.logger.Error("🔁 Transient failure, leaving for redelivery",
			zap.String("message_id", meta.MessageID),
			zap.String("meeting_id", meetingID.String()),
			zap.Int64("duration_ms", jobcontext.ElapsedMS(ctx)),
			zap.Error(err),
		)
	}
	return Result{Outcome: OutcomeRedeliver, Err: err}
}

func (p *Processor) ack(ctx context.Context, stats *persist.Stats, err error) Result {
	if err != nil && p.logger != nil {
		p.logger.Error("❌ Job acknowledged with error", zap.Error(err))
	}
	return Result{Outcome: OutcomeAck, Stats: stats, Err: err}
}

// markError is best effort: a failing status update is logged, never fatal
func (p *Processor) markError(ctx context.Context, meetingID uuid.UUID, cause error) {
	msg := truncateError(cause)
	if err := p.meetingRepo.UpdateMeetingStatus(ctx, meetingID, entities.MeetingStatusError, msg); err != nil {
		if p.logger != nil {
			p.logger.Warn("⚠️ Failed to mark meeting ERROR",
				zap.String("meeting_id", meetingID.String()),
				zap.Error(err),
			)
		}
	}
}

func (p *Processor) seenHit(ctx context.Context, messageID string) (bool, string, error) {
	if p.seen == nil {
		return false, "", nil
	}
	val, ok, err := p.seen.Get(ctx, seenKeyPrefix+messageID)
	return ok, val, err
}

func (p *Processor) cacheSeen(ctx context.Context, messageID string) {
	if p.seen == nil {
		return
	}
	// Best effort; a miss just falls through to the ledger next time
	_ = p.seen.Set(ctx, seenKeyPrefix+messageID, "1", seenTTL)
}

func isAudioRef(ref string) bool {
	return audioExtensions[strings.ToLower(path.Ext(ref))]
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	runes := []rune(msg)
	if len(runes) <= maxErrorMessageLen {
		return msg
	}
	return string(runes[:maxErrorMessageLen])
}
