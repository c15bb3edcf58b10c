package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kumemura-df/struct-project/internal/usecase/ingest"
	pkgvalidator "github.com/kumemura-df/struct-project/pkg/validator"
)

type fakeProcessor struct {
	result ingest.Result
	jobs   []ingest.Job
}

func (f *fakeProcessor) Process(ctx context.Context, job ingest.Job) ingest.Result {
	f.jobs = append(f.jobs, job)
	return f.result
}

func envelopeBody(t *testing.T, messageID string, payload map[string]string) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	body, err := json.Marshal(map[string]interface{}{
		"message": map[string]string{
			"messageId": messageID,
			"data":      base64.StdEncoding.EncodeToString(raw),
		},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(body)
}

func doPush(t *testing.T, h *Worker, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = pkgvalidator.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Push(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestPush_AckReturns204(t *testing.T) {
	proc := &fakeProcessor{result: ingest.Result{Outcome: ingest.OutcomeAck}}
	h := NewWorker(proc, "", nil)

	body := envelopeBody(t, "msg-1", map[string]string{
		"meeting_id": "11111111-1111-1111-1111-111111111111",
		"gcs_uri":    "transcripts/notes.txt",
	})
	rec := doPush(t, h, body, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(proc.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(proc.jobs))
	}
	job := proc.jobs[0]
	if job.MessageID != "msg-1" || job.TranscriptRef != "transcripts/notes.txt" {
		t.Errorf("unexpected job %+v", job)
	}
}

func TestPush_RedeliverReturns500(t *testing.T) {
	proc := &fakeProcessor{result: ingest.Result{Outcome: ingest.OutcomeRedeliver}}
	h := NewWorker(proc, "", nil)

	body := envelopeBody(t, "msg-1", map[string]string{
		"meeting_id": "11111111-1111-1111-1111-111111111111",
		"gcs_uri":    "transcripts/notes.txt",
	})
	rec := doPush(t, h, body, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestPush_MalformedEnvelopeReturns400(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewWorker(proc, "", nil)

	cases := []struct {
		name string
		body string
	}{
		{"not json", "this is not json"},
		{"missing message", `{}`},
		{"missing data", `{"message": {"messageId": "msg-1"}}`},
		{"bad base64", `{"message": {"messageId": "msg-1", "data": "!!!not-base64!!!"}}`},
		{"payload not json", `{"message": {"messageId": "msg-1", "data": "` + base64.StdEncoding.EncodeToString([]byte("nope")) + `"}}`},
	}
	for _, tc := range cases {
		rec := doPush(t, h, tc.body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
	if len(proc.jobs) != 0 {
		t.Errorf("malformed envelopes must never reach the processor, got %d jobs", len(proc.jobs))
	}
}

func TestPush_MissingMeetingIDReturns400(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewWorker(proc, "", nil)

	body := envelopeBody(t, "msg-1", map[string]string{"gcs_uri": "transcripts/notes.txt"})
	rec := doPush(t, h, body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPush_MissingTranscriptRefReturns400(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewWorker(proc, "", nil)

	body := envelopeBody(t, "msg-1", map[string]string{"meeting_id": "11111111-1111-1111-1111-111111111111"})
	rec := doPush(t, h, body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPush_AcceptsMessageIDSnakeCase(t *testing.T) {
	proc := &fakeProcessor{result: ingest.Result{Outcome: ingest.OutcomeAck}}
	h := NewWorker(proc, "", nil)

	raw, _ := json.Marshal(map[string]string{
		"meeting_id": "11111111-1111-1111-1111-111111111111",
		"gcs_uri":    "transcripts/notes.txt",
	})
	body, _ := json.Marshal(map[string]interface{}{
		"message": map[string]string{
			"message_id": "msg-snake",
			"data":       base64.StdEncoding.EncodeToString(raw),
		},
	})
	rec := doPush(t, h, string(body), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if proc.jobs[0].MessageID != "msg-snake" {
		t.Errorf("unexpected message id %q", proc.jobs[0].MessageID)
	}
}

func TestPush_ProcessedTextWithoutRefIsAccepted(t *testing.T) {
	proc := &fakeProcessor{result: ingest.Result{Outcome: ingest.OutcomeAck}}
	h := NewWorker(proc, "", nil)

	body := envelopeBody(t, "msg-1", map[string]string{
		"meeting_id":     "11111111-1111-1111-1111-111111111111",
		"processed_text": "Alice: we decided to ship Friday",
	})
	rec := doPush(t, h, body, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if proc.jobs[0].ProcessedText == "" {
		t.Error("processed text must reach the job")
	}
}

func TestPush_SignatureRequiredWhenSecretSet(t *testing.T) {
	proc := &fakeProcessor{result: ingest.Result{Outcome: ingest.OutcomeAck}}
	h := NewWorker(proc, "topsecret", nil)

	body := envelopeBody(t, "msg-1", map[string]string{
		"meeting_id": "11111111-1111-1111-1111-111111111111",
		"gcs_uri":    "transcripts/notes.txt",
	})

	rec := doPush(t, h, body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without signature, got %d", rec.Code)
	}

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write([]byte(body))
	sig := hex.EncodeToString(mac.Sum(nil))

	rec = doPush(t, h, body, map[string]string{"X-Push-Signature": sig})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with valid signature, got %d", rec.Code)
	}
}
