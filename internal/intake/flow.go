// Package intake drives the AI-assisted meeting intake: record the meeting,
// transcribe it into notes, extract RACI candidates, review them and
// distribute them as mandates in one batch.
package intake

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/model"
)

// User-facing outcome messages.
const (
	MsgDistributed       = "Mandat Direksi Berbasis RACI Berhasil Didistribusikan!"
	MsgDistributeFailed  = "Gagal mendistribusikan mandat."
	MsgMicrophoneDenied  = "Akses mikrofon ditolak atau tidak tersedia."
	MsgTranscribeFailed  = "Gagal mentranskripsi rekaman."
	MsgAnalyzeFailed     = "Gagal menganalisis notulensi."
	MsgNothingToAnalyze  = "Notulensi masih kosong."
	MsgSessionRequired   = "Sesi berakhir, silakan login kembali."
	MsgNothingToDispatch = "Tidak ada mandat untuk didistribusikan."
)

var (
	ErrInvalidTransition     = errors.New("invalid intake transition")
	ErrMicrophoneUnavailable = errors.New("microphone unavailable")
	ErrEmptyNotes            = errors.New("meeting notes are empty")
	ErrEmptyPreview          = errors.New("no candidates to distribute")
	ErrNoSession             = errors.New("no valid session")
)

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioBase64, mimeType string) (string, error)
}

// Extractor turns notes into candidate mandates.
type Extractor interface {
	ExtractMeeting(ctx context.Context, notes string) ([]model.Candidate, error)
}

// Distributor creates mandates in one batch.
type Distributor interface {
	BulkCreate(ctx context.Context, tasks []model.NewTaskInput) ([]model.Task, error)
}

// Deps wires the flow to its collaborators.
type Deps struct {
	Recorder    Recorder
	Transcriber Transcriber
	Extractor   Extractor
	Distributor Distributor
	Session     api.TokenSource
	Logger      *zap.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a copy of the flow's observable state.
type Snapshot struct {
	State   State
	Notes   string
	Preview []model.Candidate
	Message string
}

// CanDistribute reports whether the distribute action is available.
func (s Snapshot) CanDistribute() bool {
	return s.State == Reviewing && len(s.Preview) > 0
}

// Flow is the intake state machine. It is safe for concurrent use; the
// blocking methods are meant to run inside tea.Cmd goroutines.
type Flow struct {
	deps Deps

	mu        gosync.Mutex
	state     State
	notes     string
	preview   []model.Candidate
	roster    []model.User
	recording Capture
	message   string
}

// NewFlow creates an idle flow.
func NewFlow(deps Deps) *Flow {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	deps.Logger = logging.OrNop(deps.Logger)
	return &Flow{deps: deps}
}

// Snapshot returns the current state. A nil flow reports an empty, idle
// snapshot.
func (f *Flow) Snapshot() Snapshot {
	if f == nil {
		return Snapshot{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	preview := make([]model.Candidate, len(f.preview))
	copy(preview, f.preview)
	return Snapshot{State: f.state, Notes: f.notes, Preview: preview, Message: f.message}
}

// SetRoster provides the users used to resolve candidate parties.
func (f *Flow) SetRoster(users []model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roster = users
	for i := range f.preview {
		f.preview[i].Resolve(users)
	}
}

// SetNotes replaces the notes buffer. Only allowed while idle.
func (f *Flow) SetNotes(notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return fmt.Errorf("%w: edit notes while %s", ErrInvalidTransition, f.state)
	}
	f.notes = notes
	return nil
}

// transition moves to next or reports ErrInvalidTransition. Callers hold mu.
func (f *Flow) transition(next State) error {
	if !allowed(f.state, next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, f.state, next)
	}
	f.state = next
	return nil
}

// StartRecording acquires the microphone. On failure the flow stays idle.
// A second call while recording is rejected.
func (f *Flow) StartRecording(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !allowed(f.state, Recording) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, f.state, Recording)
	}
	if f.deps.Recorder == nil {
		f.message = MsgMicrophoneDenied
		return fmt.Errorf("%w: no recorder configured", ErrMicrophoneUnavailable)
	}

	rec, err := f.deps.Recorder.Start(ctx)
	if err != nil {
		f.message = MsgMicrophoneDenied
		if !errors.Is(err, ErrMicrophoneUnavailable) {
			err = fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
		}
		return err
	}

	f.recording = rec
	f.message = ""
	return f.transition(Recording)
}

// CancelRecording discards the current recording.
func (f *Flow) CancelRecording() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Recording {
		return fmt.Errorf("%w: cancel while %s", ErrInvalidTransition, f.state)
	}
	f.recording.Cancel()
	f.recording = nil
	return f.transition(Idle)
}

// StopAndTranscribe ends the recording and appends its transcript to the
// notes, separated by a blank line. On failure the notes are kept.
func (f *Flow) StopAndTranscribe(ctx context.Context) (string, error) {
	f.mu.Lock()
	if err := f.transition(Transcribing); err != nil {
		f.mu.Unlock()
		return "", err
	}
	rec := f.recording
	f.recording = nil
	f.mu.Unlock()

	text, err := f.transcribe(ctx, rec)

	f.mu.Lock()
	defer f.mu.Unlock()
	_ = f.transition(Idle)
	if err != nil {
		f.message = MsgTranscribeFailed
		f.deps.Logger.Warn("transcription failed", zap.Error(err))
		return "", err
	}
	if text != "" {
		if f.notes != "" {
			f.notes += "\n\n"
		}
		f.notes += text
	}
	f.message = ""
	return text, nil
}

func (f *Flow) transcribe(ctx context.Context, rec Capture) (string, error) {
	audio, err := rec.Stop()
	if err != nil {
		return "", err
	}
	if f.deps.Transcriber == nil {
		return "", errors.New("no transcriber configured")
	}
	encoded := base64.StdEncoding.EncodeToString(audio.Data)
	text, err := f.deps.Transcriber.Transcribe(ctx, encoded, audio.MIMEType)
	if err != nil {
		return "", fmt.Errorf("transcribing recording: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Analyze extracts candidates from the notes and enters review. An empty
// result still enters review with no cards.
func (f *Flow) Analyze(ctx context.Context) ([]model.Candidate, error) {
	f.mu.Lock()
	if strings.TrimSpace(f.notes) == "" {
		f.message = MsgNothingToAnalyze
		f.mu.Unlock()
		return nil, ErrEmptyNotes
	}
	if err := f.transition(Analyzing); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	notes := f.notes
	f.mu.Unlock()

	candidates, err := f.deps.Extractor.ExtractMeeting(ctx, notes)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		_ = f.transition(Idle)
		f.message = MsgAnalyzeFailed
		return nil, fmt.Errorf("analyzing notes: %w", err)
	}
	if candidates == nil {
		candidates = []model.Candidate{}
	}
	for i := range candidates {
		candidates[i].Resolve(f.roster)
	}
	f.preview = candidates
	f.message = ""
	_ = f.transition(Reviewing)

	out := make([]model.Candidate, len(candidates))
	copy(out, candidates)
	return out, nil
}

// RemoveCandidate drops one card from the review list.
func (f *Flow) RemoveCandidate(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Reviewing {
		return fmt.Errorf("%w: edit preview while %s", ErrInvalidTransition, f.state)
	}
	if index < 0 || index >= len(f.preview) {
		return fmt.Errorf("candidate %d out of range", index)
	}
	f.preview = append(f.preview[:index], f.preview[index+1:]...)
	return nil
}

// Discard leaves review without distributing, keeping the notes.
func (f *Flow) Discard() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Reviewing {
		return fmt.Errorf("%w: discard while %s", ErrInvalidTransition, f.state)
	}
	f.preview = nil
	return f.transition(Idle)
}

// Commit distributes every reviewed candidate in one bulk call. Blank
// meeting dates default to today. Success clears notes and preview;
// failure keeps the preview for a retry.
func (f *Flow) Commit(ctx context.Context) ([]model.Task, error) {
	f.mu.Lock()
	if f.state != Reviewing {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: commit while %s", ErrInvalidTransition, f.state)
	}
	if len(f.preview) == 0 {
		f.message = MsgNothingToDispatch
		f.mu.Unlock()
		return nil, ErrEmptyPreview
	}
	if f.deps.Session == nil || f.deps.Session.Token() == "" {
		f.message = MsgSessionRequired
		f.mu.Unlock()
		return nil, ErrNoSession
	}
	today := f.deps.Now().Format(model.DateLayout)
	inputs := make([]model.NewTaskInput, 0, len(f.preview))
	for _, c := range f.preview {
		inputs = append(inputs, c.ToInput(today))
	}
	_ = f.transition(Committing)
	f.mu.Unlock()

	created, err := f.deps.Distributor.BulkCreate(ctx, inputs)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		_ = f.transition(Reviewing)
		f.message = MsgDistributeFailed
		f.deps.Logger.Warn("bulk create failed", zap.Int("tasks", len(inputs)), zap.Error(err))
		return nil, fmt.Errorf("distributing %d mandates: %w", len(inputs), err)
	}
	f.notes = ""
	f.preview = nil
	f.message = MsgDistributed
	_ = f.transition(Idle)
	return created, nil
}
