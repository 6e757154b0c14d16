package intake

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/model"
)

type fakeRecording struct {
	audio     Audio
	cancelled bool
}

func (r *fakeRecording) Stop() (Audio, error) { return r.audio, nil }
func (r *fakeRecording) Cancel()              { r.cancelled = true }

type fakeRecorder struct {
	starts int
	err    error
	last   *fakeRecording
}

func (r *fakeRecorder) Start(context.Context) (Capture, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.starts++
	r.last = &fakeRecording{audio: Audio{Data: []byte("opus"), MIMEType: "audio/webm"}}
	return r.last, nil
}

type fakeAI struct {
	transcript  string
	transErr    error
	gotAudio    string
	candidates  []model.Candidate
	extractErr  error
	bulkErr     error
	bulkInputs  []model.NewTaskInput
	bulkCalls   int
	extractCall int
}

func (a *fakeAI) Transcribe(_ context.Context, audio, _ string) (string, error) {
	a.gotAudio = audio
	return a.transcript, a.transErr
}

func (a *fakeAI) ExtractMeeting(context.Context, string) ([]model.Candidate, error) {
	a.extractCall++
	return a.candidates, a.extractErr
}

func (a *fakeAI) BulkCreate(_ context.Context, in []model.NewTaskInput) ([]model.Task, error) {
	a.bulkCalls++
	a.bulkInputs = in
	if a.bulkErr != nil {
		return nil, a.bulkErr
	}
	out := make([]model.Task, len(in))
	for i := range in {
		out[i] = model.Task{ID: int64(i + 1), Title: in[i].Title}
	}
	return out, nil
}

var roster = []model.User{
	{ID: 1, Name: "Sekretaris", Role: model.RoleSecretary},
	{ID: 2, Name: "Dewi Lestari", Role: model.RoleUnit},
	{ID: 3, Name: "Budi Santoso", Role: model.RoleUnit},
}

func newFlow(rec *fakeRecorder, ai *fakeAI, token string) *Flow {
	f := NewFlow(Deps{
		Recorder:    rec,
		Transcriber: ai,
		Extractor:   ai,
		Distributor: ai,
		Session:     api.StaticToken(token),
		Now:         func() time.Time { return time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC) },
	})
	f.SetRoster(roster)
	return f
}

func Test_Flow_RecordTranscribeAppends(t *testing.T) {
	rec := &fakeRecorder{}
	ai := &fakeAI{transcript: "Dewi memimpin audit."}
	f := newFlow(rec, ai, "tok")
	require.NoError(t, f.SetNotes("Catatan awal"))

	require.NoError(t, f.StartRecording(context.Background()))
	assert.Equal(t, Recording, f.Snapshot().State)

	text, err := f.StopAndTranscribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dewi memimpin audit.", text)

	snap := f.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, "Catatan awal\n\nDewi memimpin audit.", snap.Notes)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("opus")), ai.gotAudio)
}

func Test_Flow_TranscriptIntoEmptyNotes(t *testing.T) {
	f := newFlow(&fakeRecorder{}, &fakeAI{transcript: "isi"}, "tok")
	require.NoError(t, f.StartRecording(context.Background()))
	_, err := f.StopAndTranscribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "isi", f.Snapshot().Notes)
}

func Test_Flow_SecondRecordingRejected(t *testing.T) {
	rec := &fakeRecorder{}
	f := newFlow(rec, &fakeAI{}, "tok")

	require.NoError(t, f.StartRecording(context.Background()))
	err := f.StartRecording(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, rec.starts, "only one capture session")
	assert.Equal(t, Recording, f.Snapshot().State)
}

func Test_Flow_MicrophoneDenied(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("permission denied")}
	f := newFlow(rec, &fakeAI{}, "tok")

	err := f.StartRecording(context.Background())
	assert.ErrorIs(t, err, ErrMicrophoneUnavailable)
	snap := f.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, MsgMicrophoneDenied, snap.Message)
}

func Test_Flow_TranscribeFailureKeepsNotes(t *testing.T) {
	f := newFlow(&fakeRecorder{}, &fakeAI{transErr: errors.New("quota")}, "tok")
	require.NoError(t, f.SetNotes("draft"))
	require.NoError(t, f.StartRecording(context.Background()))

	_, err := f.StopAndTranscribe(context.Background())
	assert.Error(t, err)
	snap := f.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, "draft", snap.Notes)
}

func Test_Flow_CancelRecording(t *testing.T) {
	rec := &fakeRecorder{}
	f := newFlow(rec, &fakeAI{}, "tok")
	require.NoError(t, f.StartRecording(context.Background()))
	require.NoError(t, f.CancelRecording())
	assert.True(t, rec.last.cancelled)
	assert.Equal(t, Idle, f.Snapshot().State)
}

func Test_Flow_AnalyzeRequiresNotes(t *testing.T) {
	ai := &fakeAI{}
	f := newFlow(&fakeRecorder{}, ai, "tok")
	_, err := f.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrEmptyNotes)
	assert.Zero(t, ai.extractCall)
}

func Test_Flow_EmptyExtractionHasNoDistribute(t *testing.T) {
	ai := &fakeAI{candidates: nil}
	f := newFlow(&fakeRecorder{}, ai, "tok")
	require.NoError(t, f.SetNotes("rapat tanpa keputusan"))

	got, err := f.Analyze(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	snap := f.Snapshot()
	assert.Equal(t, Reviewing, snap.State)
	assert.False(t, snap.CanDistribute())

	_, err = f.Commit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyPreview)
	assert.Zero(t, ai.bulkCalls)
}

func Test_Flow_CommitSuccessClears(t *testing.T) {
	ai := &fakeAI{candidates: []model.Candidate{
		{Title: "Audit klinik", AccountableID: 2, ResponsibleIDs: []int64{3}, Priority: model.PriorityHigh, DueDate: "2025-06-30"},
		{Title: "Renovasi", AccountableID: 3, Priority: model.PriorityLow, MeetingDate: "2025-05-19"},
	}}
	f := newFlow(&fakeRecorder{}, ai, "tok")
	require.NoError(t, f.SetNotes("notulensi"))

	preview, err := f.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, preview, 2)
	require.NotNil(t, preview[0].Accountable)
	assert.Equal(t, "Dewi Lestari", preview[0].Accountable.Name)
	assert.Equal(t, "Budi Santoso", preview[0].Responsible[0].Name)
	assert.True(t, f.Snapshot().CanDistribute())

	created, err := f.Commit(context.Background())
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Equal(t, 1, ai.bulkCalls)
	assert.Equal(t, "2025-05-20", ai.bulkInputs[0].MeetingDate)
	assert.Equal(t, "2025-05-19", ai.bulkInputs[1].MeetingDate)

	snap := f.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Notes)
	assert.Empty(t, snap.Preview)
	assert.Equal(t, MsgDistributed, snap.Message)
}

func Test_Flow_CommitFailureKeepsPreview(t *testing.T) {
	ai := &fakeAI{
		candidates: []model.Candidate{{Title: "Audit", AccountableID: 2, Priority: model.PriorityLow}},
		bulkErr:    errors.New("500"),
	}
	f := newFlow(&fakeRecorder{}, ai, "tok")
	require.NoError(t, f.SetNotes("notulensi"))
	_, err := f.Analyze(context.Background())
	require.NoError(t, err)

	_, err = f.Commit(context.Background())
	assert.Error(t, err)

	snap := f.Snapshot()
	assert.Equal(t, Reviewing, snap.State)
	assert.Len(t, snap.Preview, 1)
	assert.Equal(t, "notulensi", snap.Notes)
	assert.Equal(t, MsgDistributeFailed, snap.Message)

	ai.bulkErr = nil
	_, err = f.Commit(context.Background())
	require.NoError(t, err)
}

func Test_Flow_CommitNeedsSession(t *testing.T) {
	ai := &fakeAI{candidates: []model.Candidate{{Title: "Audit", AccountableID: 2, Priority: model.PriorityLow}}}
	f := newFlow(&fakeRecorder{}, ai, "")
	require.NoError(t, f.SetNotes("notulensi"))
	_, err := f.Analyze(context.Background())
	require.NoError(t, err)

	_, err = f.Commit(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, ai.bulkCalls)
}

func Test_Flow_AnalyzeFailureReturnsToIdle(t *testing.T) {
	f := newFlow(&fakeRecorder{}, &fakeAI{extractErr: errors.New("timeout")}, "tok")
	require.NoError(t, f.SetNotes("notulensi"))
	_, err := f.Analyze(context.Background())
	assert.Error(t, err)
	snap := f.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, "notulensi", snap.Notes)
}

func Test_allowed_Exhaustive(t *testing.T) {
	assert.False(t, allowed(Recording, Recording))
	assert.False(t, allowed(Idle, Committing))
	assert.False(t, allowed(Transcribing, Recording))
	assert.True(t, allowed(Reviewing, Committing))
	assert.True(t, allowed(Committing, Reviewing))
	assert.False(t, allowed(State(99), Idle))
}
