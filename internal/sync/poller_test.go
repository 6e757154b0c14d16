package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/tests/testutil"
)

type fakeSource struct {
	mu       gosync.Mutex
	items    []model.Notification
	err      error
	fetches  int
	markedBy []int64
}

func (f *fakeSource) Fetch(_ context.Context, _ int64) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Notification, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeSource) MarkAllRead(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedBy = append(f.markedBy, userID)
	return nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func fastOptions() Options {
	return Options{Interval: 5 * time.Millisecond, MaxFailures: 3, MaxBackoff: 20 * time.Millisecond}
}

// nextMsg runs cmd with a deadline.
func nextMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poller message")
		return nil
	}
}

func Test_Poller_FiltersToCurrentUser(t *testing.T) {
	src := &fakeSource{items: []model.Notification{
		{ID: "a", TargetUserID: 2, Message: "m1"},
		{ID: "b", TargetUserID: 3, Message: "m2"},
		{ID: "c", TargetUserID: 2, Message: "m3", IsRead: true},
	}}
	p := NewPoller(src, 2, fastOptions())
	defer p.Stop()

	msg := nextMsg(t, p.Start(context.Background()))
	got, ok := msg.(NotificationsMsg)
	require.True(t, ok, "got %T", msg)
	require.NoError(t, got.Err)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, 1, got.Unread)
	for _, n := range got.Items {
		assert.Equal(t, int64(2), n.TargetUserID)
	}
}

func Test_Poller_StartTwiceIsNoop(t *testing.T) {
	p := NewPoller(&fakeSource{}, 2, fastOptions())
	defer p.Stop()

	require.NotNil(t, p.Start(context.Background()))
	assert.Nil(t, p.Start(context.Background()))
}

func Test_Poller_SuspendsAfterMaxFailures(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	p := NewPoller(src, 2, fastOptions())
	defer p.Stop()

	cmd := p.Start(context.Background())
	var suspended PollerSuspendedMsg
	for i := 0; i < 10; i++ {
		msg := nextMsg(t, cmd)
		if s, ok := msg.(PollerSuspendedMsg); ok {
			suspended = s
			break
		}
		cmd = p.WaitForNextResult()
	}

	assert.Equal(t, 3, suspended.Failures)
	assert.Equal(t, PollSuspended, p.Status().State)

	calls := src.fetchCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, src.fetchCount(), "no fetches while suspended")

	src.setErr(nil)
	msg := nextMsg(t, p.Start(context.Background()))
	_, ok := msg.(NotificationsMsg)
	assert.True(t, ok, "got %T", msg)
	assert.Equal(t, 0, p.Status().Failures)
}

func Test_Poller_AuthErrorExpiresSession(t *testing.T) {
	src := &fakeSource{err: &api.AuthError{Message: "token expired"}}
	p := NewPoller(src, 2, fastOptions())
	defer p.Stop()

	msg := nextMsg(t, p.Start(context.Background()))
	_, ok := msg.(SessionExpiredMsg)
	assert.True(t, ok, "got %T", msg)
}

func Test_Poller_StopHaltsFetching(t *testing.T) {
	src := &fakeSource{}
	p := NewPoller(src, 2, fastOptions())

	nextMsg(t, p.Start(context.Background()))
	p.Stop()

	calls := src.fetchCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, src.fetchCount())
	assert.Equal(t, PollIdle, p.Status().State)
}

func Test_Poller_StopReleasesSubscriber(t *testing.T) {
	p := NewPoller(&fakeSource{}, 2, Options{Interval: time.Hour})
	nextMsg(t, p.Start(context.Background()))

	wait := p.WaitForNextResult()
	require.NotNil(t, wait)
	p.Stop()

	assert.Nil(t, nextMsg(t, wait))
	assert.Nil(t, p.WaitForNextResult())
}

func Test_Poller_MarkAllRead(t *testing.T) {
	src := &fakeSource{items: []model.Notification{{ID: "a", TargetUserID: 2}}}
	p := NewPoller(src, 2, fastOptions())
	defer p.Stop()

	nextMsg(t, p.Start(context.Background()))
	items, err := p.MarkAllRead(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsRead)
	assert.Equal(t, []int64{2}, src.markedBy)
}

func Test_Backoff(t *testing.T) {
	interval, limit := 3*time.Second, 60*time.Second
	assert.Equal(t, 3*time.Second, backoff(interval, limit, 1))
	assert.Equal(t, 6*time.Second, backoff(interval, limit, 2))
	assert.Equal(t, 12*time.Second, backoff(interval, limit, 3))
	assert.Equal(t, 60*time.Second, backoff(interval, limit, 10))
}

func Test_StoreSource(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	r := testutil.SeedRoster(t, s, "")
	_, err := s.CreateNotification(ctx, model.Notification{TargetUserID: r.Budi.ID, FromUser: r.Dewi, Message: "hi", TaskID: 1})
	require.NoError(t, err)

	src := StoreSource{Store: s}
	items, err := src.Fetch(ctx, r.Budi.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, src.MarkAllRead(ctx, r.Budi.ID))
	items, err = src.Fetch(ctx, r.Budi.ID)
	require.NoError(t, err)
	assert.True(t, items[0].IsRead)
}
