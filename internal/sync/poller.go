package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/model"
)

// PollState represents the current state of the notification poller.
type PollState int

const (
	PollIdle PollState = iota
	PollRunning
	PollBackoff
	PollSuspended
)

func (s PollState) String() string {
	switch s {
	case PollRunning:
		return "running"
	case PollBackoff:
		return "backing off"
	case PollSuspended:
		return "suspended"
	default:
		return "idle"
	}
}

// PollStatus is a snapshot of the poller.
type PollStatus struct {
	State     PollState
	Failures  int
	LastSync  time.Time
	LastError error
}

// NotificationsMsg is a tea.Msg carrying the result of one fetch.
// On success Items holds the current user's notifications, newest first.
type NotificationsMsg struct {
	Items  []model.Notification
	Unread int
	Err    error
}

// PollerSuspendedMsg is sent once when consecutive failures reach the limit.
type PollerSuspendedMsg struct {
	Failures int
	Err      error
}

// SessionExpiredMsg is sent when the backend rejects the session token.
type SessionExpiredMsg struct {
	Err error
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 10 * time.Second

// Options tunes the poller.
type Options struct {
	Interval    time.Duration
	MaxFailures int
	MaxBackoff  time.Duration
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = 3 * time.Second
	}
	if o.MaxFailures <= 0 {
		o.MaxFailures = 5
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 60 * time.Second
	}
	if o.MaxBackoff < o.Interval {
		o.MaxBackoff = o.Interval
	}
	o.Logger = logging.OrNop(o.Logger)
	return o
}

// Poller fetches the current user's notifications on a fixed cadence,
// backing off exponentially on failure and suspending itself after too
// many consecutive failures. Start resumes a suspended poller.
type Poller struct {
	src    NotificationSource
	userID int64
	opts   Options

	resultCh  chan tea.Msg
	triggerCh chan struct{}

	mu       gosync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	quit     chan struct{} // closed by Stop; releases waiting subscribers
	status   PollStatus
	lastSeen []model.Notification
}

// NewPoller creates a poller for userID reading from src.
func NewPoller(src NotificationSource, userID int64, opts Options) *Poller {
	return &Poller{
		src:       src,
		userID:    userID,
		opts:      opts.withDefaults(),
		resultCh:  make(chan tea.Msg, 16),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the polling goroutine bound to ctx and returns a tea.Cmd
// subscribed to results. Calling Start while running is a no-op that
// returns nil.
func (p *Poller) Start(ctx context.Context) tea.Cmd {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return nil
	}
	if p.quit != nil {
		close(p.quit)
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	quit := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.quit = quit
	p.status.State = PollRunning
	p.status.Failures = 0
	p.mu.Unlock()

	go p.loop(runCtx, done)

	return p.waitForResult(quit)
}

// Stop halts the polling goroutine and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done, quit := p.cancel, p.done, p.quit
	p.cancel = nil
	p.done = nil
	p.quit = nil
	if p.status.State != PollSuspended {
		p.status.State = PollIdle
	}
	p.mu.Unlock()

	if quit != nil {
		close(quit)
	}
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh requests an immediate fetch.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the current poller status.
func (p *Poller) Status() PollStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Latest returns the notifications from the last successful fetch.
func (p *Poller) Latest() []model.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Notification, len(p.lastSeen))
	copy(out, p.lastSeen)
	return out
}

// MarkAllRead flips every notification of the current user to read, both
// in the source and in the cached list.
func (p *Poller) MarkAllRead(ctx context.Context) ([]model.Notification, error) {
	if err := p.src.MarkAllRead(ctx, p.userID); err != nil {
		return p.Latest(), err
	}
	p.mu.Lock()
	for i := range p.lastSeen {
		p.lastSeen[i].IsRead = true
	}
	p.mu.Unlock()
	return p.Latest(), nil
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll result.
// Call it after handling a poll message to keep listening. It returns nil
// once the poller is stopped.
func (p *Poller) WaitForNextResult() tea.Cmd {
	p.mu.Lock()
	quit := p.quit
	p.mu.Unlock()
	if quit == nil {
		return nil
	}
	return p.waitForResult(quit)
}

// waitForResult yields the next result, or a nil message when Stop ends
// the run first.
func (p *Poller) waitForResult(quit chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-p.resultCh:
			return msg
		case <-quit:
			return nil
		}
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	delay := p.opts.Interval
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-p.triggerCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		next, suspend := p.poll(ctx, delay)
		if suspend {
			return
		}
		delay = next
		timer.Reset(delay)
	}
}

// poll runs one fetch and returns the delay before the next one, or
// suspend=true when the failure budget is exhausted.
func (p *Poller) poll(ctx context.Context, delay time.Duration) (time.Duration, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	items, err := p.src.Fetch(fetchCtx, p.userID)
	cancel()

	if ctx.Err() != nil {
		return delay, true
	}

	if err != nil {
		return p.fail(err, delay)
	}

	mine := make([]model.Notification, 0, len(items))
	unread := 0
	for _, n := range items {
		if n.TargetUserID != p.userID {
			continue
		}
		mine = append(mine, n)
		if !n.IsRead {
			unread++
		}
	}

	p.mu.Lock()
	p.lastSeen = mine
	p.status.State = PollRunning
	p.status.Failures = 0
	p.status.LastError = nil
	p.status.LastSync = time.Now()
	p.mu.Unlock()

	p.send(NotificationsMsg{Items: mine, Unread: unread})
	return p.opts.Interval, false
}

func (p *Poller) fail(err error, delay time.Duration) (time.Duration, bool) {
	if api.IsAuthError(err) {
		p.suspend(err)
		p.send(SessionExpiredMsg{Err: err})
		return delay, true
	}

	p.mu.Lock()
	p.status.Failures++
	p.status.LastError = err
	failures := p.status.Failures
	p.mu.Unlock()

	if failures >= p.opts.MaxFailures {
		p.opts.Logger.Warn("notification poller suspended",
			zap.Int("failures", failures), zap.Error(err))
		p.suspend(err)
		p.send(PollerSuspendedMsg{Failures: failures, Err: err})
		return delay, true
	}

	next := backoff(p.opts.Interval, p.opts.MaxBackoff, failures)
	p.opts.Logger.Debug("notification fetch failed",
		zap.Int("failures", failures), zap.Duration("retry_in", next), zap.Error(err))

	p.mu.Lock()
	p.status.State = PollBackoff
	p.mu.Unlock()

	p.send(NotificationsMsg{Err: err})
	return next, false
}

// backoff returns interval doubled once per failure beyond the first,
// capped at limit: 3s, 6s, 12s and so on.
func backoff(interval, limit time.Duration, failures int) time.Duration {
	d := interval
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return d
}

// suspend marks the poller stopped so the next Start resumes it.
func (p *Poller) suspend(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.State = PollSuspended
	p.status.LastError = err
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
		p.done = nil
	}
}

// send delivers a message without blocking; results are dropped when no
// one is listening.
func (p *Poller) send(msg tea.Msg) {
	select {
	case p.resultCh <- msg:
	default:
	}
}
