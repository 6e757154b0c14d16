package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/dashboard"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/policy"
	"github.com/nhle/bod-watchlist/internal/session"
	dashview "github.com/nhle/bod-watchlist/internal/ui/dashboard"
	"github.com/nhle/bod-watchlist/internal/ui/detail"
)

const (
	requestTimeout = 15 * time.Second
	summaryTimeout = time.Minute

	// maxEvidenceBytes bounds attachments inlined into an update.
	maxEvidenceBytes = 5 << 20
)

var errNoAssistant = errors.New("AI assistant is not configured")

// sessionRestoredMsg carries the session read from the vault at startup.
type sessionRestoredMsg struct {
	state session.State
}

// signedInMsg carries the result of a login attempt.
type signedInMsg struct {
	state session.State
	err   error
}

// dataLoadedMsg carries one refresh of the shared lists. Failures other
// than an expired session are logged and leave the affected list empty.
type dataLoadedMsg struct {
	epoch      int
	tasks      []model.Task
	users      []model.User
	demography []model.LeaderDemography
	err        error
}

// mandateCreatedMsg carries the result of a manual mandate submission.
type mandateCreatedMsg struct {
	epoch int
	tasks []model.Task
	err   error
}

// notificationsReadMsg carries the list after marking everything read.
type notificationsReadMsg struct {
	epoch int
	items []model.Notification
	err   error
}

func (m Model) restoreSession() tea.Cmd {
	mgr := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return sessionRestoredMsg{state: mgr.Restore(ctx)}
	}
}

func (m Model) signIn(username, password string) tea.Cmd {
	mgr, backend := m.session, m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := mgr.SignIn(ctx, backend, username, password)
		return signedInMsg{state: st, err: err}
	}
}

// loadData fetches mandates, the roster and the demography in parallel.
// The demography falls back to a local aggregation when its endpoint
// fails.
func (m Model) loadData() tea.Cmd {
	backend, logger, epoch := m.backend, m.logger, m.epoch
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		msg := dataLoadedMsg{epoch: epoch}
		var tasksErr, usersErr, demographyErr error
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			msg.tasks, tasksErr = backend.Tasks(gctx, api.TaskQuery{})
			return authOnly(tasksErr)
		})
		g.Go(func() error {
			msg.users, usersErr = backend.Users(gctx)
			return authOnly(usersErr)
		})
		g.Go(func() error {
			msg.demography, demographyErr = backend.LeaderDemography(gctx)
			return authOnly(demographyErr)
		})
		if err := g.Wait(); err != nil {
			return dataLoadedMsg{epoch: epoch, err: err}
		}

		if tasksErr != nil {
			logger.Warn("loading mandates", zap.Error(tasksErr))
			msg.tasks = nil
		}
		if usersErr != nil {
			logger.Warn("loading users", zap.Error(usersErr))
			msg.users = nil
		}
		if demographyErr != nil {
			logger.Warn("loading leader demography, aggregating locally", zap.Error(demographyErr))
			msg.demography = dashboard.IncludeIdleLeaders(dashboard.DemographyFromTasks(msg.tasks), msg.users)
		}
		return msg
	}
}

// authOnly lets an expired session cancel the sibling fetches; any other
// error is handled after the group finishes.
func authOnly(err error) error {
	if api.IsAuthError(err) {
		return err
	}
	return nil
}

func (m Model) submitUpdate(msg detail.SubmitUpdateMsg) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		draft := msg.Draft
		if msg.EvidencePath != "" {
			ev, err := loadEvidence(msg.EvidencePath)
			if err != nil {
				return detail.TaskSavedMsg{TaskID: msg.TaskID, Err: fmt.Errorf("%w: %w", detail.ErrEvidenceUnreadable, err)}
			}
			draft.Evidence = ev
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		task, err := backend.AddUpdate(ctx, msg.TaskID, draft)
		return detail.TaskSavedMsg{TaskID: msg.TaskID, Task: task, Notice: detail.MsgUpdateSaved, Err: err}
	}
}

func (m Model) updateRACI(msg detail.UpdateRACIMsg) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		task, err := backend.UpdateRACI(ctx, msg.TaskID, msg.AccountableID)
		return detail.TaskSavedMsg{TaskID: msg.TaskID, Task: task, Notice: detail.MsgRACISaved, Err: err}
	}
}

func (m Model) requestDueDate(msg detail.RequestDueDateMsg) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		task, err := backend.UpdateDueDate(ctx, msg.TaskID, msg.Request)
		return detail.TaskSavedMsg{TaskID: msg.TaskID, Task: task, Notice: detail.MsgDueDateSaved, Err: err}
	}
}

func (m Model) createMandate(input model.NewTaskInput) tea.Cmd {
	backend, epoch := m.backend, m.epoch
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		tasks, err := backend.BulkCreate(ctx, []model.NewTaskInput{input})
		return mandateCreatedMsg{epoch: epoch, tasks: tasks, err: err}
	}
}

func (m Model) summarize(tasks []model.Task) tea.Cmd {
	assistant := m.summarizer
	return func() tea.Msg {
		if assistant == nil {
			return dashview.SummaryMsg{Err: errNoAssistant}
		}
		ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
		defer cancel()
		text, err := assistant.Summarize(ctx, tasks)
		return dashview.SummaryMsg{Text: text, Err: err}
	}
}

func (m Model) markNotificationsRead() tea.Cmd {
	p, epoch := m.poller, m.epoch
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		items, err := p.MarkAllRead(ctx)
		return notificationsReadMsg{epoch: epoch, items: items, err: err}
	}
}

// loadEvidence reads a local file and inlines it as base64.
func loadEvidence(path string) (*policy.Evidence, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading evidence: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading evidence: %s is a directory", path)
	}
	if info.Size() > maxEvidenceBytes {
		return nil, fmt.Errorf("reading evidence: %s exceeds %d bytes", path, maxEvidenceBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading evidence: %w", err)
	}
	return &policy.Evidence{
		Data: base64.StdEncoding.EncodeToString(data),
		Name: filepath.Base(path),
	}, nil
}
