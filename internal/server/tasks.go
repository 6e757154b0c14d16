package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/alert"
	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/mention"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/policy"
	"github.com/nhle/bod-watchlist/internal/store"
)

func taskID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: task id %q", store.ErrInvalidInput, raw)
	}
	return id, nil
}

// loadTask resolves the {id} URL parameter to a stored mandate.
func (s *Server) loadTask(r *http.Request) (*model.Task, error) {
	id, err := taskID(r)
	if err != nil {
		return nil, err
	}
	return s.store.GetTaskByID(r.Context(), id)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.TaskFilter{Search: strings.TrimSpace(q.Get("search"))}
	if raw := q.Get("accountableId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "accountableId must be numeric")
			return
		}
		filter.AccountableID = id
	}

	tasks, err := s.store.GetTasks(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var req api.BulkCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if len(req.Tasks) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "no tasks to create")
		return
	}

	now := s.now()
	today := now.Format(model.DateLayout)
	for i := range req.Tasks {
		if req.Tasks[i].MeetingDate == "" {
			req.Tasks[i].MeetingDate = today
		}
	}

	user := currentUser(r.Context())
	created, err := s.store.CreateTasks(r.Context(), req.Tasks, user.ID, now)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.tasksCreated.Add(float64(len(created)))
	s.logger.Info("mandates created", zap.Int("count", len(created)), zap.Int64("by", user.ID))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateRACI(w http.ResponseWriter, r *http.Request) {
	var req api.RACIRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	task, err := s.loadTask(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	roster, err := s.store.GetUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user := currentUser(r.Context())
	if err := policy.ValidateAccountable(user, *task, req.AccountableID, roster); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.SetAccountable(r.Context(), task.ID, req.AccountableID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondTask(w, r, task.ID, http.StatusOK)
}

func (s *Server) handleAddUpdate(w http.ResponseWriter, r *http.Request) {
	var draft policy.UpdateDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	task, err := s.loadTask(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	user := currentUser(ctx)
	if err := policy.ValidateUpdate(user, *task, draft); err != nil {
		s.fail(w, r, err)
		return
	}

	roster, err := s.store.GetUsers(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	update := model.TaskUpdate{
		Date:            s.now().UTC(),
		Content:         strings.TrimSpace(draft.Content),
		User:            user,
		Mentions:        mention.Resolve(draft.Mentions, roster),
		SuggestedStatus: draft.Status,
	}
	if draft.Evidence != nil && draft.Evidence.Data != "" {
		update.EvidenceBase64 = draft.Evidence.Data
		update.EvidenceFileName = draft.Evidence.Name
	}

	var next model.Status
	if draft.Status != task.Status {
		next = draft.Status
	}
	update, err = s.store.AppendUpdateWithStatus(ctx, task.ID, update, next)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.updates.Inc()

	if next != "" {
		s.logger.Info("status changed",
			zap.Int64("task_id", task.ID),
			zap.String("from", string(task.Status)),
			zap.String("to", string(draft.Status)),
			zap.Int64("by", user.ID))
	}

	for _, target := range update.Mentions {
		if target == user.ID {
			continue
		}
		s.notify(r, model.Notification{
			TargetUserID: target,
			FromUser:     user,
			Message:      fmt.Sprintf("%s menyebut Anda dalam pembaruan", user.Name),
			TaskID:       task.ID,
			TaskTitle:    task.Title,
		})
	}

	s.respondTask(w, r, task.ID, http.StatusOK)
}

func (s *Server) handleUpdateDueDate(w http.ResponseWriter, r *http.Request) {
	var req policy.DueDateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	task, err := s.loadTask(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	user := currentUser(ctx)
	if err := policy.ValidateDueDateRequest(user, *task, req); err != nil {
		s.fail(w, r, err)
		return
	}

	reason := strings.TrimSpace(req.Reason)
	_, err = s.store.AmendDueDateWithNote(ctx, task.ID, req.NewDate, model.TaskUpdate{
		Date:    s.now().UTC(),
		Content: fmt.Sprintf("Perubahan due date %s → %s. Alasan: %s", task.DueDate, req.NewDate, reason),
		User:    user,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.dueDates.Inc()

	roster, err := s.store.GetUsers(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var secretaries []model.User
	for _, u := range roster {
		if !u.IsSecretary() {
			continue
		}
		secretaries = append(secretaries, u)
		s.notify(r, model.Notification{
			TargetUserID: u.ID,
			FromUser:     user,
			Message:      fmt.Sprintf("%s mengajukan perubahan due date ke %s: %s", user.Name, req.NewDate, reason),
			TaskID:       task.ID,
			TaskTitle:    task.Title,
		})
	}

	change := alert.DueDateChange{
		Task:        *task,
		Requester:   user,
		OldDate:     task.DueDate,
		NewDate:     req.NewDate,
		Reason:      reason,
		Secretaries: secretaries,
		At:          s.now(),
	}
	s.deliverAlert(change)

	s.respondTask(w, r, task.ID, http.StatusOK)
}

// deliverAlert sends change in the background with its own deadline. The
// amendment is already committed, so a slow or failing mailbox is only
// logged.
func (s *Server) deliverAlert(change alert.DueDateChange) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		if err := s.alerts.NotifyDueDate(ctx, change); err != nil {
			s.logger.Warn("due date alert not delivered", zap.Int64("task_id", change.Task.ID), zap.Error(err))
		}
	}()
}

// notify stores a notification. Failures are logged, not returned; the
// triggering write has already succeeded.
func (s *Server) notify(r *http.Request, n model.Notification) {
	n.CreatedAt = s.now().UTC()
	if _, err := s.store.CreateNotification(r.Context(), n); err != nil {
		s.logger.Warn("notification not stored",
			zap.Int64("target", n.TargetUserID),
			zap.Int64("task_id", n.TaskID),
			zap.Error(err))
		return
	}
	s.metrics.notifications.Inc()
}

func (s *Server) respondTask(w http.ResponseWriter, r *http.Request, id int64, status int) {
	task, err := s.store.GetTaskByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, status, task)
}
