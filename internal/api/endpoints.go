package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/policy"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the access token and the sanitized user.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	SafeUser    model.User `json:"safeUser"`
}

// TaskQuery narrows GET /tasks. Zero values are omitted.
type TaskQuery struct {
	Search        string
	AccountableID int64
}

func (q TaskQuery) encode() string {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.AccountableID != 0 {
		params.Set("accountableId", strconv.FormatInt(q.AccountableID, 10))
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

// ExtractRequest is the body of POST /meeting/extract.
type ExtractRequest struct {
	Notes string `json:"notes"`
}

// BulkCreateRequest is the body of POST /tasks/bulk-create.
type BulkCreateRequest struct {
	Tasks []model.NewTaskInput `json:"tasks"`
}

// RACIRequest is the body of PATCH /tasks/{id}/raci.
type RACIRequest struct {
	AccountableID int64 `json:"accountableId"`
}

// MarkReadRequest is the body of POST /notifications/read.
type MarkReadRequest struct {
	UserID int64 `json:"userId"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/auth/login", LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("logging in %s: %w", username, err)
	}
	if resp.AccessToken == "" {
		return nil, &AuthError{Message: "login response carried no access token"}
	}
	return &resp, nil
}

// Tasks lists mandates matching q.
func (c *Client) Tasks(ctx context.Context, q TaskQuery) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.get(ctx, "/tasks"+q.encode(), &tasks); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	normalize(tasks)
	return tasks, nil
}

// Users returns the full roster.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.get(ctx, "/users", &users); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// LeaderDemography returns the per-leader status counts.
func (c *Client) LeaderDemography(ctx context.Context) ([]model.LeaderDemography, error) {
	var rows []model.LeaderDemography
	if err := c.get(ctx, "/users/leader-demography", &rows); err != nil {
		return nil, fmt.Errorf("fetching leader demography: %w", err)
	}
	return rows, nil
}

// ExtractMeeting asks the backend to turn meeting notes into candidates.
func (c *Client) ExtractMeeting(ctx context.Context, notes string) ([]model.Candidate, error) {
	var candidates []model.Candidate
	if err := c.post(ctx, "/meeting/extract", ExtractRequest{Notes: notes}, &candidates); err != nil {
		return nil, fmt.Errorf("extracting meeting: %w", err)
	}
	return candidates, nil
}

// BulkCreate creates every mandate in one call.
func (c *Client) BulkCreate(ctx context.Context, tasks []model.NewTaskInput) ([]model.Task, error) {
	var created []model.Task
	if err := c.post(ctx, "/tasks/bulk-create", BulkCreateRequest{Tasks: tasks}, &created); err != nil {
		return nil, fmt.Errorf("bulk creating %d tasks: %w", len(tasks), err)
	}
	normalize(created)
	return created, nil
}

// UpdateRACI replaces the accountable party of a mandate.
func (c *Client) UpdateRACI(ctx context.Context, taskID, accountableID int64) (*model.Task, error) {
	var task model.Task
	path := fmt.Sprintf("/tasks/%d/raci", taskID)
	if err := c.patch(ctx, path, RACIRequest{AccountableID: accountableID}, &task); err != nil {
		return nil, fmt.Errorf("updating raci of task %d: %w", taskID, err)
	}
	task.Normalize()
	return &task, nil
}

// AddUpdate appends a progress update, optionally proposing a status.
func (c *Client) AddUpdate(ctx context.Context, taskID int64, draft policy.UpdateDraft) (*model.Task, error) {
	if draft.Mentions == nil {
		draft.Mentions = []int64{}
	}
	var task model.Task
	path := fmt.Sprintf("/tasks/%d/update", taskID)
	if err := c.post(ctx, path, draft, &task); err != nil {
		return nil, fmt.Errorf("adding update to task %d: %w", taskID, err)
	}
	task.Normalize()
	return &task, nil
}

// UpdateDueDate files a due-date amendment.
func (c *Client) UpdateDueDate(ctx context.Context, taskID int64, req policy.DueDateRequest) (*model.Task, error) {
	var task model.Task
	path := fmt.Sprintf("/tasks/%d/update-date", taskID)
	if err := c.patch(ctx, path, req, &task); err != nil {
		return nil, fmt.Errorf("updating due date of task %d: %w", taskID, err)
	}
	task.Normalize()
	return &task, nil
}

// Notifications returns the notification list visible to the session.
func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var items []model.Notification
	if err := c.get(ctx, "/notifications", &items); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return items, nil
}

// MarkNotificationsRead flips every notification of userID to read.
func (c *Client) MarkNotificationsRead(ctx context.Context, userID int64) error {
	if err := c.post(ctx, "/notifications/read", MarkReadRequest{UserID: userID}, nil); err != nil {
		return fmt.Errorf("marking notifications read for user %d: %w", userID, err)
	}
	return nil
}

func normalize(tasks []model.Task) {
	for i := range tasks {
		tasks[i].Normalize()
	}
}
