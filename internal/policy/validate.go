package policy

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/bod-watchlist/internal/model"
)

var (
	ErrNotAuthorized      = errors.New("not authorized for this mandate")
	ErrTaskClosed         = errors.New("mandate is closed")
	ErrEmptyUpdate        = errors.New("update content is empty")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrCloseNotAllowed    = errors.New("only the secretary may close a mandate")
	ErrDueDateIncomplete  = errors.New("new due date and reason are required")
	ErrInvalidDate        = errors.New("invalid date")
	ErrUnknownAccountable = errors.New("accountable is not on the roster")
)

// DueDateIncompleteMessage is shown when ErrDueDateIncomplete blocks a request.
const DueDateIncompleteMessage = "Mohon isi tanggal baru dan alasan."

// Evidence is a file attached to an update, inline-encoded.
type Evidence struct {
	Data string `json:"data"`
	Name string `json:"name"`
}

// UpdateDraft is a progress update composed but not yet submitted.
type UpdateDraft struct {
	Content  string       `json:"content"`
	Status   model.Status `json:"status,omitempty"`
	Mentions []int64      `json:"mentions"`
	Evidence *Evidence    `json:"evidence,omitempty"`
}

// ValidateUpdate checks a draft against the lifecycle rules. Empty content
// is rejected even when a status is selected; status-only changes are not
// supported.
func ValidateUpdate(user model.User, task model.Task, draft UpdateDraft) error {
	if IsTerminal(task.Status) {
		return ErrTaskClosed
	}
	if !CanUpdate(user, task) {
		return ErrNotAuthorized
	}
	if strings.TrimSpace(draft.Content) == "" {
		return ErrEmptyUpdate
	}
	if draft.Status == "" {
		return nil
	}
	if !draft.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, draft.Status)
	}
	if !CanProposeStatus(user.Role, draft.Status) {
		return ErrCloseNotAllowed
	}
	return nil
}

// DueDateRequest is a unit leader's request to move a due date.
type DueDateRequest struct {
	NewDate string `json:"newDate"`
	Reason  string `json:"reason"`
}

// ValidateDueDateRequest checks that a date and a reason were both given
// and that the user may file the request.
func ValidateDueDateRequest(user model.User, task model.Task, req DueDateRequest) error {
	if !CanRequestDueDate(user, task) {
		if IsTerminal(task.Status) {
			return ErrTaskClosed
		}
		return ErrNotAuthorized
	}
	if strings.TrimSpace(req.NewDate) == "" || strings.TrimSpace(req.Reason) == "" {
		return ErrDueDateIncomplete
	}
	if _, err := time.Parse(model.DateLayout, req.NewDate); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, req.NewDate)
	}
	return nil
}

// ValidateAccountable checks a RACI edit: the user must be authorised and
// the new accountable must come from the roster.
func ValidateAccountable(user model.User, task model.Task, accountableID int64, roster []model.User) error {
	if !CanEditAccountable(user, task) {
		return ErrNotAuthorized
	}
	if _, ok := model.FindUser(roster, accountableID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownAccountable, accountableID)
	}
	return nil
}
