package detail

import (
	"errors"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/policy"
)

// Notices shown after a successful action.
const (
	MsgUpdateSaved  = "Pembaruan tersimpan."
	MsgRACISaved    = "Accountable diperbarui."
	MsgDueDateSaved = "Due Date diperbarui. Alert dikirim ke Sekretaris."
)

// ErrEvidenceUnreadable reports that the attachment could not be read.
var ErrEvidenceUnreadable = errors.New("evidence file unreadable")

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// SubmitUpdateMsg asks the parent to post a progress update. EvidencePath,
// when set, names a local file the parent attaches to the draft.
type SubmitUpdateMsg struct {
	TaskID       int64
	Draft        policy.UpdateDraft
	EvidencePath string
}

// UpdateRACIMsg asks the parent to replace the accountable party.
type UpdateRACIMsg struct {
	TaskID        int64
	AccountableID int64
}

// RequestDueDateMsg asks the parent to file a due-date amendment.
type RequestDueDateMsg struct {
	TaskID  int64
	Request policy.DueDateRequest
}

// TaskSavedMsg carries the backend's answer to one of the requests above.
// It is dropped when TaskID no longer matches the mandate on display.
type TaskSavedMsg struct {
	TaskID int64
	Task   *model.Task
	Notice string
	Err    error
}

// ErrorMessage maps an action error to the text shown in the detail view.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEvidenceUnreadable):
		return "Berkas bukti tidak dapat dibaca."
	case errors.Is(err, policy.ErrDueDateIncomplete):
		return policy.DueDateIncompleteMessage
	case errors.Is(err, policy.ErrEmptyUpdate):
		return "Isi pembaruan tidak boleh kosong."
	case errors.Is(err, policy.ErrTaskClosed):
		return "Mandat sudah CLOSED."
	case errors.Is(err, policy.ErrCloseNotAllowed):
		return "Hanya Sekretaris yang dapat menutup mandat."
	case errors.Is(err, policy.ErrNotAuthorized):
		return "Anda tidak berwenang untuk tindakan ini."
	case errors.Is(err, policy.ErrInvalidDate):
		return "Format tanggal harus YYYY-MM-DD."
	case errors.Is(err, policy.ErrUnknownAccountable):
		return "Pimpinan tidak ditemukan."
	case errors.Is(err, policy.ErrInvalidStatus):
		return "Status tidak dikenal."
	case api.IsAuthError(err):
		return "Sesi berakhir, silakan login kembali."
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Gagal menyimpan perubahan."
}
