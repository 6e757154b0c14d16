// Package alert delivers out-of-band notices to the secretariat when a unit
// amends a mandate's due date.
package alert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/nhle/bod-watchlist/internal/model"
)

// DueDateChange describes one filed amendment.
type DueDateChange struct {
	Task        model.Task
	Requester   model.User
	OldDate     string
	NewDate     string
	Reason      string
	Secretaries []model.User
	At          time.Time
}

// Notifier sends a due-date alert somewhere outside the app.
type Notifier interface {
	NotifyDueDate(ctx context.Context, change DueDateChange) error
}

// Nop discards every alert.
type Nop struct{}

func (Nop) NotifyDueDate(context.Context, DueDateChange) error { return nil }

// Subject is the mail subject for a change.
func Subject(change DueDateChange) string {
	return fmt.Sprintf("[BOD Watchlist] Perubahan Due Date: %s", change.Task.Title)
}

// Body renders the plain-text alert.
func Body(change DueDateChange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mandat: %s (#%d)\n", change.Task.Title, change.Task.ID)
	fmt.Fprintf(&b, "Diajukan oleh: %s (%s)\n", change.Requester.Name, change.Requester.DivisionLabel())
	fmt.Fprintf(&b, "Due date lama: %s\n", change.OldDate)
	fmt.Fprintf(&b, "Due date baru: %s\n", change.NewDate)
	fmt.Fprintf(&b, "Alasan: %s\n", change.Reason)
	if len(change.Secretaries) > 0 {
		names := make([]string, 0, len(change.Secretaries))
		for _, s := range change.Secretaries {
			names = append(names, s.Name)
		}
		fmt.Fprintf(&b, "\nUntuk: %s\n", strings.Join(names, ", "))
	}
	return b.String()
}

// Compose builds an RFC 5322 message for the change.
func Compose(from string, change DueDateChange) ([]byte, error) {
	at := change.At
	if at.IsZero() {
		at = time.Now()
	}

	var h mail.Header
	h.SetDate(at)
	h.SetSubject(Subject(change))
	h.SetMessageID(uuid.NewString() + "@bodwatch")
	addr := []*mail.Address{{Name: "BOD Watchlist", Address: from}}
	h.SetAddressList("From", addr)
	h.SetAddressList("To", addr)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, Body(change)); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}
	return buf.Bytes(), nil
}
