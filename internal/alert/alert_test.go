package alert

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/model"
)

func sampleChange() DueDateChange {
	return DueDateChange{
		Task:      model.Task{ID: 7, Title: "Audit klinik"},
		Requester: model.User{ID: 2, Name: "Dewi Lestari", Role: model.RoleUnit, Division: "Direktorat Medis"},
		OldDate:   "2025-06-30",
		NewDate:   "2025-07-15",
		Reason:    "Menunggu vendor",
		Secretaries: []model.User{
			{ID: 1, Name: "Sekretaris Direksi", Role: model.RoleSecretary},
		},
		At: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func Test_Compose_RoundTrip(t *testing.T) {
	raw, err := Compose("sekretariat@example.org", sampleChange())
	require.NoError(t, err)

	r, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer r.Close()

	subject, err := r.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "[BOD Watchlist] Perubahan Due Date: Audit klinik", subject)

	from, err := r.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "sekretariat@example.org", from[0].Address)

	part, err := r.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "Due date lama: 2025-06-30")
	assert.Contains(t, text, "Due date baru: 2025-07-15")
	assert.Contains(t, text, "Alasan: Menunggu vendor")
	assert.Contains(t, text, "Dewi Lestari (Direktorat Medis)")
	assert.Contains(t, text, "Untuk: Sekretaris Direksi")
}

func Test_NewNotifier_DisabledWithoutHost(t *testing.T) {
	n := NewNotifier(model.MailboxConfig{}, nil)
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.NotifyDueDate(context.Background(), sampleChange()))
}

func Test_NewNotifier_Defaults(t *testing.T) {
	n := NewNotifier(model.MailboxConfig{Host: "imap.example.org", Username: "bot@example.org"}, nil)
	mb, ok := n.(*Mailbox)
	require.True(t, ok)
	assert.Equal(t, "INBOX", mb.cfg.Mailbox)
	assert.Equal(t, "bot@example.org", mb.cfg.From)
	assert.Equal(t, "imap.example.org:993", mb.addr())
}

func Test_Mailbox_CancelledContext(t *testing.T) {
	n := NewNotifier(model.MailboxConfig{Host: "imap.example.org"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.NotifyDueDate(ctx, sampleChange()), context.Canceled)
}

// silentServer accepts connections and never says a word.
func silentServer(t *testing.T) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var conns []net.Conn
		defer func() {
			for _, c := range conns {
				c.Close()
			}
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, conn)
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		<-done
	})

	h, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err = strconv.Atoi(p)
	require.NoError(t, err)
	return h, port
}

func Test_Mailbox_StalledServerHonoursDeadline(t *testing.T) {
	for _, useTLS := range []bool{false, true} {
		host, port := silentServer(t)
		n := NewNotifier(model.MailboxConfig{Host: host, Port: port, TLS: useTLS, Username: "bot"}, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		start := time.Now()
		err := n.NotifyDueDate(ctx, sampleChange())
		cancel()

		assert.ErrorIs(t, err, context.DeadlineExceeded, "tls=%v", useTLS)
		assert.Less(t, time.Since(start), 5*time.Second, "tls=%v", useTLS)
	}
}
