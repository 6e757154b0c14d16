package alert

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/model"
)

const dialTimeout = 10 * time.Second

// Mailbox appends alerts to an IMAP mailbox the secretariat reads.
type Mailbox struct {
	cfg    model.MailboxConfig
	logger *zap.Logger
}

// NewNotifier returns a Mailbox for cfg, or Nop when no host is configured.
func NewNotifier(cfg model.MailboxConfig, logger *zap.Logger) Notifier {
	if cfg.Host == "" {
		return Nop{}
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.Port == 0 {
		cfg.Port = 993
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Mailbox{cfg: cfg, logger: logging.OrNop(logger)}
}

func (m *Mailbox) addr() string {
	return net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
}

// dial opens the transport under ctx. The IMAP client is built on top of
// it separately so the connection can be closed while the greeting or the
// STARTTLS upgrade is still pending.
func (m *Mailbox) dial(ctx context.Context) (net.Conn, error) {
	netDialer := &net.Dialer{Timeout: dialTimeout}
	var (
		conn net.Conn
		err  error
	)
	if m.cfg.TLS {
		d := &tls.Dialer{
			NetDialer: netDialer,
			Config:    &tls.Config{ServerName: m.cfg.Host, NextProtos: []string{"imap"}},
		}
		conn, err = d.DialContext(ctx, "tcp", m.addr())
	} else {
		conn, err = netDialer.DialContext(ctx, "tcp", m.addr())
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", m.addr(), orCtxErr(ctx, err))
	}
	return conn, nil
}

func (m *Mailbox) newClient(conn net.Conn) (*imapclient.Client, error) {
	if m.cfg.TLS {
		return imapclient.New(conn, nil), nil
	}
	return imapclient.NewStartTLS(conn, &imapclient.Options{
		TLSConfig: &tls.Config{ServerName: m.cfg.Host},
	})
}

// NotifyDueDate appends the alert, flagged, to the configured mailbox.
// The connection is closed as soon as ctx ends, which aborts any command
// still waiting on the server.
func (m *Mailbox) NotifyDueDate(ctx context.Context, change DueDateChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := Compose(m.cfg.From, change)
	if err != nil {
		return err
	}

	conn, err := m.dial(ctx)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := m.newClient(conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("starting TLS with %s: %w", m.addr(), orCtxErr(ctx, err))
	}

	if err := client.Login(m.cfg.Username, m.cfg.Password).Wait(); err != nil {
		_ = client.Close()
		return fmt.Errorf("logging in to IMAP as %s: %w", m.cfg.Username, orCtxErr(ctx, err))
	}
	defer func() { _ = client.Logout().Wait() }()

	at := change.At
	if at.IsZero() {
		at = time.Now()
	}
	cmd := client.Append(m.cfg.Mailbox, int64(len(msg)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagFlagged},
		Time:  at,
	})
	if _, err := cmd.Write(msg); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("writing alert to %s: %w", m.cfg.Mailbox, orCtxErr(ctx, err))
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing append to %s: %w", m.cfg.Mailbox, orCtxErr(ctx, err))
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending alert to %s: %w", m.cfg.Mailbox, orCtxErr(ctx, err))
	}

	m.logger.Info("due date alert appended",
		zap.Int64("task_id", change.Task.ID),
		zap.String("mailbox", m.cfg.Mailbox))
	return nil
}

// orCtxErr reports the context's error in place of the connection error it
// caused.
func orCtxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
