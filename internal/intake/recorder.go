package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	gosync "sync"
	"time"
)

// Audio is a captured recording.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Recorder acquires the microphone and starts capturing.
type Recorder interface {
	Start(ctx context.Context) (Capture, error)
}

// Capture is an in-progress recording.
type Capture interface {
	// Stop ends the capture and returns everything recorded.
	Stop() (Audio, error)

	// Cancel ends the capture and discards it.
	Cancel()
}

// ExecRecorder captures audio by running an external program that writes
// the encoded stream to stdout, ffmpeg by default.
type ExecRecorder struct {
	Command  string
	Args     []string
	MIMEType string

	// StopGrace bounds how long Stop waits after interrupting the program.
	StopGrace time.Duration
}

// Start launches the capture program.
func (r ExecRecorder) Start(ctx context.Context) (Capture, error) {
	path, err := exec.LookPath(r.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrMicrophoneUnavailable, r.Command)
	}

	cmd := exec.CommandContext(ctx, path, r.Args...)
	rec := &execRecording{cmd: cmd, mime: r.MIMEType, grace: r.StopGrace}
	if rec.grace <= 0 {
		rec.grace = 3 * time.Second
	}
	cmd.Stdout = &rec.out
	cmd.Stderr = &rec.errOut

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
	}

	rec.done = make(chan error, 1)
	go func() { rec.done <- cmd.Wait() }()

	// A program that cannot open the device exits almost at once.
	select {
	case err := <-rec.done:
		return nil, fmt.Errorf("%w: %s exited: %v %s",
			ErrMicrophoneUnavailable, r.Command, err, bytes.TrimSpace(rec.errOut.Bytes()))
	case <-time.After(150 * time.Millisecond):
	}

	return rec, nil
}

type execRecording struct {
	cmd    *exec.Cmd
	mime   string
	grace  time.Duration
	out    bytes.Buffer
	errOut bytes.Buffer
	done   chan error
	once   gosync.Once
}

func (r *execRecording) Stop() (Audio, error) {
	var waitErr error
	r.once.Do(func() {
		_ = r.cmd.Process.Signal(os.Interrupt)
		select {
		case waitErr = <-r.done:
		case <-time.After(r.grace):
			_ = r.cmd.Process.Kill()
			waitErr = <-r.done
		}
	})

	if r.out.Len() == 0 {
		if waitErr == nil {
			waitErr = errors.New("no audio captured")
		}
		return Audio{}, fmt.Errorf("stopping recorder: %w", waitErr)
	}
	// Interrupted encoders exit non-zero but still flush a valid stream.
	return Audio{Data: r.out.Bytes(), MIMEType: r.mime}, nil
}

func (r *execRecording) Cancel() {
	r.once.Do(func() {
		_ = r.cmd.Process.Kill()
		<-r.done
	})
}
