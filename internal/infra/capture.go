package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Recording is the result of a stopped capture: the encoded bytes and the
// wall-clock duration of the take.
type Recording struct {
	Bytes           []byte
	DurationSeconds int
}

// CaptureDevice abstracts the camera/encoder subsystem. Start and Stop are
// only ever called by the recording engine, which serializes them through
// its own state machine.
type CaptureDevice interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (Recording, error)
}

var errCaptureNotRunning = errors.New("capture: not running")

// FFmpegCapture records from a V4L2 (or other ffmpeg-readable) input by
// spawning ffmpeg per take. Stop sends SIGINT so ffmpeg finalizes the
// container, then reads the file back.
type FFmpegCapture struct {
	bin   string
	input string

	mu        sync.Mutex
	cmd       *exec.Cmd
	outPath   string
	startedAt time.Time
}

func NewFFmpegCapture(bin, input string) *FFmpegCapture {
	return &FFmpegCapture{bin: bin, input: input}
}

func (c *FFmpegCapture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil {
		return errors.New("capture: already running")
	}

	outPath := filepath.Join(os.TempDir(), fmt.Sprintf("capture_%d.webm", time.Now().UnixNano()))
	// ffmpeg keeps recording until it receives SIGINT from Stop.
	cmd := exec.Command(c.bin,
		"-hide_banner", "-loglevel", "error",
		"-f", "v4l2", "-i", c.input,
		"-c:v", "libvpx", "-b:v", "1M",
		"-y", outPath,
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("capture: start ffmpeg: %w", err)
	}

	c.cmd = cmd
	c.outPath = outPath
	c.startedAt = time.Now()
	log.Info().Str("input", c.input).Str("out", outPath).Msg("capture started")
	return nil
}

func (c *FFmpegCapture) Stop(ctx context.Context) (Recording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil {
		return Recording{}, errCaptureNotRunning
	}
	cmd := c.cmd
	outPath := c.outPath
	started := c.startedAt
	c.cmd = nil
	c.outPath = ""

	// SIGINT lets ffmpeg flush and close the container cleanly.
	_ = cmd.Process.Signal(os.Interrupt)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		_ = cmd.Process.Kill()
		<-done
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return Recording{}, fmt.Errorf("capture: read artifact: %w", err)
	}
	_ = os.Remove(outPath)

	return Recording{
		Bytes:           data,
		DurationSeconds: int(time.Since(started).Seconds()),
	}, nil
}

// NoopCapture stands in when the station has no camera configured; the
// session flow (scanning, reconciliation, inventory) still works, saves just
// carry an empty artifact.
type NoopCapture struct {
	mu        sync.Mutex
	running   bool
	startedAt time.Time
}

func NewNoopCapture() *NoopCapture { return &NoopCapture{} }

func (c *NoopCapture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.startedAt = time.Now()
	return nil
}

func (c *NoopCapture) Stop(ctx context.Context) (Recording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return Recording{}, errCaptureNotRunning
	}
	c.running = false
	return Recording{DurationSeconds: int(time.Since(c.startedAt).Seconds())}, nil
}
