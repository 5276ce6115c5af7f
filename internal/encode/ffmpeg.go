package encode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/internal/types"
)

// validationTimeout bounds the synthetic test encode used to open a
// candidate. A hung hardware driver should fall through, not stall the job.
const validationTimeout = 20 * time.Second

// FFmpegOpener opens encoder candidates by running ffmpeg.
type FFmpegOpener struct {
	ffmpegPath string
	logger     *logrus.Logger
}

// NewFFmpegOpener creates an opener using the given ffmpeg binary.
func NewFFmpegOpener(ffmpegPath string, logger *logrus.Logger) *FFmpegOpener {
	return &FFmpegOpener{
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// Open validates the candidate with a one-frame synthetic encode carrying
// the request's quality parameters, then returns an encoder for the real
// run. Validation failure means the candidate is unusable on this system
// (missing encoder, no device, rejected parameters) and the attempt loop
// moves on.
func (o *FFmpegOpener) Open(ctx context.Context, candidate types.EncoderCandidate, req types.CompressionRequest) (Encoder, error) {
	vctx, cancel := context.WithTimeout(ctx, validationTimeout)
	defer cancel()

	args := buildValidationArgs(candidate, req)
	o.logger.WithFields(logrus.Fields{
		"encoder": candidate.Encoder,
		"backend": candidate.Hardware,
	}).Debug("Validating encoder candidate")

	cmd := exec.CommandContext(vctx, o.ffmpegPath, args...) // #nosec G204 - args are internally constructed
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("encoder %s unavailable: %w: %s", candidate.Encoder, err, stderrTail(output))
	}

	return &ffmpegEncoder{
		ffmpegPath: o.ffmpegPath,
		candidate:  candidate,
		args:       buildEncodeArgs(candidate, req),
		logger:     o.logger,
	}, nil
}

// ffmpegEncoder runs one ffmpeg compression process.
type ffmpegEncoder struct {
	ffmpegPath string
	candidate  types.EncoderCandidate
	args       []string
	logger     *logrus.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	closed bool
}

func (e *ffmpegEncoder) Candidate() types.EncoderCandidate {
	return e.candidate
}

// Run executes the encode, parsing ffmpeg's -progress output and invoking
// onProgress after each reported batch. Cancellation through ctx kills
// the process and returns ctx.Err().
func (e *ffmpegEncoder) Run(ctx context.Context, onProgress func(frame int64, speed float64)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("encoder already closed")
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, e.args...) // #nosec G204 - args are internally constructed
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	e.logger.WithField("encoder", e.candidate.Encoder).Info("Starting compression")
	e.logger.WithField("args", e.args).Debug("ffmpeg command")

	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	e.cmd = cmd
	e.mu.Unlock()

	e.parseProgress(stdout, onProgress)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg exited with error: %w: %s", err, stderrTail(stderr.Bytes()))
	}
	return nil
}

// parseProgress consumes ffmpeg's key=value progress stream. A batch is
// complete when a "progress=" line arrives.
func (e *ffmpegEncoder) parseProgress(r io.Reader, onProgress func(frame int64, speed float64)) {
	var frame int64
	var speed float64

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), "=")
		if !found {
			continue
		}

		switch key {
		case "frame":
			if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
				frame = n
			}
		case "speed":
			v := strings.TrimSuffix(strings.TrimSpace(value), "x")
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				speed = f
			}
		case "progress":
			if onProgress != nil {
				onProgress(frame, speed)
			}
		}
	}
}

// Close releases the encoder process. Safe to call multiple times and on
// every exit path.
func (e *ffmpegEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.cmd != nil && e.cmd.Process != nil && e.cmd.ProcessState == nil {
		if err := e.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill ffmpeg process: %w", err)
		}
	}
	return nil
}

// stderrTail trims ffmpeg output to the last few lines for diagnostics.
func stderrTail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if text == "" {
		return "(no output)"
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, "; ")
}
