package device

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go-vision-capture/internal/controller"
	"go-vision-capture/internal/logger"
	"go-vision-capture/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrCameraBusy is returned when a capture is requested while another one runs
var ErrCameraBusy = errors.New("camera is busy")

// exit status still-capture tools use when interrupted by the user
const exitInterrupted = 130

// CommandCaptureSession takes stills by running an external capture tool.
// The command template supports {output}, {quality}, {aspect} and {camera}.
type CommandCaptureSession struct {
	template []string
	photoDir string

	mu      sync.Mutex
	open    bool
	running bool
}

func NewCommandCaptureSession(commandTemplate, photoDir string) (*CommandCaptureSession, error) {
	fields := strings.Fields(commandTemplate)
	if len(fields) == 0 {
		return nil, errors.New("capture command is empty")
	}
	if err := os.MkdirAll(photoDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &CommandCaptureSession{template: fields, photoDir: photoDir}, nil
}

func (s *CommandCaptureSession) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return nil
}

func (s *CommandCaptureSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

func (s *CommandCaptureSession) Capture(ctx context.Context, opts models.CaptureOptions) (models.PhotoRef, error) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return models.PhotoRef{}, errors.New("viewfinder is not open")
	}
	if s.running {
		s.mu.Unlock()
		return models.PhotoRef{}, ErrCameraBusy
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	output := filepath.Join(s.photoDir, uuid.NewString()+".jpg")
	args := ExpandArgs(s.template, output, opts)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(output)

		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			return models.PhotoRef{}, controller.ErrCaptureCancelled
		case errors.As(err, &exitErr) && exitErr.ExitCode() == exitInterrupted:
			return models.PhotoRef{}, controller.ErrCaptureCancelled
		case ctx.Err() != nil:
			return models.PhotoRef{}, fmt.Errorf("capture interrupted: %w", ctx.Err())
		}

		logger.WithError(err).WithFields(logrus.Fields{
			"command": args[0],
			"output":  strings.TrimSpace(string(out)),
		}).Debug("Capture command failed")
		return models.PhotoRef{}, fmt.Errorf("capture command failed: %w", err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return models.PhotoRef{}, fmt.Errorf("capture produced no file: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(output)
		return models.PhotoRef{}, errors.New("capture produced an empty file")
	}

	return models.PhotoRef{Path: output}, nil
}

// ExpandArgs substitutes placeholders in every template field.
func ExpandArgs(template []string, output string, opts models.CaptureOptions) []string {
	quality := int(math.Round(opts.Quality * 100))
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	camera := "0"
	if opts.Facing == models.FacingFront {
		camera = "1"
	}

	replacer := strings.NewReplacer(
		"{output}", output,
		"{quality}", strconv.Itoa(quality),
		"{aspect}", opts.AspectRatio,
		"{camera}", camera,
	)

	args := make([]string, len(template))
	for i, field := range template {
		args[i] = replacer.Replace(field)
	}
	return args
}
