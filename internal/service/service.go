package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fileproof/internal/validate"
)

// CleanupDelay is how long a finished session stays queryable.
var CleanupDelay = 5 * time.Minute

// ErrNotFound is returned when a session ID is unknown or already
// cleaned up.
var ErrNotFound = errors.New("validation not found")

// Service runs validations in the background and tracks their sessions.
type Service struct {
	tmpDir string

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	ID       string
	FileName string
	Flag     *validate.Flag
	Progress Progress
	Report   *validate.Report
	Done     chan struct{}

	Listeners  []chan Progress
	ListenerMu sync.Mutex
	closed     bool // listeners already closed, late subscribers get a closed channel
}

// New creates a Service that spools uploads under tmpDir. An empty
// tmpDir uses the system temp directory.
func New(tmpDir string) *Service {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Service{
		tmpDir:   tmpDir,
		sessions: make(map[string]*session),
	}
}

// Start spools the file to disk and begins an asynchronous validation.
// Returns the session ID immediately. Use SubscribeProgress to get
// updates and Result to wait for the report.
//
// Files named *.json get JSON validation; everything else is treated as
// delimited text.
func (s *Service) Start(fileName string, r io.Reader, opts Options) (string, error) {
	tmp, err := os.CreateTemp(s.tmpDir, "fileproof-*"+filepath.Ext(fileName))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}

	sessionID := uuid.New().String()
	sess := &session{
		ID:       sessionID,
		FileName: fileName,
		Flag:     &validate.Flag{},
		Progress: Progress{
			SessionID: sessionID,
			FileName:  fileName,
			Phase:     PhaseStarting,
		},
		Done:      make(chan struct{}),
		Listeners: make([]chan Progress, 0),
	}

	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	go s.run(sess, tmp.Name(), opts)

	return sessionID, nil
}

// run executes the validation and publishes its lifecycle. The temp
// file is removed on every exit path.
func (s *Service) run(sess *session, path string, opts Options) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in validation",
				"session_id", sess.ID,
				"file", sess.FileName,
				"panic", r,
			)
			sess.Progress.Phase = PhaseFailed
			sess.Progress.Error = fmt.Sprintf("internal error: %v", r)
			sess.notifyProgress()
		}
		sess.closeListeners()
		close(sess.Done)
		s.cleanup(sess.ID, CleanupDelay)
		os.Remove(path)
	}()

	sess.Progress.Phase = PhaseRunning
	sess.notifyProgress()

	onProgress := func(percent float64, rows, errs int) {
		sess.Progress.Percent = percent
		sess.Progress.Rows = rows
		sess.Progress.Errors = errs
		sess.notifyProgress()
	}

	var report *validate.Report
	if strings.EqualFold(filepath.Ext(sess.FileName), ".json") {
		report = validate.JSON(path, validate.JSONOptions{
			MaxErrors: opts.MaxErrors,
			Cancel:    sess.Flag,
			Progress:  onProgress,
		})
	} else {
		report = validate.Delimited(path, validate.DelimitedOptions{
			Delimiter:       opts.Delimiter,
			MaxErrors:       opts.MaxErrors,
			CheckDuplicates: opts.CheckDuplicates,
			Cancel:          sess.Flag,
			Progress:        onProgress,
		})
	}
	report.FileName = sess.FileName

	sess.Report = report
	sess.Progress.Phase = phaseFor(report)
	sess.Progress.Percent = 100
	sess.Progress.Rows = report.TotalRows
	sess.Progress.Errors = len(report.Errors)
	sess.notifyProgress()
}

// SubscribeProgress returns a channel that receives progress updates.
// The channel is closed when the run completes.
func (s *Service) SubscribeProgress(sessionID string) (<-chan Progress, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	ch := make(chan Progress, 10)

	sess.ListenerMu.Lock()
	// Send current progress immediately
	select {
	case ch <- sess.Progress:
	default:
	}
	if sess.closed {
		// Run already finished, deliver the snapshot and end the stream
		close(ch)
	} else {
		sess.Listeners = append(sess.Listeners, ch)
	}
	sess.ListenerMu.Unlock()

	return ch, nil
}

// Cancel raises the run's cancellation flag. The run stops at its next
// poll point and keeps its partial findings.
func (s *Service) Cancel(sessionID string) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}
	sess.Flag.Raise()
	return nil
}

// Result returns the report of a completed run. Blocks until the run
// finishes if still in progress.
func (s *Service) Result(sessionID string) (*validate.Report, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	<-sess.Done

	if sess.Report == nil {
		return nil, fmt.Errorf("validation %s: %s", sessionID, sess.Progress.Error)
	}
	return sess.Report, nil
}

// Progress returns the current progress without blocking.
func (s *Service) Progress(sessionID string) (Progress, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return Progress{}, err
	}
	return sess.Progress, nil
}

func (s *Service) get(sessionID string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return sess, nil
}

// notifyProgress sends progress updates to all listeners.
func (sess *session) notifyProgress() {
	sess.ListenerMu.Lock()
	defer sess.ListenerMu.Unlock()

	for _, ch := range sess.Listeners {
		select {
		case ch <- sess.Progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// closeListeners closes all listener channels.
func (sess *session) closeListeners() {
	sess.ListenerMu.Lock()
	defer sess.ListenerMu.Unlock()

	sess.closed = true
	for _, ch := range sess.Listeners {
		close(ch)
	}
	sess.Listeners = nil
}

// cleanup removes the session from tracking after a delay.
func (s *Service) cleanup(sessionID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
	})
}
