package guards

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/platinummonkey/capgate/pkg/observability"
)

// ErrScopeClosed is returned when an AssetScope is used after Exit
var ErrScopeClosed = errors.New("asset scope already exited")

// cwdMu serializes each read-and-change of the process working directory.
// It is held per step, never across fn, so redirections nest freely.
var cwdMu sync.Mutex

// AssetScope is a redirection of the process working directory that stays in
// place until Exit. Redirections made inside it restore to the scope's
// directory when they return.
type AssetScope struct {
	original string
	current  string
	metrics  *observability.Metrics
	mu       sync.Mutex
	closed   bool
}

// Enter switches the working directory to dir until Exit
func Enter(dir string) (*AssetScope, error) {
	return enter(dir, nil)
}

func enter(dir string, metrics *observability.Metrics) (*AssetScope, error) {
	original, current, err := chdir(dir, metrics)
	if err != nil {
		return nil, err
	}
	return &AssetScope{original: original, current: current, metrics: metrics}, nil
}

// chdir moves to dir and reports the directory it left and the one it landed in
func chdir(dir string, metrics *observability.Metrics) (previous, current string, err error) {
	cwdMu.Lock()
	defer cwdMu.Unlock()

	previous, err = os.Getwd()
	if err != nil {
		return "", "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return "", "", fmt.Errorf("failed to change to %s: %w", dir, err)
	}
	if metrics != nil {
		metrics.GuardRedirectionsTotal.Inc()
	}

	current, err = os.Getwd()
	if err != nil {
		current = dir
	}
	return previous, current, nil
}

func restore(dir string) error {
	cwdMu.Lock()
	defer cwdMu.Unlock()

	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("failed to restore %s: %w", dir, err)
	}
	return nil
}

// Dir returns the directory the scope currently points at
func (s *AssetScope) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// InDir runs fn with the working directory set to dir, then restores the
// scope's directory, also when fn fails or panics
func (s *AssetScope) InDir(dir string, fn func() error) (err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrScopeClosed
	}
	s.mu.Unlock()

	outer, inner, err := chdir(dir, s.metrics)
	if err != nil {
		return err
	}
	s.setCurrent(inner)

	defer func() {
		s.setCurrent(outer)
		if restoreErr := restore(outer); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	return fn()
}

// Exit restores the directory that was current at Enter and releases the scope
func (s *AssetScope) Exit() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrScopeClosed
	}
	s.closed = true
	s.mu.Unlock()

	return restore(s.original)
}

func (s *AssetScope) setCurrent(dir string) {
	s.mu.Lock()
	s.current = dir
	s.mu.Unlock()
}

// InDir runs fn with the working directory set to dir and restores the
// previous directory on every exit path, including panics
func InDir(dir string, fn func() error) error {
	return redirect(dir, nil, fn)
}

func redirect(dir string, metrics *observability.Metrics, fn func() error) (err error) {
	previous, _, err := chdir(dir, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if restoreErr := restore(previous); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	return fn()
}
