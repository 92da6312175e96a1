package native

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/capgate/pkg/observability"
)

const (
	// DefaultCanarySymbol must resolve in every valid build of the artifact
	DefaultCanarySymbol = "createContext"

	// DefaultMinSize is the smallest file accepted as a real artifact
	DefaultMinSize int64 = 1024
)

// Options configures a Loader
type Options struct {
	// Root is the install root searched for the artifact; defaults to the executable's directory
	Root string
	// LibraryName is the artifact base name; defaults to DefaultLibraryName
	LibraryName string
	// Platform overrides detection, mainly for tests
	Platform Platform
	// CanarySymbol overrides DefaultCanarySymbol
	CanarySymbol string
	// MinSize overrides DefaultMinSize
	MinSize int64
	// Strict turns an unsupported platform or a found-but-invalid artifact into a *LoadError
	// instead of a stand-in. Intended for testing the loader itself.
	Strict bool

	Logger  *logrus.Logger
	Metrics *observability.Metrics
}

// Loader finds, opens and validates the native artifact. It creates at most one
// Handle until Reset is called.
type Loader struct {
	opts   Options
	open   opener
	call   caller
	stat   func(string) (os.FileInfo, error)
	log    *logrus.Logger
	mu     sync.Mutex
	handle Handle
}

// NewLoader creates a new native library loader
func NewLoader(opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.LibraryName == "" {
		opts.LibraryName = DefaultLibraryName
	}
	if opts.CanarySymbol == "" {
		opts.CanarySymbol = DefaultCanarySymbol
	}
	if opts.MinSize <= 0 {
		opts.MinSize = DefaultMinSize
	}
	if opts.Platform == "" {
		opts.Platform = DetectPlatform()
	}
	if opts.Root == "" {
		opts.Root = DefaultRoot()
	}

	return &Loader{
		opts: opts,
		open: openLibrary,
		call: callAddr,
		stat: os.Stat,
		log:  opts.Logger,
	}
}

// DefaultRoot returns the directory holding the running executable, or "." when unknown
func DefaultRoot() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// Root returns the directory searched for the artifact
func (l *Loader) Root() string {
	return l.opts.Root
}

// Platform returns the platform the loader targets
func (l *Loader) Platform() Platform {
	return l.opts.Platform
}

// Acquire returns the process handle, loading it on first use. Without strict
// mode it never fails: a missing or broken artifact yields a *StandIn.
func (l *Loader) Acquire() (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle != nil {
		return l.handle, nil
	}

	handle, err := l.load()
	if err != nil {
		return nil, err
	}

	l.handle = handle
	if l.opts.Metrics != nil {
		if handle.IsStandIn() {
			l.opts.Metrics.StandInActive.Set(1)
		} else {
			l.opts.Metrics.StandInActive.Set(0)
		}
	}

	return handle, nil
}

// Reset drops the current handle so the next Acquire re-detects the artifact.
// A previously opened library stays mapped until process exit.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handle = nil
}

// load runs detection once
func (l *Loader) load() (Handle, error) {
	platform := l.opts.Platform
	root := l.opts.Root
	log := l.log.WithFields(logrus.Fields{"platform": platform, "root": root})

	if !platform.Supported() {
		l.recordAttempt(platform, "unsupported")
		if l.opts.Strict {
			return nil, &LoadError{
				Platform: platform,
				Err:      fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, runtime.GOOS, runtime.GOARCH),
			}
		}
		log.Warn("No native library build exists for this platform, using stand-in")
		return NewStandIn(platform, root, nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)), nil
	}

	var (
		tried   []string
		lastErr error
	)

	for _, path := range CandidatePaths(platform, root, l.opts.LibraryName) {
		tried = append(tried, path)
		candidateLog := log.WithField("candidate", path)

		info, err := l.stat(path)
		if err != nil {
			l.recordAttempt(platform, "missing")
			continue
		}

		lib, err := l.open(path)
		if err != nil {
			l.recordAttempt(platform, "open_failed")
			candidateLog.WithError(err).Warn("Failed to open native library candidate")
			lastErr = fmt.Errorf("open %s: %w", path, err)
			continue
		}

		if err := l.validate(info, lib); err != nil {
			l.recordAttempt(platform, "invalid")
			if l.opts.Strict {
				return nil, &LoadError{Platform: platform, Path: path, Tried: tried, Err: err}
			}
			candidateLog.WithError(err).Warn("Native library candidate failed validation")
			lastErr = fmt.Errorf("validate %s: %w", path, err)
			continue
		}

		l.recordAttempt(platform, "loaded")
		log.WithField("path", path).Info("Loaded native library")
		return newLiveHandle(platform, root, path, tried, lastErr, lib, l.call, l.opts.Metrics), nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no native library found under %s (searched %d paths)", root, len(tried))
	}
	log.WithError(lastErr).Warn("Native library unavailable, using stand-in")

	return NewStandIn(platform, root, tried, lastErr), nil
}

// validate checks a successfully opened candidate
func (l *Loader) validate(info os.FileInfo, lib library) error {
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: not a regular file", ErrInvalidLibrary)
	}

	if info.Size() < l.opts.MinSize {
		return fmt.Errorf("%w: file is %d bytes, expected at least %d", ErrInvalidLibrary, info.Size(), l.opts.MinSize)
	}

	addr, err := lib.Lookup(l.opts.CanarySymbol)
	if err != nil {
		return fmt.Errorf("%w: canary symbol %s: %v", ErrInvalidLibrary, l.opts.CanarySymbol, err)
	}
	if addr == 0 {
		return fmt.Errorf("%w: canary symbol %s resolved to a nil address", ErrInvalidLibrary, l.opts.CanarySymbol)
	}

	return nil
}

func (l *Loader) recordAttempt(platform Platform, result string) {
	if l.opts.Metrics == nil {
		return
	}
	l.opts.Metrics.LoadAttemptsTotal.WithLabelValues(string(platform), result).Inc()
}
