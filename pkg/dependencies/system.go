package dependencies

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// System dependency tags understood by HostChecker
const (
	TagCUDA   = "cuda"
	TagOptiX  = "optix"
	TagGPU    = "gpu"
	TagOpenGL = "opengl"
	TagX11    = "x11"
)

// SystemChecker reports which system dependency tags the host satisfies.
// Tags the checker does not recognize are left out of the result.
type SystemChecker interface {
	Check(ctx context.Context, tags []string) map[string]bool
}

// StaticChecks is a fixed tag -> satisfied mapping
type StaticChecks map[string]bool

// Check returns the known subset of tags
func (s StaticChecks) Check(_ context.Context, tags []string) map[string]bool {
	result := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if ok, known := s[tag]; known {
			result[tag] = ok
		}
	}
	return result
}

type probe func() (bool, error)

// HostChecker probes the running host. Results are cached per checker.
type HostChecker struct {
	log        *logrus.Logger
	maxWorkers int
	probes     map[string]probe

	lookPath func(string) (string, error)
	getenv   func(string) string
	stat     func(string) (os.FileInfo, error)
	goos     string

	mu    sync.Mutex
	cache map[string]bool
}

// NewHostChecker creates a checker for the current host
func NewHostChecker(log *logrus.Logger) *HostChecker {
	if log == nil {
		log = logrus.New()
	}

	h := &HostChecker{
		log:        log,
		maxWorkers: 4,
		lookPath:   exec.LookPath,
		getenv:     os.Getenv,
		stat:       os.Stat,
		goos:       runtime.GOOS,
		cache:      make(map[string]bool),
	}
	h.probes = map[string]probe{
		TagCUDA:   h.hasCUDA,
		TagOptiX:  h.hasOptiX,
		TagGPU:    h.hasGPU,
		TagOpenGL: h.hasOpenGL,
		TagX11:    h.hasX11,
	}
	return h
}

// Check probes every known tag not already cached, concurrently
func (h *HostChecker) Check(ctx context.Context, tags []string) map[string]bool {
	h.mu.Lock()
	var pending []string
	seen := make(map[string]bool)
	for _, tag := range tags {
		if _, cached := h.cache[tag]; cached || seen[tag] {
			continue
		}
		if _, known := h.probes[tag]; known {
			seen[tag] = true
			pending = append(pending, tag)
		}
	}
	h.mu.Unlock()

	if len(pending) > 0 {
		sort.Strings(pending)

		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(h.maxWorkers)

		results := make([]bool, len(pending))
		checked := make([]bool, len(pending))
		for i, tag := range pending {
			i, tag := i, tag
			eg.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				ok, err := h.probes[tag]()
				if err != nil {
					return fmt.Errorf("system check %s: %w", tag, err)
				}
				results[i], checked[i] = ok, true
				return nil
			})
		}

		if err := eg.Wait(); err != nil {
			// unchecked tags report unsatisfied and are retried on the next call
			h.log.WithError(err).Warn("System check failed")
		}

		h.mu.Lock()
		for i, tag := range pending {
			if checked[i] {
				h.cache[tag] = results[i]
			}
		}
		h.mu.Unlock()

		h.log.WithField("tags", pending).Debug("Probed host system dependencies")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	result := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if _, known := h.probes[tag]; !known {
			continue
		}
		result[tag] = h.cache[tag]
	}
	return result
}

func (h *HostChecker) onPath(binary string) bool {
	_, err := h.lookPath(binary)
	return err == nil
}

func (h *HostChecker) exists(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	_, err := h.stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (h *HostChecker) envDir(names ...string) (bool, error) {
	for _, name := range names {
		ok, err := h.exists(h.getenv(name))
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (h *HostChecker) hasCUDA() (bool, error) {
	if h.goos == "darwin" {
		return false, nil
	}
	if h.onPath("nvcc") {
		return true, nil
	}
	return h.envDir("CUDA_PATH", "CUDA_HOME")
}

func (h *HostChecker) hasOptiX() (bool, error) {
	if h.goos == "darwin" {
		return false, nil
	}
	return h.envDir("OPTIX_ROOT", "OptiX_INSTALL_DIR", "OPTIX_PATH")
}

func (h *HostChecker) hasGPU() (bool, error) {
	if h.goos == "darwin" {
		return false, nil
	}
	if h.onPath("nvidia-smi") {
		return true, nil
	}
	if h.goos == "linux" {
		return h.exists("/proc/driver/nvidia/version")
	}
	return false, nil
}

func (h *HostChecker) hasOpenGL() (bool, error) {
	switch h.goos {
	case "darwin", "windows":
		return true, nil
	}

	if h.onPath("glxinfo") {
		return true, nil
	}
	for _, lib := range []string{
		"/usr/lib/x86_64-linux-gnu/libGL.so.1",
		"/usr/lib/aarch64-linux-gnu/libGL.so.1",
		"/usr/lib64/libGL.so.1",
		"/usr/lib/libGL.so.1",
	} {
		ok, err := h.exists(lib)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (h *HostChecker) hasX11() (bool, error) {
	switch h.goos {
	case "linux":
		return h.getenv("DISPLAY") != "", nil
	case "darwin":
		return h.exists("/opt/X11")
	default:
		return false, nil
	}
}
