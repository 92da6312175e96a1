package guards

import (
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/capgate/pkg/native"
	"github.com/platinummonkey/capgate/pkg/observability"
)

// Requirer refuses an action when a plugin is not available.
// *plugins.Registry satisfies it.
type Requirer interface {
	Require(plugin, action string) error
}

// ErrorWrapper converts a guard failure into a caller's domain error. The
// result should keep the original text and unwrap to the original error.
type ErrorWrapper func(err error) error

// Require calls fn only when plugin is available for action
func Require(r Requirer, plugin, action string, fn func() error) error {
	if err := r.Require(plugin, action); err != nil {
		return err
	}
	return fn()
}

// Guard gates every operation of one plugin
type Guard struct {
	plugin   string
	requirer Requirer
	wrap     ErrorWrapper
	metrics  *observability.Metrics
	log      *logrus.Logger
}

// Option configures a Guard
type Option func(*Guard)

// WithErrorWrapper re-raises guard and native failures as a domain error
func WithErrorWrapper(wrap ErrorWrapper) Option {
	return func(g *Guard) {
		g.wrap = wrap
	}
}

// WithMetrics counts directory redirections made through the guard
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// WithLogger sets the guard logger
func WithLogger(log *logrus.Logger) Option {
	return func(g *Guard) {
		if log != nil {
			g.log = log
		}
	}
}

// New creates a guard for plugin
func New(r Requirer, plugin string, opts ...Option) *Guard {
	g := &Guard{
		plugin:   plugin,
		requirer: r,
		log:      logrus.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Plugin returns the guarded plugin name
func (g *Guard) Plugin() string {
	return g.plugin
}

// Call runs fn after checking that the plugin is available
func (g *Guard) Call(action string, fn func() error) error {
	return g.wrapErr(Require(g.requirer, g.plugin, action, fn))
}

// CallInDir runs fn with the working directory set to dir, after checking
// that the plugin is available. The directory is restored before returning.
func (g *Guard) CallInDir(dir, action string, fn func() error) error {
	return g.Call(action, func() error {
		return redirect(dir, g.metrics, fn)
	})
}

// Invoke calls a native entry point after checking that the plugin is
// available. Native failures, including stand-in refusals, are wrapped too.
func (g *Guard) Invoke(h native.Handle, action, entryPoint string, args ...uintptr) (uintptr, error) {
	var ret uintptr
	err := g.Call(action, func() error {
		var err error
		ret, err = h.Invoke(entryPoint, args...)
		return err
	})
	if err != nil {
		g.log.WithFields(logrus.Fields{
			"plugin":      g.plugin,
			"action":      action,
			"entry_point": entryPoint,
		}).WithError(err).Debug("Guarded call failed")
	}
	return ret, err
}

// InvokeInRoot is Invoke with the working directory set to the handle's
// asset root for the duration of the call
func (g *Guard) InvokeInRoot(h native.Handle, action, entryPoint string, args ...uintptr) (uintptr, error) {
	var ret uintptr
	err := g.CallInDir(h.Root(), action, func() error {
		var err error
		ret, err = h.Invoke(entryPoint, args...)
		return err
	})
	return ret, err
}

func (g *Guard) wrapErr(err error) error {
	if err == nil || g.wrap == nil {
		return err
	}
	return g.wrap(err)
}
