package platform

import (
	"fmt"
	"runtime"
)

// Provider bundles all platform backends for the current OS.
type Provider struct {
	Windows   WindowPort
	Input     InputPort
	Monitors  MonitorPort   // optional
	Elevation ElevationPort // optional

	// ThreadInit runs once on the engine's worker thread before any tree
	// access, e.g. to initialise a COM apartment. Optional.
	ThreadInit func() error
	// ThreadExit runs on the worker thread when the engine shuts down.
	ThreadExit func()
}

// ErrUnsupported is returned when no native binding is registered.
var ErrUnsupported = fmt.Errorf("desktop-uia has no native accessibility binding for %s/%s; use --fixture to load a recorded tree", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by platform-specific packages via init().
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}

// Validate checks that the mandatory ports are present.
func (p *Provider) Validate() error {
	if p == nil {
		return fmt.Errorf("nil provider")
	}
	if p.Windows == nil {
		return fmt.Errorf("provider has no window port")
	}
	if p.Input == nil {
		return fmt.Errorf("provider has no input port")
	}
	return nil
}
