// Package geo resolves the coordinates a widget shows weather for.
package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/i474232898/weather-widget/internal/weather"
)

var (
	// ErrGeolocation is the root of every geolocation failure.
	ErrGeolocation = errors.New("geolocation failed")
	// ErrPositionUnavailable means the device has not reported a position.
	ErrPositionUnavailable = fmt.Errorf("%w: position unavailable", ErrGeolocation)
	// ErrPermissionDenied means the device refused to share its position.
	ErrPermissionDenied = fmt.Errorf("%w: permission denied", ErrGeolocation)
)

// Locator produces the current position of a device.
type Locator interface {
	Locate(ctx context.Context) (weather.Coordinates, error)
}

// DevicePosition holds the last position a client device reported for its
// widget. It is safe for concurrent use.
type DevicePosition struct {
	mu     sync.RWMutex
	coords *weather.Coordinates
	denied string
}

// NewDevicePosition returns a position holder with nothing reported yet.
func NewDevicePosition() *DevicePosition {
	return &DevicePosition{}
}

// Report records a position and clears any earlier denial.
func (d *DevicePosition) Report(coords weather.Coordinates) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := coords
	d.coords = &c
	d.denied = ""
}

// Deny records that the device refused geolocation. The last known
// position is forgotten.
func (d *DevicePosition) Deny(reason string) {
	if reason == "" {
		reason = "denied by device"
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.coords = nil
	d.denied = reason
}

func (d *DevicePosition) Locate(ctx context.Context) (weather.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: %v", ErrGeolocation, err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.denied != "" {
		return weather.Coordinates{}, fmt.Errorf("%w: %s", ErrPermissionDenied, d.denied)
	}
	if d.coords == nil {
		return weather.Coordinates{}, ErrPositionUnavailable
	}
	return *d.coords, nil
}

// Fallback returns a Locator that asks primary first and secondary when
// primary has no position. An explicit denial from primary is final. A nil
// secondary yields primary unchanged.
func Fallback(primary, secondary Locator) Locator {
	if secondary == nil {
		return primary
	}
	return fallback{primary: primary, secondary: secondary}
}

type fallback struct {
	primary   Locator
	secondary Locator
}

func (f fallback) Locate(ctx context.Context) (weather.Coordinates, error) {
	coords, err := f.primary.Locate(ctx)
	if err == nil || errors.Is(err, ErrPermissionDenied) {
		return coords, err
	}

	coords, err2 := f.secondary.Locate(ctx)
	if err2 != nil {
		return weather.Coordinates{}, fmt.Errorf("%w; fallback: %v", err, err2)
	}
	return coords, nil
}
