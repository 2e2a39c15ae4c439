package weather

import (
	"context"
	"errors"
)

var (
	// ErrNetwork is returned when the provider could not be reached.
	ErrNetwork = errors.New("weather provider unreachable")
	// ErrProvider is returned when the provider answered with a non-success status.
	ErrProvider = errors.New("weather provider error")
	// ErrMalformedResponse is returned when a successful response lacks fields the widget renders.
	ErrMalformedResponse = errors.New("malformed weather response")
)

// Provider abstracts the "current weather" endpoints of a weather API.
type Provider interface {
	Name() string
	CurrentByCoordinates(ctx context.Context, coords Coordinates) (Snapshot, error)
	CurrentByCity(ctx context.Context, city string) (Snapshot, error)
}
