package widget

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-widget/internal/geo"
	"github.com/i474232898/weather-widget/internal/weather"
)

// ErrNotFound is returned for an unknown or already unmounted widget.
var ErrNotFound = errors.New("widget not found")

// Widget is one mounted widget session.
type Widget struct {
	ID         string
	Controller *Controller
	Device     *geo.DevicePosition
}

// Registry is the contract the session store must satisfy.
type Registry interface {
	Save(w *Widget)
	Get(id string) (*Widget, error)
	Delete(id string) error
	EvictIdle(now time.Time) int
	Len() int
}

// MountRequest carries the client's initial settings for a new widget.
type MountRequest struct {
	// UseDeviceLocation defaults to true when nil.
	UseDeviceLocation *bool                `json:"useDeviceLocation"`
	Position          *weather.Coordinates `json:"position"`
	PositionDenied    bool                 `json:"positionDenied"`
	DenyReason        string               `json:"denyReason" validate:"max=200"`
}

// Service mounts, resolves and unmounts widgets.
type Service struct {
	registry Registry
	provider weather.Provider
	home     geo.Locator
	opts     Options
	logger   *zap.Logger
}

// NewService creates a Service. home may be nil when no home address is configured.
func NewService(registry Registry, provider weather.Provider, home geo.Locator, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		registry: registry,
		provider: provider,
		home:     home,
		opts:     opts,
		logger:   logger,
	}
}

// Mount creates a widget, registers it and runs its on-mount fetch.
func (s *Service) Mount(ctx context.Context, req MountRequest) *Widget {
	id := uuid.NewString()

	device := geo.NewDevicePosition()
	switch {
	case req.PositionDenied:
		device.Deny(req.DenyReason)
	case req.Position != nil:
		device.Report(*req.Position)
	}

	locator := geo.Locator(device)
	if s.home != nil {
		locator = geo.Fallback(device, s.home)
	}

	ctrl := NewController(s.provider, locator, s.logger.With(zap.String("widget", id)), s.opts)
	if req.UseDeviceLocation != nil {
		ctrl.state.UseDeviceLocation = *req.UseDeviceLocation
	}

	w := &Widget{ID: id, Controller: ctrl, Device: device}
	s.registry.Save(w)
	s.logger.Debug("widget mounted", zap.String("widget", id), zap.Int("mounted", s.registry.Len()))

	ctrl.Mount(ctx)
	return w
}

// Get resolves a mounted widget.
func (s *Service) Get(id string) (*Widget, error) {
	return s.registry.Get(id)
}

// Unmount discards a widget and its state.
func (s *Service) Unmount(id string) error {
	if err := s.registry.Delete(id); err != nil {
		return err
	}
	s.logger.Debug("widget unmounted", zap.String("widget", id))
	return nil
}

// EvictIdle unmounts widgets nobody has touched within the idle TTL.
func (s *Service) EvictIdle() int {
	n := s.registry.EvictIdle(s.opts.Now())
	if n > 0 {
		s.logger.Info("evicted idle widgets", zap.Int("count", n), zap.Int("mounted", s.registry.Len()))
	}
	return n
}
