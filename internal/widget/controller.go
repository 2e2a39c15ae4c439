package widget

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-widget/internal/geo"
	"github.com/i474232898/weather-widget/internal/weather"
)

// DefaultCooldown is how long a successful city search is served from cache.
const DefaultCooldown = 60 * time.Second

// CacheMode selects how the search cool-down cache is keyed.
type CacheMode string

const (
	// CacheSingle remembers only the last search, whatever city it was for.
	CacheSingle CacheMode = "single"
	// CachePerCity remembers the last result per normalized city name.
	CachePerCity CacheMode = "per-city"
)

// ParseCacheMode accepts "single" or "per-city" (case-insensitive).
func ParseCacheMode(s string) (CacheMode, error) {
	switch CacheMode(strings.ToLower(strings.TrimSpace(s))) {
	case CacheSingle, "":
		return CacheSingle, nil
	case CachePerCity:
		return CachePerCity, nil
	default:
		return "", fmt.Errorf("unknown cache mode %q", s)
	}
}

// Options tune a Controller. Zero values select the defaults.
type Options struct {
	Cooldown  time.Duration
	CacheMode CacheMode
	Now       func() time.Time
}

type cachedSearch struct {
	snapshot *weather.Snapshot
	at       time.Time
}

// Controller decides when and from where a widget fetches weather, and owns
// the widget's ViewState. It is safe for concurrent use; the lock is never
// held across a provider or geolocation call.
type Controller struct {
	provider  weather.Provider
	locator   geo.Locator
	logger    *zap.Logger
	cooldown  time.Duration
	cacheMode CacheMode
	now       func() time.Time

	mu    sync.Mutex
	state ViewState
	// generation increases with every fetch that may replace CurrentSnapshot.
	// A completion carrying an older generation is stale and dropped.
	generation uint64
	byCity     map[string]cachedSearch
}

// NewController returns a controller in the initial mounted state. Nothing
// is fetched until Mount is called.
func NewController(provider weather.Provider, locator geo.Locator, logger *zap.Logger, opts Options) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.CacheMode == "" {
		opts.CacheMode = CacheSingle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Controller{
		provider:  provider,
		locator:   locator,
		logger:    logger,
		cooldown:  opts.Cooldown,
		cacheMode: opts.CacheMode,
		now:       opts.Now,
		state:     NewViewState(),
		byCity:    make(map[string]cachedSearch),
	}
}

// State returns a copy of the current view state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// update applies fn to a copy of the state and stores the copy.
func (c *Controller) update(fn func(s *ViewState)) ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.state
	fn(&next)
	c.state = next
	return next
}

// Mount runs the on-mount fetch: the device location, when enabled.
func (c *Controller) Mount(ctx context.Context) {
	if c.State().UseDeviceLocation {
		c.FetchCurrentLocation(ctx)
	}
}

// ToggleView flips between the compact badge and the expanded view. It never fetches.
func (c *Controller) ToggleView() ViewState {
	return c.update(func(s *ViewState) { s.Compact = !s.Compact })
}

// SetCompact sets the view mode. It never fetches.
func (c *Controller) SetCompact(compact bool) ViewState {
	return c.update(func(s *ViewState) { s.Compact = compact })
}

// SetSearchQuery stores the search box contents without searching.
func (c *Controller) SetSearchQuery(q string) ViewState {
	return c.update(func(s *ViewState) { s.SearchQuery = q })
}

// SubmitSearch searches for the stored query.
func (c *Controller) SubmitSearch(ctx context.Context) {
	c.FetchBySearch(ctx, c.State().SearchQuery)
}

// ToggleLocationMode flips UseDeviceLocation.
func (c *Controller) ToggleLocationMode(ctx context.Context) {
	c.SetUseDeviceLocation(ctx, !c.State().UseDeviceLocation)
}

// SetUseDeviceLocation sets the location mode and fetches the device
// location when the mode turns on.
func (c *Controller) SetUseDeviceLocation(ctx context.Context, on bool) {
	var prev bool
	c.update(func(s *ViewState) {
		prev = s.UseDeviceLocation
		s.UseDeviceLocation = on
	})
	if on && !prev {
		c.FetchCurrentLocation(ctx)
	}
}

// FetchByCoordinates asks the provider for the current weather at lat/lon.
// It does not touch the view state.
func (c *Controller) FetchByCoordinates(ctx context.Context, lat, lon float64) (weather.Snapshot, error) {
	return c.provider.CurrentByCoordinates(ctx, weather.Coordinates{Lat: lat, Lon: lon})
}

// FetchCurrentLocation locates the device and shows the weather there.
// Failures are logged and leave CurrentSnapshot unchanged.
func (c *Controller) FetchCurrentLocation(ctx context.Context) {
	gen := c.begin()

	coords, err := c.locator.Locate(ctx)
	if err != nil {
		c.fail(gen, "error getting geolocation", err)
		return
	}

	snap, err := c.FetchByCoordinates(ctx, coords.Lat, coords.Lon)
	if err != nil {
		c.fail(gen, "error fetching weather for current location", err,
			zap.Float64("lat", coords.Lat), zap.Float64("lon", coords.Lon))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Info("discarding stale location result", zap.String("location", snap.LocationName))
		return
	}
	next := c.state
	next.CurrentSnapshot = &snap
	next.LastError = ""
	c.state = next
}

// FetchBySearch shows the weather for city. A blank city is ignored. Within
// the cool-down window after a successful search the cached result is shown
// instead of calling the provider.
func (c *Controller) FetchBySearch(ctx context.Context, city string) {
	city = strings.TrimSpace(city)
	if city == "" {
		return
	}

	now := c.now()

	c.mu.Lock()
	if cached, ok := c.cachedLocked(city, now); ok {
		c.generation++
		next := c.state
		next.CurrentSnapshot = cached
		next.LastError = ""
		c.state = next
		c.mu.Unlock()
		c.logger.Info("using cached weather due to search cool-down",
			zap.String("city", city), zap.String("cached", cached.LocationName))
		return
	}
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	snap, err := c.provider.CurrentByCity(ctx, city)
	if err != nil {
		c.fail(gen, "error fetching weather data", err, zap.String("city", city))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Info("discarding stale search result", zap.String("city", city))
		return
	}
	next := c.state
	next.CurrentSnapshot = &snap
	next.CachedSnapshot = &snap
	next.LastSuccessfulSearch = now
	next.LastError = ""
	c.state = next
	if c.cacheMode == CachePerCity {
		c.byCity[cityKey(city)] = cachedSearch{snapshot: &snap, at: now}
	}
}

// cachedLocked returns the snapshot to serve for city at now, if the
// cool-down applies. c.mu must be held.
func (c *Controller) cachedLocked(city string, now time.Time) (*weather.Snapshot, bool) {
	if c.cacheMode == CachePerCity {
		e, ok := c.byCity[cityKey(city)]
		if !ok || now.Sub(e.at) >= c.cooldown {
			return nil, false
		}
		return e.snapshot, true
	}

	if c.state.LastSuccessfulSearch.IsZero() || now.Sub(c.state.LastSuccessfulSearch) >= c.cooldown {
		return nil, false
	}
	// Inside the window without a cached snapshot: fall through to a live request.
	return c.state.CachedSnapshot, c.state.CachedSnapshot != nil
}

func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

// fail logs err and, if gen is still the newest fetch, records it for display.
func (c *Controller) fail(gen uint64, msg string, err error, fields ...zap.Field) {
	c.logger.Warn(msg, append(fields, zap.Error(err))...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	next := c.state
	next.LastError = err.Error()
	c.state = next
}

func cityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
