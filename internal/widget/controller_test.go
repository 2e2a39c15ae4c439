package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/i474232898/weather-widget/internal/geo"
	"github.com/i474232898/weather-widget/internal/weather"
)

// fakeProvider serves canned snapshots by city and counts calls.
type fakeProvider struct {
	mu         sync.Mutex
	byCity     map[string]weather.Snapshot
	byCoords   weather.Snapshot
	err        error
	cityCalls  []string
	coordCalls []weather.Coordinates
	// gates, when set for a city, block CurrentByCity until closed.
	gates map[string]chan struct{}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) CurrentByCoordinates(ctx context.Context, coords weather.Coordinates) (weather.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coordCalls = append(p.coordCalls, coords)
	if p.err != nil {
		return weather.Snapshot{}, p.err
	}
	return p.byCoords, nil
}

func (p *fakeProvider) CurrentByCity(ctx context.Context, city string) (weather.Snapshot, error) {
	p.mu.Lock()
	p.cityCalls = append(p.cityCalls, city)
	gate := p.gates[city]
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return weather.Snapshot{}, p.err
	}
	snap, ok := p.byCity[city]
	if !ok {
		return weather.Snapshot{}, weather.ErrProvider
	}
	return snap, nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cityCalls) + len(p.coordCalls)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var (
	paris     = weather.Snapshot{LocationName: "Paris", CountryCode: "FR", TemperatureCelsius: 18.4, HumidityPercent: 60, ConditionLabel: "Clear", WindSpeedKmh: 10.8}
	london    = weather.Snapshot{LocationName: "London", CountryCode: "GB", TemperatureCelsius: 11.2, HumidityPercent: 82, ConditionLabel: "Rain", WindSpeedKmh: 18}
	stockholm = weather.Snapshot{LocationName: "Stockholm", CountryCode: "SE", TemperatureCelsius: -2.6, HumidityPercent: 90, ConditionLabel: "Snow", WindSpeedKmh: 7.2}
)

func newTestController(t *testing.T, p *fakeProvider, loc geo.Locator, mode CacheMode) (*Controller, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := NewController(p, loc, zaptest.NewLogger(t), Options{
		CacheMode: mode,
		Now:       clock.Now,
	})
	return c, clock
}

func TestInitialState(t *testing.T) {
	c, _ := newTestController(t, &fakeProvider{}, geo.NewDevicePosition(), CacheSingle)
	s := c.State()
	if s.CurrentSnapshot != nil || !s.Compact || !s.UseDeviceLocation {
		t.Fatalf("unexpected initial state %+v", s)
	}
}

func TestMountFetchesDeviceLocation(t *testing.T) {
	p := &fakeProvider{byCoords: stockholm}
	device := geo.NewDevicePosition()
	device.Report(weather.Coordinates{Lat: 59.33, Lon: 18.07})

	c, _ := newTestController(t, p, device, CacheSingle)
	c.Mount(context.Background())

	s := c.State()
	if s.CurrentSnapshot == nil || s.CurrentSnapshot.LocationName != "Stockholm" {
		t.Fatalf("expected Stockholm snapshot, got %+v", s.CurrentSnapshot)
	}
	if len(p.coordCalls) != 1 || p.coordCalls[0].Lat != 59.33 {
		t.Fatalf("unexpected coordinate calls %+v", p.coordCalls)
	}
	if s.CachedSnapshot != nil || !s.LastSuccessfulSearch.IsZero() {
		t.Fatal("location fetches must not touch the search cache")
	}
}

func TestMountGeolocationFailureLeavesSnapshotAbsent(t *testing.T) {
	p := &fakeProvider{byCoords: stockholm}
	device := geo.NewDevicePosition()
	device.Deny("user said no")

	c, _ := newTestController(t, p, device, CacheSingle)
	c.Mount(context.Background())

	s := c.State()
	if s.CurrentSnapshot != nil {
		t.Fatalf("expected no snapshot, got %+v", s.CurrentSnapshot)
	}
	if p.calls() != 0 {
		t.Fatalf("expected no provider call, got %d", p.calls())
	}
	if s.LastError == "" {
		t.Fatal("expected the geolocation failure to be recorded")
	}
}

func TestMountWithoutDeviceLocation(t *testing.T) {
	p := &fakeProvider{byCoords: stockholm}
	device := geo.NewDevicePosition()
	device.Report(weather.Coordinates{Lat: 59.33, Lon: 18.07})

	c, _ := newTestController(t, p, device, CacheSingle)
	c.state.UseDeviceLocation = false
	c.Mount(context.Background())

	if p.calls() != 0 {
		t.Fatalf("expected no fetch, got %d calls", p.calls())
	}
}

func TestFetchBySearchBlankIsNoop(t *testing.T) {
	p := &fakeProvider{byCity: map[string]weather.Snapshot{"Paris": paris}}
	c, _ := newTestController(t, p, geo.NewDevicePosition(), CacheSingle)

	c.FetchBySearch(context.Background(), "Paris")
	before := c.State()

	for _, q := range []string{"", "   ", "\t\n"} {
		c.FetchBySearch(context.Background(), q)
	}

	if p.calls() != 1 {
		t.Fatalf("expected only the first search to call the provider, got %d", p.calls())
	}
	if c.State().CurrentSnapshot != before.CurrentSnapshot {
		t.Fatal("blank search must leave the snapshot unchanged")
	}
}

func TestFetchBySearchSuccess(t *testing.T) {
	p := &fakeProvider{byCity: map[string]weather.Snapshot{"Paris": paris}}
	c, clock := newTestController(t, p, geo.NewDevicePosition(), CacheSingle)

	c.FetchBySearch(context.Background(), "Paris")

	s := c.State()
	if s.CurrentSnapshot == nil || *s.CurrentSnapshot != paris {
		t.Fatalf("expected Paris, got %+v", s.CurrentSnapshot)
	}
	if s.CachedSnapshot == nil || *s.CachedSnapshot != paris {
		t.Fatal("expected cached snapshot to be set")
	}
	if !s.LastSuccessfulSearch.Equal(clock.Now()) {
		t.Fatalf("expected search timestamp %v, got %v", clock.Now(), s.LastSuccessfulSearch)
	}
}

func TestFetchBySearchCooldownSingle(t *testing.T) {
	p := &fakeProvider{byCity: map[string]weather.Snapshot{"Paris": paris, "London": london}}
	c, clock := newTestController(t, p, geo.NewDevicePosition(), CacheSingle)
	ctx := context.Background()

	c.FetchBySearch(ctx, "Paris")

	clock.Advance(30 * time.Second)
	c.FetchBySearch(ctx, "London")
	if p.calls() != 1 {
		t.Fatalf("expected no network call inside the cool-down, got %d calls", p.calls())
	}
	if got := c.State().CurrentSnapshot; got == nil || got.LocationName != "Paris" {
		t.Fatalf("expected cached Paris inside the cool-down, got %+v", got)
	}

	clock.Advance(31 * time.Second)
	c.FetchBySearch(ctx, "London")
	if p.calls() != 2 {
		t.Fatalf("expected a live call after the cool-down, got %d calls", p.calls())
	}
	if got := c.State().CurrentSnapshot; got == nil || got.LocationName != "London" {
		t.Fatalf("expected London after the cool-down, got %+v", got)
	}
}

func TestFetchBySearchCooldownBoundary(t *testing.T) {
	p := &fakeProvider{byCity: map[string]weather.Snapshot{"Paris": paris}}
	c, clock := newTestController(t, p, geo.NewDevicePosition(), CacheSingle)

	c.FetchBySearch(context.Background(), "Paris")
	clock.Advance(DefaultCooldown)
	c.FetchBySearch(context.Background(), "Paris")

	if p.calls() != 2 {
		t.Fatalf("expected a live call exactly at the window edge, got %d calls", p.calls())
	}
}

func TestFetchBySearchCooldownPerCity(t *testing.T) {
	p := &fakeProvider{byCity: map[string]weather.Snapshot{"Paris": paris, "London": london}}
	c, clock := newTestController(t, p, geo.NewDevicePosition(), CachePerCity)
	ctx := context.Background()

	c.FetchBySearch(ctx, "Paris")
	clock.Advance(10 * time.Second)
	c.FetchBySearch(ctx, "London")
	if got := c.State().CurrentSnapshot; got == nil || got.LocationName != "London" {
		t.Fatalf("expected a live London result, got %+v", got)
	}

	clock.Advance(10 * time.Second)
	c.FetchBySearch(ctx, "  paris ")
	if p.calls() != 2 {
		t.Fatalf("expected Paris to be served from cache, got %d calls", p.calls())
	}
	if got := c.State().CurrentSnapshot; got == nil || got.LocationName != "Paris" {
		t.Fatalf("expected cached Paris, got %+v", got)
	}
}

func TestFetchBySearchSingleModeKeepsNoPerCityEntries(t *testing.T) {
	p := &fakeProvider{byCity: map[string]weather.Snapshot{"Paris": paris, "London": london, "Stockholm": stockholm}}
	c, clock := newTestController(t, p, geo.NewDevicePosition(), CacheSingle)
	ctx := context.Background()

	for _, city := range []string{"Paris", "London", "Stockholm"} {
		c.FetchBySearch(ctx, city)
		clock.Advance(DefaultCooldown)
	}
	if p.calls() != 3 {
		t.Fatalf("expected three live searches, got %d", p.calls())
	}

	c.mu.Lock()
	n := len(c.byCity)
	c.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected no per-city entries in single mode, got %d", n)
	}
}

func TestFetchBySearchFailureLeavesStateUnchanged(t *testing.T) {
	p := &fakeProvider{byCity: map[string]weather.Snapshot{"Paris": paris}}
	c, clock := newTestController(t, p, geo.NewDevicePosition(), CacheSingle)
	ctx := context.Background()

	c.FetchBySearch(ctx, "Paris")
	before := c.State()

	clock.Advance(2 * time.Minute)
	p.err = weather.ErrNetwork
	c.FetchBySearch(ctx, "London")

	after := c.State()
	if after.CurrentSnapshot != before.CurrentSnapshot || after.CachedSnapshot != before.CachedSnapshot {
		t.Fatal("failed search must not replace snapshots")
	}
	if !after.LastSuccessfulSearch.Equal(before.LastSuccessfulSearch) {
		t.Fatal("failed search must not move the search timestamp")
	}
	if after.LastError == "" {
		t.Fatal("expected the failure to be recorded")
	}

	p.err = nil
	c.FetchBySearch(ctx, "Paris")
	if c.State().LastError != "" {
		t.Fatal("expected a successful fetch to clear the error")
	}
}

func TestToggleViewNeverFetches(t *testing.T) {
	p := &fakeProvider{}
	c, _ := newTestController(t, p, geo.NewDevicePosition(), CacheSingle)

	start := c.State()
	c.ToggleView()
	if c.State().Compact {
		t.Fatal("expected expanded view after one toggle")
	}
	c.ToggleView()

	if c.State() != start {
		t.Fatal("expected two toggles to restore the original state")
	}
	if p.calls() != 0 {
		t.Fatalf("expected no fetch, got %d calls", p.calls())
	}
}

func TestToggleLocationMode(t *testing.T) {
	p := &fakeProvider{byCoords: stockholm}
	device := geo.NewDevicePosition()
	device.Report(weather.Coordinates{Lat: 59.33, Lon: 18.07})
	c, _ := newTestController(t, p, device, CacheSingle)
	ctx := context.Background()

	c.ToggleLocationMode(ctx)
	if c.State().UseDeviceLocation || p.calls() != 0 {
		t.Fatal("turning location off must not fetch")
	}

	c.ToggleLocationMode(ctx)
	if !c.State().UseDeviceLocation || p.calls() != 1 {
		t.Fatalf("turning location on must fetch once, got %d calls", p.calls())
	}

	c.SetUseDeviceLocation(ctx, true)
	if p.calls() != 1 {
		t.Fatal("setting an already enabled mode must not fetch")
	}
}

func TestSubmitSearchUsesStoredQuery(t *testing.T) {
	p := &fakeProvider{byCity: map[string]weather.Snapshot{"Paris": paris}}
	c, _ := newTestController(t, p, geo.NewDevicePosition(), CacheSingle)

	c.SetSearchQuery("Par")
	c.SetSearchQuery("Paris")
	if p.calls() != 0 {
		t.Fatal("typing must not search")
	}

	c.SubmitSearch(context.Background())
	if got := c.State().CurrentSnapshot; got == nil || got.LocationName != "Paris" {
		t.Fatalf("expected Paris, got %+v", got)
	}
}

func TestStaleSearchResultIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	p := &fakeProvider{
		byCity: map[string]weather.Snapshot{"Paris": paris, "London": london},
		gates:  map[string]chan struct{}{"Paris": gate},
	}
	c, _ := newTestController(t, p, geo.NewDevicePosition(), CacheSingle)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.FetchBySearch(ctx, "Paris")
	}()

	// Wait for the Paris request to be in flight.
	for {
		p.mu.Lock()
		n := len(p.cityCalls)
		p.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	c.FetchBySearch(ctx, "London")
	close(gate)
	<-done

	if got := c.State().CurrentSnapshot; got == nil || got.LocationName != "London" {
		t.Fatalf("expected the newer London result to stick, got %+v", got)
	}
}

func TestFetchByCoordinatesDoesNotTouchState(t *testing.T) {
	p := &fakeProvider{byCoords: stockholm}
	c, _ := newTestController(t, p, geo.NewDevicePosition(), CacheSingle)

	snap, err := c.FetchByCoordinates(context.Background(), 59.33, 18.07)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.LocationName != "Stockholm" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if c.State().CurrentSnapshot != nil {
		t.Fatal("FetchByCoordinates must not mutate state")
	}

	p.err = weather.ErrProvider
	if _, err := c.FetchByCoordinates(context.Background(), 0, 0); !errors.Is(err, weather.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestParseCacheMode(t *testing.T) {
	for in, want := range map[string]CacheMode{"": CacheSingle, "single": CacheSingle, "Per-City": CachePerCity} {
		got, err := ParseCacheMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseCacheMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCacheMode("lru"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
