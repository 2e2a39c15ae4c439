package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	owm "github.com/briandowns/openweathermap"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-widget/internal/weather"
)

// SDKProvider implements weather.Provider with the briandowns/openweathermap
// client. It always talks to the public OpenWeatherMap endpoint.
type SDKProvider struct {
	apiKey  string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewSDKProvider(client *http.Client, apiKey string) *SDKProvider {
	return &SDKProvider{
		apiKey:  apiKey,
		client:  client,
		circuit: newCircuitBreaker("openweather-sdk", 30*time.Second),
	}
}

func (p *SDKProvider) Name() string {
	return "openweathermap-sdk"
}

func (p *SDKProvider) CurrentByCoordinates(ctx context.Context, coords weather.Coordinates) (weather.Snapshot, error) {
	return p.run(ctx, func(w *owm.CurrentWeatherData) error {
		return w.CurrentByCoordinates(&owm.Coordinates{
			Longitude: coords.Lon,
			Latitude:  coords.Lat,
		})
	})
}

func (p *SDKProvider) CurrentByCity(ctx context.Context, city string) (weather.Snapshot, error) {
	return p.run(ctx, func(w *owm.CurrentWeatherData) error {
		return w.CurrentByName(city)
	})
}

// run executes fetch on a fresh SDK client bound to ctx. Non-2xx responses
// are stopped in the transport so the SDK never decodes an error body.
func (p *SDKProvider) run(ctx context.Context, fetch func(*owm.CurrentWeatherData) error) (weather.Snapshot, error) {
	if p.client == nil {
		return weather.Snapshot{}, fmt.Errorf("%w: %v", weather.ErrNetwork, errNoHTTPClient)
	}
	if err := owm.ValidAPIKey(p.apiKey); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: %v", weather.ErrProvider, err)
	}

	// The transport replaces the request context, so the client timeout is
	// carried on ctx instead.
	if p.client.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.client.Timeout)
		defer cancel()
	}

	base := p.client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client := &http.Client{
		Transport: &statusTransport{ctx: ctx, base: base},
	}

	w, err := owm.NewCurrent("C", "EN", p.apiKey, owm.WithHttpClient(client))
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: %v", weather.ErrProvider, err)
	}

	result, err := p.circuit.Execute(func() (interface{}, error) {
		fetchErr := fetch(w)
		var se *statusError
		if errors.As(fetchErr, &se) && !se.tripsBreaker() {
			return se, nil
		}
		return nil, fetchErr
	})
	if se, ok := result.(*statusError); ok {
		err = se
	}
	if err != nil {
		return weather.Snapshot{}, classifySDKError(err)
	}

	if w.Cod != 0 && w.Cod != http.StatusOK {
		return weather.Snapshot{}, fmt.Errorf("%w: unexpected status %d", weather.ErrProvider, w.Cod)
	}
	if len(w.Weather) == 0 {
		return weather.Snapshot{}, fmt.Errorf("%w: missing weather", weather.ErrMalformedResponse)
	}

	return weather.Snapshot{
		LocationName:       w.Name,
		CountryCode:        w.Sys.Country,
		TemperatureCelsius: w.Main.Temp,
		HumidityPercent:    float64(w.Main.Humidity),
		ConditionLabel:     w.Weather[0].Main,
		WindSpeedKmh:       w.Wind.Speed,
		FetchedAt:          time.Now().UTC(),
	}, nil
}

func classifySDKError(err error) error {
	var (
		se        *statusError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &se):
		return fmt.Errorf("%w: unexpected status %d", weather.ErrProvider, se.code)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %v: %v", weather.ErrNetwork, errCircuitOpen, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err)
	default:
		return fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}
}

// statusError reports a non-2xx response caught before the SDK decodes it.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// tripsBreaker matches doRequest: only 429 and 5xx count against the breaker.
func (e *statusError) tripsBreaker() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// statusTransport binds each request to ctx and turns non-2xx responses
// into a *statusError.
type statusTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		return nil, &statusError{code: resp.StatusCode}
	}
	return resp, nil
}
