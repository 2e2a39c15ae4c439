package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-widget/internal/weather"
)

// DefaultOpenWeatherEndpoint is the public OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherEndpoint = "https://api.openweathermap.org/data/2.5/"

// OpenWeatherProvider implements weather.Provider against any
// OpenWeather-compatible "/weather" endpoint.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	endpoint string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, endpoint, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:     "openweathermap",
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   client,
		circuit:  newCircuitBreaker("openweather", 30*time.Second),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// CurrentByCoordinates calls GET {endpoint}/weather?lat=..&lon=..&appid=..&units=metric.
func (p *OpenWeatherProvider) CurrentByCoordinates(ctx context.Context, coords weather.Coordinates) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	return p.current(ctx, values)
}

// CurrentByCity calls GET {endpoint}/weather?q=..&appid=..&units=metric.
func (p *OpenWeatherProvider) CurrentByCity(ctx context.Context, city string) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("q", city)
	return p.current(ctx, values)
}

func (p *OpenWeatherProvider) current(ctx context.Context, values url.Values) (weather.Snapshot, error) {
	if p.endpoint == "" {
		return weather.Snapshot{}, fmt.Errorf("%w: weather api endpoint is not configured", weather.ErrNetwork)
	}

	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	u := fmt.Sprintf("%s/weather?%s", trimSlash(p.endpoint), values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return weather.Snapshot{}, err
	}
	defer resp.Body.Close()

	var payload currentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err)
	}

	return payload.toSnapshot()
}

// currentPayload is the subset of the provider response the widget renders.
// Nested objects are pointers so a missing object is distinguishable from zero values.
type currentPayload struct {
	Name string `json:"name"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Sys *struct {
		Country string `json:"country"`
	} `json:"sys"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Wind *struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (p currentPayload) toSnapshot() (weather.Snapshot, error) {
	var missing []string
	if p.Main == nil {
		missing = append(missing, "main")
	}
	if p.Sys == nil {
		missing = append(missing, "sys")
	}
	if len(p.Weather) == 0 {
		missing = append(missing, "weather")
	}
	if p.Wind == nil {
		missing = append(missing, "wind")
	}
	if len(missing) > 0 {
		return weather.Snapshot{}, fmt.Errorf("%w: missing %s", weather.ErrMalformedResponse, strings.Join(missing, ", "))
	}

	return weather.Snapshot{
		LocationName:       p.Name,
		CountryCode:        p.Sys.Country,
		TemperatureCelsius: p.Main.Temp,
		HumidityPercent:    p.Main.Humidity,
		ConditionLabel:     p.Weather[0].Main,
		WindSpeedKmh:       p.Wind.Speed,
		FetchedAt:          time.Now().UTC(),
	}, nil
}
