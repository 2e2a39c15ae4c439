package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-widget/internal/common"
	"github.com/i474232898/weather-widget/internal/weather"
)

// DefaultWeatherAPIEndpoint is the WeatherAPI.com v1 API root.
const DefaultWeatherAPIEndpoint = "https://api.weatherapi.com/v1/"

// WeatherAPIProvider implements weather.Provider for WeatherAPI.com. Its
// free-text conditions are folded into the OpenWeather labels the widget
// has icons for, and the country is reported by name.
type WeatherAPIProvider struct {
	name     string
	apiKey   string
	endpoint string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, endpoint, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:     "weatherapi",
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   client,
		circuit:  newCircuitBreaker("weatherapi", 30*time.Second),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// CurrentByCoordinates calls GET {endpoint}/current.json?q=lat,lon.
func (p *WeatherAPIProvider) CurrentByCoordinates(ctx context.Context, coords weather.Coordinates) (weather.Snapshot, error) {
	q := strconv.FormatFloat(coords.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(coords.Lon, 'f', -1, 64)
	return p.current(ctx, q)
}

// CurrentByCity calls GET {endpoint}/current.json?q=city.
func (p *WeatherAPIProvider) CurrentByCity(ctx context.Context, city string) (weather.Snapshot, error) {
	return p.current(ctx, city)
}

func (p *WeatherAPIProvider) current(ctx context.Context, q string) (weather.Snapshot, error) {
	if p.endpoint == "" {
		return weather.Snapshot{}, fmt.Errorf("%w: weather api endpoint is not configured", weather.ErrNetwork)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", q)

	u := fmt.Sprintf("%s/current.json?%s", trimSlash(p.endpoint), values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return weather.Snapshot{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Location *struct {
			Name    string `json:"name"`
			Country string `json:"country"`
		} `json:"location"`
		Current *struct {
			TempC     float64 `json:"temp_c"`
			Humidity  float64 `json:"humidity"`
			WindKph   float64 `json:"wind_kph"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err)
	}
	if payload.Location == nil || payload.Current == nil {
		return weather.Snapshot{}, fmt.Errorf("%w: missing location or current", weather.ErrMalformedResponse)
	}

	return weather.Snapshot{
		LocationName:       payload.Location.Name,
		CountryCode:        payload.Location.Country,
		TemperatureCelsius: payload.Current.TempC,
		HumidityPercent:    payload.Current.Humidity,
		ConditionLabel:     mapWeatherAPICondition(payload.Current.Condition.Text),
		WindSpeedKmh:       payload.Current.WindKph,
		FetchedAt:          time.Now().UTC(),
	}, nil
}

// mapWeatherAPICondition folds a WeatherAPI condition text into an
// OpenWeather main label. Unrecognised text passes through unchanged.
func mapWeatherAPICondition(text string) string {
	switch {
	case common.ContainsAnyFold(text, "thunder"):
		return weather.ConditionThunderstorm
	case common.ContainsAnyFold(text, "snow", "sleet", "blizzard", "ice pellets"):
		return weather.ConditionSnow
	case common.ContainsAnyFold(text, "rain", "shower", "drizzle"):
		return weather.ConditionRain
	case common.ContainsAnyFold(text, "mist", "fog"):
		return weather.ConditionMist
	case common.ContainsAnyFold(text, "cloud", "overcast"):
		return weather.ConditionClouds
	case common.ContainsAnyFold(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return text
	}
}
