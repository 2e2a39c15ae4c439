package geo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-widget/internal/weather"
)

// AddressLocator geocodes a fixed home address with the Google Geocoding API.
// The first successful lookup is memoized; failures are retried on the next
// Locate call.
type AddressLocator struct {
	address geocoder.Address
	geocode func(geocoder.Address) (geocoder.Location, error)

	mu     sync.Mutex
	coords *weather.Coordinates
}

// NewAddressLocator returns nil when no home city is configured.
func NewAddressLocator(apiKey, city, country string) *AddressLocator {
	if strings.TrimSpace(city) == "" {
		return nil
	}
	if apiKey != "" {
		geocoder.ApiKey = apiKey
	}
	return &AddressLocator{
		address: geocoder.Address{
			City:    strings.TrimSpace(city),
			Country: strings.TrimSpace(country),
		},
		geocode: geocoder.Geocoding,
	}
}

func (a *AddressLocator) Locate(ctx context.Context) (weather.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: %v", ErrGeolocation, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.coords != nil {
		return *a.coords, nil
	}

	loc, err := a.geocode(a.address)
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: geocode %s: %v", ErrGeolocation, a.String(), err)
	}

	a.coords = &weather.Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}
	return *a.coords, nil
}

func (a *AddressLocator) String() string {
	if a.address.Country == "" {
		return a.address.City
	}
	return a.address.City + "," + a.address.Country
}
