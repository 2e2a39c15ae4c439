package weather

import (
	"time"
)

// Condition labels the provider is known to return. Any other label is
// rendered with the default icon.
const (
	ConditionRain         = "Rain"
	ConditionClear        = "Clear"
	ConditionClouds       = "Clouds"
	ConditionMist         = "Mist"
	ConditionThunderstorm = "Thunderstorm"
	ConditionSnow         = "Snow"
)

// Coordinates is a device or geocoded position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Snapshot is one immutable weather reading returned by the provider.
// Values are kept at full precision; rounding happens at render time.
type Snapshot struct {
	LocationName       string    `json:"locationName"`
	CountryCode        string    `json:"countryCode"`
	TemperatureCelsius float64   `json:"temperatureCelsius"`
	HumidityPercent    float64   `json:"humidityPercent"`
	ConditionLabel     string    `json:"conditionLabel"`
	WindSpeedKmh       float64   `json:"windSpeedKmh"`
	FetchedAt          time.Time `json:"fetchedAt"` // always UTC
}
