// Package present maps a widget's view state to what should be drawn.
package present

import (
	"fmt"
	"math"
	"strconv"

	"github.com/i474232898/weather-widget/internal/weather"
	"github.com/i474232898/weather-widget/internal/widget"
)

// Mode is the widget's layout.
type Mode string

const (
	ModeCompact  Mode = "compact"
	ModeExpanded Mode = "expanded"
)

// Action is a user interaction the client wires to a control.
type Action string

const (
	ActionExpand         Action = "expand"
	ActionCollapse       Action = "collapse"
	ActionEditQuery      Action = "edit-query"
	ActionSubmitSearch   Action = "submit-search"
	ActionToggleLocation Action = "toggle-location"
)

// SearchPlaceholder is shown in an empty search box.
const SearchPlaceholder = "enter a city"

// RenderPlan is everything a client needs to draw the widget.
type RenderPlan struct {
	Mode Mode `json:"mode"`

	// Badge is set in compact mode. Its Weather is nil when there is nothing
	// to show, leaving an empty badge shell.
	Badge *Badge `json:"badge,omitempty"`

	// Expanded is set in expanded mode.
	Expanded *Expanded `json:"expanded,omitempty"`
}

// Badge is the compact view.
type Badge struct {
	Weather *BadgeWeather `json:"weather,omitempty"`
	OnClick Action        `json:"onClick"`
}

type BadgeWeather struct {
	Temperature  string `json:"temperature"`
	Icon         Icon   `json:"icon"`
	LocationName string `json:"locationName"`
}

// Expanded is the detail view.
type Expanded struct {
	Search   SearchBox      `json:"search"`
	Location LocationToggle `json:"location"`
	Weather  *WeatherPanel  `json:"weather,omitempty"`
	// Notice explains the last failed fetch.
	Notice string `json:"notice,omitempty"`
	Back   Action `json:"back"`
}

type SearchBox struct {
	Query       string `json:"query"`
	Placeholder string `json:"placeholder"`
	OnInput     Action `json:"onInput"`
	OnSubmit    Action `json:"onSubmit"`
}

type LocationToggle struct {
	UseDeviceLocation bool   `json:"useDeviceLocation"`
	OnClick           Action `json:"onClick"`
}

type WeatherPanel struct {
	LocationName string `json:"locationName"`
	CountryCode  string `json:"countryCode"`
	Icon         Icon   `json:"icon"`
	Temperature  string `json:"temperature"`
	Condition    string `json:"condition"`
	Humidity     string `json:"humidity"`
	WindSpeed    string `json:"windSpeed"`
}

// Build maps a view state to a render plan. It has no side effects.
func Build(s widget.ViewState) RenderPlan {
	if s.Compact {
		badge := &Badge{OnClick: ActionExpand}
		if snap := s.CurrentSnapshot; snap != nil {
			badge.Weather = &BadgeWeather{
				Temperature:  FormatTemperature(snap.TemperatureCelsius),
				Icon:         IconFor(snap.ConditionLabel),
				LocationName: snap.LocationName,
			}
		}
		return RenderPlan{Mode: ModeCompact, Badge: badge}
	}

	exp := &Expanded{
		Search: SearchBox{
			Query:       s.SearchQuery,
			Placeholder: SearchPlaceholder,
			OnInput:     ActionEditQuery,
			OnSubmit:    ActionSubmitSearch,
		},
		Location: LocationToggle{
			UseDeviceLocation: s.UseDeviceLocation,
			OnClick:           ActionToggleLocation,
		},
		Notice: s.LastError,
		Back:   ActionCollapse,
	}
	if snap := s.CurrentSnapshot; snap != nil {
		exp.Weather = panelFor(*snap)
	}
	return RenderPlan{Mode: ModeExpanded, Expanded: exp}
}

func panelFor(snap weather.Snapshot) *WeatherPanel {
	return &WeatherPanel{
		LocationName: snap.LocationName,
		CountryCode:  snap.CountryCode,
		Icon:         IconFor(snap.ConditionLabel),
		Temperature:  FormatTemperature(snap.TemperatureCelsius),
		Condition:    snap.ConditionLabel,
		Humidity:     FormatHumidity(snap.HumidityPercent),
		WindSpeed:    FormatWindSpeed(snap.WindSpeedKmh),
	}
}

// FormatTemperature renders a Celsius value rounded to whole degrees, e.g. "18°".
func FormatTemperature(c float64) string {
	return fmt.Sprintf("%d°", roundInt(c))
}

// FormatHumidity renders a relative humidity, e.g. "60%".
func FormatHumidity(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}

// FormatWindSpeed converts km/h to whole m/s, e.g. 10.8 km/h -> "3 m/s".
func FormatWindSpeed(kmh float64) string {
	return fmt.Sprintf("%d m/s", KmhToMs(kmh))
}

// KmhToMs converts km/h to m/s rounded to the nearest integer.
func KmhToMs(kmh float64) int {
	return roundInt(kmh / 3.6)
}

// roundInt rounds half away from zero; int conversion also drops negative zero.
func roundInt(v float64) int {
	return int(math.Round(v))
}
