package present

import "github.com/i474232898/weather-widget/internal/weather"

// Icon names a condition glyph and the colour it is drawn in.
type Icon struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DefaultIcon is used for every condition label without its own icon.
var DefaultIcon = Icon{Name: "partly-sunny", Color: "#7B2869"}

var conditionIcons = map[string]Icon{
	weather.ConditionRain:         {Name: "rain", Color: "#272829"},
	weather.ConditionClear:        {Name: "sun", Color: "#FFC436"},
	weather.ConditionClouds:       {Name: "cloud", Color: "#102C57"},
	weather.ConditionMist:         {Name: "fog", Color: "#279EFF"},
	weather.ConditionThunderstorm: {Name: "storm", Color: "#102C57"},
	weather.ConditionSnow:         {Name: "snowflake", Color: "#FFFFFF"},
}

// IconFor maps a provider condition label to its icon. Matching is
// case-sensitive; "rain" gets the default icon.
func IconFor(label string) Icon {
	if icon, ok := conditionIcons[label]; ok {
		return icon
	}
	return DefaultIcon
}
