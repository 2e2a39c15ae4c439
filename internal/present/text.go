package present

import (
	"fmt"
	"io"
	"strings"
)

// WriteText draws a plan for a terminal.
func WriteText(w io.Writer, plan RenderPlan) error {
	var b strings.Builder

	switch plan.Mode {
	case ModeCompact:
		if plan.Badge == nil || plan.Badge.Weather == nil {
			b.WriteString("[ ]\n")
			break
		}
		bw := plan.Badge.Weather
		fmt.Fprintf(&b, "[ %s %s %s ]\n", bw.Temperature, bw.Icon.Name, bw.LocationName)

	case ModeExpanded:
		exp := plan.Expanded
		if exp == nil {
			break
		}
		query := exp.Search.Query
		if query == "" {
			query = exp.Search.Placeholder
		}
		location := "off"
		if exp.Location.UseDeviceLocation {
			location = "on"
		}
		fmt.Fprintf(&b, "search: %s   current location: %s\n", query, location)
		b.WriteString(strings.Repeat("=", 40) + "\n")

		if p := exp.Weather; p != nil {
			fmt.Fprintf(&b, "%s, %s\n", p.LocationName, p.CountryCode)
			fmt.Fprintf(&b, "%s  %s (%s)\n", p.Temperature, p.Condition, p.Icon.Name)
			fmt.Fprintf(&b, "Humidity:   %s\n", p.Humidity)
			fmt.Fprintf(&b, "Wind speed: %s\n", p.WindSpeed)
		} else {
			b.WriteString("no weather data\n")
		}
		if exp.Notice != "" {
			fmt.Fprintf(&b, "! %s\n", exp.Notice)
		}

	default:
		return fmt.Errorf("unknown render mode %q", plan.Mode)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
