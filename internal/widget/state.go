// Package widget holds the per-session view state of a weather widget and
// the controller that fetches weather into it.
package widget

import (
	"time"

	"github.com/i474232898/weather-widget/internal/weather"
)

// ViewState is everything a widget renders from. It is treated as a value:
// the controller replaces it wholesale on each mutation and hands out copies.
// Snapshot pointers are shared between copies and never mutated.
type ViewState struct {
	CurrentSnapshot *weather.Snapshot `json:"currentSnapshot,omitempty"`

	// CachedSnapshot and LastSuccessfulSearch move together, and only on a
	// successful city search.
	CachedSnapshot       *weather.Snapshot `json:"cachedSnapshot,omitempty"`
	LastSuccessfulSearch time.Time         `json:"lastSuccessfulSearch"`

	UseDeviceLocation bool   `json:"useDeviceLocation"`
	Compact           bool   `json:"compact"`
	SearchQuery       string `json:"searchQuery"`

	// LastError describes the most recent failed fetch; cleared on success.
	LastError string `json:"lastError,omitempty"`
}

// NewViewState returns the state of a freshly mounted widget.
func NewViewState() ViewState {
	return ViewState{
		UseDeviceLocation: true,
		Compact:           true,
	}
}
