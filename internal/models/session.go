package models

import "time"

// SessionState is a snapshot of the dashboard's application state:
// the last successfully loaded payload and the display preferences.
type SessionState struct {
	Ticker   string    `json:"ticker"`
	Payload  *Payload  `json:"-"`
	LoadedAt time.Time `json:"loaded_at"`
	DarkMode bool      `json:"dark_mode"`
}

// Loaded reports whether a payload is cached.
func (s SessionState) Loaded() bool {
	return s.Payload != nil
}

// CompanyName returns the payload's company name, or the ticker.
func (s SessionState) CompanyName() string {
	if s.Payload != nil && s.Payload.Metadata.Name != "" {
		return s.Payload.Metadata.Name
	}
	return s.Ticker
}

// Currency returns the payload's reporting currency code.
func (s SessionState) Currency() string {
	if s.Payload == nil {
		return ""
	}
	return s.Payload.Metadata.Currency
}
