// internal/data/models.go
package data

import (
	"math"
	"time"
)

// TimestampLayout is the wall-clock format carried by every Reading.
const TimestampLayout = "2006-01-02 15:04:05"

// Reading - one simulated temperature sample
type Reading struct {
	TempCelsius    float64 `json:"temp_celsius"`
	TempFahrenheit float64 `json:"temp_fahrenheit"`
	TempKelvin     float64 `json:"temp_kelvin"`
	Timestamp      string  `json:"timestamp"`
}

// NewReading rounds celsius to one decimal and derives the Fahrenheit and
// Kelvin fields from the rounded value. The conversions happen here and
// nowhere else.
func NewReading(celsius float64, at time.Time) Reading {
	c := Round1(celsius)
	return Reading{
		TempCelsius:    c,
		TempFahrenheit: Round1(c*9/5 + 32),
		TempKelvin:     Round1(c + 273.15),
		Timestamp:      at.Format(TimestampLayout),
	}
}

// Field returns the value of a numeric reading field by its column name.
func (r Reading) Field(name string) (float64, bool) {
	switch name {
	case ColumnCelsius:
		return r.TempCelsius, true
	case ColumnFahrenheit:
		return r.TempFahrenheit, true
	case ColumnKelvin:
		return r.TempKelvin, true
	}
	return 0, false
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Alert - Structure for sending alerts
type Alert struct {
	Timestamp string  `json:"timestamp"`
	Severity  string  `json:"severity"` // e.g., "WARN", "CRITICAL"
	Message   string  `json:"message"`
	Field     string  `json:"field"` // Which reading field triggered the alert
	Value     float64 `json:"value"`
	Dashboard string  `json:"dashboard"`
}
