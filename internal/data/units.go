// internal/data/units.go
package data

import (
	"errors"
	"fmt"
	"strconv"
)

// Unit is a display unit selectable on the dashboards.
type Unit string

const (
	Celsius    Unit = "Celsius"
	Fahrenheit Unit = "Fahrenheit"
	Kelvin     Unit = "Kelvin"
)

// Units lists the selectable units in the order the selector shows them.
var Units = []Unit{Celsius, Fahrenheit, Kelvin}

var ErrUnknownUnit = errors.New("unknown temperature unit")

// ParseUnit maps a unit name to a Unit. An empty name selects Celsius.
func ParseUnit(name string) (Unit, error) {
	switch Unit(name) {
	case "":
		return Celsius, nil
	case Celsius, Fahrenheit, Kelvin:
		return Unit(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnit, name)
}

// Suffix is the symbol printed after a value in this unit.
func (u Unit) Suffix() string {
	switch u {
	case Fahrenheit:
		return "°F"
	case Kelvin:
		return "K"
	default:
		return "°C"
	}
}

// Value picks the reading field that corresponds to the unit.
func (r Reading) Value(u Unit) float64 {
	switch u {
	case Fahrenheit:
		return r.TempFahrenheit
	case Kelvin:
		return r.TempKelvin
	default:
		return r.TempCelsius
	}
}

// Display renders the reading in unit u, e.g. "32.0 °F".
func (r Reading) Display(u Unit) string {
	return FormatValue(r.Value(u)) + " " + u.Suffix()
}

// FormatValue prints v the way the dashboards show temperatures: shortest
// representation, but always with at least one decimal.
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}
