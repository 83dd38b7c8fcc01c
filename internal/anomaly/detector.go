// internal/anomaly/detector.go
package anomaly

import (
	"fmt"
	"sort"

	"live-temp-dashboard/internal/config"
	"live-temp-dashboard/internal/data"
)

// Detector checks readings of one dashboard against min/max rules keyed by
// reading field name.
type Detector struct {
	dashboard string
	rules     map[string]config.Rule
	fields    []string
}

func NewDetector(dashboard string, rules map[string]config.Rule) *Detector {
	fields := make([]string, 0, len(rules))
	for f := range rules {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return &Detector{dashboard: dashboard, rules: rules, fields: fields}
}

// Check returns one alert per field outside its bounds, in field order.
// Rules naming unknown fields never fire.
func (d *Detector) Check(r data.Reading) []data.Alert {
	var alerts []data.Alert
	for _, field := range d.fields {
		value, ok := r.Field(field)
		if !ok {
			continue
		}
		rule := d.rules[field]
		if value < rule.Min || value > rule.Max {
			alerts = append(alerts, data.Alert{
				Timestamp: r.Timestamp,
				Severity:  "WARN",
				Message:   fmt.Sprintf("%s %.1f is outside [%.1f, %.1f]", field, value, rule.Min, rule.Max),
				Field:     field,
				Value:     value,
				Dashboard: d.dashboard,
			})
		}
	}
	return alerts
}
