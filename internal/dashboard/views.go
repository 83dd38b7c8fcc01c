// internal/dashboard/views.go
package dashboard

import (
	"encoding/csv"
	"errors"
	"io"

	"live-temp-dashboard/internal/data"
	"live-temp-dashboard/internal/trend"
)

// Chart texts shown by the trend tab.
const (
	TrendTitle  = "Temperature Trends with Regression Line"
	NoDataTitle = "No Data Available Yet"
	TimeLabel   = "Time"
	TempLabel   = "Temperature (°C)"
)

// LiveView is the value box content for one unit.
type LiveView struct {
	Unit      data.Unit `json:"unit"`
	Value     float64   `json:"value"`
	Display   string    `json:"display"`
	Timestamp string    `json:"timestamp"`
}

// BuildLive renders the latest reading in unit u.
func BuildLive(r data.Reading, u data.Unit) LiveView {
	return LiveView{
		Unit:      u,
		Value:     r.Value(u),
		Display:   r.Display(u),
		Timestamp: r.Timestamp,
	}
}

// TableView is the recent readings table.
type TableView struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func BuildTable(s data.Snapshot) TableView {
	return TableView{Columns: data.Columns, Rows: s.Rows()}
}

// WriteCSV writes the table with a header row.
func WriteCSV(w io.Writer, s data.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(data.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(s.Rows()); err != nil {
		return err
	}
	return cw.Error()
}

// TrendChart is a scatter of Celsius over time with its regression line.
// With no readings only the placeholder title is set and NoData is true.
type TrendChart struct {
	Title      string      `json:"title"`
	XLabel     string      `json:"x_label,omitempty"`
	YLabel     string      `json:"y_label,omitempty"`
	NoData     bool        `json:"no_data"`
	Timestamps []string    `json:"timestamps"`
	Celsius    []float64   `json:"temp_celsius"`
	Regression []float64   `json:"regression_line"`
	Line       *trend.Line `json:"line,omitempty"`
}

func BuildTrend(s data.Snapshot) TrendChart {
	ys := s.Series(data.ColumnCelsius)
	line, err := trend.Fit(ys)
	if errors.Is(err, trend.ErrNoData) {
		return TrendChart{
			Title:      NoDataTitle,
			NoData:     true,
			Timestamps: []string{},
			Celsius:    []float64{},
			Regression: []float64{},
		}
	}
	return TrendChart{
		Title:      TrendTitle,
		XLabel:     TimeLabel,
		YLabel:     TempLabel,
		Timestamps: s.Timestamps(),
		Celsius:    ys,
		Regression: line.Values(len(ys)),
		Line:       &line,
	}
}

// View is everything a dashboard page needs for one tick. It is built once
// per tick and shared by every client.
type View struct {
	Seq     uint64                 `json:"seq"`
	Reading data.Reading           `json:"reading"`
	Live    map[data.Unit]LiveView `json:"live"`
	Text    string                 `json:"text"`
	Table   *TableView             `json:"table,omitempty"`
	Trend   *TrendChart            `json:"trend,omitempty"`
}
