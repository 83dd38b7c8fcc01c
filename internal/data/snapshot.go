// internal/data/snapshot.go
package data

// Column names of the tabular snapshot, in display order.
const (
	ColumnCelsius    = "temp_celsius"
	ColumnFahrenheit = "temp_fahrenheit"
	ColumnKelvin     = "temp_kelvin"
	ColumnTimestamp  = "timestamp"
)

// Columns is the header of every Snapshot table.
var Columns = []string{ColumnCelsius, ColumnFahrenheit, ColumnKelvin, ColumnTimestamp}

// Snapshot is a point-in-time, oldest-first view of a rolling window.
// It owns its slice; callers may not share it with the window.
type Snapshot struct {
	Readings []Reading `json:"readings"`
}

func (s Snapshot) Len() int { return len(s.Readings) }

func (s Snapshot) Empty() bool { return len(s.Readings) == 0 }

// Series returns one numeric column oldest-first. Unknown names and the
// timestamp column yield nil.
func (s Snapshot) Series(column string) []float64 {
	if len(s.Readings) == 0 {
		return nil
	}
	if _, ok := (Reading{}).Field(column); !ok {
		return nil
	}
	out := make([]float64, len(s.Readings))
	for i, r := range s.Readings {
		out[i], _ = r.Field(column)
	}
	return out
}

// Timestamps returns the timestamp column oldest-first.
func (s Snapshot) Timestamps() []string {
	out := make([]string, len(s.Readings))
	for i, r := range s.Readings {
		out[i] = r.Timestamp
	}
	return out
}

// Rows renders the snapshot as string cells, one row per reading, in the
// order given by Columns.
func (s Snapshot) Rows() [][]string {
	rows := make([][]string, len(s.Readings))
	for i, r := range s.Readings {
		rows[i] = []string{
			FormatValue(r.TempCelsius),
			FormatValue(r.TempFahrenheit),
			FormatValue(r.TempKelvin),
			r.Timestamp,
		}
	}
	return rows
}
