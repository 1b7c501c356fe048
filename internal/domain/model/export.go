package model

// ExportQuery selects a time window of one sensor's history. Metrics
// defaults to the known metric ids and Timezone to "0000" (hhmm offset)
// when left empty.
type ExportQuery struct {
	SensorID string
	Metrics  []string
	From     string
	To       string
	Timezone string
}

// SensorExport is the decoded semicolon-delimited history export for one
// sensor: a header row of column names followed by string-valued rows.
type SensorExport struct {
	Columns []string
	Rows    [][]string
}

// Reading is one archived measurement: a single cell of an export row,
// keyed by sensor, timestamp, and column name.
type Reading struct {
	ID       int64
	SensorID string
	TakenAt  string
	Metric   string
	Value    string
}

// ExportReadings flattens an export into archive rows. The first column is
// taken as the timestamp; every remaining column becomes one Reading per
// row. Rows shorter than the header are skipped beyond their last cell.
func ExportReadings(sensorID string, ex *SensorExport) []Reading {
	if ex == nil || len(ex.Columns) < 2 {
		return nil
	}

	var readings []Reading
	for _, row := range ex.Rows {
		if len(row) == 0 {
			continue
		}
		takenAt := row[0]
		for i := 1; i < len(ex.Columns) && i < len(row); i++ {
			readings = append(readings, Reading{
				SensorID: sensorID,
				TakenAt:  takenAt,
				Metric:   ex.Columns[i],
				Value:    row[i],
			})
		}
	}
	return readings
}
