package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nadmax/storepulse/internal/store"
)

// Columns is the report header, in the order consumers expect.
var Columns = []string{
	"store_id",
	"uptime_last_hour",
	"uptime_last_day",
	"uptime_last_week",
	"downtime_last_hour",
	"downtime_last_day",
	"downtime_last_week",
}

// WriteCSV serializes report rows with the exact header above, numeric
// fields as plain decimals with two digits.
func WriteCSV(w io.Writer, rows []store.ReportRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.StoreID,
			formatMetric(row.UptimeLastHour),
			formatMetric(row.UptimeLastDay),
			formatMetric(row.UptimeLastWeek),
			formatMetric(row.DowntimeLastHour),
			formatMetric(row.DowntimeLastDay),
			formatMetric(row.DowntimeLastWeek),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
