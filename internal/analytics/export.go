package analytics

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// WriteDashboardCSV serialises the dashboard panels to a single CSV report.
func WriteDashboardCSV(w io.Writer, dash *Dashboard) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Section", "Day", "Staff", "Clock-ins", "Completed", "Hours"}); err != nil {
		return err
	}
	for _, stat := range dash.Daily {
		if err := writer.Write([]string{
			"daily",
			stat.Day.Format("2006-01-02"),
			"",
			strconv.FormatInt(stat.ClockIns, 10),
			strconv.FormatInt(stat.CompletedShifts, 10),
			formatHours(stat.AvgHours),
		}); err != nil {
			return err
		}
	}
	for _, staff := range dash.WeeklyHours {
		if err := writer.Write([]string{
			"weekly",
			"",
			staff.FirstName + " " + staff.LastName,
			"",
			strconv.FormatInt(staff.CompletedShifts, 10),
			formatHours(staff.TotalHours),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatHours(v float64) string {
	return printer.Sprintf("%.2f", v)
}
