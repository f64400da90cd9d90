package httpapi

import (
	"github.com/smartpetcare/feeder-backend/internal/db"
)

// consumptionSummary aggregates a device's consumption events for the report
type consumptionSummary struct {
	TotalGrams     float64 `json:"total_grams"`
	DaysCovered    int     `json:"days_covered"`
	AvgGramsPerDay float64 `json:"avg_grams_per_day"`
}

// summarizeConsumption totals events and averages per distinct calendar day
func summarizeConsumption(events []db.ConsumptionEvent) consumptionSummary {
	var summary consumptionSummary
	days := map[string]struct{}{}
	for _, event := range events {
		summary.TotalGrams += event.Grams
		days[event.RecordedAt.Format("2006-01-02")] = struct{}{}
	}
	summary.DaysCovered = len(days)
	if summary.DaysCovered > 0 {
		summary.AvgGramsPerDay = summary.TotalGrams / float64(summary.DaysCovered)
	}
	return summary
}
