package domain

// ActivityPoint — одна точка графика пользовательской активности.
type ActivityPoint struct {
	Date     string  `json:"date"`
	Logins   int64   `json:"logins"`
	Sessions int64   `json:"sessions"`
	Ethics   float64 `json:"ethics"`
}

// ActivitySummary — агрегаты под графиком
type ActivitySummary struct {
	TotalLogins int64
	AvgSessions float64
	AvgEthics   float64
}

// Summarize считает итог по ряду. Для пустого ряда возвращает нули.
func Summarize(points []ActivityPoint) ActivitySummary {
	var sum ActivitySummary
	if len(points) == 0 {
		return sum
	}
	var sessions int64
	var ethics float64
	for _, p := range points {
		sum.TotalLogins += p.Logins
		sessions += p.Sessions
		ethics += p.Ethics
	}
	sum.AvgSessions = float64(sessions) / float64(len(points))
	sum.AvgEthics = ethics / float64(len(points))
	return sum
}
