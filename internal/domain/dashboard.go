package domain

// MetricsSnapshot — плоский снимок метрик, который показывает админская панель.
type MetricsSnapshot struct {
	Stability  float64 `json:"stability"`
	Ethics     float64 `json:"ethics"`
	Agents     float64 `json:"agents"`
	Throughput float64 `json:"throughput"`
	Latency    float64 `json:"latency"`
	Uptime     float64 `json:"uptime"`
	Revenue    float64 `json:"revenue"`
	Costs      float64 `json:"costs"`
}

// DefaultMetrics — значения до первого успешного ответа /metrics
func DefaultMetrics() MetricsSnapshot {
	return MetricsSnapshot{
		Stability: 99.9,
		Ethics:    98.5,
		Uptime:    100,
	}
}

// MetricsPatch — частичный ответ /metrics. nil означает "поле не пришло".
type MetricsPatch struct {
	Stability  *float64 `json:"stability,omitempty"`
	Ethics     *float64 `json:"ethics,omitempty"`
	Agents     *float64 `json:"agents,omitempty"`
	Throughput *float64 `json:"throughput,omitempty"`
	Latency    *float64 `json:"latency,omitempty"`
	Uptime     *float64 `json:"uptime,omitempty"`
	Revenue    *float64 `json:"revenue,omitempty"`
	Costs      *float64 `json:"costs,omitempty"`
}

// Merge накладывает патч поверх снимка поле за полем.
// Отсутствующие в ответе поля сохраняют прежнее значение.
func (s MetricsSnapshot) Merge(p MetricsPatch) MetricsSnapshot {
	apply := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&s.Stability, p.Stability)
	apply(&s.Ethics, p.Ethics)
	apply(&s.Agents, p.Agents)
	apply(&s.Throughput, p.Throughput)
	apply(&s.Latency, p.Latency)
	apply(&s.Uptime, p.Uptime)
	apply(&s.Revenue, p.Revenue)
	apply(&s.Costs, p.Costs)
	return s
}

// Empty сообщает, что в патче нет ни одного известного поля.
func (p MetricsPatch) Empty() bool {
	return p == MetricsPatch{}
}
