package domain

// Ticket — рабочая единица BPO, как её отдает GET /cycle
type Ticket struct {
	ID      string  `json:"ticket_id"`
	Task    string  `json:"task"`
	Status  string  `json:"status"`
	QAScore float64 `json:"qa_score"`
}

// CycleRequest — тело POST /cycle
type CycleRequest struct {
	Prompt string `json:"prompt"`
}

// TicketList — ответ GET /cycle
type TicketList struct {
	Result []Ticket `json:"result"`
}

// CycleResult — ответ POST /cycle
type CycleResult struct {
	Result Ticket `json:"result"`
}
