package dto

import "library-engine/internal/batch"

type ReminderRunResponse struct {
	Overdue    int          `json:"overdue"`
	Sent       bool         `json:"sent"`
	DurationMs int64        `json:"durationMs"`
	Error      *ErrorDetail `json:"error,omitempty"`
}

func NewReminderRunResponse(s batch.Summary) ReminderRunResponse {
	return ReminderRunResponse{
		Overdue:    s.Overdue,
		Sent:       s.Sent,
		DurationMs: s.Duration.Milliseconds(),
	}
}
