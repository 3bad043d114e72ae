package handler

import (
	"context"
	"log/slog"
	"net/http"

	"library-engine/internal/api/handler/dto"
	"library-engine/internal/batch"
)

type ReminderRunner interface {
	Run(ctx context.Context) (batch.Summary, error)
}

type ReminderHandler struct {
	runner ReminderRunner
	logger *slog.Logger
}

func NewReminderHandler(runner ReminderRunner, l *slog.Logger) *ReminderHandler {
	return &ReminderHandler{
		runner: runner,
		logger: l.With("component", "ReminderHandler"),
	}
}

// SendReminders runs the overdue reminder job once. Admin only. Channel
// failures are reported with 502 along with the run summary.
func (h *ReminderHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "Manual reminder run failed", "error", err)
		resp := dto.NewReminderRunResponse(summary)
		resp.Error = &dto.ErrorDetail{Message: err.Error()}
		respondJSON(w, http.StatusBadGateway, resp)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewReminderRunResponse(summary))
}
