package web

import (
	"net/http"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
)

// handleAssignmentStats возвращает агрегированную статистику выдачи ревьюеров.
func (s *Server) handleAssignmentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.prService.AssignmentStats(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if stats == nil {
		stats = &models.AssignmentStats{ByUser: []models.UserAssignmentStat{}}
	}

	writeJSON(w, http.StatusOK, stats)
}
