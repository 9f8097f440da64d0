package web

import (
	"net/http"
	"strings"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
)

type teamAddResponse struct {
	Team *models.Team `json:"team"`
}

type teamDeactivateResponse struct {
	Result *models.TeamBulkDeactivateResult `json:"result"`
}

// handleTeamAdd создаёт команду вместе с участниками.
func (s *Server) handleTeamAdd(w http.ResponseWriter, r *http.Request) {
	var team models.Team
	if !decodeRequest(w, r, &team) {
		return
	}

	created, err := s.userTeamService.AddTeam(r.Context(), team)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, teamAddResponse{Team: created})
}

// handleTeamGet возвращает команду по её имени.
func (s *Server) handleTeamGet(w http.ResponseWriter, r *http.Request) {
	teamName := strings.TrimSpace(r.URL.Query().Get("team_name"))
	if teamName == "" {
		writeError(w, http.StatusBadRequest, MISSINGPARAM, "team_name is required")
		return
	}

	team, err := s.userTeamService.GetTeam(r.Context(), teamName)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// handleTeamDeactivate массово деактивирует участников команды.
func (s *Server) handleTeamDeactivate(w http.ResponseWriter, r *http.Request) {
	var req models.TeamBulkDeactivateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := s.userTeamService.DeactivateTeamMembers(r.Context(), req.TeamName, req.UserIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, teamDeactivateResponse{Result: result})
}
