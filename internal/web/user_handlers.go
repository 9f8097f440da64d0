package web

import (
	"net/http"
	"strings"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
)

type setUserResp struct {
	User              *models.User `json:"user"`
	StalePullRequests []string     `json:"stale_pull_requests"`
}

// handleSetUserActivity меняет признак активности пользователя.
// В ответе перечислены открытые PR, которые после изменения ждут переназначения.
func (s *Server) handleSetUserActivity(w http.ResponseWriter, r *http.Request) {
	var p models.PostUsersSetIsActiveJSONBody
	if !decodeRequest(w, r, &p) {
		return
	}

	res, err := s.userTeamService.SetUserActivity(r.Context(), p.UserId, *p.IsActive)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	stale := res.StalePullRequests
	if stale == nil {
		stale = []string{}
	}
	writeJSON(w, http.StatusOK, setUserResp{User: res.User, StalePullRequests: stale})
}

// handleGetUserReviews возвращает открытые PR, где пользователь ревьюер или автор.
func (s *Server) handleGetUserReviews(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, MISSINGPARAM, "user_id is required")
		return
	}

	prs, err := s.prService.ListForReviewer(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if prs == nil {
		prs = []models.PullRequestShort{}
	}

	writeJSON(w, http.StatusOK, getUserReviewsResp{
		UserId:       userID,
		PullRequests: prs,
	})
}
