package web

import (
	"net/http"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
)

type prResp struct {
	PR *models.PullRequest `json:"pr"`
}

// handlePRCreate принимает JSON-запрос создания PR и проксирует его в сервис.
func (s *Server) handlePRCreate(w http.ResponseWriter, r *http.Request) {
	var p models.PostPullRequestCreateJSONBody
	if !decodeRequest(w, r, &p) {
		return
	}

	pr, err := s.prService.CreatePullRequest(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, prResp{PR: pr})
}

// handlePRMerge подтверждает слияние PR и возвращает обновлённые данные.
func (s *Server) handlePRMerge(w http.ResponseWriter, r *http.Request) {
	var p models.PostPullRequestMergeJSONBody
	if !decodeRequest(w, r, &p) {
		return
	}

	pr, err := s.prService.Merge(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, prResp{PR: pr})
}

type reassignResponse struct {
	PR         *models.PullRequest `json:"pr"`
	ReplacedBy string              `json:"replaced_by"`
}

// handlePRReassign заменяет ревьюера PR и сообщает, кто его сменил.
func (s *Server) handlePRReassign(w http.ResponseWriter, r *http.Request) {
	var p models.PostPullRequestReassignJSONBody
	if !decodeRequest(w, r, &p) {
		return
	}

	res, err := s.prService.Reassign(r.Context(), p.OldUserId, p.PullRequestId)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reassignResponse{
		PR:         res.PR,
		ReplacedBy: res.ReplacedBy,
	})
}

type getUserReviewsResp struct {
	UserId       string                    `json:"user_id"`
	PullRequests []models.PullRequestShort `json:"pull_requests"`
}
