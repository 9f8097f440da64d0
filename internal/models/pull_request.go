package models

import "time"

// PullRequest описывает модель pull request.
type PullRequest struct {
	AuthorId        string            `json:"author_id"`
	CreatedAt       *time.Time        `json:"createdAt"`
	MergedAt        *time.Time        `json:"mergedAt"`
	PullRequestId   string            `json:"pull_request_id"`
	PullRequestName string            `json:"pull_request_name"`
	// ReviewerId пуст, если подходящего ревьюера не нашлось.
	ReviewerId string            `json:"reviewer_id,omitempty"`
	Status     PullRequestStatus `json:"status"`
	TeamName   string            `json:"team_name"`
	// NeedsReassignment выставляется, когда ревьюер открытого PR стал неактивным.
	NeedsReassignment bool `json:"needs_reassignment"`
}

// IsMerged сообщает, находится ли PR в терминальном состоянии.
func (pr *PullRequest) IsMerged() bool {
	return pr.Status == PullRequestStatusMERGED
}

// HasReviewer проверяет, назначен ли пользователь ревьюером PR.
func (pr *PullRequest) HasReviewer(userID string) bool {
	return pr.ReviewerId != "" && pr.ReviewerId == userID
}

// Short возвращает укороченное представление PR.
func (pr *PullRequest) Short() PullRequestShort {
	return PullRequestShort{
		AuthorId:          pr.AuthorId,
		PullRequestId:     pr.PullRequestId,
		PullRequestName:   pr.PullRequestName,
		ReviewerId:        pr.ReviewerId,
		Status:            pr.Status,
		NeedsReassignment: pr.NeedsReassignment,
	}
}

// PostPullRequestCreateJSONBody описывает тело запроса создания PR.
type PostPullRequestCreateJSONBody struct {
	AuthorId        string `json:"author_id" validate:"required"`
	PullRequestId   string `json:"pull_request_id" validate:"required"`
	PullRequestName string `json:"pull_request_name" validate:"required"`
}

// PostPullRequestMergeJSONBody описывает параметры запроса на Merge.
type PostPullRequestMergeJSONBody struct {
	PullRequestId string `json:"pull_request_id" validate:"required"`
}

// PostPullRequestReassignJSONBody описывает тело запроса на переназначение ревьюера.
type PostPullRequestReassignJSONBody struct {
	OldUserId     string `json:"old_user_id" validate:"required"`
	PullRequestId string `json:"pull_request_id" validate:"required"`
}

// ===== Short pullReq ====================================

// PullRequestShort задаёт укороченное представление PR.
type PullRequestShort struct {
	AuthorId          string            `json:"author_id"`
	PullRequestId     string            `json:"pull_request_id"`
	PullRequestName   string            `json:"pull_request_name"`
	ReviewerId        string            `json:"reviewer_id,omitempty"`
	Status            PullRequestStatus `json:"status"`
	NeedsReassignment bool              `json:"needs_reassignment"`
}

// PullRequestStatus описывает статусы полного PR. OPEN означает, что PR находится на ревью.
type PullRequestStatus string

// Возможные значения PullRequestStatus.
const (
	PullRequestStatusMERGED PullRequestStatus = "MERGED"
	PullRequestStatusOPEN   PullRequestStatus = "OPEN"
)

