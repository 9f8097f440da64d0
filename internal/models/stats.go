package models

// AssignmentStats содержит счётчики назначений по пользователям и сводку по PR.
type AssignmentStats struct {
	ByUser       []UserAssignmentStat `json:"by_user"`
	PullRequests PullRequestTotals    `json:"pull_requests"`
}

// UserAssignmentStat показывает нагрузку конкретного пользователя.
type UserAssignmentStat struct {
	UserId   string `json:"user_id"`
	Username string `json:"username"`
	TeamName string `json:"team_name"`
	IsActive bool   `json:"is_active"`
	// OpenAssignments число открытых PR, где пользователь сейчас ревьюер.
	OpenAssignments int `json:"open_assignments"`
	// TotalAssignments сколько раз пользователя назначали ревьюером за время жизни процесса.
	TotalAssignments int `json:"total_assignments"`
	MergedReviews    int `json:"merged_reviews"`
}

// PullRequestTotals агрегирует PR по состояниям.
type PullRequestTotals struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	Merged     int `json:"merged"`
	Unassigned int `json:"unassigned"`
	Stale      int `json:"stale"`
}
