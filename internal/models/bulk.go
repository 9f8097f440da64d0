package models

// TeamBulkDeactivateRequest описывает запрос на массовую деактивацию членов команды.
type TeamBulkDeactivateRequest struct {
	TeamName string   `json:"team_name" validate:"required"`
	UserIDs  []string `json:"user_ids" validate:"required,min=1,dive,required"`
}

// TeamBulkDeactivateResult содержит результат массовой деактивации.
// Ревьюеры не заменяются автоматически: PR из StalePullRequests ждут явного reassign.
type TeamBulkDeactivateResult struct {
	TeamName          string   `json:"team_name"`
	Deactivated       []string `json:"deactivated"`
	StalePullRequests []string `json:"stale_pull_requests"`
}
