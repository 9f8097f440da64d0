package models

// Snapshot содержит сохранённое состояние: команды и PR в порядке создания.
type Snapshot struct {
	Teams        []Team
	PullRequests []PullRequest
}
