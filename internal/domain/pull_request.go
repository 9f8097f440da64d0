package domain

import "github.com/AlekseyZapadovnikov/review-assigner/internal/models"

// ReassignResponse описывает результат переназначения ревьюера в доменной модели.
type ReassignResponse struct {
	PR         *models.PullRequest
	ReplacedBy string
}

// ActivityResult описывает изменение активности пользователя и PR, оставшиеся без ревьюера.
type ActivityResult struct {
	User              *models.User
	StalePullRequests []string
}
