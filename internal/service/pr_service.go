package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/domain"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/store"
)

// PullRequestManager реализует жизненный цикл PR и назначение ревьюеров.
// Собственного состояния у менеджера нет, он работает поверх реестра команд и хранилища PR.
type PullRequestManager struct {
	teams   *store.TeamRegistry
	prs     *store.PullRequestStore
	journal Journal
	log     *slog.Logger
	now     func() time.Time
}

// NewPullRequestManager связывает менеджер с хранилищами и журналом изменений.
func NewPullRequestManager(teams *store.TeamRegistry, prs *store.PullRequestStore, journal Journal, log *slog.Logger) *PullRequestManager {
	if journal == nil {
		journal = NopJournal{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &PullRequestManager{
		teams:   teams,
		prs:     prs,
		journal: journal,
		log:     log,
		now:     time.Now,
	}
}

// CreatePullRequest создаёт PR и назначает наименее загруженного ревьюера из команды автора.
// Если подходящих участников нет, PR создаётся без ревьюера.
func (prm *PullRequestManager) CreatePullRequest(ctx context.Context, reqData models.PostPullRequestCreateJSONBody) (*models.PullRequest, error) {
	reqData.PullRequestId = strings.TrimSpace(reqData.PullRequestId)
	reqData.AuthorId = strings.TrimSpace(reqData.AuthorId)
	if err := validateCreate(reqData); err != nil {
		return nil, err
	}

	team, err := prm.teams.FindTeamByMember(reqData.AuthorId)
	if err != nil {
		return nil, fmt.Errorf("failed to get author team: %w", err)
	}

	var created models.PullRequest
	err = team.Update(func(tx *store.TeamTx) error {
		if prm.prs.Exists(reqData.PullRequestId) {
			return domain.NewPRExistsError(reqData.PullRequestId)
		}

		reviewer, _ := pickReviewer(tx.TeamView, reqData.AuthorId)
		createdAt := prm.now()
		pr := models.PullRequest{
			PullRequestId:   reqData.PullRequestId,
			PullRequestName: reqData.PullRequestName,
			AuthorId:        reqData.AuthorId,
			TeamName:        tx.Name(),
			ReviewerId:      reviewer,
			Status:          models.PullRequestStatusOPEN,
			CreatedAt:       &createdAt,
		}

		saved, err := prm.prs.Insert(pr)
		if err != nil {
			return err
		}
		tx.Track(saved.PullRequestId)
		if reviewer != "" {
			tx.Assign(reviewer, saved.PullRequestId)
		}
		prm.journal.PullRequestSaved(saved)
		created = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	prm.log.DebugContext(ctx, "pull request created",
		"pull_request_id", created.PullRequestId,
		"team_name", created.TeamName,
		"reviewer_id", created.ReviewerId,
	)
	return &created, nil
}

// Merge переводит PR в терминальное состояние MERGED. Повторный merge считается конфликтом.
func (prm *PullRequestManager) Merge(ctx context.Context, payload models.PostPullRequestMergeJSONBody) (*models.PullRequest, error) {
	payload.PullRequestId = strings.TrimSpace(payload.PullRequestId)
	if payload.PullRequestId == "" {
		return nil, domain.NewValidationError("pull_request_id is required")
	}

	team, err := prm.teamOf(payload.PullRequestId)
	if err != nil {
		return nil, err
	}

	var merged models.PullRequest
	err = team.Update(func(tx *store.TeamTx) error {
		pr, err := prm.prs.Update(payload.PullRequestId, func(pr *models.PullRequest) error {
			if pr.IsMerged() {
				return domain.NewPRMergedError(pr.PullRequestId)
			}
			mergedAt := prm.now()
			pr.Status = models.PullRequestStatusMERGED
			pr.MergedAt = &mergedAt
			pr.NeedsReassignment = false
			return nil
		})
		if err != nil {
			return err
		}
		if pr.ReviewerId != "" {
			tx.Release(pr.ReviewerId, pr.PullRequestId)
		}
		prm.journal.PullRequestSaved(pr)
		merged = pr
		return nil
	})
	if err != nil {
		return nil, err
	}

	prm.log.DebugContext(ctx, "pull request merged", "pull_request_id", merged.PullRequestId)
	return &merged, nil
}

// Reassign заменяет текущего ревьюера PR другим активным участником команды.
func (prm *PullRequestManager) Reassign(ctx context.Context, oldUserId, prId string) (*domain.ReassignResponse, error) {
	prId, oldUserId = strings.TrimSpace(prId), strings.TrimSpace(oldUserId)
	if prId == "" || oldUserId == "" {
		return nil, domain.NewValidationError("pull_request_id and old_user_id are required")
	}

	team, err := prm.teamOf(prId)
	if err != nil {
		return nil, err
	}

	var response *domain.ReassignResponse
	err = team.Update(func(tx *store.TeamTx) error {
		var replacement string
		pr, err := prm.prs.Update(prId, func(pr *models.PullRequest) error {
			if pr.IsMerged() {
				return domain.NewPRMergedError(pr.PullRequestId)
			}
			if !pr.HasReviewer(oldUserId) {
				return domain.NewNotAssignedError(pr.PullRequestId, oldUserId)
			}

			candidate, ok := pickReviewer(tx.TeamView, pr.AuthorId, oldUserId)
			if !ok {
				return domain.NewNoCandidateError(pr.PullRequestId)
			}
			pr.ReviewerId = candidate
			pr.NeedsReassignment = false
			replacement = candidate
			return nil
		})
		if err != nil {
			return err
		}

		tx.Release(oldUserId, pr.PullRequestId)
		tx.Assign(replacement, pr.PullRequestId)
		prm.journal.PullRequestSaved(pr)
		response = &domain.ReassignResponse{PR: &pr, ReplacedBy: replacement}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prm.log.DebugContext(ctx, "reviewer reassigned",
		"pull_request_id", prId,
		"old_user_id", oldUserId,
		"new_user_id", response.ReplacedBy,
	)
	return response, nil
}

// ListForReviewer возвращает открытые PR, где пользователь ревьюер или автор, в порядке создания.
func (prm *PullRequestManager) ListForReviewer(ctx context.Context, userID string) ([]models.PullRequestShort, error) {
	userID = strings.TrimSpace(userID)
	team, err := prm.teams.FindTeamByMember(userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.PullRequestShort, 0)
	err = team.View(func(v store.TeamView) error {
		for _, id := range v.PullRequests() {
			pr, err := prm.prs.Get(id)
			if err != nil {
				return fmt.Errorf("failed to read pull request %s: %w", id, err)
			}
			if pr.IsMerged() {
				continue
			}
			if pr.ReviewerId == userID || pr.AuthorId == userID {
				result = append(result, pr.Short())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AssignmentStats возвращает агрегированную статистику назначений ревьюеров.
// Итоги pull_requests и нагрузка by_user снимаются отдельно: сначала PR, затем команды
// по очереди. При параллельных изменениях разделы могут не совпадать между собой,
// а by_user согласован только в пределах одной команды.
func (prm *PullRequestManager) AssignmentStats(ctx context.Context) (*models.AssignmentStats, error) {
	stats := &models.AssignmentStats{ByUser: make([]models.UserAssignmentStat, 0)}

	mergedReviews := make(map[string]int)
	for _, pr := range prm.prs.All() {
		stats.PullRequests.Total++
		if pr.IsMerged() {
			stats.PullRequests.Merged++
			if pr.ReviewerId != "" {
				mergedReviews[pr.ReviewerId]++
			}
			continue
		}
		stats.PullRequests.Open++
		if pr.ReviewerId == "" {
			stats.PullRequests.Unassigned++
		}
		if pr.NeedsReassignment {
			stats.PullRequests.Stale++
		}
	}

	for _, team := range prm.teams.Teams() {
		err := team.View(func(v store.TeamView) error {
			for _, m := range v.Members() {
				stats.ByUser = append(stats.ByUser, models.UserAssignmentStat{
					UserId:           m.UserId,
					Username:         m.Username,
					TeamName:         v.Name(),
					IsActive:         m.IsActive,
					OpenAssignments:  v.Load(m.UserId),
					TotalAssignments: v.TotalAssigned(m.UserId),
					MergedReviews:    mergedReviews[m.UserId],
				})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to collect stats for team %s: %w", team.Name(), err)
		}
	}

	return stats, nil
}

// teamOf находит команду, к которой относится PR. Команда PR не меняется после создания.
func (prm *PullRequestManager) teamOf(prID string) (*store.Team, error) {
	pr, err := prm.prs.Get(prID)
	if err != nil {
		return nil, err
	}
	team, err := prm.teams.Team(pr.TeamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get team of pull request %s: %w", prID, err)
	}
	return team, nil
}

// validateCreate проверяет обязательные поля запроса на создание PR.
func validateCreate(reqData models.PostPullRequestCreateJSONBody) error {
	if reqData.PullRequestId == "" ||
		strings.TrimSpace(reqData.PullRequestName) == "" ||
		reqData.AuthorId == "" {
		return domain.NewValidationError("pull_request_id, pull_request_name and author_id are required")
	}
	return nil
}
