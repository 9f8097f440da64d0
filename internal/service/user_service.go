package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/domain"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/store"
)

// UserManager управляет командами и активностью их участников.
type UserManager struct {
	teams   *store.TeamRegistry
	prs     *store.PullRequestStore
	journal Journal
	log     *slog.Logger
}

// NewUserManager создаёт менеджер команд поверх общих хранилищ.
func NewUserManager(teams *store.TeamRegistry, prs *store.PullRequestStore, journal Journal, log *slog.Logger) *UserManager {
	if journal == nil {
		journal = NopJournal{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &UserManager{
		teams:   teams,
		prs:     prs,
		journal: journal,
		log:     log,
	}
}

// AddTeam регистрирует команду с начальным составом.
func (um *UserManager) AddTeam(ctx context.Context, team models.Team) (*models.Team, error) {
	created, err := um.teams.AddTeam(team, um.journal.TeamCreated)
	if err != nil {
		return nil, err
	}

	um.log.InfoContext(ctx, "team created", "team_name", created.TeamName, "members", len(created.Members))
	return &created, nil
}

// GetTeam возвращает снимок команды с текущей активностью участников.
func (um *UserManager) GetTeam(ctx context.Context, teamName string) (*models.Team, error) {
	team, err := um.teams.Team(strings.TrimSpace(teamName))
	if err != nil {
		return nil, err
	}

	var snapshot models.Team
	_ = team.View(func(v store.TeamView) error {
		snapshot = v.Snapshot()
		return nil
	})
	return &snapshot, nil
}

// SetUserActivity меняет активность пользователя. При деактивации открытые PR,
// где он ревьюер, помечаются как требующие переназначения; замену выполняет клиент.
func (um *UserManager) SetUserActivity(ctx context.Context, userID string, isActive bool) (*domain.ActivityResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.NewValidationError("user_id is required")
	}

	team, err := um.teams.FindTeamByMember(userID)
	if err != nil {
		return nil, err
	}

	var result *domain.ActivityResult
	err = team.Update(func(tx *store.TeamTx) error {
		user, stale, err := um.applyActivity(tx, userID, isActive)
		if err != nil {
			return err
		}
		result = &domain.ActivityResult{User: &user, StalePullRequests: stale}
		return nil
	})
	if err != nil {
		return nil, err
	}

	um.log.InfoContext(ctx, "user activity changed",
		"user_id", userID,
		"is_active", isActive,
		"stale_pull_requests", len(result.StalePullRequests),
	)
	return result, nil
}

// DeactivateTeamMembers деактивирует нескольких участников одной команды в одной критической секции.
// Состав проверяется целиком до изменений.
func (um *UserManager) DeactivateTeamMembers(ctx context.Context, teamName string, userIDs []string) (*models.TeamBulkDeactivateResult, error) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return nil, domain.NewValidationError("team_name is required")
	}

	targets := normalizeTargetUserIDs(userIDs)
	if len(targets) == 0 {
		return nil, domain.NewValidationError("no valid user ids provided")
	}

	team, err := um.teams.Team(teamName)
	if err != nil {
		return nil, err
	}

	result := &models.TeamBulkDeactivateResult{
		TeamName:          teamName,
		Deactivated:       targets,
		StalePullRequests: make([]string, 0),
	}
	err = team.Update(func(tx *store.TeamTx) error {
		for _, id := range targets {
			if _, ok := tx.Member(id); !ok {
				return domain.NewNotFoundError(fmt.Sprintf("user %s in team %s", id, teamName))
			}
		}
		for _, id := range targets {
			_, stale, err := um.applyActivity(tx, id, false)
			if err != nil {
				return err
			}
			result.StalePullRequests = append(result.StalePullRequests, stale...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	um.log.InfoContext(ctx, "team members deactivated",
		"team_name", teamName,
		"users", len(targets),
		"stale_pull_requests", len(result.StalePullRequests),
	)
	return result, nil
}

// applyActivity меняет флаг участника и синхронизирует пометку needs_reassignment
// на его открытых ревью. Возвращает PR, которые после изменения ждут переназначения.
func (um *UserManager) applyActivity(tx *store.TeamTx, userID string, isActive bool) (models.User, []string, error) {
	member, ok := tx.SetActive(userID, isActive)
	if !ok {
		return models.User{}, nil, domain.NewNotFoundError("user " + userID)
	}
	user := models.ConvertTmToUser(member, tx.Name())
	um.journal.UserChanged(user)

	stale := make([]string, 0)
	for _, prID := range tx.OpenReviews(userID) {
		changed := false
		pr, err := um.prs.Update(prID, func(pr *models.PullRequest) error {
			changed = pr.NeedsReassignment == isActive
			pr.NeedsReassignment = !isActive
			return nil
		})
		if err != nil {
			return models.User{}, nil, fmt.Errorf("failed to flag pull request %s: %w", prID, err)
		}
		if changed {
			um.journal.PullRequestSaved(pr)
		}
		if pr.NeedsReassignment {
			stale = append(stale, prID)
		}
	}
	return user, stale, nil
}

// normalizeTargetUserIDs удаляет дубли и пустые значения из списка пользователей.
func normalizeTargetUserIDs(userIDs []string) []string {
	seen := make(map[string]struct{}, len(userIDs))
	targets := make([]string, 0, len(userIDs))
	for _, raw := range userIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}
	return targets
}
