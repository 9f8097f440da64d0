package service

import (
	"fmt"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/store"
)

// Restore наполняет пустые хранилища сохранённым снимком. PR должны идти в порядке создания.
// Журнал при этом не вызывается: данные уже сохранены.
func Restore(teams *store.TeamRegistry, prs *store.PullRequestStore, snapshot *models.Snapshot) error {
	if snapshot == nil {
		return nil
	}

	for _, team := range snapshot.Teams {
		if _, err := teams.AddTeam(team, nil); err != nil {
			return fmt.Errorf("restore team %s: %w", team.TeamName, err)
		}
	}

	for _, pr := range snapshot.PullRequests {
		team, err := teams.Team(pr.TeamName)
		if err != nil {
			return fmt.Errorf("restore pull request %s: %w", pr.PullRequestId, err)
		}
		err = team.Update(func(tx *store.TeamTx) error {
			saved, err := prs.Insert(pr)
			if err != nil {
				return err
			}
			tx.Track(saved.PullRequestId)
			if !saved.IsMerged() && saved.ReviewerId != "" {
				tx.Assign(saved.ReviewerId, saved.PullRequestId)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("restore pull request %s: %w", pr.PullRequestId, err)
		}
	}
	return nil
}
