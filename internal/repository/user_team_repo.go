package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
)

const insertTeam = `
	INSERT INTO teams (team_name)
	VALUES ($1)
	ON CONFLICT (team_name) DO NOTHING
`

const upsertMember = `
	INSERT INTO users (user_id, username, is_active, team_name, position)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id) DO UPDATE
	SET username = EXCLUDED.username,
		is_active = EXCLUDED.is_active,
		team_name = EXCLUDED.team_name,
		position = EXCLUDED.position
`

const updateUser = `
	UPDATE users
	SET username = $2,
		is_active = $3
	WHERE user_id = $1
`

// insertTeamTx сохраняет команду и её участников с позициями в составе.
// Повторная запись той же команды ничего не ломает.
func insertTeamTx(ctx context.Context, tx pgx.Tx, team *models.Team) error {
	if _, err := tx.Exec(ctx, insertTeam, team.TeamName); err != nil {
		return fmt.Errorf("insert team %s: %w", team.TeamName, err)
	}

	for i, m := range team.Members {
		if _, err := tx.Exec(ctx, upsertMember, m.UserId, m.Username, m.IsActive, team.TeamName, i); err != nil {
			return fmt.Errorf("upsert user %s: %w", m.UserId, err)
		}
	}
	return nil
}

// updateUserTx сохраняет изменённую активность участника.
func updateUserTx(ctx context.Context, tx pgx.Tx, user *models.User) error {
	tag, err := tx.Exec(ctx, updateUser, user.UserId, user.Username, user.IsActive)
	if err != nil {
		return fmt.Errorf("update user %s: %w", user.UserId, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user %s: no such row", user.UserId)
	}
	return nil
}

// LoadTeams возвращает все команды, отсортированные по имени, с участниками в порядке добавления.
func (s *Storage) LoadTeams(ctx context.Context) ([]models.Team, error) {
	const q = `
	SELECT t.team_name, u.user_id, u.username, u.is_active
	FROM teams t
	JOIN users u ON u.team_name = t.team_name
	ORDER BY t.team_name, u.position
	`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query LoadTeams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.TeamName, &user.UserId, &user.Username, &user.IsActive); err != nil {
			return nil, fmt.Errorf("scan LoadTeams: %w", err)
		}

		if n := len(teams); n == 0 || teams[n-1].TeamName != user.TeamName {
			teams = append(teams, models.Team{TeamName: user.TeamName})
		}
		last := &teams[len(teams)-1]
		last.Members = append(last.Members, models.ConvertUserToTeamMember(user))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error LoadTeams: %w", err)
	}
	return teams, nil
}
