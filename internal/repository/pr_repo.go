package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
)

const upsertPullRequest = `
	INSERT INTO pull_requests (
		pull_request_id, pull_request_name, author_id, team_name, reviewer_id,
		status, needs_reassignment, created_at, merged_at
	) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
	ON CONFLICT (pull_request_id) DO UPDATE
	SET reviewer_id = EXCLUDED.reviewer_id,
		status = EXCLUDED.status,
		needs_reassignment = EXCLUDED.needs_reassignment,
		merged_at = EXCLUDED.merged_at
`

// upsertPullRequestTx сохраняет PR. Идентификатор, автор, команда и время создания
// после первой записи не меняются, поэтому обновляются только изменяемые поля.
func upsertPullRequestTx(ctx context.Context, tx pgx.Tx, pr *models.PullRequest) error {
	// *time.Time: nil превращается в NULL
	_, err := tx.Exec(ctx, upsertPullRequest,
		pr.PullRequestId,
		pr.PullRequestName,
		pr.AuthorId,
		pr.TeamName,
		pr.ReviewerId,
		string(pr.Status),
		pr.NeedsReassignment,
		pr.CreatedAt,
		pr.MergedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert pull request %s: %w", pr.PullRequestId, err)
	}
	return nil
}

// LoadPullRequests возвращает все PR в порядке их первой записи.
func (s *Storage) LoadPullRequests(ctx context.Context) ([]models.PullRequest, error) {
	const q = `
	SELECT pull_request_id, pull_request_name, author_id, team_name, reviewer_id,
		status, needs_reassignment, created_at, merged_at
	FROM pull_requests
	ORDER BY seq
	`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query LoadPullRequests: %w", err)
	}
	defer rows.Close()

	prs := make([]models.PullRequest, 0)
	for rows.Next() {
		var (
			pr         models.PullRequest
			reviewerID *string // может быть NULL
			status     string
			createdAt  time.Time
			mergedAt   *time.Time
		)
		if err := rows.Scan(
			&pr.PullRequestId,
			&pr.PullRequestName,
			&pr.AuthorId,
			&pr.TeamName,
			&reviewerID,
			&status,
			&pr.NeedsReassignment,
			&createdAt,
			&mergedAt,
		); err != nil {
			return nil, fmt.Errorf("scan LoadPullRequests: %w", err)
		}

		if reviewerID != nil {
			pr.ReviewerId = *reviewerID
		}
		pr.Status = models.PullRequestStatus(status)
		pr.CreatedAt = &createdAt
		pr.MergedAt = mergedAt
		prs = append(prs, pr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error LoadPullRequests: %w", err)
	}
	return prs, nil
}
