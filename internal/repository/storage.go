package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlekseyZapadovnikov/review-assigner/conf"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool описывает минимальный интерфейс пула подключений к PostgreSQL.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Storage инкапсулирует пул подключений и предоставляет его журналу и загрузчику снимка.
type Storage struct {
	pool DBPool
}

// NewStorage создаёт пул подключений к PostgreSQL и проверяет соединение.
func NewStorage(ctx context.Context, cfg *conf.DbConf) (*Storage, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Storage{pool: pool}, nil
}

// Close закрывает пул подключений, когда он больше не нужен.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadSnapshot читает сохранённое состояние: команды с участниками в исходном порядке
// и PR в порядке создания.
func (s *Storage) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	teams, err := s.LoadTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	prs, err := s.LoadPullRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pull requests: %w", err)
	}
	return &models.Snapshot{Teams: teams, PullRequests: prs}, nil
}

// ApplyBatch записывает пачку записей журнала в одной транзакции.
func (s *Storage) ApplyBatch(ctx context.Context, batch []Entry) (err error) {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rollbackErr))
			}
		}
	}()

	for _, entry := range batch {
		switch {
		case entry.Team != nil:
			err = insertTeamTx(ctx, tx, entry.Team)
		case entry.User != nil:
			err = updateUserTx(ctx, tx, entry.User)
		case entry.PullRequest != nil:
			err = upsertPullRequestTx(ctx, tx, entry.PullRequest)
		default:
			err = fmt.Errorf("empty journal entry")
		}
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
