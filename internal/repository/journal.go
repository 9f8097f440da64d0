package repository

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
)

const (
	// JournalBatchSize ограничивает число записей в одной транзакции.
	JournalBatchSize = 128

	journalRetries   = 3
	journalRetryBase = 100 * time.Millisecond
)

// Entry это одна запись журнала. Заполнено ровно одно поле.
type Entry struct {
	Team        *models.Team
	User        *models.User
	PullRequest *models.PullRequest
}

// BatchWriter атомарно сохраняет пачку записей журнала.
type BatchWriter interface {
	ApplyBatch(ctx context.Context, batch []Entry) error
}

// Journal копит изменения в памяти и сохраняет их в фоне одним воркером.
// Методы записи вызываются внутри критических секций ядра и никогда не блокируются
// на вводе-выводе. Порядок записей сохраняется.
type Journal struct {
	w         BatchWriter
	log       *slog.Logger
	batchSize int
	backoff   func() retry.Backoff

	mu     sync.Mutex
	queue  []Entry
	closed bool

	notify chan struct{}
	done   chan struct{}
}

// NewJournal создаёт журнал поверх хранилища. Воркер запускается через Run.
func NewJournal(w BatchWriter, log *slog.Logger) *Journal {
	if log == nil {
		log = slog.Default()
	}
	return &Journal{
		w:         w,
		log:       log,
		batchSize: JournalBatchSize,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(journalRetries, retry.NewExponential(journalRetryBase))
		},
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (j *Journal) TeamCreated(team models.Team) {
	j.push(Entry{Team: &team})
}

func (j *Journal) UserChanged(user models.User) {
	j.push(Entry{User: &user})
}

func (j *Journal) PullRequestSaved(pr models.PullRequest) {
	j.push(Entry{PullRequest: &pr})
}

// Pending возвращает число записей, ещё не переданных воркеру.
func (j *Journal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.queue)
}

func (j *Journal) push(e Entry) {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		j.log.Warn("journal is closed, entry dropped")
		return
	}
	j.queue = append(j.queue, e)
	j.mu.Unlock()

	select {
	case j.notify <- struct{}{}:
	default:
	}
}

// Run сохраняет накопленные записи, пока журнал не закрыт и очередь не опустела.
// Отмена ctx останавливает воркер сразу, без дозаписи очереди.
func (j *Journal) Run(ctx context.Context) {
	defer close(j.done)

	for {
		batch, closed := j.next()
		if len(batch) > 0 {
			j.write(ctx, batch)
			continue
		}
		if closed {
			return
		}

		select {
		case <-j.notify:
		case <-ctx.Done():
			return
		}
	}
}

// Close запрещает новые записи и ждёт, пока воркер сохранит очередь.
func (j *Journal) Close(ctx context.Context) error {
	j.mu.Lock()
	j.closed = true
	j.mu.Unlock()

	select {
	case j.notify <- struct{}{}:
	default:
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Journal) next() ([]Entry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := len(j.queue)
	if n > j.batchSize {
		n = j.batchSize
	}
	batch := make([]Entry, n)
	copy(batch, j.queue[:n])

	if n == len(j.queue) {
		j.queue = nil
	} else {
		j.queue = j.queue[n:]
	}
	return batch, j.closed
}

// write сохраняет пачку с повторами. Пачка, которую не удалось сохранить, теряется;
// в лог попадают идентификаторы всех её записей, чтобы базу можно было сверить вручную.
func (j *Journal) write(ctx context.Context, batch []Entry) {
	err := retry.Do(ctx, j.backoff(), func(ctx context.Context) error {
		if err := j.w.ApplyBatch(ctx, batch); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		teams, users, prs := describeBatch(batch)
		j.log.Error("journal batch dropped",
			"entries", len(batch),
			"teams", teams,
			"users", users,
			"pull_requests", prs,
			"error", err,
		)
		return
	}
	j.log.Debug("journal batch saved", "entries", len(batch))
}

// describeBatch раскладывает идентификаторы записей пачки по видам, сохраняя порядок.
func describeBatch(batch []Entry) (teams, users, prs []string) {
	teams, users, prs = []string{}, []string{}, []string{}
	for _, e := range batch {
		switch {
		case e.Team != nil:
			teams = append(teams, e.Team.TeamName)
		case e.User != nil:
			users = append(users, e.User.UserId)
		case e.PullRequest != nil:
			prs = append(prs, e.PullRequest.PullRequestId)
		}
	}
	return teams, users, prs
}
