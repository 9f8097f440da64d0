package store

import (
	"sort"
	"sync"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/domain"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
)

// PullRequestNumber задаёт начальную ёмкость хранилища PR.
const PullRequestNumber = 256

// PullRequestStore владеет записями PR. Мьютекс хранилища защищает только карту,
// состояние каждой записи защищено её собственным мьютексом.
type PullRequestStore struct {
	mu      sync.RWMutex
	records map[string]*prRecord
	seq     uint64
}

type prRecord struct {
	mu  sync.Mutex
	seq uint64
	pr  models.PullRequest
}

// NewPullRequestStore создаёт пустое хранилище PR.
func NewPullRequestStore() *PullRequestStore {
	return &PullRequestStore{
		records: make(map[string]*prRecord, PullRequestNumber),
	}
}

// Insert сохраняет новый PR. Повторный идентификатор даёт Conflict без изменения состояния.
func (s *PullRequestStore) Insert(pr models.PullRequest) (models.PullRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[pr.PullRequestId]; exists {
		return models.PullRequest{}, domain.NewPRExistsError(pr.PullRequestId)
	}

	s.seq++
	s.records[pr.PullRequestId] = &prRecord{seq: s.seq, pr: pr}
	return pr, nil
}

// Exists сообщает, занят ли идентификатор PR.
func (s *PullRequestStore) Exists(prID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[prID]
	return ok
}

// Get возвращает копию PR.
func (s *PullRequestStore) Get(prID string) (models.PullRequest, error) {
	rec, err := s.record(prID)
	if err != nil {
		return models.PullRequest{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.pr, nil
}

// Update применяет fn к копии PR под блокировкой записи.
// Изменения сохраняются, только если fn вернула nil.
func (s *PullRequestStore) Update(prID string, fn func(pr *models.PullRequest) error) (models.PullRequest, error) {
	rec, err := s.record(prID)
	if err != nil {
		return models.PullRequest{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	draft := rec.pr
	if err := fn(&draft); err != nil {
		return models.PullRequest{}, err
	}
	rec.pr = draft
	return draft, nil
}

// All возвращает копии всех PR в порядке создания.
func (s *PullRequestStore) All() []models.PullRequest {
	s.mu.RLock()
	records := make([]*prRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	result := make([]models.PullRequest, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		result = append(result, rec.pr)
		rec.mu.Unlock()
	}
	return result
}

func (s *PullRequestStore) record(prID string) (*prRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[prID]
	if !ok {
		return nil, domain.NewNotFoundError("pull request " + prID)
	}
	return rec, nil
}
