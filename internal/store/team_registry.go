package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/domain"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
)

// TeamNumber задаёт начальную ёмкость карт реестра.
const TeamNumber = 64

// TeamRegistry владеет командами и индексом пользователь -> команда.
// Собственный мьютекс реестра защищает только карты и никогда не удерживается
// во время ожидания блокировки команды.
type TeamRegistry struct {
	mu      sync.RWMutex
	teams   map[string]*Team
	members map[string]*Team
}

// NewTeamRegistry создаёт пустой реестр команд.
func NewTeamRegistry() *TeamRegistry {
	return &TeamRegistry{
		teams:   make(map[string]*Team, TeamNumber),
		members: make(map[string]*Team, TeamNumber*4),
	}
}

// Team хранит состав команды (MemberDirectory) и нагрузку её участников.
// Все поля, кроме name, читаются и меняются только под mu.
type Team struct {
	name string

	mu      sync.RWMutex
	roster  []models.TeamMember
	index   map[string]int
	open    map[string]map[string]struct{}
	total   map[string]int
	pullReq []string
}

// AddTeam нормализует состав, проверяет его и атомарно регистрирует команду вместе с участниками.
// onCommit, если задан, вызывается под блокировкой реестра до того, как команда
// станет видна другим запросам.
func (r *TeamRegistry) AddTeam(team models.Team, onCommit func(models.Team)) (models.Team, error) {
	team = normalizeTeam(team)
	if err := validateTeam(team); err != nil {
		return models.Team{}, err
	}

	entry := newTeam(team)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[entry.name]; exists {
		return models.Team{}, domain.NewTeamExistsError(entry.name)
	}
	for _, m := range entry.roster {
		if other, exists := r.members[m.UserId]; exists {
			return models.Team{}, domain.NewUserExistsError(m.UserId, other.name)
		}
	}

	created := team.Clone()
	if onCommit != nil {
		onCommit(created.Clone())
	}

	r.teams[entry.name] = entry
	for _, m := range entry.roster {
		r.members[m.UserId] = entry
	}

	return created, nil
}

// Team возвращает команду по имени.
func (r *TeamRegistry) Team(name string) (*Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.teams[name]
	if !ok {
		return nil, domain.NewNotFoundError("team " + name)
	}
	return t, nil
}

// FindTeamByMember ищет команду, в которой состоит пользователь.
func (r *TeamRegistry) FindTeamByMember(userID string) (*Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.members[userID]
	if !ok {
		return nil, domain.NewNotFoundError("user " + userID)
	}
	return t, nil
}

// Teams возвращает все команды, отсортированные по имени.
func (r *TeamRegistry) Teams() []*Team {
	r.mu.RLock()
	teams := make([]*Team, 0, len(r.teams))
	for _, t := range r.teams {
		teams = append(teams, t)
	}
	r.mu.RUnlock()

	sort.Slice(teams, func(i, j int) bool { return teams[i].name < teams[j].name })
	return teams
}

// validateTeam отклоняет пустые имена, пустой состав и повторяющиеся user_id.
func validateTeam(team models.Team) error {
	if team.TeamName == "" {
		return domain.NewValidationError("team_name is required")
	}
	if len(team.Members) == 0 {
		return domain.NewValidationError("team %s has no members", team.TeamName)
	}

	seen := make(map[string]struct{}, len(team.Members))
	for i, m := range team.Members {
		if m.UserId == "" {
			return domain.NewValidationError("empty user_id found in team members at index %d", i)
		}
		if m.Username == "" {
			return domain.NewValidationError("empty username found in team members at index %d", i)
		}
		if _, dup := seen[m.UserId]; dup {
			return domain.NewValidationError("duplicate user_id '%s' found in team members at index %d", m.UserId, i)
		}
		seen[m.UserId] = struct{}{}
	}
	return nil
}

// normalizeTeam возвращает копию команды без пробелов по краям имени, user_id и username.
// Поиск по идентификаторам в сервисах обрезает пробелы так же.
func normalizeTeam(team models.Team) models.Team {
	n := team.Clone()
	n.TeamName = strings.TrimSpace(n.TeamName)
	for i := range n.Members {
		n.Members[i].UserId = strings.TrimSpace(n.Members[i].UserId)
		n.Members[i].Username = strings.TrimSpace(n.Members[i].Username)
	}
	return n
}

func newTeam(team models.Team) *Team {
	t := &Team{
		name:   team.TeamName,
		roster: make([]models.TeamMember, len(team.Members)),
		index:  make(map[string]int, len(team.Members)),
		open:   make(map[string]map[string]struct{}, len(team.Members)),
		total:  make(map[string]int, len(team.Members)),
	}
	copy(t.roster, team.Members)
	for i, m := range t.roster {
		t.index[m.UserId] = i
	}
	return t
}

// Name возвращает имя команды. Имя не меняется, блокировка не нужна.
func (t *Team) Name() string {
	return t.name
}

// View выполняет fn под разделяемой блокировкой команды.
func (t *Team) View(fn func(v TeamView) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fn(TeamView{t: t})
}

// Update выполняет fn под эксклюзивной блокировкой команды.
// Блокировки отдельных PR берутся только внутри fn, то есть всегда после блокировки команды.
func (t *Team) Update(fn func(tx *TeamTx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(&TeamTx{TeamView: TeamView{t: t}})
}

// TeamView даёт доступ на чтение к состоянию команды внутри View или Update.
type TeamView struct {
	t *Team
}

// Name возвращает имя команды.
func (v TeamView) Name() string {
	return v.t.name
}

// Members возвращает копию состава в порядке добавления.
func (v TeamView) Members() []models.TeamMember {
	members := make([]models.TeamMember, len(v.t.roster))
	copy(members, v.t.roster)
	return members
}

// Member ищет участника по идентификатору.
func (v TeamView) Member(userID string) (models.TeamMember, bool) {
	i, ok := v.t.index[userID]
	if !ok {
		return models.TeamMember{}, false
	}
	return v.t.roster[i], true
}

// Snapshot возвращает неизменяемую копию команды.
func (v TeamView) Snapshot() models.Team {
	return models.Team{TeamName: v.t.name, Members: v.Members()}
}

// Load возвращает число открытых PR, где пользователь сейчас ревьюер.
func (v TeamView) Load(userID string) int {
	return len(v.t.open[userID])
}

// TotalAssigned возвращает, сколько раз пользователя назначали ревьюером.
func (v TeamView) TotalAssigned(userID string) int {
	return v.t.total[userID]
}

// OpenReviews возвращает открытые PR ревьюера в порядке их создания.
func (v TeamView) OpenReviews(userID string) []string {
	assigned := v.t.open[userID]
	if len(assigned) == 0 {
		return nil
	}
	ids := make([]string, 0, len(assigned))
	for _, id := range v.t.pullReq {
		if _, ok := assigned[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// PullRequests возвращает идентификаторы PR команды в порядке создания.
func (v TeamView) PullRequests() []string {
	ids := make([]string, len(v.t.pullReq))
	copy(ids, v.t.pullReq)
	return ids
}

// TeamTx расширяет TeamView изменяющими операциями, доступными только внутри Update.
type TeamTx struct {
	TeamView
}

// SetActive меняет флаг активности участника и возвращает его новое состояние.
func (tx *TeamTx) SetActive(userID string, isActive bool) (models.TeamMember, bool) {
	i, ok := tx.t.index[userID]
	if !ok {
		return models.TeamMember{}, false
	}
	tx.t.roster[i].IsActive = isActive
	return tx.t.roster[i], true
}

// Track добавляет PR в журнал команды.
func (tx *TeamTx) Track(prID string) {
	tx.t.pullReq = append(tx.t.pullReq, prID)
}

// Assign учитывает открытый PR в нагрузке ревьюера.
func (tx *TeamTx) Assign(userID, prID string) {
	assigned, ok := tx.t.open[userID]
	if !ok {
		assigned = make(map[string]struct{})
		tx.t.open[userID] = assigned
	}
	if _, dup := assigned[prID]; dup {
		return
	}
	assigned[prID] = struct{}{}
	tx.t.total[userID]++
}

// Release снимает PR с нагрузки ревьюера.
func (tx *TeamTx) Release(userID, prID string) {
	assigned, ok := tx.t.open[userID]
	if !ok {
		return
	}
	delete(assigned, prID)
	if len(assigned) == 0 {
		delete(tx.t.open, userID)
	}
}
