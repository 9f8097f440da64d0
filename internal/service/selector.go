package service

import "github.com/AlekseyZapadovnikov/review-assigner/internal/store"

// pickReviewer выбирает активного участника команды с наименьшим числом открытых ревью.
// Автор и exclude в выбор не попадают, при равной нагрузке побеждает участник,
// добавленный в команду раньше.
func pickReviewer(team store.TeamView, authorID string, exclude ...string) (string, bool) {
	skip := make(map[string]struct{}, len(exclude)+1)
	skip[authorID] = struct{}{}
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	best, bestLoad := "", 0
	for _, member := range team.Members() {
		if !member.IsActive {
			continue
		}
		if _, skipped := skip[member.UserId]; skipped {
			continue
		}
		load := team.Load(member.UserId)
		if best == "" || load < bestLoad {
			best, bestLoad = member.UserId, load
		}
	}
	return best, best != ""
}
