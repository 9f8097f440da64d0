package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlekseyZapadovnikov/review-assigner/internal/domain"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/models"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/store"
)

const testTeamName = "team-1"

var testNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

type recordingJournal struct {
	mu    sync.Mutex
	teams []models.Team
	users []models.User
	prs   []models.PullRequest
}

func (j *recordingJournal) TeamCreated(team models.Team) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.teams = append(j.teams, team)
}

func (j *recordingJournal) UserChanged(user models.User) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.users = append(j.users, user)
}

func (j *recordingJournal) PullRequestSaved(pr models.PullRequest) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.prs = append(j.prs, pr)
}

type testEnv struct {
	teams   *store.TeamRegistry
	prs     *store.PullRequestStore
	journal *recordingJournal
	prm     *PullRequestManager
	um      *UserManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	teams := store.NewTeamRegistry()
	prs := store.NewPullRequestStore()
	journal := &recordingJournal{}
	prm := NewPullRequestManager(teams, prs, journal, nil)
	prm.now = func() time.Time { return testNow }

	return &testEnv{
		teams:   teams,
		prs:     prs,
		journal: journal,
		prm:     prm,
		um:      NewUserManager(teams, prs, journal, nil),
	}
}

func (e *testEnv) mustAddTeam(t *testing.T, name string, members ...models.TeamMember) {
	t.Helper()
	_, err := e.um.AddTeam(context.Background(), models.Team{TeamName: name, Members: members})
	require.NoError(t, err)
}

func (e *testEnv) mustCreate(t *testing.T, prID, authorID string) *models.PullRequest {
	t.Helper()
	pr, err := e.prm.CreatePullRequest(context.Background(), models.PostPullRequestCreateJSONBody{
		PullRequestId:   prID,
		PullRequestName: "Feature " + prID,
		AuthorId:        authorID,
	})
	require.NoError(t, err)
	return pr
}

func member(id, name string, active bool) models.TeamMember {
	return models.TeamMember{UserId: id, Username: name, IsActive: active}
}

func TestPullRequestManager_CreatePullRequestSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.mustAddTeam(t, testTeamName, member("u1", "Alice", true), member("u2", "Bob", true))

	pr := env.mustCreate(t, "pr-1", "u1")

	require.Equal(t, "pr-1", pr.PullRequestId)
	require.Equal(t, "Feature pr-1", pr.PullRequestName)
	require.Equal(t, testTeamName, pr.TeamName)
	require.Equal(t, "u2", pr.ReviewerId)
	require.Equal(t, models.PullRequestStatusOPEN, pr.Status)
	require.NotNil(t, pr.CreatedAt)
	require.Equal(t, testNow, *pr.CreatedAt)
	require.Nil(t, pr.MergedAt)

	stored, err := env.prs.Get("pr-1")
	require.NoError(t, err)
	require.Equal(t, *pr, stored)

	require.Len(t, env.journal.prs, 1)
	require.Equal(t, *pr, env.journal.prs[0])
}

func TestPullRequestManager_CreatePullRequestLeastLoaded(t *testing.T) {
	env := newTestEnv(t)
	env.mustAddTeam(t, testTeamName,
		member("u1", "Alice", true),
		member("u2", "Bob", true),
		member("u3", "Carol", true),
		member("u4", "Dave", false),
	)

	// u2 и u3 одинаково свободны, побеждает порядок в составе.
	require.Equal(t, "u2", env.mustCreate(t, "pr-1", "u1").ReviewerId)
	require.Equal(t, "u3", env.mustCreate(t, "pr-2", "u1").ReviewerId)
	// Для автора u2: u1 (0 ревью) свободнее u3 (1 ревью), неактивный u4 не рассматривается.
	require.Equal(t, "u1", env.mustCreate(t, "pr-3", "u2").ReviewerId)
	// u1 и u2 снова поровну, выигрывает u1 как стоящий раньше.
	require.Equal(t, "u1", env.mustCreate(t, "pr-4", "u3").ReviewerId)
}

func TestPullRequestManager_CreatePullRequestWithoutCandidates(t *testing.T) {
	env := newTestEnv(t)
	env.mustAddTeam(t, "solo", member("u1", "Alice", true), member("u2", "Bob", false))

	pr := env.mustCreate(t, "pr-1", "u1")
	require.Empty(t, pr.ReviewerId)
	require.Equal(t, models.PullRequestStatusOPEN, pr.Status)

	_, err := env.prm.Reassign(context.Background(), "u2", "pr-1")
	require.ErrorIs(t, err, domain.ErrConflict)
	require.ErrorIs(t, err, domain.ErrNotAssigned)

	_, err = env.prm.Reassign(context.Background(), "u1", "pr-1")
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestPullRequestManager_CreatePullRequestErrors(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.prm.CreatePullRequest(context.Background(), models.PostPullRequestCreateJSONBody{PullRequestId: "pr-1"})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown author", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.prm.CreatePullRequest(context.Background(), models.PostPullRequestCreateJSONBody{
			PullRequestId: "pr-1", PullRequestName: "X", AuthorId: "ghost",
		})
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.False(t, env.prs.Exists("pr-1"))
	})

	t.Run("duplicate id", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustAddTeam(t, testTeamName, member("u1", "Alice", true), member("u2", "Bob", true), member("u3", "Carol", true))
		env.mustCreate(t, "pr-1", "u1")

		_, err := env.prm.CreatePullRequest(context.Background(), models.PostPullRequestCreateJSONBody{
			PullRequestId: "pr-1", PullRequestName: "Other", AuthorId: "u2",
		})
		require.ErrorIs(t, err, domain.ErrPRExists)
		require.ErrorIs(t, err, domain.ErrConflict)

		stored, err := env.prs.Get("pr-1")
		require.NoError(t, err)
		require.Equal(t, "Feature pr-1", stored.PullRequestName)

		// Неудачная попытка не должна менять нагрузку: следующий PR от u1 достаётся u3.
		require.Equal(t, "u3", env.mustCreate(t, "pr-2", "u1").ReviewerId)
	})
}

func TestPullRequestManager_MergeSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.mustAddTeam(t, testTeamName, member("u1", "Alice", true), member("u2", "Bob", true), member("u3", "Carol", true))
	env.mustCreate(t, "pr-1", "u1")

	pr, err := env.prm.Merge(context.Background(), models.PostPullRequestMergeJSONBody{PullRequestId: "pr-1"})
	require.NoError(t, err)
	require.Equal(t, models.PullRequestStatusMERGED, pr.Status)
	require.NotNil(t, pr.MergedAt)
	require.Equal(t, "u2", pr.ReviewerId)

	// После merge нагрузка u2 снова нулевая, он снова первый кандидат.
	require.Equal(t, "u2", env.mustCreate(t, "pr-2", "u1").ReviewerId)
}

func TestPullRequestManager_MergeIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.mustAddTeam(t, testTeamName, member("u1", "Alice", true), member("u2", "Bob", true), member("u3", "Carol", true))
	env.mustCreate(t, "pr-1", "u1")

	_, err := env.prm.Merge(context.Background(), models.PostPullRequestMergeJSONBody{PullRequestId: "pr-1"})
	require.NoError(t, err)

	_, err = env.prm.Merge(context.Background(), models.PostPullRequestMergeJSONBody{PullRequestId: "pr-1"})
	require.ErrorIs(t, err, domain.ErrPRMerged)

	_, err = env.prm.Reassign(context.Background(), "u2", "pr-1")
	require.ErrorIs(t, err, domain.ErrPRMerged)

	stored, err := env.prs.Get("pr-1")
	require.NoError(t, err)
	require.Equal(t, "u2", stored.ReviewerId)
	require.Equal(t, models.PullRequestStatusMERGED, stored.Status)
}

func TestPullRequestManager_MergeErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.prm.Merge(context.Background(), models.PostPullRequestMergeJSONBody{})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.prm.Merge(context.Background(), models.PostPullRequestMergeJSONBody{PullRequestId: "missing"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPullRequestManager_ReassignSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.mustAddTeam(t, testTeamName,
		member("u1", "Alice", true),
		member("u2", "Bob", true),
		member("u3", "Carol", true),
		member("u4", "Dave", true),
	)
	env.mustCreate(t, "pr-1", "u1") // u2
	env.mustCreate(t, "pr-2", "u1") // u3

	resp, err := env.prm.Reassign(context.Background(), "u2", "pr-1")
	require.NoError(t, err)
	require.Equal(t, "u4", resp.ReplacedBy)
	require.Equal(t, "u4", resp.PR.ReviewerId)
	require.Equal(t, "pr-1", resp.PR.PullRequestId)

	require.NoError(t, mustTeam(t, env, testTeamName).View(func(v store.TeamView) error {
		assert.Zero(t, v.Load("u2"))
		assert.Equal(t, 1, v.Load("u4"))
		assert.Equal(t, []string{"pr-1"}, v.OpenReviews("u4"))
		return nil
	}))
}

func TestPullRequestManager_ReassignErrors(t *testing.T) {
	env := newTestEnv(t)
	env.mustAddTeam(t, testTeamName, member("u1", "Alice", true), member("u2", "Bob", true))
	env.mustCreate(t, "pr-1", "u1")

	t.Run("validation", func(t *testing.T) {
		_, err := env.prm.Reassign(context.Background(), "", "pr-1")
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := env.prm.Reassign(context.Background(), "u2", "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("stale old reviewer", func(t *testing.T) {
		_, err := env.prm.Reassign(context.Background(), "u1", "pr-1")
		require.ErrorIs(t, err, domain.ErrNotAssigned)
	})

	t.Run("no candidate", func(t *testing.T) {
		_, err := env.prm.Reassign(context.Background(), "u2", "pr-1")
		require.ErrorIs(t, err, domain.ErrNoCandidate)

		stored, err := env.prs.Get("pr-1")
		require.NoError(t, err)
		require.Equal(t, "u2", stored.ReviewerId)
	})
}

func TestPullRequestManager_HappyPathScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustAddTeam(t, "team-1", member("u1", "Alice", true), member("u2", "Bob", true))

	pr := env.mustCreate(t, "pr-1", "u1")
	require.Equal(t, "u2", pr.ReviewerId)

	activity, err := env.um.SetUserActivity(ctx, "u2", false)
	require.NoError(t, err)
	require.Equal(t, []string{"pr-1"}, activity.StalePullRequests)

	reviews, err := env.prm.ListForReviewer(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.Equal(t, "pr-1", reviews[0].PullRequestId)
	require.True(t, reviews[0].NeedsReassignment)

	_, err = env.prm.Reassign(ctx, "u2", "pr-1")
	require.ErrorIs(t, err, domain.ErrNoCandidate)

	merged, err := env.prm.Merge(ctx, models.PostPullRequestMergeJSONBody{PullRequestId: "pr-1"})
	require.NoError(t, err)
	require.Equal(t, models.PullRequestStatusMERGED, merged.Status)
	require.Equal(t, "u2", merged.ReviewerId)

	_, err = env.prm.Merge(ctx, models.PostPullRequestMergeJSONBody{PullRequestId: "pr-1"})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestPullRequestManager_ListForReviewer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustAddTeam(t, testTeamName, member("u1", "Alice", true), member("u2", "Bob", true), member("u3", "Carol", true))
	env.mustAddTeam(t, "other", member("x1", "Xena", true))

	env.mustCreate(t, "pr-1", "u1") // u2
	env.mustCreate(t, "pr-2", "u1") // u3
	env.mustCreate(t, "pr-3", "u3") // u1
	env.mustCreate(t, "pr-4", "u2") // u1
	_, err := env.prm.Merge(ctx, models.PostPullRequestMergeJSONBody{PullRequestId: "pr-2"})
	require.NoError(t, err)

	reviews, err := env.prm.ListForReviewer(ctx, "u1")
	require.NoError(t, err)
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.PullRequestId)
		require.Equal(t, models.PullRequestStatusOPEN, r.Status)
	}
	require.Equal(t, []string{"pr-1", "pr-3", "pr-4"}, ids)

	empty, err := env.prm.ListForReviewer(ctx, "x1")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	_, err = env.prm.ListForReviewer(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPullRequestManager_AssignmentStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mustAddTeam(t, "beta", member("b1", "Bea", true))
	env.mustAddTeam(t, "alpha", member("u1", "Alice", true), member("u2", "Bob", true), member("u3", "Carol", true))

	env.mustCreate(t, "pr-1", "u1") // u2
	env.mustCreate(t, "pr-2", "u1") // u3
	env.mustCreate(t, "pr-3", "b1") // unassigned
	_, err := env.prm.Merge(ctx, models.PostPullRequestMergeJSONBody{PullRequestId: "pr-1"})
	require.NoError(t, err)
	_, err = env.um.SetUserActivity(ctx, "u3", false)
	require.NoError(t, err)

	stats, err := env.prm.AssignmentStats(ctx)
	require.NoError(t, err)

	require.Equal(t, models.PullRequestTotals{Total: 3, Open: 2, Merged: 1, Unassigned: 1, Stale: 1}, stats.PullRequests)
	require.Len(t, stats.ByUser, 4)
	require.Equal(t, "u1", stats.ByUser[0].UserId)
	require.Equal(t, "b1", stats.ByUser[3].UserId)

	bob := stats.ByUser[1]
	require.Equal(t, models.UserAssignmentStat{
		UserId: "u2", Username: "Bob", TeamName: "alpha", IsActive: true,
		OpenAssignments: 0, TotalAssignments: 1, MergedReviews: 1,
	}, bob)

	carol := stats.ByUser[2]
	require.False(t, carol.IsActive)
	require.Equal(t, 1, carol.OpenAssignments)
}

func TestPullRequestManager_ConcurrentOperationsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	const (
		teamsCount = 3
		perTeam    = 4
		perWorker  = 25
	)
	for ti := 0; ti < teamsCount; ti++ {
		members := make([]models.TeamMember, 0, perTeam)
		for mi := 0; mi < perTeam; mi++ {
			id := fmt.Sprintf("t%d-u%d", ti, mi)
			members = append(members, member(id, id, true))
		}
		env.mustAddTeam(t, fmt.Sprintf("team-%d", ti), members...)
	}

	var wg sync.WaitGroup
	for ti := 0; ti < teamsCount; ti++ {
		for mi := 0; mi < perTeam; mi++ {
			wg.Add(1)
			go func(ti, mi int) {
				defer wg.Done()
				author := fmt.Sprintf("t%d-u%d", ti, mi)
				for n := 0; n < perWorker; n++ {
					prID := fmt.Sprintf("pr-%s-%d", author, n)
					pr, err := env.prm.CreatePullRequest(ctx, models.PostPullRequestCreateJSONBody{
						PullRequestId: prID, PullRequestName: prID, AuthorId: author,
					})
					if err != nil {
						t.Errorf("create %s: %v", prID, err)
						return
					}
					switch n % 4 {
					case 0:
						_, _ = env.prm.Merge(ctx, models.PostPullRequestMergeJSONBody{PullRequestId: prID})
					case 1:
						if pr.ReviewerId != "" {
							_, _ = env.prm.Reassign(ctx, pr.ReviewerId, prID)
						}
					case 2:
						_, _ = env.um.SetUserActivity(ctx, author, n%8 != 2)
					}
				}
			}(ti, mi)
		}
	}
	wg.Wait()

	all := env.prs.All()
	require.Len(t, all, teamsCount*perTeam*perWorker)

	openByReviewer := make(map[string]int)
	for _, pr := range all {
		if pr.ReviewerId == "" {
			continue
		}
		require.NotEqual(t, pr.AuthorId, pr.ReviewerId, "pull request %s", pr.PullRequestId)
		team := mustTeam(t, env, pr.TeamName)
		require.NoError(t, team.View(func(v store.TeamView) error {
			_, ok := v.Member(pr.ReviewerId)
			require.True(t, ok, "reviewer %s of %s is not in team %s", pr.ReviewerId, pr.PullRequestId, pr.TeamName)
			return nil
		}))
		if !pr.IsMerged() {
			openByReviewer[pr.ReviewerId]++
		}
	}

	for _, team := range env.teams.Teams() {
		require.NoError(t, team.View(func(v store.TeamView) error {
			for _, m := range v.Members() {
				require.Equal(t, openByReviewer[m.UserId], v.Load(m.UserId), "load of %s", m.UserId)
			}
			return nil
		}))
	}
}

func mustTeam(t *testing.T, env *testEnv, name string) *store.Team {
	t.Helper()
	team, err := env.teams.Team(name)
	require.NoError(t, err)
	return team
}
