package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
)

type teamRepository struct {
	db *DB
}

var _ team.Repository = (*teamRepository)(nil) // interface compliance check

func NewTeamRepository(db *DB) *teamRepository {
	return &teamRepository{db: db}
}

// LockForAllocation is a no-op: transactions already hold the writer lock.
func (repo *teamRepository) LockForAllocation(ctx context.Context, exec ...core.DBExecutor) error {
	return nil
}

func (repo *teamRepository) GuideLoads(ctx context.Context, exec ...core.DBExecutor) ([]team.Guide, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	loads := make(map[string]int)
	for _, t := range repo.db.teams {
		if t.GuideID != "" {
			loads[t.GuideID]++
		}
	}
	guides := make([]team.Guide, 0)
	for _, usr := range repo.db.users {
		if usr.Role == user.RoleGuide && usr.IsActive {
			guides = append(guides, team.Guide{ID: usr.ID, Name: usr.Name, Load: loads[usr.ID]})
		}
	}
	sort.Slice(guides, func(i, j int) bool { return guides[i].ID < guides[j].ID })
	return guides, nil
}

func (repo *teamRepository) TeamExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	_, ok := repo.db.teams[id]
	return ok, nil
}

func (repo *teamRepository) CreateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	t.Members = nil
	err := repo.db.write(exec, func() error {
		if _, ok := repo.db.users[t.UserID]; !ok {
			return user.ErrNotFound
		}
		repo.db.teams[t.ID] = t
		return nil
	})
	if err != nil {
		return team.Team{}, err
	}
	return t, nil
}

// withGuide must be called with the read lock held.
func (repo *teamRepository) withGuide(t team.Team) team.Team {
	t.GuideName, t.GuideEmail = "", ""
	if guide, ok := repo.db.users[t.GuideID]; ok && t.GuideID != "" {
		t.GuideName, t.GuideEmail = guide.Name, guide.Email
	}
	return t
}

func (repo *teamRepository) QueryTeams(ctx context.Context, filter *team.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]team.Team, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	teams := make([]team.Team, 0, len(repo.db.teams))
	for _, t := range repo.db.teams {
		if filter != nil && filter.GuideID != "" && t.GuideID != filter.GuideID {
			continue
		}
		teams = append(teams, repo.withGuide(t))
	}

	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	orderBy(teams, ordering, func(field string, a, b team.Team) (int, bool) {
		switch field {
		case "id":
			return strings.Compare(a.ID, b.ID), true
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt), true
		case "project_title":
			return strings.Compare(a.ProjectTitle, b.ProjectTitle), true
		}
		return 0, false
	})
	return teams, nil
}

func (repo *teamRepository) GetTeam(ctx context.Context, filter team.GetFilter, exec ...core.DBExecutor) (team.Team, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if t, ok := repo.db.teams[filter.ID]; ok {
			return repo.withGuide(t), nil
		}
		return team.Team{}, team.ErrNotFound
	}
	if filter.UserID != "" {
		for _, t := range repo.db.teams {
			if t.UserID == filter.UserID {
				return repo.withGuide(t), nil
			}
		}
	}
	return team.Team{}, team.ErrNotFound
}

func (repo *teamRepository) UpdateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	var updated team.Team
	err := repo.db.write(exec, func() error {
		orig, ok := repo.db.teams[t.ID]
		if !ok {
			return team.ErrNotFound
		}
		orig.ProjectTitle = t.ProjectTitle
		orig.IsApproved = t.IsApproved
		repo.db.teams[t.ID] = orig
		updated = repo.withGuide(orig)
		return nil
	})
	if err != nil {
		return team.Team{}, err
	}
	return updated, nil
}

// deleteTeam deletes a team with its members and submissions. It must be called with the write lock held.
func (t *tables) deleteTeam(id string) {
	delete(t.teams, id)
	for mid, m := range t.members {
		if m.TeamID == id {
			delete(t.members, mid)
		}
	}
	for sid, sub := range t.submissions {
		if sub.TeamID == id {
			delete(t.submissions, sid)
		}
	}
}
