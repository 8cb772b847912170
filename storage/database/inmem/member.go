package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/team"
)

type memberRepository struct {
	db *DB
}

var _ evaluation.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db *DB) *memberRepository {
	return &memberRepository{db: db}
}

func (repo *memberRepository) CheckRegNumberUniqueness(ctx context.Context, regNumbers []string, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.checkRegNumbers(regNumbers)
}

// checkRegNumbers must be called with a lock held.
func (repo *memberRepository) checkRegNumbers(regNumbers []string) error {
	for _, m := range repo.db.members {
		for _, reg := range regNumbers {
			if strings.EqualFold(m.RegNumber, reg) {
				return evaluation.ErrRegNumberExists
			}
		}
	}
	return nil
}

func (repo *memberRepository) CreateMembers(ctx context.Context, members []evaluation.Member, exec ...core.DBExecutor) ([]evaluation.Member, error) {
	created := make([]evaluation.Member, 0, len(members))
	err := repo.db.write(exec, func() error {
		regs := make([]string, 0, len(members))
		for _, m := range members {
			if _, ok := repo.db.teams[m.TeamID]; !ok {
				return team.ErrNotFound
			}
			regs = append(regs, m.RegNumber)
		}
		if err := repo.checkRegNumbers(regs); err != nil {
			return err
		}
		for _, m := range members {
			repo.db.memberSeq++
			m.ID = repo.db.memberSeq
			m = m.Copy()
			repo.db.members[m.ID] = m
			created = append(created, m.Copy())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *memberRepository) QueryMembers(ctx context.Context, filter *evaluation.MemberFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]evaluation.Member, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ids map[int64]bool
	var teamIDs map[string]bool
	if filter != nil {
		if filter.IDs != nil {
			ids = make(map[int64]bool, len(filter.IDs))
			for _, id := range filter.IDs {
				ids[id] = true
			}
		}
		if filter.TeamIDs != nil {
			teamIDs = make(map[string]bool, len(filter.TeamIDs))
			for _, id := range filter.TeamIDs {
				teamIDs[id] = true
			}
		}
	}

	members := make([]evaluation.Member, 0, len(repo.db.members))
	for _, m := range repo.db.members {
		if ids != nil && !ids[m.ID] {
			continue
		}
		if teamIDs != nil && !teamIDs[m.TeamID] {
			continue
		}
		if filter != nil && filter.GuideID != "" && repo.db.teams[m.TeamID].GuideID != filter.GuideID {
			continue
		}
		members = append(members, m.Copy())
	}

	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	orderBy(members, ordering, func(field string, a, b evaluation.Member) (int, bool) {
		switch field {
		case "reg_number":
			return strings.Compare(a.RegNumber, b.RegNumber), true
		case "name":
			return strings.Compare(a.Name, b.Name), true
		case "team_id":
			return strings.Compare(a.TeamID, b.TeamID), true
		}
		return 0, false
	})
	return members, nil
}

func (repo *memberRepository) GetMember(ctx context.Context, id int64, exec ...core.DBExecutor) (evaluation.Member, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if m, ok := repo.db.members[id]; ok {
		return m.Copy(), nil
	}
	return evaluation.Member{}, evaluation.ErrMemberNotFound
}

// update applies fn to every member in ids atomically; it fails without changes if one is missing.
func update[T any](db *DB, exec []core.DBExecutor, values map[int64]T, fn func(m *evaluation.Member, v T)) error {
	return db.write(exec, func() error {
		for id := range values {
			if _, ok := db.members[id]; !ok {
				return evaluation.ErrMemberNotFound
			}
		}
		for id, v := range values {
			m := db.members[id]
			fn(&m, v)
			db.members[id] = m
		}
		return nil
	})
}

func (repo *memberRepository) SaveReviews(ctx context.Context, c evaluation.Cycle, e evaluation.Evaluator, reviews map[int64]evaluation.Review, exec ...core.DBExecutor) error {
	return update(repo.db, exec, reviews, func(m *evaluation.Member, rev evaluation.Review) {
		m.SetReview(c, e, rev)
	})
}

func (repo *memberRepository) SaveSheet2(ctx context.Context, sheets map[int64]evaluation.Sheet2, exec ...core.DBExecutor) error {
	return update(repo.db, exec, sheets, func(m *evaluation.Member, s evaluation.Sheet2) {
		m.Sheet2 = s
	})
}

func (repo *memberRepository) SaveReports(ctx context.Context, e evaluation.Evaluator, marks map[int64]float64, exec ...core.DBExecutor) error {
	return update(repo.db, exec, marks, func(m *evaluation.Member, mark float64) {
		m.SetReport(e, mark)
	})
}

func (repo *memberRepository) SaveAttendance(ctx context.Context, marks map[int64]float64, exec ...core.DBExecutor) error {
	return update(repo.db, exec, marks, func(m *evaluation.Member, mark float64) {
		m.Attendance = mark
	})
}
