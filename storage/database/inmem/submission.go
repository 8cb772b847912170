package inmemdb

import (
	"context"
	"sort"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/submission"
	"github.com/kelna-terese/EvalX/core/team"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) UpsertSlot(ctx context.Context, slot submission.Slot, exec ...core.DBExecutor) (submission.Slot, error) {
	err := repo.db.write(exec, func() error {
		for id, s := range repo.db.slots {
			if s.Type == slot.Type {
				s.Title = slot.Title
				s.Deadline = slot.Deadline
				s.ReviewDate = slot.ReviewDate
				s.IsActive = slot.IsActive
				repo.db.slots[id] = s
				slot = s
				return nil
			}
		}
		repo.db.slotSeq++
		slot.ID = repo.db.slotSeq
		repo.db.slots[slot.ID] = slot
		return nil
	})
	if err != nil {
		return submission.Slot{}, err
	}
	return slot, nil
}

func (repo *submissionRepository) QuerySlots(ctx context.Context, filter *submission.SlotFilter, exec ...core.DBExecutor) ([]submission.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	slots := make([]submission.Slot, 0, len(repo.db.slots))
	for _, s := range repo.db.slots {
		if filter != nil && filter.ActiveOnly && !s.IsActive {
			continue
		}
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Deadline.Valid != b.Deadline.Valid {
			return a.Deadline.Valid // no deadline last
		}
		if a.Deadline.Valid && !a.Deadline.Time.Equal(b.Deadline.Time) {
			return a.Deadline.Time.Before(b.Deadline.Time)
		}
		return a.ID < b.ID
	})
	return slots, nil
}

func (repo *submissionRepository) GetSlotByID(ctx context.Context, id int64, exec ...core.DBExecutor) (submission.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.slots[id]; ok {
		return s, nil
	}
	return submission.Slot{}, submission.ErrSlotNotFound
}

func (repo *submissionRepository) GetSlotByType(ctx context.Context, t submission.SlotType, exec ...core.DBExecutor) (submission.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, s := range repo.db.slots {
		if s.Type == t {
			return s, nil
		}
	}
	return submission.Slot{}, submission.ErrSlotNotFound
}

func (repo *submissionRepository) DeleteSlot(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	return repo.db.write(exec, func() error {
		if _, ok := repo.db.slots[id]; !ok {
			return submission.ErrSlotNotFound
		}
		delete(repo.db.slots, id)
		for sid, sub := range repo.db.submissions {
			if sub.SlotID == id {
				delete(repo.db.submissions, sid)
			}
		}
		return nil
	})
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	err := repo.db.write(exec, func() error {
		if _, ok := repo.db.teams[sub.TeamID]; !ok {
			return team.ErrNotFound
		}
		if _, ok := repo.db.slots[sub.SlotID]; !ok {
			return submission.ErrSlotNotFound
		}
		repo.db.submissionSeq++
		sub.ID = repo.db.submissionSeq
		repo.db.submissions[sub.ID] = sub
		return nil
	})
	if err != nil {
		return submission.Submission{}, err
	}
	return sub, nil
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.SubmissionFilter, exec ...core.DBExecutor) ([]submission.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subs := make([]submission.Submission, 0, len(repo.db.submissions))
	for _, sub := range repo.db.submissions {
		if filter != nil && filter.TeamID != "" && sub.TeamID != filter.TeamID {
			continue
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}
