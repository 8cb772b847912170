package evaluation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/kelna-terese/EvalX/core"
)

// Scope is the set of members an evaluator may score in one batch.
// Coordinators and HODs score every member; a guide only the members of the teams they supervise.
type Scope struct {
	Evaluator Evaluator
	GuideID   string
}

// check rejects scopes that would not restrict a guide to their own teams.
func (s Scope) check() error {
	if !s.Evaluator.IsValid() {
		return ErrInvalidEvaluator
	}
	if s.Evaluator == Guide && s.GuideID == "" {
		return ErrGuideScope
	}
	return nil
}

func (s Scope) filter() *MemberFilter {
	if s.Evaluator == Guide {
		return &MemberFilter{GuideID: s.GuideID}
	}
	return &MemberFilter{}
}

type ReviewEntry struct {
	MemberID int64 `json:"member_id" validate:"required"`
	Review
}

// ReviewBatch is a form submission of one evaluator's reviews for one cycle.
type ReviewBatch struct {
	Cycle   Cycle         `json:"-"`
	Entries []ReviewEntry `json:"entries" validate:"dive"`
}

type Sheet2Entry struct {
	MemberID int64 `json:"member_id" validate:"required"`
	Sheet2
}

type Sheet2Batch struct {
	Entries []Sheet2Entry `json:"entries" validate:"dive"`
}

// MarkEntry is a single mark out of 10 (report or attendance).
type MarkEntry struct {
	MemberID int64   `json:"member_id" validate:"required"`
	Mark     float64 `json:"mark" validate:"min=0,max=10"`
}

type MarkBatch struct {
	Entries []MarkEntry `json:"entries" validate:"dive"`
}

// Validate checks every entry's ranges.
func (b *ReviewBatch) Validate(validate *validator.Validate) error {
	if !b.Cycle.IsValid() {
		return core.NewValidationError(ErrInvalidCycle, core.FieldError{Field: "cycle", Error: ErrInvalidCycle.Error()})
	}
	ids := make([]int64, 0, len(b.Entries))
	for _, e := range b.Entries {
		ids = append(ids, e.MemberID)
	}
	return validateBatch(validate, b, ids)
}

func (b *Sheet2Batch) Validate(validate *validator.Validate) error {
	ids := make([]int64, 0, len(b.Entries))
	for _, e := range b.Entries {
		ids = append(ids, e.MemberID)
	}
	return validateBatch(validate, b, ids)
}

func (b *MarkBatch) Validate(validate *validator.Validate) error {
	ids := make([]int64, 0, len(b.Entries))
	for _, e := range b.Entries {
		ids = append(ids, e.MemberID)
	}
	return validateBatch(validate, b, ids)
}

func validateBatch(validate *validator.Validate, batch interface{}, ids []int64) error {
	if err := validate.Struct(batch); err != nil {
		return err
	}
	seen := make(map[int64]struct{}, len(ids))
	for i, id := range ids {
		if _, ok := seen[id]; ok {
			return core.NewValidationError(ErrDuplicateMember, core.FieldError{
				Field: fmt.Sprintf("entries[%d].member_id", i),
				Error: ErrDuplicateMember.Error(),
			})
		}
		seen[id] = struct{}{}
	}
	return nil
}

// resolve pairs every member in scope with its entry, or with the zero value when the batch omits it.
// ids are the batch's member IDs in order; an ID outside members is reported by index.
func resolve[T any](members []Member, ids []int64, values []T) (map[int64]T, int, bool) {
	resolved := make(map[int64]T, len(members))
	var zero T
	for _, m := range members {
		resolved[m.ID] = zero
	}
	for i, id := range ids {
		if _, ok := resolved[id]; !ok {
			return nil, i, false
		}
		resolved[id] = values[i]
	}
	return resolved, -1, true
}

func outOfScopeError(idx int) error {
	return core.NewValidationError(ErrMemberOutOfScope, core.FieldError{
		Field: fmt.Sprintf("entries[%d].member_id", idx),
		Error: ErrMemberOutOfScope.Error(),
	})
}
