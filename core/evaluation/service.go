package evaluation

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/kelna-terese/EvalX/core"
)

var (
	// errors
	ErrMemberNotFound   = core.NewMissingReference("member")
	ErrInvalidCycle     = errors.New("invalid review cycle")
	ErrInvalidEvaluator = errors.New("invalid evaluator")
	ErrGuideScope       = errors.New("guide scope without a guide")
	ErrDuplicateMember  = errors.New("member appears more than once in this batch")
	ErrMemberOutOfScope = errors.New("member is not assigned to you")
	ErrRegNumberExists  = errors.New("a member with this registration number already exists")
)

type (
	Repository interface {
		// CheckRegNumberUniqueness returns ErrRegNumberExists when one of regNumbers is taken.
		CheckRegNumberUniqueness(ctx context.Context, regNumbers []string, exec ...core.DBExecutor) error
		CreateMembers(ctx context.Context, members []Member, exec ...core.DBExecutor) ([]Member, error)
		// QueryMembers applies AND operation on available MemberFilter fields.
		QueryMembers(ctx context.Context, filter *MemberFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Member, error)
		GetMember(ctx context.Context, id int64, exec ...core.DBExecutor) (Member, error)

		// The Save methods overwrite only the columns they name, for every member ID in the map.
		SaveReviews(ctx context.Context, c Cycle, e Evaluator, reviews map[int64]Review, exec ...core.DBExecutor) error
		SaveSheet2(ctx context.Context, sheets map[int64]Sheet2, exec ...core.DBExecutor) error
		SaveReports(ctx context.Context, e Evaluator, marks map[int64]float64, exec ...core.DBExecutor) error
		SaveAttendance(ctx context.Context, marks map[int64]float64, exec ...core.DBExecutor) error
	}

	Service struct {
		repo     Repository
		tx       core.Transactor
		validate *validator.Validate
	}
)

// ByRegNumber is the ordering used by every listing of members.
var ByRegNumber = []core.DBOrdering{{Field: "reg_number", Ascending: true}}

func NewService(repo Repository, tx core.Transactor, validate *validator.Validate) *Service {
	return &Service{repo: repo, tx: tx, validate: validate}
}

// Members returns the members in scope, ordered by registration number.
func (svc *Service) Members(ctx context.Context, scope Scope) ([]Member, error) {
	if err := scope.check(); err != nil {
		return nil, err
	}
	return svc.repo.QueryMembers(ctx, scope.filter(), ByRegNumber)
}

func (svc *Service) MembersOfTeams(ctx context.Context, teamIDs ...string) ([]Member, error) {
	if len(teamIDs) == 0 {
		return []Member{}, nil
	}
	return svc.repo.QueryMembers(ctx, &MemberFilter{TeamIDs: teamIDs}, ByRegNumber)
}

func (svc *Service) GetMember(ctx context.Context, id int64) (Member, error) {
	return svc.repo.GetMember(ctx, id)
}

// SubmitReviews replaces scope.Evaluator's reviews of batch.Cycle for every member in scope.
func (svc *Service) SubmitReviews(ctx context.Context, scope Scope, batch ReviewBatch) error {
	if err := scope.check(); err != nil {
		return err
	}
	if err := batch.Validate(svc.validate); err != nil {
		return err
	}
	ids := make([]int64, len(batch.Entries))
	reviews := make([]Review, len(batch.Entries))
	for i, e := range batch.Entries {
		ids[i], reviews[i] = e.MemberID, e.Review
	}
	return svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		resolved, err := resolveScope(ctx, svc.repo, scope, ids, reviews, exec)
		if err != nil {
			return err
		}
		return svc.repo.SaveReviews(ctx, batch.Cycle, scope.Evaluator, resolved, exec)
	})
}

// SubmitSheet2 replaces the Sheet 2 scores of every member. Coordinators only.
func (svc *Service) SubmitSheet2(ctx context.Context, batch Sheet2Batch) error {
	if err := batch.Validate(svc.validate); err != nil {
		return err
	}
	ids := make([]int64, len(batch.Entries))
	sheets := make([]Sheet2, len(batch.Entries))
	for i, e := range batch.Entries {
		ids[i], sheets[i] = e.MemberID, e.Sheet2
	}
	return svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		resolved, err := resolveScope(ctx, svc.repo, Scope{Evaluator: Coordinator}, ids, sheets, exec)
		if err != nil {
			return err
		}
		return svc.repo.SaveSheet2(ctx, resolved, exec)
	})
}

// SubmitReports replaces scope.Evaluator's report marks for every member in scope.
func (svc *Service) SubmitReports(ctx context.Context, scope Scope, batch MarkBatch) error {
	if err := scope.check(); err != nil {
		return err
	}
	if err := batch.Validate(svc.validate); err != nil {
		return err
	}
	ids, marks := splitMarks(batch)
	return svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		resolved, err := resolveScope(ctx, svc.repo, scope, ids, marks, exec)
		if err != nil {
			return err
		}
		return svc.repo.SaveReports(ctx, scope.Evaluator, resolved, exec)
	})
}

// SubmitAttendance replaces the attendance marks of every member. Coordinators only.
func (svc *Service) SubmitAttendance(ctx context.Context, batch MarkBatch) error {
	if err := batch.Validate(svc.validate); err != nil {
		return err
	}
	ids, marks := splitMarks(batch)
	return svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		resolved, err := resolveScope(ctx, svc.repo, Scope{Evaluator: Coordinator}, ids, marks, exec)
		if err != nil {
			return err
		}
		return svc.repo.SaveAttendance(ctx, resolved, exec)
	})
}

func splitMarks(batch MarkBatch) ([]int64, []float64) {
	ids := make([]int64, len(batch.Entries))
	marks := make([]float64, len(batch.Entries))
	for i, e := range batch.Entries {
		ids[i], marks[i] = e.MemberID, e.Mark
	}
	return ids, marks
}

// resolveScope loads the members in scope and pairs each one with its submitted value.
// An ID outside scope is ErrMemberNotFound when no such member exists at all.
func resolveScope[T any](ctx context.Context, repo Repository, scope Scope, ids []int64, values []T, exec core.DBExecutor) (map[int64]T, error) {
	members, err := repo.QueryMembers(ctx, scope.filter(), nil, exec)
	if err != nil {
		return nil, err
	}
	resolved, idx, ok := resolve(members, ids, values)
	if ok {
		return resolved, nil
	}
	if _, err := repo.GetMember(ctx, ids[idx], exec); err != nil {
		return nil, err
	}
	return nil, outOfScopeError(idx)
}
