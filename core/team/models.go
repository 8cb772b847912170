package team

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/user"
)

const (
	MaxMembers = 4

	// Team roster placeholders
	TitleNotSet      = "Not Set"
	GuideNotAssigned = "Not Assigned"
)

type Team struct {
	ID           string              `json:"id"`
	UserID       string              `json:"user_id"`
	GuideID      string              `json:"guide_id"` // "" when unassigned
	GuideName    string              `json:"guide_name"`
	GuideEmail   string              `json:"guide_email"`
	LeaderName   string              `json:"leader_name"`
	ProjectTitle string              `json:"project_title"`
	IsApproved   bool                `json:"is_approved"`
	CreatedAt    time.Time           `json:"created_at"` // UTC
	Members      []evaluation.Member `json:"members,omitempty"`
}

func (t Team) HasGuide() bool { return t.GuideID != "" }

// Guide is a guide along with the number of teams they currently supervise.
type Guide struct {
	ID   string
	Name string
	Load int
}

type NewMember struct {
	Name      string `json:"name" validate:"required,notblank"`
	RegNumber string `json:"reg_number" validate:"required,alphanum_"`
}

type Registration struct {
	Email           string      `json:"email" validate:"required,email"`
	Password        string      `json:"password" validate:"required"`
	PasswordConfirm string      `json:"password_confirm" validate:"eqfield=Password"`
	LeaderName      string      `json:"leader_name" validate:"required,notblank"`
	Members         []NewMember `json:"members" validate:"required,min=1,max=4,dive"`
}

// Validate cleans & validates the registration, including the password policy and
// email and registration number uniqueness.
func (r *Registration) Validate(ctx context.Context, validate *validator.Validate, usrSvc *user.Service, evalRepo evaluation.Repository) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.LeaderName = core.CleanString(r.LeaderName)
	for i := range r.Members {
		r.Members[i].Name = core.CleanString(r.Members[i].Name)
		r.Members[i].RegNumber = core.CleanStringUpper(r.Members[i].RegNumber)
	}

	if err := validate.Struct(r); err != nil {
		return err
	}

	regs := make([]string, 0, len(r.Members))
	seen := make(map[string]struct{}, len(r.Members))
	for _, m := range r.Members {
		if _, ok := seen[m.RegNumber]; ok {
			return core.NewValidationError(ErrDuplicateRegNumber, core.FieldError{Field: "members", Error: ErrDuplicateRegNumber.Error()})
		}
		seen[m.RegNumber] = struct{}{}
		regs = append(regs, m.RegNumber)
	}

	if err := usrSvc.CheckUniqueness(ctx, r.Email); err != nil {
		return err
	}
	if err := evalRepo.CheckRegNumberUniqueness(ctx, regs); err != nil {
		if err == evaluation.ErrRegNumberExists {
			return core.NewValidationError(err, core.FieldError{Field: "members", Error: err.Error()})
		}
		return err
	}
	return nil
}

type ApproveTitle struct {
	ProjectTitle string `json:"project_title" validate:"required,notblank,max=255"`
}

type QueryFilter struct {
	GuideID string
}
