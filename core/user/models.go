package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/kelna-terese/EvalX/core"
)

// Roles
const (
	RoleCoordinator = "COORDINATOR"
	RoleHOD         = "HOD"
	RoleGuide       = "GUIDE"
	RoleTeam        = "TEAM"
)

var (
	StaffRoles = []string{RoleCoordinator, RoleHOD, RoleGuide}
	AllRoles   = []string{RoleCoordinator, RoleHOD, RoleGuide, RoleTeam}

	Roles = []Role{
		{Name: "Coordinator", Value: RoleCoordinator},
		{Name: "HOD", Value: RoleHOD},
		{Name: "Guide", Value: RoleGuide},
		{Name: "Team", Value: RoleTeam},
	}
)

// RoleName returns the display name of role, or role itself when unknown.
func RoleName(role string) string {
	for _, r := range Roles {
		if r.Value == role {
			return r.Name
		}
	}
	return role
}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsCoordinator() bool { return u.Role == RoleCoordinator }
func (u *User) IsHOD() bool         { return u.Role == RoleHOD }
func (u *User) IsGuide() bool       { return u.Role == RoleGuide }
func (u *User) IsTeam() bool        { return u.Role == RoleTeam }

// DisplayName is the Name of the User, or their Email when unnamed.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanStringUpper(nu.Role)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	return validate.Struct(uu)
}

type QueryFilter struct {
	Search   string   `query:"search"`
	Roles    []string `query:"role"`
	IsActive *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	for i, role := range qf.Roles {
		qf.Roles[i] = core.CleanStringUpper(role)
	}
}

type GetFilter struct {
	ID    string
	Email string
}
