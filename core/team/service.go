package team

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/mail"

	"github.com/go-playground/validator/v10"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewMissingReference("team")
	ErrDuplicateRegNumber = errors.New("registration numbers must be unique within a team")
	errTeamIDExhausted    = errors.New("could not generate a unique team ID")

	randIntn = rand.Intn // mockable

	teamIDAttempts = 10
)

// Orderings
var (
	ByNewest = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	ByID     = []core.DBOrdering{{Field: "id", Ascending: true}}
)

type (
	Repository interface {
		// LockForAllocation blocks concurrent registrations until the calling transaction ends,
		// so that GuideLoads reflects every committed team.
		LockForAllocation(ctx context.Context, exec ...core.DBExecutor) error
		// GuideLoads returns every active guide with the number of teams assigned to them.
		GuideLoads(ctx context.Context, exec ...core.DBExecutor) ([]Guide, error)
		TeamExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error)
		CreateTeam(ctx context.Context, t Team, exec ...core.DBExecutor) (Team, error)
		// QueryTeams returns teams along with their guide's name and email, without members.
		QueryTeams(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Team, error)
		GetTeam(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Team, error)
		// UpdateTeam saves the project title and approval of t.
		UpdateTeam(ctx context.Context, t Team, exec ...core.DBExecutor) (Team, error)
	}

	GetFilter struct {
		ID     string
		UserID string
	}

	Service struct {
		repo     Repository
		members  evaluation.Repository
		usrSvc   *user.Service
		tx       core.Transactor
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
	}
)

func NewService(
	repo Repository,
	members evaluation.Repository,
	usrSvc *user.Service,
	tx core.Transactor,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
) *Service {
	return &Service{
		repo:     repo,
		members:  members,
		usrSvc:   usrSvc,
		tx:       tx,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
	}
}

func (svc *Service) ValidateRegistration(ctx context.Context, reg *Registration) error {
	return reg.Validate(ctx, svc.validate, svc.usrSvc, svc.members)
}

// Register creates the team's user, assigns the least loaded guide and creates the team with its members,
// all in one transaction. A confirmation email is sent once the registration is committed.
func (svc *Service) Register(ctx context.Context, reg Registration) (Team, error) {
	var t Team
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		usr, err := svc.usrSvc.Create(ctx, user.NewUser{
			Name:     reg.LeaderName,
			Email:    reg.Email,
			Password: reg.Password,
			Role:     user.RoleTeam,
		}, exec)
		if err != nil {
			return err
		}

		if err = svc.repo.LockForAllocation(ctx, exec); err != nil {
			return err
		}
		guides, err := svc.repo.GuideLoads(ctx, exec)
		if err != nil {
			return err
		}
		guide, err := AllocateGuide(guides)
		if err != nil {
			return err
		}

		id, err := svc.newTeamID(ctx, exec)
		if err != nil {
			return err
		}
		t, err = svc.repo.CreateTeam(ctx, Team{
			ID:         id,
			UserID:     usr.ID,
			GuideID:    guide.ID,
			LeaderName: reg.LeaderName,
			CreatedAt:  core.NowFunc(),
		}, exec)
		if err != nil {
			return err
		}
		t.GuideName = guide.Name

		members := make([]evaluation.Member, 0, len(reg.Members))
		for _, m := range reg.Members {
			members = append(members, evaluation.NewMember(t.ID, m.Name, m.RegNumber, m.Name == reg.LeaderName))
		}
		t.Members, err = svc.members.CreateMembers(ctx, members, exec)
		return err
	})
	if err != nil {
		return Team{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: t.LeaderName, Address: reg.Email}},
		Subject:      "Team Registered",
		TemplateName: "team_registered",
		TemplateData: map[string]interface{}{"LeaderName": t.LeaderName, "TeamID": t.ID, "GuideName": t.GuideName},
	})
	return t, nil
}

// newTeamID generates an unused team ID: "TM" followed by 5 random digits.
func (svc *Service) newTeamID(ctx context.Context, exec core.DBExecutor) (string, error) {
	for i := 0; i < teamIDAttempts; i++ {
		id := fmt.Sprintf("TM%05d", randIntn(100000))
		exists, err := svc.repo.TeamExists(ctx, id, exec)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", errTeamIDExhausted
}

func (svc *Service) GetByID(ctx context.Context, id string) (Team, error) {
	return svc.get(ctx, GetFilter{ID: core.CleanStringUpper(id)})
}

func (svc *Service) GetByUser(ctx context.Context, userID string) (Team, error) {
	return svc.get(ctx, GetFilter{UserID: userID})
}

func (svc *Service) get(ctx context.Context, filter GetFilter) (Team, error) {
	t, err := svc.repo.GetTeam(ctx, filter)
	if err != nil {
		return Team{}, err
	}
	t.Members, err = svc.members.QueryMembers(ctx, &evaluation.MemberFilter{TeamIDs: []string{t.ID}}, evaluation.ByRegNumber)
	if err != nil {
		return Team{}, err
	}
	return t, nil
}

// Query returns teams along with their members.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Team, error) {
	teams, err := svc.repo.QueryTeams(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return teams, nil
	}

	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	members, err := svc.members.QueryMembers(ctx, &evaluation.MemberFilter{TeamIDs: ids}, evaluation.ByRegNumber)
	if err != nil {
		return nil, err
	}
	byTeam := make(map[string][]evaluation.Member, len(teams))
	for _, m := range members {
		byTeam[m.TeamID] = append(byTeam[m.TeamID], m)
	}
	for i := range teams {
		teams[i].Members = byTeam[teams[i].ID]
		if teams[i].Members == nil {
			teams[i].Members = []evaluation.Member{}
		}
	}
	return teams, nil
}

// ApproveTitle sets the project title of a team and approves it.
func (svc *Service) ApproveTitle(ctx context.Context, id string, in ApproveTitle) (Team, error) {
	in.ProjectTitle = core.CleanString(in.ProjectTitle)
	if err := svc.validate.Struct(in); err != nil {
		return Team{}, err
	}
	t, err := svc.repo.GetTeam(ctx, GetFilter{ID: core.CleanStringUpper(id)})
	if err != nil {
		return Team{}, err
	}
	t.ProjectTitle = in.ProjectTitle
	t.IsApproved = true
	return svc.repo.UpdateTeam(ctx, t)
}

// Reopen withdraws the approval of a team's title so it can be edited again.
func (svc *Service) Reopen(ctx context.Context, id string) (Team, error) {
	t, err := svc.repo.GetTeam(ctx, GetFilter{ID: core.CleanStringUpper(id)})
	if err != nil {
		return Team{}, err
	}
	t.IsApproved = false
	return svc.repo.UpdateTeam(ctx, t)
}
