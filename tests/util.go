package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/report"
	"github.com/kelna-terese/EvalX/core/submission"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
	emailsvc "github.com/kelna-terese/EvalX/services/email"
	"github.com/kelna-terese/EvalX/services/filestore"
	logsvc "github.com/kelna-terese/EvalX/services/logger"
	inmemdb "github.com/kelna-terese/EvalX/storage/database/inmem"
)

// WorkDir is the module root, where the assets live.
func WorkDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(file))
}

// NewConfig returns the test Config with WorkDir set to the module root.
func NewConfig() *core.Config {
	conf := core.NewTestConfig()
	conf.WorkDir = WorkDir()
	return conf
}

// NewValidator returns a validator with every package's validators and translations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	team.InitValidators(validate)
	evaluation.InitValidators(validate, translator)
	return validate, translator
}

// Env wires every service on a fresh in-memory store.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Mail       *emailsvc.ConsoleServiceMock
	Files      *filestore.Local

	DB          *inmemdb.DB
	Users       user.Repository
	Teams       team.Repository
	Members     evaluation.Repository
	Submissions submission.Repository

	UserSvc       *user.Service
	EvalSvc       *evaluation.Service
	TeamSvc       *team.Service
	SubmissionSvc *submission.Service
	ReportSvc     *report.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	conf := NewConfig()
	conf.UploadDir = t.TempDir()
	logger := logsvc.NewNopLogger()
	core.ParseEmailTemplates(conf, logger)
	validate, translator := NewValidator()

	db := inmemdb.Open()
	env := &Env{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		Mail:        emailsvc.NewConsoleServiceMock(conf, logger),
		Files:       filestore.NewLocal(conf.UploadDir, "/uploads"),
		DB:          db,
		Users:       inmemdb.NewUserRepository(db),
		Teams:       inmemdb.NewTeamRepository(db),
		Members:     inmemdb.NewMemberRepository(db),
		Submissions: inmemdb.NewSubmissionRepository(db),
	}
	env.UserSvc = user.NewService(env.Users)
	env.EvalSvc = evaluation.NewService(env.Members, db, validate)
	env.TeamSvc = team.NewService(env.Teams, env.Members, env.UserSvc, db, env.Mail, logger, validate)
	env.SubmissionSvc = submission.NewService(env.Submissions, env.Files, env.UserSvc, env.Mail, logger, validate)
	env.ReportSvc = report.NewService(env.EvalSvc, env.TeamSvc)
	return env
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateTeam creates a team of id supervised by guideID ("" for none), owned by a new TEAM user,
// with one member per registration number; the first member leads.
func CreateTeam(t *testing.T, env *Env, id, guideID string, regNumbers ...string) team.Team {
	t.Helper()
	ctx := context.Background()
	leader := "Leader " + id
	usr := CreateUser(t, env.Users, leader, id+"@team.test", "", user.RoleTeam, true)

	tm, err := env.Teams.CreateTeam(ctx, team.Team{
		ID:         id,
		UserID:     usr.ID,
		GuideID:    guideID,
		LeaderName: leader,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTeam() failed: %v", err)
	}

	members := make([]evaluation.Member, 0, len(regNumbers))
	for i, reg := range regNumbers {
		name := "Student " + reg
		if i == 0 {
			name = leader
		}
		members = append(members, evaluation.NewMember(id, name, reg, i == 0))
	}
	if tm.Members, err = env.Members.CreateMembers(ctx, members); err != nil {
		t.Fatalf("CreateTeam() failed: %v", err)
	}
	return tm
}
