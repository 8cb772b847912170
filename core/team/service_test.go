package team_test

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
	testutil "github.com/kelna-terese/EvalX/tests"
)

const testPassword = "Tr0ub4dor&3x"

func newRegistration() team.Registration {
	return team.Registration{
		Email:           " Asha@Team.Test ",
		Password:        testPassword,
		PasswordConfirm: testPassword,
		LeaderName:      "Asha Kumar",
		Members: []team.NewMember{
			{Name: "Asha Kumar", RegNumber: "21cs001"},
			{Name: "Bala Murugan", RegNumber: "21CS002"},
		},
	}
}

func countAll(t *testing.T, env *testutil.Env) (users, teams, members int) {
	ctx := context.Background()
	us, err := env.Users.QueryUsers(ctx, nil, nil)
	require.NoError(t, err)
	ts, err := env.Teams.QueryTeams(ctx, nil, nil)
	require.NoError(t, err)
	ms, err := env.Members.QueryMembers(ctx, nil, nil)
	require.NoError(t, err)
	return len(us), len(ts), len(ms)
}

func TestService_Register(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	busy := testutil.CreateUser(t, env.Users, "Dr. Iyer", "iyer@evalx.test", "", user.RoleGuide, true)
	free := testutil.CreateUser(t, env.Users, "Dr. Rao", "rao@evalx.test", "", user.RoleGuide, true)
	testutil.CreateUser(t, env.Users, "Dr. Gone", "gone@evalx.test", "", user.RoleGuide, false)
	testutil.CreateTeam(t, env, "TM00001", busy.ID, "20CS001")

	reg := newRegistration()
	require.NoError(t, env.TeamSvc.ValidateRegistration(ctx, &reg))
	assert.Equal(t, "asha@team.test", reg.Email)
	assert.Equal(t, "21CS001", reg.Members[0].RegNumber)

	tm, err := env.TeamSvc.Register(ctx, reg)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TM\d{5}$`), tm.ID)
	assert.Equal(t, free.ID, tm.GuideID)
	assert.Equal(t, "Dr. Rao", tm.GuideName)
	assert.Equal(t, "Asha Kumar", tm.LeaderName)
	assert.False(t, tm.IsApproved)
	require.Len(t, tm.Members, 2)
	assert.True(t, tm.Members[0].IsLeader)
	assert.False(t, tm.Members[1].IsLeader)
	assert.Equal(t, 0.0, tm.Members[0].FinalInternal())

	usr, err := env.UserSvc.GetByEmail(ctx, "asha@team.test")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeam, usr.Role)
	assert.Equal(t, tm.UserID, usr.ID)
	assert.NoError(t, usr.CheckPassword(testPassword))

	got, err := env.TeamSvc.GetByUser(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, tm.ID, got.ID)
	assert.Len(t, got.Members, 2)

	sent := env.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Team Registered", sent[0].Subject)
	assert.Equal(t, "asha@team.test", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, tm.ID)
	assert.Contains(t, sent[0].TextContent, "Dr. Rao")
}

func TestService_Register_BalancesGuides(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.Users, "Guide A", "a@evalx.test", "", user.RoleGuide, true)
	b := testutil.CreateUser(t, env.Users, "Guide B", "b@evalx.test", "", user.RoleGuide, true)

	loads := map[string]int{}
	for i, email := range []string{"t1@team.test", "t2@team.test", "t3@team.test", "t4@team.test"} {
		reg := newRegistration()
		reg.Email = email
		reg.Members = []team.NewMember{{Name: "Asha Kumar", RegNumber: "21CS10" + string(rune('0'+i))}}
		require.NoError(t, env.TeamSvc.ValidateRegistration(ctx, &reg))
		tm, err := env.TeamSvc.Register(ctx, reg)
		require.NoError(t, err)
		loads[tm.GuideID]++
	}
	assert.Equal(t, map[string]int{a.ID: 2, b.ID: 2}, loads)
}

func TestService_Register_ConcurrentBalancesGuides(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	guides := []user.User{
		testutil.CreateUser(t, env.Users, "Guide A", "a@evalx.test", "", user.RoleGuide, true),
		testutil.CreateUser(t, env.Users, "Guide B", "b@evalx.test", "", user.RoleGuide, true),
		testutil.CreateUser(t, env.Users, "Guide C", "c@evalx.test", "", user.RoleGuide, true),
	}

	const n = 30
	regs := make([]team.Registration, n)
	for i := range regs {
		reg := newRegistration()
		reg.Email = fmt.Sprintf("t%d@team.test", i)
		reg.Members = []team.NewMember{{Name: "Asha Kumar", RegNumber: fmt.Sprintf("21CS%03d", i)}}
		require.NoError(t, env.TeamSvc.ValidateRegistration(ctx, &reg))
		regs[i] = reg
	}

	errs := make(chan error, n)
	var wg sync.WaitGroup
	for _, reg := range regs {
		wg.Add(1)
		go func(reg team.Registration) {
			defer wg.Done()
			_, err := env.TeamSvc.Register(ctx, reg)
			errs <- err
		}(reg)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	teams, err := env.TeamSvc.Query(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, teams, n)
	loads := map[string]int{}
	for _, tm := range teams {
		loads[tm.GuideID]++
	}
	minLoad, maxLoad := n, 0
	for _, g := range guides {
		if loads[g.ID] < minLoad {
			minLoad = loads[g.ID]
		}
		if loads[g.ID] > maxLoad {
			maxLoad = loads[g.ID]
		}
	}
	assert.LessOrEqual(t, maxLoad-minLoad, 1, "loads = %v", loads)
}

func TestService_Register_NoGuideAvailable(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	reg := newRegistration()
	require.NoError(t, env.TeamSvc.ValidateRegistration(ctx, &reg))
	_, err := env.TeamSvc.Register(ctx, reg)
	assert.Equal(t, team.ErrNoGuideAvailable, err)

	users, teams, members := countAll(t, env)
	assert.Zero(t, users)
	assert.Zero(t, teams)
	assert.Zero(t, members)
	assert.Empty(t, env.Mail.SentMessages())
}

func TestService_Register_RollsBackOnMemberFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	guide := testutil.CreateUser(t, env.Users, "Dr. Rao", "rao@evalx.test", "", user.RoleGuide, true)
	testutil.CreateTeam(t, env, "TM00001", guide.ID, "21CS002")
	users, teams, members := countAll(t, env)

	// skips ValidateRegistration: the reg number clash surfaces when creating members
	reg := newRegistration()
	reg.Email = "asha@team.test"
	reg.Members[0].RegNumber = "21CS001"
	_, err := env.TeamSvc.Register(ctx, reg)
	assert.Equal(t, evaluation.ErrRegNumberExists, err)

	u, tm, m := countAll(t, env)
	assert.Equal(t, []int{users, teams, members}, []int{u, tm, m})
	_, err = env.UserSvc.GetByEmail(ctx, "asha@team.test")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_Register_TeamIDCollision(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	guide := testutil.CreateUser(t, env.Users, "Dr. Rao", "rao@evalx.test", "", user.RoleGuide, true)
	testutil.CreateTeam(t, env, "TM00001", guide.ID, "20CS001")

	orig := *team.RandIntn
	t.Cleanup(func() { *team.RandIntn = orig })

	seq := []int{1, 1, 42}
	*team.RandIntn = func(n int) int {
		v := seq[0]
		if len(seq) > 1 {
			seq = seq[1:]
		}
		return v
	}
	tm, err := env.TeamSvc.Register(ctx, newRegistration())
	require.NoError(t, err)
	assert.Equal(t, "TM00042", tm.ID)

	*team.RandIntn = func(n int) int { return 1 }
	reg := newRegistration()
	reg.Email = "other@team.test"
	reg.Members = []team.NewMember{{Name: "Chen", RegNumber: "21CS099"}}
	_, err = env.TeamSvc.Register(ctx, reg)
	assert.Equal(t, team.ErrTeamIDExhausted, err)
	_, err = env.UserSvc.GetByEmail(ctx, "other@team.test")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestRegistration_Validate(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	guide := testutil.CreateUser(t, env.Users, "Dr. Rao", "rao@evalx.test", "", user.RoleGuide, true)
	testutil.CreateTeam(t, env, "TM00001", guide.ID, "20CS001")

	fieldErr := func(field, tag string) func(t *testing.T, err error) {
		return func(t *testing.T, err error) {
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			for _, fe := range verrs {
				if fe.Field() == field && fe.Tag() == tag {
					return
				}
			}
			t.Errorf("Validate() = %v; want %s on %s", err, tag, field)
		}
	}
	domainErr := func(want error) func(t *testing.T, err error) {
		return func(t *testing.T, err error) {
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, want, verr.Err)
		}
	}

	tests := []struct {
		name   string
		modify func(r *team.Registration)
		check  func(t *testing.T, err error)
	}{
		{name: "bad email", modify: func(r *team.Registration) { r.Email = "asha" }, check: fieldErr("email", "email")},
		{name: "password mismatch", modify: func(r *team.Registration) { r.PasswordConfirm = "other" }, check: fieldErr("password_confirm", "eqfield")},
		{name: "short password", modify: func(r *team.Registration) { r.Password, r.PasswordConfirm = "abc1", "abc1" }, check: fieldErr("password", "pwdminlen")},
		{name: "password like leader name", modify: func(r *team.Registration) {
			r.Password, r.PasswordConfirm = "ashakumar1", "ashakumar1"
		}, check: fieldErr("password", "pwdtoosim")},
		{name: "blank leader", modify: func(r *team.Registration) { r.LeaderName = "   " }, check: fieldErr("leader_name", "required")},
		{name: "no members", modify: func(r *team.Registration) { r.Members = nil }, check: fieldErr("members", "required")},
		{name: "too many members", modify: func(r *team.Registration) {
			r.Members = append(r.Members, team.NewMember{Name: "C", RegNumber: "21CS003"},
				team.NewMember{Name: "D", RegNumber: "21CS004"}, team.NewMember{Name: "E", RegNumber: "21CS005"})
		}, check: fieldErr("members", "max")},
		{name: "bad reg number", modify: func(r *team.Registration) { r.Members[1].RegNumber = "21-CS-002" }, check: fieldErr("reg_number", "alphanum_")},
		{name: "duplicate reg numbers", modify: func(r *team.Registration) { r.Members[1].RegNumber = "21CS001" }, check: domainErr(team.ErrDuplicateRegNumber)},
		{name: "taken reg number", modify: func(r *team.Registration) { r.Members[1].RegNumber = "20cs001" }, check: domainErr(evaluation.ErrRegNumberExists)},
		{name: "taken email", modify: func(r *team.Registration) { r.Email = "RAO@evalx.test" }, check: domainErr(user.ErrEmailExists)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRegistration()
			tt.modify(&reg)
			tt.check(t, env.TeamSvc.ValidateRegistration(ctx, &reg))
		})
	}
}

func TestService_QueryAndGet(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	rao := testutil.CreateUser(t, env.Users, "Dr. Rao", "rao@evalx.test", "", user.RoleGuide, true)
	iyer := testutil.CreateUser(t, env.Users, "Dr. Iyer", "iyer@evalx.test", "", user.RoleGuide, true)
	testutil.CreateTeam(t, env, "TM00002", rao.ID, "21CS004", "21CS003")
	testutil.CreateTeam(t, env, "TM00001", iyer.ID, "21CS001")
	testutil.CreateTeam(t, env, "TM00003", "", "21CS005")

	teams, err := env.TeamSvc.Query(ctx, nil, team.ByID)
	require.NoError(t, err)
	require.Len(t, teams, 3)
	assert.Equal(t, []string{"TM00001", "TM00002", "TM00003"}, []string{teams[0].ID, teams[1].ID, teams[2].ID})
	assert.Equal(t, "Dr. Iyer", teams[0].GuideName)
	assert.Equal(t, "iyer@evalx.test", teams[0].GuideEmail)
	assert.False(t, teams[2].HasGuide())
	require.Len(t, teams[1].Members, 2)
	assert.Equal(t, "21CS003", teams[1].Members[0].RegNumber)

	mine, err := env.TeamSvc.Query(ctx, &team.QueryFilter{GuideID: rao.ID}, nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "TM00002", mine[0].ID)

	got, err := env.TeamSvc.GetByID(ctx, " tm00002 ")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rao", got.GuideName)
	assert.Len(t, got.Members, 2)

	_, err = env.TeamSvc.GetByID(ctx, "TM09999")
	assert.True(t, core.IsMissingReference(err))
}

func TestService_ApproveTitleAndReopen(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	testutil.CreateTeam(t, env, "TM00001", "", "21CS001")

	_, err := env.TeamSvc.ApproveTitle(ctx, "TM00001", team.ApproveTitle{ProjectTitle: "  "})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	tm, err := env.TeamSvc.ApproveTitle(ctx, "tm00001", team.ApproveTitle{ProjectTitle: " Smart Irrigation "})
	require.NoError(t, err)
	assert.Equal(t, "Smart Irrigation", tm.ProjectTitle)
	assert.True(t, tm.IsApproved)

	tm, err = env.TeamSvc.Reopen(ctx, "TM00001")
	require.NoError(t, err)
	assert.False(t, tm.IsApproved)
	assert.Equal(t, "Smart Irrigation", tm.ProjectTitle)

	_, err = env.TeamSvc.ApproveTitle(ctx, "TM09999", team.ApproveTitle{ProjectTitle: "X"})
	assert.Equal(t, team.ErrNotFound, err)
	_, err = env.TeamSvc.Reopen(ctx, "TM09999")
	assert.Equal(t, team.ErrNotFound, err)
}
