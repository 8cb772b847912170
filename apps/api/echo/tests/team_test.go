package tests

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/kelna-terese/EvalX/apps/api/echo"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
	testutil "github.com/kelna-terese/EvalX/tests"
)

func newRegistration() team.Registration {
	return team.Registration{
		Email:           "asha@team.test",
		Password:        testPassword,
		PasswordConfirm: testPassword,
		LeaderName:      "Asha Kumar",
		Members: []team.NewMember{
			{Name: "Asha Kumar", RegNumber: "21CS001"},
			{Name: "Bala Murugan", RegNumber: "21CS002"},
		},
	}
}

func Test_teamApi_register(t *testing.T) {
	t.Run("no guide available", func(t *testing.T) {
		srv, env := setup(t)

		req, rec := newRequest(http.MethodPost, "/v1/teams/register", marchallObj(t, newRegistration()))
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: team.ErrNoGuideAvailable.Error()})}, rec)

		users, err := env.UserSvc.Query(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("validation", func(t *testing.T) {
		srv, env := setup(t)
		guide := testutil.CreateUser(t, env.Users, "Dr. Rao", "rao@evalx.test", "", user.RoleGuide, true)
		testutil.CreateTeam(t, env, "TM00001", guide.ID, "20CS001")

		mismatch := newRegistration()
		mismatch.PasswordConfirm = "lol"
		tooMany := newRegistration()
		tooMany.Members = append(tooMany.Members, team.NewMember{Name: "C", RegNumber: "21CS003"}, team.NewMember{Name: "D", RegNumber: "21CS004"}, team.NewMember{Name: "E", RegNumber: "21CS005"})
		dupeReg := newRegistration()
		dupeReg.Members[1].RegNumber = "21cs001"
		takenReg := newRegistration()
		takenReg.Members[1].RegNumber = "20CS001"
		takenEmail := newRegistration()
		takenEmail.Email = "RAO@evalx.test"

		tests := []httpTest{
			{
				name: "required fields", wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, map[string]string{
					"email": "this field is required", "password": "this field is required",
					"leader_name": "this field is required", "members": "this field is required",
				}),
			},
			{
				name: "password mismatch", body: marchallObj(t, mismatch), wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
			},
			{name: "too many members", body: marchallObj(t, tooMany), wantCode: http.StatusBadRequest},
			{
				name: "duplicate reg number", body: marchallObj(t, dupeReg), wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, map[string]string{"members": team.ErrDuplicateRegNumber.Error()}),
			},
			{
				name: "reg number taken", body: marchallObj(t, takenReg), wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, map[string]string{"members": "a member with this registration number already exists"}),
			},
			{
				name: "email taken", body: marchallObj(t, takenEmail), wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
			},
		}
		for i := range tests {
			tests[i].method = http.MethodPost
			tests[i].path = "/v1/teams/register"
		}
		runTests(t, srv, tests)
	})

	t.Run("registered", func(t *testing.T) {
		srv, env := setup(t)
		guide := testutil.CreateUser(t, env.Users, "Dr. Rao", "rao@evalx.test", "", user.RoleGuide, true)

		req, rec := newRequest(http.MethodPost, "/v1/teams/register", marchallObj(t, newRegistration()))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var view echoapi.TeamView
		unmarshal(t, rec, &view)
		assert.Regexp(t, regexp.MustCompile(`^TM\d{5}$`), view.ID)
		assert.Equal(t, guide.ID, view.GuideID)
		assert.Equal(t, "Dr. Rao", view.GuideName)
		require.Len(t, view.Members, 2)
		assert.Equal(t, "21CS001", view.Members[0].RegNumber)
		assert.Len(t, env.Mail.SentMessages(), 1)

		// the team can log in
		body := marchallObj(t, echoapi.LoginRequest{Email: "asha@team.test", Password: testPassword, Role: user.RoleTeam})
		req, rec = newRequest(http.MethodPost, "/v1/users/login", body)
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_teamApi_query(t *testing.T) {
	srv, env := setup(t)
	coordinator, hod, guide := staff(t, env)
	other := testutil.CreateUser(t, env.Users, "Dr. Other", "other@evalx.test", "", user.RoleGuide, true)
	tm1 := testutil.CreateTeam(t, env, "TM00001", guide.ID, "21CS001")
	tm2 := testutil.CreateTeam(t, env, "TM00002", other.ID, "21CS002")

	teamUsr, err := env.UserSvc.GetByID(context.Background(), tm1.UserID)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "auth required", path: "/v1/teams", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "staff only", path: "/v1/teams", token: getToken(t, env, teamUsr), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "hod lists all", path: "/v1/teams", token: getToken(t, env, hod), wantCode: http.StatusOK},
		{name: "coordinator lists all", path: "/v1/teams", token: getToken(t, env, coordinator), wantCode: http.StatusOK},
		{name: "not found", path: "/v1/teams/TM09999", token: getToken(t, env, hod), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "team not found"})},
		{name: "guide sees own team", path: "/v1/teams/tm00001", token: getToken(t, env, guide), wantCode: http.StatusOK},
		{name: "guide cannot see others", path: "/v1/teams/TM00002", token: getToken(t, env, guide), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runTests(t, srv, tests)

	t.Run("views", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teams", getToken(t, env, coordinator))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var views []echoapi.TeamView
		unmarshal(t, rec, &views)
		require.Len(t, views, 2)
		ids := []string{views[0].ID, views[1].ID}
		assert.ElementsMatch(t, []string{tm1.ID, tm2.ID}, ids)
		for _, v := range views {
			require.Len(t, v.Members, 1)
			assert.Equal(t, 0.0, v.Members[0].Totals.FinalInternal)
		}
	})
}

func Test_teamApi_approveAndReopen(t *testing.T) {
	srv, env := setup(t)
	coordinator, hod, guide := staff(t, env)
	tm := testutil.CreateTeam(t, env, "TM00001", guide.ID, "21CS001")
	coordToken := getToken(t, env, coordinator)

	tests := []httpTest{
		{
			name: "coordinator only", path: "/v1/teams/TM00001/approve", token: getToken(t, env, hod),
			body: marchallObj(t, team.ApproveTitle{ProjectTitle: "EvalX"}), wantCode: http.StatusForbidden,
		},
		{
			name: "title required", path: "/v1/teams/TM00001/approve", token: coordToken,
			body: marchallObj(t, team.ApproveTitle{ProjectTitle: "  "}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"project_title": "this field is required"}),
		},
		{
			name: "not found", path: "/v1/teams/TM09999/approve", token: coordToken,
			body: marchallObj(t, team.ApproveTitle{ProjectTitle: "EvalX"}), wantCode: http.StatusNotFound,
		},
		{
			name: "approved", path: "/v1/teams/TM00001/approve", token: coordToken,
			body: marchallObj(t, team.ApproveTitle{ProjectTitle: " Project Evaluation Portal "}), wantCode: http.StatusOK,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
	}
	runTests(t, srv, tests)

	got, err := env.TeamSvc.GetByID(context.Background(), tm.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
	assert.Equal(t, "Project Evaluation Portal", got.ProjectTitle)

	req, rec := newAuthRequest(http.MethodPost, "/v1/teams/TM00001/reopen", coordToken)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err = env.TeamSvc.GetByID(context.Background(), tm.ID)
	require.NoError(t, err)
	assert.False(t, got.IsApproved)
	assert.Equal(t, "Project Evaluation Portal", got.ProjectTitle)
}
