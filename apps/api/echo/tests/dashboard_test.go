package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/kelna-terese/EvalX/apps/api/echo"
	"github.com/kelna-terese/EvalX/core/submission"
	"github.com/kelna-terese/EvalX/core/user"
	testutil "github.com/kelna-terese/EvalX/tests"
)

func Test_dashboardApi(t *testing.T) {
	srv, env := setup(t)
	now := deadline.Add(-time.Hour)
	setNow(t, now)
	ctx := context.Background()

	coordinator, hod, guide := staff(t, env)
	other := testutil.CreateUser(t, env.Users, "Dr. Other", "other@evalx.test", "", user.RoleGuide, true)
	tm := testutil.CreateTeam(t, env, "TM00001", guide.ID, "21CS001", "21CS002")
	testutil.CreateTeam(t, env, "TM00002", other.ID, "21CS003")
	teamUsr, err := env.UserSvc.GetByID(ctx, tm.UserID)
	require.NoError(t, err)
	teamToken := getToken(t, env, teamUsr)

	upd, err := env.SubmissionSvc.SetDate(ctx, submission.SetDate{Type: submission.Proposal, Date: deadline})
	require.NoError(t, err)
	_, err = env.SubmissionSvc.SetDate(ctx, submission.SetDate{Type: submission.Rev1, Date: deadline})
	require.NoError(t, err)
	for _, name := range []string{"v1.pdf", "v2.pdf"} {
		_, err = env.SubmissionSvc.Upload(ctx, tm.ID, upd.Slot.ID, name, strings.NewReader("%PDF"))
		require.NoError(t, err)
	}

	tests := []httpTest{
		{name: "team: auth required", path: "/v1/dashboard/team", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "team: staff forbidden", path: "/v1/dashboard/team", token: getToken(t, env, coordinator), wantCode: http.StatusForbidden},
		{name: "coordinator: team forbidden", path: "/v1/dashboard/coordinator", token: teamToken, wantCode: http.StatusForbidden},
		{name: "hod: guide forbidden", path: "/v1/dashboard/hod", token: getToken(t, env, guide), wantCode: http.StatusForbidden},
		{name: "guide: hod forbidden", path: "/v1/dashboard/guide", token: getToken(t, env, hod), wantCode: http.StatusForbidden},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runTests(t, srv, tests)

	t.Run("team", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard/team", teamToken)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dash echoapi.TeamDashboard
		unmarshal(t, rec, &dash)
		assert.Equal(t, tm.ID, dash.Team.ID)
		assert.Len(t, dash.Team.Members, 2)
		assert.Len(t, dash.Slots, 2)
		assert.Len(t, dash.Submissions, 2)
		assert.Equal(t, []int64{upd.Slot.ID}, dash.SubmittedSlots)
	})

	t.Run("coordinator", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard/coordinator", getToken(t, env, coordinator))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dash echoapi.CoordinatorDashboard
		unmarshal(t, rec, &dash)
		assert.Len(t, dash.Teams, 2)
		assert.Len(t, dash.Members, 3)
		assert.Contains(t, dash.Slots, submission.Proposal)
		assert.Contains(t, dash.Slots, submission.Rev1)
		assert.Equal(t, "/uploads/submissions/TM00001/PROPOSAL_1773162000_v2.pdf", dash.Submissions[tm.ID][submission.Proposal])
		assert.True(t, dash.ServerTime.Equal(now))
	})

	t.Run("hod", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard/hod", getToken(t, env, hod))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var views []echoapi.TeamView
		unmarshal(t, rec, &views)
		require.Len(t, views, 2)
		assert.Equal(t, "TM00001", views[0].ID)
		assert.Equal(t, "TM00002", views[1].ID)
	})

	t.Run("guide", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard/guide", getToken(t, env, guide))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var views []echoapi.TeamView
		unmarshal(t, rec, &views)
		require.Len(t, views, 1)
		assert.Equal(t, tm.ID, views[0].ID)
	})
}
