package inmemdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
)

func TestDB_InTx(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	t.Run("commit", func(t *testing.T) {
		db := Open()
		users := NewUserRepository(db)
		err := db.InTx(ctx, func(exec core.DBExecutor) error {
			_, err := users.CreateUser(ctx, user.User{Email: "a@evalx.test", Role: user.RoleHOD}, exec)
			return err
		})
		require.NoError(t, err)
		assert.Len(t, db.users, 1)
	})

	t.Run("rollback", func(t *testing.T) {
		db := Open()
		users := NewUserRepository(db)
		teams := NewTeamRepository(db)
		members := NewMemberRepository(db)
		kept, err := users.CreateUser(ctx, user.User{Email: "kept@evalx.test", Role: user.RoleGuide})
		require.NoError(t, err)

		err = db.InTx(ctx, func(exec core.DBExecutor) error {
			usr, err := users.CreateUser(ctx, user.User{Email: "tm@team.test", Role: user.RoleTeam}, exec)
			require.NoError(t, err)
			_, err = teams.CreateTeam(ctx, team.Team{ID: "TM00001", UserID: usr.ID, GuideID: kept.ID}, exec)
			require.NoError(t, err)
			_, err = members.CreateMembers(ctx, []evaluation.Member{evaluation.NewMember("TM00001", "Asha", "21CS001", true)}, exec)
			require.NoError(t, err)

			// uncommitted writes are visible within the transaction
			exists, err := teams.TeamExists(ctx, "TM00001", exec)
			require.NoError(t, err)
			assert.True(t, exists)
			return errBoom
		})
		assert.Equal(t, errBoom, err)

		assert.Len(t, db.users, 1)
		assert.Contains(t, db.users, kept.ID)
		assert.Empty(t, db.teams)
		assert.Empty(t, db.members)
		assert.Zero(t, db.memberSeq)
	})

	t.Run("rollback restores scores", func(t *testing.T) {
		db := Open()
		members := NewMemberRepository(db)
		usr, err := NewUserRepository(db).CreateUser(ctx, user.User{Email: "tm@team.test", Role: user.RoleTeam})
		require.NoError(t, err)
		_, err = NewTeamRepository(db).CreateTeam(ctx, team.Team{ID: "TM00001", UserID: usr.ID})
		require.NoError(t, err)
		ms, err := members.CreateMembers(ctx, []evaluation.Member{evaluation.NewMember("TM00001", "Asha", "21CS001", true)})
		require.NoError(t, err)
		id := ms[0].ID

		err = db.InTx(ctx, func(exec core.DBExecutor) error {
			require.NoError(t, members.SaveAttendance(ctx, map[int64]float64{id: 5}, exec))
			return errBoom
		})
		assert.Equal(t, errBoom, err)
		m, err := members.GetMember(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, m.Attendance)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		db := Open()
		users := NewUserRepository(db)
		assert.PanicsWithValue(t, "boom", func() {
			_ = db.InTx(ctx, func(exec core.DBExecutor) error {
				_, err := users.CreateUser(ctx, user.User{Email: "tm@team.test", Role: user.RoleTeam}, exec)
				require.NoError(t, err)
				panic("boom")
			})
		})
		assert.Empty(t, db.users)

		// the store is usable after the panic
		err := db.InTx(ctx, func(exec core.DBExecutor) error {
			_, err := users.CreateUser(ctx, user.User{Email: "a@evalx.test", Role: user.RoleHOD}, exec)
			return err
		})
		require.NoError(t, err)
		assert.Len(t, db.users, 1)
	})

	t.Run("cancelled context", func(t *testing.T) {
		db := Open()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		called := false
		err := db.InTx(cctx, func(core.DBExecutor) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("foreign executor", func(t *testing.T) {
		db, other := Open(), Open()
		assert.False(t, db.inTx(nil))
		assert.False(t, db.inTx([]core.DBExecutor{&tx{db: other}}))
		assert.True(t, db.inTx([]core.DBExecutor{&tx{db: db}}))
	})
}

func TestUserRepository_DeleteUsersByID(t *testing.T) {
	ctx := context.Background()
	db := Open()
	users := NewUserRepository(db)
	teams := NewTeamRepository(db)
	now := time.Now().UTC()

	guide, err := users.CreateUser(ctx, user.User{Email: "guide@evalx.test", Role: user.RoleGuide, IsActive: true, CreatedAt: now})
	require.NoError(t, err)
	owner, err := users.CreateUser(ctx, user.User{Email: "tm1@team.test", Role: user.RoleTeam, CreatedAt: now})
	require.NoError(t, err)
	other, err := users.CreateUser(ctx, user.User{Email: "tm2@team.test", Role: user.RoleTeam, CreatedAt: now})
	require.NoError(t, err)
	_, err = teams.CreateTeam(ctx, team.Team{ID: "TM00001", UserID: owner.ID, GuideID: guide.ID})
	require.NoError(t, err)
	_, err = teams.CreateTeam(ctx, team.Team{ID: "TM00002", UserID: other.ID, GuideID: guide.ID})
	require.NoError(t, err)
	members := NewMemberRepository(db)
	_, err = members.CreateMembers(ctx, []evaluation.Member{evaluation.NewMember("TM00001", "Asha", "21CS001", true)})
	require.NoError(t, err)

	cnt, err := users.DeleteUsersByID(ctx, []string{owner.ID, guide.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, cnt)

	// the owner's team goes with its members; the guide's teams are left unassigned
	assert.NotContains(t, db.teams, "TM00001")
	assert.Empty(t, db.members)
	require.Contains(t, db.teams, "TM00002")
	assert.Empty(t, db.teams["TM00002"].GuideID)
}

func TestTeamRepository_GuideLoads(t *testing.T) {
	ctx := context.Background()
	db := Open()
	users := NewUserRepository(db)
	teams := NewTeamRepository(db)

	busy, err := users.CreateUser(ctx, user.User{Name: "Busy", Email: "busy@evalx.test", Role: user.RoleGuide, IsActive: true})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, user.User{Name: "Idle", Email: "idle@evalx.test", Role: user.RoleGuide, IsActive: true})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, user.User{Name: "Gone", Email: "gone@evalx.test", Role: user.RoleGuide})
	require.NoError(t, err)
	owner, err := users.CreateUser(ctx, user.User{Email: "tm@team.test", Role: user.RoleTeam})
	require.NoError(t, err)
	_, err = teams.CreateTeam(ctx, team.Team{ID: "TM00001", UserID: owner.ID, GuideID: busy.ID})
	require.NoError(t, err)

	guides, err := teams.GuideLoads(ctx)
	require.NoError(t, err)
	require.Len(t, guides, 2)
	loads := map[string]int{}
	for _, g := range guides {
		loads[g.Name] = g.Load
	}
	assert.Equal(t, map[string]int{"Busy": 1, "Idle": 0}, loads)
	assert.Less(t, guides[0].ID, guides[1].ID)

	_, err = teams.CreateTeam(ctx, team.Team{ID: "TM00002", UserID: "missing"})
	assert.Equal(t, user.ErrNotFound, err)
}
