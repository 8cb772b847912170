package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/team"
)

func scoredMember(reg, name string) evaluation.Member {
	m := evaluation.NewMember("TM00001", name, reg, false)
	m.SetReview(evaluation.Review1, evaluation.Coordinator, evaluation.Review{Comp: 10, Func: 5, Pres: 5, Oral: 10, Know: 10})
	m.SetReview(evaluation.Review1, evaluation.HOD, evaluation.Review{Comp: 9, Func: 4, Absent: true})
	m.SetReview(evaluation.Review2, evaluation.Guide, evaluation.Review{Comp: 6, Func: 2, Pres: 3, Oral: 7, Know: 5})
	m.SetReport(evaluation.Guide, 9)
	m.SetReport(evaluation.HOD, 7)
	m.SetReport(evaluation.Coordinator, 8)
	m.Sheet2 = evaluation.Sheet2{Teamwork: 3, TechKnow: 5, Regularity: 4}
	m.Attendance = 9.5
	return m
}

func TestProjectReview(t *testing.T) {
	members := []evaluation.Member{scoredMember("21CS002", "Bala"), scoredMember("21CS001", "Asha")}

	sheet, err := ProjectReview(evaluation.Review1, members)
	require.NoError(t, err)
	assert.Equal(t, Review1, sheet.Kind)
	assert.Equal(t, "R1_Consolidated", sheet.Filename)
	assert.Equal(t, []string{"Reg No", "Name", "Guide", "HOD", "Coord", "Total (40)"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	// input order is kept
	assert.Equal(t, "21CS002", sheet.Rows[0][0])
	assert.Equal(t, []interface{}{"21CS001", "Asha", 0.0, 0.0, 40.0, 40 / 3.0}, sheet.Rows[1])

	sheet, err = ProjectReview(evaluation.Review2, members)
	require.NoError(t, err)
	assert.Equal(t, Review2, sheet.Kind)
	assert.Equal(t, "R2_Consolidated", sheet.Filename)
	assert.Equal(t, "REVIEW 2 CONSOLIDATED", sheet.Title)
	assert.Equal(t, []interface{}{"21CS002", "Bala", 23.0, 0.0, 0.0, 23 / 3.0}, sheet.Rows[0])

	_, err = ProjectReview("r3", members)
	assert.Equal(t, evaluation.ErrInvalidCycle, err)
}

func TestProjectAvgEvaluation(t *testing.T) {
	m := scoredMember("21CS001", "Asha")
	sheet := ProjectAvgEvaluation([]evaluation.Member{m})
	require.Len(t, sheet.Rows, 1)
	assert.Len(t, sheet.Rows[0], len(sheet.Headers))
	assert.Equal(t, []interface{}{"21CS001", "Asha", m.ConsolidatedReview(evaluation.Review1), m.ConsolidatedReview(evaluation.Review2), m.AvgEvaluation()}, sheet.Rows[0])
}

func TestProjectReportMarks(t *testing.T) {
	sheet := ProjectReportMarks([]evaluation.Member{scoredMember("21CS001", "Asha")})
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, []interface{}{"21CS001", "Asha", 9.0, 7.0, 8.0, 8.0}, sheet.Rows[0])
}

func TestProjectFinalInternal_RoundTrip(t *testing.T) {
	members := []evaluation.Member{
		scoredMember("21CS001", "Asha"),
		evaluation.NewMember("TM00001", "Bala", "21CS002", false),
	}
	sheet := ProjectFinalInternal(members)
	assert.Equal(t, "Final (75)", sheet.Headers[FinalColumn])
	require.Len(t, sheet.Rows, len(members))
	for i, m := range members {
		t.Run(m.RegNumber, func(t *testing.T) {
			row := sheet.Rows[i]
			assert.Len(t, row, len(sheet.Headers))
			assert.Equal(t, m.FinalInternal(), row[FinalColumn])
			assert.Equal(t, m.AvgEvaluation(), row[2])
			assert.Equal(t, m.Sheet2Total(), row[3])
			assert.Equal(t, m.ConsolidatedReport(), row[4])
			assert.Equal(t, m.Attendance, row[5])
		})
	}
	assert.Equal(t, 0.0, sheet.Rows[1][FinalColumn])
}

func TestProjectTeamMaster(t *testing.T) {
	teams := []team.Team{
		{
			ID: "TM00001", ProjectTitle: "Smart Irrigation", GuideID: "g1", GuideName: "Dr. Rao",
			Members: []evaluation.Member{
				evaluation.NewMember("TM00001", "Asha", "21CS001", true),
				evaluation.NewMember("TM00001", "Bala", "21CS002", false),
			},
		},
		{ID: "TM00002"},
	}
	sheet := ProjectTeamMaster(teams)
	assert.Equal(t, []string{"Team ID", "Project Title", "Guide", "Members Details"}, sheet.Headers)
	assert.Equal(t, []interface{}{"TM00001", "Smart Irrigation", "Dr. Rao", "Asha (21CS001), Bala (21CS002)"}, sheet.Rows[0])
	assert.Equal(t, []interface{}{"TM00002", team.TitleNotSet, team.GuideNotAssigned, ""}, sheet.Rows[1])
}

func TestProjectEmpty(t *testing.T) {
	assert.Empty(t, ProjectFinalInternal(nil).Rows)
	assert.NotNil(t, ProjectFinalInternal(nil).Rows)
	assert.NotNil(t, ProjectTeamMaster(nil).Rows)
}

type fakeMembers struct {
	members []evaluation.Member
	scope   evaluation.Scope
	err     error
}

func (f *fakeMembers) Members(ctx context.Context, scope evaluation.Scope) ([]evaluation.Member, error) {
	f.scope = scope
	return f.members, f.err
}

type fakeTeams struct {
	teams    []team.Team
	ordering []core.DBOrdering
}

func (f *fakeTeams) Query(ctx context.Context, filter *team.QueryFilter, ordering []core.DBOrdering) ([]team.Team, error) {
	f.ordering = ordering
	return f.teams, nil
}

func TestService_Generate(t *testing.T) {
	members := &fakeMembers{members: []evaluation.Member{scoredMember("21CS001", "Asha")}}
	teams := &fakeTeams{teams: []team.Team{{ID: "TM00001"}}}
	svc := NewService(members, teams)
	ctx := context.Background()

	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			sheet, err := svc.Generate(ctx, k)
			require.NoError(t, err)
			assert.Equal(t, k, sheet.Kind)
			assert.Len(t, sheet.Rows, 1)
		})
	}
	assert.Equal(t, evaluation.Scope{Evaluator: evaluation.Coordinator}, members.scope)
	assert.Equal(t, team.ByID, teams.ordering)

	_, err := svc.Generate(ctx, "pdf")
	assert.True(t, core.IsMissingReference(err))

	members.err = errors.New("boom")
	_, err = svc.Generate(ctx, FinalInternal)
	assert.EqualError(t, err, "boom")
}
