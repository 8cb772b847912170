package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
)

// Score columns are named <cycle>_<evaluator code>_<item>, e.g. r1_c_comp.
var (
	evaluatorCodes = map[evaluation.Evaluator]string{
		evaluation.Coordinator: "c",
		evaluation.HOD:         "h",
		evaluation.Guide:       "g",
	}
	reportColumns = map[evaluation.Evaluator]string{
		evaluation.Coordinator: "report_coord",
		evaluation.HOD:         "report_hod",
		evaluation.Guide:       "report_guide",
	}
	reviewItems = []string{"comp", "func", "pres", "oral", "know", "absent"}

	memberSelect = buildMemberSelect()

	memberOrderable = map[string]string{
		"reg_number": "reg_number",
		"name":       "name",
		"team_id":    "team_id",
	}
)

func reviewPrefix(c evaluation.Cycle, e evaluation.Evaluator) string {
	return string(c) + "_" + evaluatorCodes[e]
}

// buildMemberSelect aliases review columns as "<prefix>.<item>" so they scan into nested reviewCols.
func buildMemberSelect() string {
	cols := []string{"id", "team_id", "name", "reg_number", "is_leader"}
	for _, c := range evaluation.Cycles {
		for _, e := range evaluation.Evaluators {
			p := reviewPrefix(c, e)
			for _, item := range reviewItems {
				cols = append(cols, fmt.Sprintf(`%s_%s AS "%s.%s"`, p, item, p, item))
			}
		}
	}
	cols = append(cols,
		"s2_teamwork", "s2_tech_know", "s2_regularity",
		"report_coord", "report_hod", "report_guide", "attendance_marks")
	return "SELECT " + strings.Join(cols, ", ") + " FROM team_members"
}

type reviewCols struct {
	Comp   float64 `db:"comp"`
	Func   float64 `db:"func"`
	Pres   float64 `db:"pres"`
	Oral   float64 `db:"oral"`
	Know   float64 `db:"know"`
	Absent bool    `db:"absent"`
}

type memberRow struct {
	ID        int64  `db:"id"`
	TeamID    string `db:"team_id"`
	Name      string `db:"name"`
	RegNumber string `db:"reg_number"`
	IsLeader  bool   `db:"is_leader"`

	R1C reviewCols `db:"r1_c"`
	R1H reviewCols `db:"r1_h"`
	R1G reviewCols `db:"r1_g"`
	R2C reviewCols `db:"r2_c"`
	R2H reviewCols `db:"r2_h"`
	R2G reviewCols `db:"r2_g"`

	S2Teamwork   float64 `db:"s2_teamwork"`
	S2TechKnow   float64 `db:"s2_tech_know"`
	S2Regularity float64 `db:"s2_regularity"`
	ReportCoord  float64 `db:"report_coord"`
	ReportHOD    float64 `db:"report_hod"`
	ReportGuide  float64 `db:"report_guide"`
	Attendance   float64 `db:"attendance_marks"`
}

func (r memberRow) member() evaluation.Member {
	m := evaluation.NewMember(r.TeamID, r.Name, r.RegNumber, r.IsLeader)
	m.ID = r.ID
	reviews := map[evaluation.Cycle]map[evaluation.Evaluator]reviewCols{
		evaluation.Review1: {evaluation.Coordinator: r.R1C, evaluation.HOD: r.R1H, evaluation.Guide: r.R1G},
		evaluation.Review2: {evaluation.Coordinator: r.R2C, evaluation.HOD: r.R2H, evaluation.Guide: r.R2G},
	}
	for c, byEval := range reviews {
		for e, rc := range byEval {
			m.SetReview(c, e, evaluation.Review{
				Comp: rc.Comp, Func: rc.Func, Pres: rc.Pres, Oral: rc.Oral, Know: rc.Know, Absent: rc.Absent,
			})
		}
	}
	m.Sheet2 = evaluation.Sheet2{Teamwork: r.S2Teamwork, TechKnow: r.S2TechKnow, Regularity: r.S2Regularity}
	m.SetReport(evaluation.Coordinator, r.ReportCoord)
	m.SetReport(evaluation.HOD, r.ReportHOD)
	m.SetReport(evaluation.Guide, r.ReportGuide)
	m.Attendance = r.Attendance
	return m
}

type memberRepository struct {
	base
}

var _ evaluation.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db *sqlx.DB) *memberRepository {
	return &memberRepository{base{db: db}}
}

func (repo memberRepository) CheckRegNumberUniqueness(ctx context.Context, regNumbers []string, exec ...core.DBExecutor) error {
	if len(regNumbers) == 0 {
		return nil
	}
	lowered := make([]string, 0, len(regNumbers))
	for _, reg := range regNumbers {
		lowered = append(lowered, strings.ToLower(reg))
	}
	q, args, err := sqlx.In("SELECT COUNT(*) FROM team_members WHERE lower(reg_number) IN (?)", lowered)
	if err != nil {
		return errors.Wrap(err, "checking registration numbers")
	}
	exe := repo.getExec(exec)
	var cnt int
	if err = sqlx.GetContext(ctx, exe, &cnt, exe.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking registration numbers")
	}
	if cnt > 0 {
		return evaluation.ErrRegNumberExists
	}
	return nil
}

// CreateMembers inserts zero-scored members; column defaults provide the scores.
func (repo memberRepository) CreateMembers(ctx context.Context, members []evaluation.Member, exec ...core.DBExecutor) ([]evaluation.Member, error) {
	exe := repo.getExec(exec)
	created := make([]evaluation.Member, 0, len(members))
	for _, m := range members {
		var id int64
		err := sqlx.GetContext(ctx, exe, &id,
			"INSERT INTO team_members (team_id, name, reg_number, is_leader) VALUES ($1, $2, $3, $4) RETURNING id",
			m.TeamID, m.Name, m.RegNumber, m.IsLeader)
		if err != nil {
			if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
				return nil, evaluation.ErrRegNumberExists
			}
			return nil, errors.Wrap(err, "inserting member")
		}
		nm := evaluation.NewMember(m.TeamID, m.Name, m.RegNumber, m.IsLeader)
		nm.ID = id
		created = append(created, nm)
	}
	return created, nil
}

func (repo memberRepository) QueryMembers(ctx context.Context, filter *evaluation.MemberFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]evaluation.Member, error) {
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.IDs != nil {
			if len(filter.IDs) == 0 {
				return []evaluation.Member{}, nil
			}
			conds = append(conds, "id IN (?)")
			args = append(args, filter.IDs)
		}
		if filter.TeamIDs != nil {
			if len(filter.TeamIDs) == 0 {
				return []evaluation.Member{}, nil
			}
			conds = append(conds, "team_id IN (?)")
			args = append(args, filter.TeamIDs)
		}
		if filter.GuideID != "" {
			conds = append(conds, "team_id IN (SELECT id FROM teams WHERE guide_id::text = ?)")
			args = append(args, filter.GuideID)
		}
	}

	q, args, err := sqlx.In(memberSelect+where(conds)+orderByClause(ordering, memberOrderable, "id ASC"), args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	exe := repo.getExec(exec)
	var rows []memberRow
	if err = sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	members := make([]evaluation.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.member())
	}
	return members, nil
}

func (repo memberRepository) GetMember(ctx context.Context, id int64, exec ...core.DBExecutor) (evaluation.Member, error) {
	var row memberRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, memberSelect+" WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return evaluation.Member{}, evaluation.ErrMemberNotFound
		}
		return evaluation.Member{}, errors.Wrap(err, "finding member")
	}
	return row.member(), nil
}

// updateColumns runs one column-scoped UPDATE per member; values[id] holds the new column values.
func (repo memberRepository) updateColumns(ctx context.Context, cols []string, values map[int64][]interface{}, exec []core.DBExecutor) error {
	sets := make([]string, 0, len(cols))
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
	}
	q := fmt.Sprintf("UPDATE team_members SET %s WHERE id = $%d", strings.Join(sets, ", "), len(cols)+1)

	// a fixed order keeps concurrent batches from deadlocking on row locks
	ids := make([]int64, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	exe := repo.getExec(exec)
	for _, id := range ids {
		res, err := exe.ExecContext(ctx, q, append(values[id], id)...)
		if err != nil {
			return errors.Wrap(err, "updating member scores")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return evaluation.ErrMemberNotFound
		}
	}
	return nil
}

func (repo memberRepository) SaveReviews(ctx context.Context, c evaluation.Cycle, e evaluation.Evaluator, reviews map[int64]evaluation.Review, exec ...core.DBExecutor) error {
	p := reviewPrefix(c, e)
	cols := make([]string, 0, len(reviewItems))
	for _, item := range reviewItems {
		cols = append(cols, p+"_"+item)
	}
	values := make(map[int64][]interface{}, len(reviews))
	for id, rev := range reviews {
		values[id] = []interface{}{rev.Comp, rev.Func, rev.Pres, rev.Oral, rev.Know, rev.Absent}
	}
	return repo.updateColumns(ctx, cols, values, exec)
}

func (repo memberRepository) SaveSheet2(ctx context.Context, sheets map[int64]evaluation.Sheet2, exec ...core.DBExecutor) error {
	values := make(map[int64][]interface{}, len(sheets))
	for id, s := range sheets {
		values[id] = []interface{}{s.Teamwork, s.TechKnow, s.Regularity}
	}
	return repo.updateColumns(ctx, []string{"s2_teamwork", "s2_tech_know", "s2_regularity"}, values, exec)
}

func (repo memberRepository) SaveReports(ctx context.Context, e evaluation.Evaluator, marks map[int64]float64, exec ...core.DBExecutor) error {
	values := make(map[int64][]interface{}, len(marks))
	for id, mark := range marks {
		values[id] = []interface{}{mark}
	}
	return repo.updateColumns(ctx, []string{reportColumns[e]}, values, exec)
}

func (repo memberRepository) SaveAttendance(ctx context.Context, marks map[int64]float64, exec ...core.DBExecutor) error {
	values := make(map[int64][]interface{}, len(marks))
	for id, mark := range marks {
		values[id] = []interface{}{mark}
	}
	return repo.updateColumns(ctx, []string{"attendance_marks"}, values, exec)
}
