package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
)

const teamSelect = `SELECT t.id, t.user_id, t.guide_id, g.name AS guide_name, g.email AS guide_email,
	t.leader_name, t.project_title, t.is_approved, t.created_at
	FROM teams t LEFT JOIN users g ON g.id = t.guide_id`

var teamOrderable = map[string]string{
	"id":            "t.id",
	"created_at":    "t.created_at",
	"project_title": "t.project_title",
}

type teamRow struct {
	ID           string      `db:"id"`
	UserID       string      `db:"user_id"`
	GuideID      null.String `db:"guide_id"`
	GuideName    null.String `db:"guide_name"`
	GuideEmail   null.String `db:"guide_email"`
	LeaderName   string      `db:"leader_name"`
	ProjectTitle null.String `db:"project_title"`
	IsApproved   bool        `db:"is_approved"`
	CreatedAt    time.Time   `db:"created_at"`
}

func (r teamRow) team() team.Team {
	return team.Team{
		ID:           r.ID,
		UserID:       r.UserID,
		GuideID:      r.GuideID.String,
		GuideName:    r.GuideName.String,
		GuideEmail:   r.GuideEmail.String,
		LeaderName:   r.LeaderName,
		ProjectTitle: r.ProjectTitle.String,
		IsApproved:   r.IsApproved,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type guideRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	TeamCount int    `db:"team_count"`
}

type teamRepository struct {
	base
}

var _ team.Repository = (*teamRepository)(nil) // interface compliance check

func NewTeamRepository(db *sqlx.DB) *teamRepository {
	return &teamRepository{base{db: db}}
}

// LockForAllocation takes a lock that conflicts with itself and with team writes,
// held until the end of the calling transaction.
func (repo teamRepository) LockForAllocation(ctx context.Context, exec ...core.DBExecutor) error {
	if _, err := repo.getExec(exec).ExecContext(ctx, "LOCK TABLE teams IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return errors.Wrap(err, "locking teams")
	}
	return nil
}

func (repo teamRepository) GuideLoads(ctx context.Context, exec ...core.DBExecutor) ([]team.Guide, error) {
	var rows []guideRow
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows,
		`SELECT u.id, u.name, COUNT(t.id) AS team_count
		FROM users u LEFT JOIN teams t ON t.guide_id = u.id
		WHERE u.role = $1 AND u.is_active
		GROUP BY u.id, u.name
		ORDER BY u.id`, user.RoleGuide)
	if err != nil {
		return nil, errors.Wrap(err, "querying guide loads")
	}
	guides := make([]team.Guide, 0, len(rows))
	for _, r := range rows {
		guides = append(guides, team.Guide{ID: r.ID, Name: r.Name, Load: r.TeamCount})
	}
	return guides, nil
}

func (repo teamRepository) TeamExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error) {
	var found bool
	err := sqlx.GetContext(ctx, repo.getExec(exec), &found, "SELECT EXISTS (SELECT 1 FROM teams WHERE id = $1)", id)
	if err != nil {
		return false, errors.Wrap(err, "checking team ID")
	}
	return found, nil
}

func (repo teamRepository) CreateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO teams (id, user_id, guide_id, leader_name, project_title, is_approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, null.NewString(t.GuideID, t.GuideID != ""), t.LeaderName,
		null.NewString(t.ProjectTitle, t.ProjectTitle != ""), t.IsApproved, t.CreatedAt.UTC(),
	)
	if err != nil {
		return team.Team{}, errors.Wrap(err, "inserting team")
	}
	t.Members = nil
	return t, nil
}

func (repo teamRepository) QueryTeams(ctx context.Context, filter *team.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]team.Team, error) {
	var conds []string
	var args []interface{}
	if filter != nil && filter.GuideID != "" {
		conds = append(conds, "t.guide_id = ?")
		args = append(args, filter.GuideID)
	}

	exe := repo.getExec(exec)
	q := exe.Rebind(teamSelect + where(conds) + orderByClause(ordering, teamOrderable, "t.id ASC"))
	var rows []teamRow
	if err := sqlx.SelectContext(ctx, exe, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying teams")
	}
	teams := make([]team.Team, 0, len(rows))
	for _, r := range rows {
		teams = append(teams, r.team())
	}
	return teams, nil
}

func (repo teamRepository) GetTeam(ctx context.Context, filter team.GetFilter, exec ...core.DBExecutor) (team.Team, error) {
	var q string
	var arg interface{}
	switch {
	case filter.ID != "":
		q, arg = teamSelect+" WHERE t.id = $1", filter.ID
	case filter.UserID != "":
		q, arg = teamSelect+" WHERE t.user_id::text = $1", filter.UserID
	default:
		return team.Team{}, team.ErrNotFound
	}

	var row teamRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return team.Team{}, team.ErrNotFound
		}
		return team.Team{}, errors.Wrap(err, "finding team")
	}
	return row.team(), nil
}

func (repo teamRepository) UpdateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	res, err := repo.getExec(exec).ExecContext(ctx,
		"UPDATE teams SET project_title = $2, is_approved = $3 WHERE id = $1",
		t.ID, null.NewString(t.ProjectTitle, t.ProjectTitle != ""), t.IsApproved)
	if err != nil {
		return team.Team{}, errors.Wrap(err, "updating team")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return team.Team{}, team.ErrNotFound
	}
	return t, nil
}
