package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/submission"
)

const (
	slotColumns      = "id, slot_type, title, deadline, review_date, is_active, created_at"
	submissionSelect = `SELECT s.id, s.team_id, s.slot_id, d.slot_type, s.file_path, s.submitted_at, s.status
		FROM team_submissions s JOIN document_slots d ON d.id = s.slot_id`
)

type slotRow struct {
	ID         int64     `db:"id"`
	Type       string    `db:"slot_type"`
	Title      string    `db:"title"`
	Deadline   null.Time `db:"deadline"`
	ReviewDate null.Time `db:"review_date"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r slotRow) slot() submission.Slot {
	s := submission.Slot{
		ID:         r.ID,
		Type:       submission.SlotType(r.Type),
		Title:      r.Title,
		Deadline:   r.Deadline,
		ReviewDate: r.ReviewDate,
		IsActive:   r.IsActive,
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if s.Deadline.Valid {
		s.Deadline.Time = s.Deadline.Time.UTC()
	}
	return s
}

type submissionRow struct {
	ID          int64     `db:"id"`
	TeamID      string    `db:"team_id"`
	SlotID      int64     `db:"slot_id"`
	SlotType    string    `db:"slot_type"`
	FilePath    string    `db:"file_path"`
	SubmittedAt time.Time `db:"submitted_at"`
	Status      string    `db:"status"`
}

func (r submissionRow) submission() submission.Submission {
	return submission.Submission{
		ID:          r.ID,
		TeamID:      r.TeamID,
		SlotID:      r.SlotID,
		SlotType:    submission.SlotType(r.SlotType),
		FilePath:    r.FilePath,
		SubmittedAt: r.SubmittedAt.UTC(),
		Status:      r.Status,
	}
}

type submissionRepository struct {
	base
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{base{db: db}}
}

func (repo submissionRepository) UpsertSlot(ctx context.Context, slot submission.Slot, exec ...core.DBExecutor) (submission.Slot, error) {
	var row slotRow
	err := sqlx.GetContext(ctx, repo.getExec(exec), &row,
		`INSERT INTO document_slots (slot_type, title, deadline, review_date, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slot_type) DO UPDATE SET
			title = EXCLUDED.title, deadline = EXCLUDED.deadline,
			review_date = EXCLUDED.review_date, is_active = EXCLUDED.is_active
		RETURNING `+slotColumns,
		string(slot.Type), slot.Title, slot.Deadline, slot.ReviewDate, slot.IsActive, slot.CreatedAt.UTC(),
	)
	if err != nil {
		return submission.Slot{}, errors.Wrap(err, "upserting slot")
	}
	return row.slot(), nil
}

func (repo submissionRepository) QuerySlots(ctx context.Context, filter *submission.SlotFilter, exec ...core.DBExecutor) ([]submission.Slot, error) {
	q := "SELECT " + slotColumns + " FROM document_slots"
	if filter != nil && filter.ActiveOnly {
		q += " WHERE is_active"
	}
	q += " ORDER BY deadline ASC NULLS LAST, id ASC"

	var rows []slotRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying slots")
	}
	slots := make([]submission.Slot, 0, len(rows))
	for _, r := range rows {
		slots = append(slots, r.slot())
	}
	return slots, nil
}

func (repo submissionRepository) getSlot(ctx context.Context, exec []core.DBExecutor, cond string, arg interface{}) (submission.Slot, error) {
	var row slotRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, "SELECT "+slotColumns+" FROM document_slots WHERE "+cond, arg); err != nil {
		if err == sql.ErrNoRows {
			return submission.Slot{}, submission.ErrSlotNotFound
		}
		return submission.Slot{}, errors.Wrap(err, "finding slot")
	}
	return row.slot(), nil
}

func (repo submissionRepository) GetSlotByID(ctx context.Context, id int64, exec ...core.DBExecutor) (submission.Slot, error) {
	return repo.getSlot(ctx, exec, "id = $1", id)
}

func (repo submissionRepository) GetSlotByType(ctx context.Context, t submission.SlotType, exec ...core.DBExecutor) (submission.Slot, error) {
	return repo.getSlot(ctx, exec, "slot_type = $1", string(t))
}

// DeleteSlot relies on the foreign key to delete the slot's submissions.
func (repo submissionRepository) DeleteSlot(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM document_slots WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting slot")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return submission.ErrSlotNotFound
	}
	return nil
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	err := sqlx.GetContext(ctx, repo.getExec(exec), &sub.ID,
		`INSERT INTO team_submissions (team_id, slot_id, file_path, submitted_at, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		sub.TeamID, sub.SlotID, sub.FilePath, sub.SubmittedAt.UTC(), sub.Status,
	)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.SubmissionFilter, exec ...core.DBExecutor) ([]submission.Submission, error) {
	q := submissionSelect
	var args []interface{}
	if filter != nil && filter.TeamID != "" {
		q += " WHERE s.team_id = $1"
		args = append(args, filter.TeamID)
	}
	q += " ORDER BY s.id ASC"

	var rows []submissionRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.submission())
	}
	return subs, nil
}
