package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kelna-terese/EvalX/core"
)

type base struct {
	db *sqlx.DB
}

// getExec returns the transaction that svcExec carries, or the repository's db.
func (b base) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return b.db
}

type Transactor struct {
	db *sqlx.DB
}

var _ core.Transactor = (*Transactor)(nil) // interface compliance check

func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// InTx runs fn in a database transaction, committed when fn succeeds and rolled back otherwise.
func (t *Transactor) InTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-throw panic after rollback
		}
	}()
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back transaction: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// orderByClause renders orderings on allowed columns only; allowed maps field names to columns.
func orderByClause(ordering []core.DBOrdering, allowed map[string]string, fallback string) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := allowed[ord.Field]; ok {
			orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(orderList) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(orderList, ", ") + ", " + fallback
}

// where joins conditions with AND.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
