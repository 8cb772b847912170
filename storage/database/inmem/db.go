package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/submission"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
)

type (
	// DB is an in-memory store. Writers are serialized: a transaction holds the writer lock until it ends
	// and restores the tables it started from when rolled back. Readers never block on a transaction.
	DB struct {
		txMu sync.Mutex
		mu   sync.RWMutex
		tables
	}

	tables struct {
		users       map[string]user.User
		teams       map[string]team.Team
		members     map[int64]evaluation.Member
		slots       map[int64]submission.Slot
		submissions map[int64]submission.Submission

		memberSeq     int64
		slotSeq       int64
		submissionSeq int64
	}

	// tx marks repository calls made within DB.InTx; it is never used to run queries.
	tx struct {
		core.DBExecutor
		db *DB
	}
)

var _ core.Transactor = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{tables: tables{
		users:       make(map[string]user.User),
		teams:       make(map[string]team.Team),
		members:     make(map[int64]evaluation.Member),
		slots:       make(map[int64]submission.Slot),
		submissions: make(map[int64]submission.Submission),
	}}
}

// InTx runs fn as a single transaction; the tables are restored if fn fails or panics.
func (db *DB) InTx(ctx context.Context, fn func(exec core.DBExecutor) error) (err error) {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	if err = ctx.Err(); err != nil {
		return err
	}

	db.mu.RLock()
	snapshot := db.tables.copy()
	db.mu.RUnlock()

	rollback := func() {
		db.mu.Lock()
		db.tables = snapshot
		db.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p) // re-throw panic after rollback
		}
	}()

	if err = fn(&tx{db: db}); err != nil {
		rollback()
		return err
	}
	return nil
}

// write runs fn holding the write lock, within its own transaction unless exec binds it to an ongoing one.
func (db *DB) write(exec []core.DBExecutor, fn func() error) error {
	if !db.inTx(exec) {
		db.txMu.Lock()
		defer db.txMu.Unlock()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn()
}

func (db *DB) inTx(exec []core.DBExecutor) bool {
	if len(exec) == 0 {
		return false
	}
	t, ok := exec[0].(*tx)
	return ok && t.db == db
}

func (t tables) copy() tables {
	cp := t
	cp.users = make(map[string]user.User, len(t.users))
	for k, v := range t.users {
		cp.users[k] = v
	}
	cp.teams = make(map[string]team.Team, len(t.teams))
	for k, v := range t.teams {
		cp.teams[k] = v
	}
	cp.members = make(map[int64]evaluation.Member, len(t.members))
	for k, v := range t.members {
		cp.members[k] = v.Copy()
	}
	cp.slots = make(map[int64]submission.Slot, len(t.slots))
	for k, v := range t.slots {
		cp.slots[k] = v
	}
	cp.submissions = make(map[int64]submission.Submission, len(t.submissions))
	for k, v := range t.submissions {
		cp.submissions[k] = v
	}
	return cp
}

// orderBy sorts items according to the orderings; cmp compares a & b on a field and returns
// a negative, zero or positive number. Unknown fields are ignored.
func orderBy[T any](items []T, ordering []core.DBOrdering, cmp func(field string, a, b T) (int, bool)) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range ordering {
			c, ok := cmp(ord.Field, items[i], items[j])
			if !ok || c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
