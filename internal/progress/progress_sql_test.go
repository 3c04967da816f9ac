package progress

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/pot-code/course-reader/internal/infrastructure/driver"
	"github.com/stretchr/testify/assert"
)

type sqlStatement struct {
	query string
	args  []interface{}
}

type rowsAffected int64

func (n rowsAffected) LastInsertId() (int64, error) { return 0, nil }
func (n rowsAffected) RowsAffected() (int64, error) { return int64(n), nil }

type countRows struct {
	n int
}

func (r *countRows) Next() bool {
	if r.n == 0 {
		return false
	}
	r.n--
	return true
}

func (r *countRows) Scan(dest ...interface{}) error { return nil }
func (r *countRows) Err() error                     { return nil }
func (r *countRows) Close() error                   { return nil }

// recordingDB records statements and answers them from its fields, it is its
// own transaction
type recordingDB struct {
	accounts   map[string]bool
	affected   int64
	execErr    error
	opts       *driver.TxOptions
	statements []sqlStatement
	committed  bool
	rolledBack bool
}

var _ driver.ITransactionalDB = &recordingDB{}
var _ driver.ITx = &recordingDB{}

func (db *recordingDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	db.statements = append(db.statements, sqlStatement{query, args})
	if db.execErr != nil {
		return nil, db.execErr
	}
	return rowsAffected(db.affected), nil
}

func (db *recordingDB) QueryContext(ctx context.Context, query string, args ...interface{}) (driver.ISQLRows, error) {
	db.statements = append(db.statements, sqlStatement{query, args})
	if db.accounts[args[0].(string)] {
		return &countRows{1}, nil
	}
	return &countRows{}, nil
}

func (db *recordingDB) BeginTx(ctx context.Context, opts *driver.TxOptions) (driver.ITx, error) {
	db.opts = opts
	return db, nil
}

func (db *recordingDB) Commit(ctx context.Context) error {
	db.committed = true
	return nil
}

func (db *recordingDB) Rollback(ctx context.Context) error {
	if !db.committed {
		db.rolledBack = true
	}
	return nil
}

func (db *recordingDB) Close(ctx context.Context) error { return nil }
func (db *recordingDB) Ping(ctx context.Context) error  { return nil }

func (db *recordingDB) verbs() []string {
	verbs := make([]string, 0, len(db.statements))
	for _, s := range db.statements {
		verbs = append(verbs, strings.Fields(s.query)[0])
	}
	return verbs
}

func TestProgressSQL_SaveCourseProgress(t *testing.T) {
	first := VisitLesson(nil, "intro", true, testNow)
	first.Revision = 1
	next := VisitLesson(first, "variables", false, testNow)
	next.Revision = 2

	tests := []struct {
		name          string
		db            *recordingDB
		cp            *CourseProgress
		expected      int64
		wantErr       error
		wantVerbs     []string
		wantCommitted bool
	}{
		{
			name:      "account missing",
			db:        &recordingDB{},
			cp:        first,
			wantErr:   ErrAccountNotInitialized,
			wantVerbs: []string{"SELECT"},
		},
		{
			name:          "first record inserted",
			db:            &recordingDB{accounts: map[string]bool{"u1": true}, affected: 1},
			cp:            first,
			wantVerbs:     []string{"SELECT", "INSERT"},
			wantCommitted: true,
		},
		{
			name:      "concurrent insert",
			db:        &recordingDB{accounts: map[string]bool{"u1": true}, execErr: &pgconn.PgError{Code: "23505"}},
			cp:        first,
			wantErr:   ErrConflict,
			wantVerbs: []string{"SELECT", "INSERT"},
		},
		{
			name:          "revision matches",
			db:            &recordingDB{affected: 1},
			cp:            next,
			expected:      1,
			wantVerbs:     []string{"UPDATE"},
			wantCommitted: true,
		},
		{
			name:      "revision moved on",
			db:        &recordingDB{affected: 0},
			cp:        next,
			expected:  1,
			wantErr:   ErrConflict,
			wantVerbs: []string{"UPDATE"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewProgressSQL(tt.db)
			err := repo.SaveCourseProgress(context.Background(), "u1", "cpp-101", tt.cp, tt.expected)

			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.wantVerbs, tt.db.verbs())
			assert.Equal(t, tt.wantCommitted, tt.db.committed)
			assert.Equal(t, !tt.wantCommitted, tt.db.rolledBack)
			assert.Equal(t, sql.LevelReadCommitted, tt.db.opts.Isolation)
		})
	}
}

func TestProgressSQL_UpdateArguments(t *testing.T) {
	cp := VisitLesson(nil, "intro", true, testNow)
	cp.Revision = 4
	db := &recordingDB{affected: 1}

	assert.NoError(t, NewProgressSQL(db).SaveCourseProgress(context.Background(), "u1", "cpp-101", cp, 3))

	update := db.statements[0]
	assert.Contains(t, update.query, "revision=$9")
	assert.Equal(t, []interface{}{
		toMillis(testNow), toMillis(testNow), "intro",
		`["intro"]`, update.args[4], int64(4), "u1", "cpp-101", int64(3),
	}, update.args)
	assert.Contains(t, update.args[4], `"intro":{"completed":true`)
}
