package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/pot-code/course-reader/internal/infrastructure/driver"
)

// ProgressSQL ProgressRepository on the account and course_progress tables,
// works with both mysql and postgres connections
type ProgressSQL struct {
	Conn driver.ITransactionalDB
}

var _ ProgressRepository = &ProgressSQL{}

// NewProgressSQL ...
func NewProgressSQL(Conn driver.ITransactionalDB) *ProgressSQL {
	return &ProgressSQL{Conn}
}

// progressRow nullable columns of the account/course_progress left join
type progressRow struct {
	CourseID         sql.NullString
	StartedAt        sql.NullInt64
	LastAccessedAt   sql.NullInt64
	CurrentLesson    sql.NullString
	CompletedLessons sql.NullString
	LessonsProgress  sql.NullString
	Revision         sql.NullInt64
}

func (pr *progressRow) dest() []interface{} {
	return []interface{}{&pr.CourseID, &pr.StartedAt, &pr.LastAccessedAt, &pr.CurrentLesson,
		&pr.CompletedLessons, &pr.LessonsProgress, &pr.Revision}
}

func (pr *progressRow) toModel() (*CourseProgress, error) {
	if !pr.CourseID.Valid {
		return nil, nil
	}
	cp := &CourseProgress{
		StartedAt:      fromMillis(pr.StartedAt.Int64),
		LastAccessedAt: fromMillis(pr.LastAccessedAt.Int64),
		CurrentLesson:  pr.CurrentLesson.String,
		Revision:       pr.Revision.Int64,
	}
	if pr.CompletedLessons.String != "" {
		if err := json.Unmarshal([]byte(pr.CompletedLessons.String), &cp.CompletedLessons); err != nil {
			return nil, errors.Wrap(err, "decoding completed_lessons")
		}
	}
	if pr.LessonsProgress.String != "" {
		if err := json.Unmarshal([]byte(pr.LessonsProgress.String), &cp.LessonsProgress); err != nil {
			return nil, errors.Wrap(err, "decoding lessons_progress")
		}
	}
	normalize(cp)
	return cp, nil
}

func (repo *ProgressSQL) FindUserProgress(ctx context.Context, userID string) (UserProgress, bool, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT p.course_id, p.started_at, p.last_accessed_at, p.current_lesson,
		p.completed_lessons, p.lessons_progress, p.revision
	FROM account a LEFT JOIN course_progress p ON p.user_id = a.id
	WHERE a.id = $1`, userID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	progress := UserProgress{}
	exists := false
	for rows.Next() {
		exists = true
		row := new(progressRow)
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, false, err
		}
		cp, err := row.toModel()
		if err != nil {
			return nil, false, err
		}
		if cp != nil {
			progress[row.CourseID.String] = cp
		}
	}
	return progress, exists, rows.Err()
}

func (repo *ProgressSQL) FindCourseProgress(ctx context.Context, userID, courseID string) (*CourseProgress, bool, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT p.course_id, p.started_at, p.last_accessed_at, p.current_lesson,
		p.completed_lessons, p.lessons_progress, p.revision
	FROM account a LEFT JOIN course_progress p ON p.user_id = a.id AND p.course_id = $1
	WHERE a.id = $2`, courseID, userID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}
	row := new(progressRow)
	if err := rows.Scan(row.dest()...); err != nil {
		return nil, false, err
	}
	cp, err := row.toModel()
	return cp, true, err
}

// saveTxOptions isolation of the save transaction, the revision predicate
// and the account row lock do the rest
var saveTxOptions = &driver.TxOptions{
	Isolation:      sql.LevelReadCommitted,
	AccessMode:     driver.AccessReadWrite,
	DeferrableMode: driver.NotDeferrable,
}

// SaveCourseProgress insert the first record of a course after locking the
// account row, a duplicate key means another writer got there first. Later
// records are updated where the stored revision still matches.
func (repo *ProgressSQL) SaveCourseProgress(ctx context.Context, userID, courseID string, cp *CourseProgress, expected int64) error {
	completed, err := json.Marshal(cp.CompletedLessons)
	if err != nil {
		return err
	}
	lessons, err := json.Marshal(cp.LessonsProgress)
	if err != nil {
		return err
	}

	tx, err := repo.Conn.BeginTx(ctx, saveTxOptions)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if expected == 0 {
		err = insertCourseProgress(ctx, tx, userID, courseID, cp, string(completed), string(lessons))
	} else {
		err = updateCourseProgress(ctx, tx, userID, courseID, cp, string(completed), string(lessons), expected)
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertCourseProgress(ctx context.Context, tx driver.ISQLConn, userID, courseID string, cp *CourseProgress, completed, lessons string) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM account WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		return err
	}
	found := rows.Next()
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if !found {
		return ErrAccountNotInitialized
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO course_progress(user_id, course_id, started_at, last_accessed_at,
		current_lesson, completed_lessons, lessons_progress, revision)
	VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		userID, courseID, toMillis(cp.StartedAt), toMillis(cp.LastAccessedAt),
		cp.CurrentLesson, completed, lessons, cp.Revision)
	if driver.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func updateCourseProgress(ctx context.Context, tx driver.ISQLConn, userID, courseID string, cp *CourseProgress, completed, lessons string, expected int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE course_progress
	SET started_at=$1,
		last_accessed_at=$2,
		current_lesson=$3,
		completed_lessons=$4,
		lessons_progress=$5,
		revision=$6
	WHERE user_id=$7 AND course_id=$8 AND revision=$9`,
		toMillis(cp.StartedAt), toMillis(cp.LastAccessedAt), cp.CurrentLesson,
		completed, lessons, cp.Revision, userID, courseID, expected)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

func fromMillis(ms int64) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond)).UTC()
}
