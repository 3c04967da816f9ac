package driver

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  *DBConfig
		want string
	}{
		{
			name: "mysql",
			cfg:  &DBConfig{User: "u", Password: "p", Protocol: "tcp", Host: "db", Port: 3306, Schema: "courses", Query: "parseTime=true"},
			want: "u:p@tcp(db:3306)/courses?parseTime=true",
		},
		{
			name: "postgres",
			cfg:  &DBConfig{User: "u", Password: "p", Host: "db", Port: 5432, Schema: "courses"},
			want: "u:p@db:5432/courses",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getDSN(tt.cfg))
		})
	}
}

func TestGetDBConnection_Invalid(t *testing.T) {
	_, err := GetDBConnection(&DBConfig{Driver: "mysql"})
	assert.Error(t, err)
	_, err = GetDBConnection(&DBConfig{Driver: "sqlite", User: "u", Schema: "s"})
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1045}))
	assert.False(t, IsUniqueViolation(fmt.Errorf("plain")))
}

func TestMysqlAdapter(t *testing.T) {
	q := mysqlAdapter(`SELECT "revision"
	FROM course_progress WHERE user_id = $1 AND course_id = $2`)
	assert.Equal(t, "SELECT `revision` FROM course_progress WHERE user_id = ? AND course_id = ?", q)
}

func TestTxOptionAdapters(t *testing.T) {
	opts := &TxOptions{
		Isolation:      sql.LevelReadCommitted,
		AccessMode:     AccessReadWrite,
		DeferrableMode: NotDeferrable,
	}
	assert.Equal(t, pgx.TxOptions{
		IsoLevel:       pgx.ReadCommitted,
		AccessMode:     pgx.ReadWrite,
		DeferrableMode: pgx.NotDeferrable,
	}, pgTxOptionAdapter(opts))
	assert.Equal(t, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, mysqlTxOptionAdapter(opts))

	assert.Equal(t, pgx.TxOptions{}, pgTxOptionAdapter(nil))
	assert.Nil(t, mysqlTxOptionAdapter(nil))
}
