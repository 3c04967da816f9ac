package user

import (
	"context"
	"time"

	"github.com/pot-code/course-reader/internal/infrastructure/driver"
)

// UserSQL UserRepository on the account table, works with both mysql and postgres
type UserSQL struct {
	Conn driver.ITransactionalDB
}

var _ UserRepository = &UserSQL{}

// NewUserSQL ...
func NewUserSQL(Conn driver.ITransactionalDB) *UserSQL {
	return &UserSQL{Conn}
}

// FindByID query account with provided id
func (repo *UserSQL) FindByID(ctx context.Context, id string) (*UserModel, error) {
	conn := repo.Conn
	row, err := conn.QueryContext(ctx, `SELECT id, display_name, photo_url, email, created_at
	FROM account WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer row.Close()

	if row.Next() {
		var createdAt int64
		user := new(UserModel)
		if err := row.Scan(&user.ID, &user.DisplayName, &user.PhotoURL, &user.Email, &createdAt); err != nil {
			return nil, err
		}
		user.CreatedAt = time.Unix(0, createdAt*int64(time.Millisecond)).UTC()
		return user, nil
	}
	return nil, row.Err()
}

func (repo *UserSQL) SaveUser(ctx context.Context, post *UserModel) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `INSERT INTO account(id, display_name, photo_url, email, created_at)
	VALUES($1,$2,$3,$4,$5)`, post.ID, post.DisplayName, post.PhotoURL, post.Email,
		post.CreatedAt.UnixNano()/int64(time.Millisecond))

	if driver.IsUniqueViolation(err) {
		return ErrAccountExists
	}
	return err
}

func (repo *UserSQL) UpdateProfile(ctx context.Context, id string, profile Profile) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `UPDATE account
	SET display_name=$1,
		photo_url=$2,
		email=$3
	WHERE id = $4`, profile.DisplayName, profile.PhotoURL, profile.Email, id)
	return err
}
