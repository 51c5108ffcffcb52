package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/personnel-api/internal/models"
)

var usersTable = models.Table{Name: "users", Columns: []string{"username"}}

// UserRepository reads operator accounts. Accounts are provisioned outside the API.
type UserRepository struct {
	gw *Gateway
}

// NewUserRepository constructs a user repository.
func NewUserRepository(gw *Gateway) *UserRepository {
	return &UserRepository{gw: gw}
}

// FindIDByUsername returns the id of username, or nil when no account exists.
func (r *UserRepository) FindIDByUsername(ctx context.Context, username string) (*int64, error) {
	st, err := BuildFilteredSelect([]string{models.ColumnID, "username"}, usersTable,
		[]Filter{{Column: "username", Value: username}}, Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := r.gw.Reader().Get(ctx, "users.find_by_username", &user, st); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user.ID, nil
}
