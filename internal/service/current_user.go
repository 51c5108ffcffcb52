package service

import (
	"context"
	"os"
	"os/user"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type userLookup interface {
	FindIDByUsername(ctx context.Context, username string) (*int64, error)
}

// loginEnv is checked in order before falling back to the account database.
var loginEnv = []string{"LOGNAME", "USER", "LNAME", "USERNAME"}

// HostUsername returns the lower-cased login name of the process owner.
func HostUsername() string {
	for _, key := range loginEnv {
		if name := strings.TrimSpace(os.Getenv(key)); name != "" {
			return strings.ToLower(name)
		}
	}
	if u, err := user.Current(); err == nil {
		return strings.ToLower(u.Username)
	}
	return ""
}

// CurrentUser resolves the users.id of the host account once and reuses it.
// Failed lookups are not remembered.
type CurrentUser struct {
	repo     userLookup
	username string
	logger   *zap.Logger

	mu       sync.Mutex
	resolved bool
	id       *int64
}

// NewCurrentUser builds a resolver for username.
func NewCurrentUser(repo userLookup, username string, logger *zap.Logger) *CurrentUser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurrentUser{repo: repo, username: strings.ToLower(username), logger: logger}
}

// Username is the account name being resolved.
func (c *CurrentUser) Username() string {
	return c.username
}

// UserID returns the id of the host account, or nil when it has no row.
func (c *CurrentUser) UserID(ctx context.Context) (*int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved {
		return c.id, nil
	}
	if c.username == "" {
		c.resolved = true
		return nil, nil
	}
	id, err := c.repo.FindIDByUsername(ctx, c.username)
	if err != nil {
		return nil, err
	}
	if id == nil {
		c.logger.Warn("host user has no account; records will carry no user_id", zap.String("username", c.username))
	}
	c.id, c.resolved = id, true
	return id, nil
}
