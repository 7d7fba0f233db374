package db

import (
	"context"
	"database/sql"

	"github.com/aquawatch/aquawatch/internal/server/reports"
	"github.com/aquawatch/aquawatch/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Close() error
	Users() users.Repository
	Reports() reports.Repository
}
