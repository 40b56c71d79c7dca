package db

import (
	"errors"

	"animebase/internal/util"
	"animebase/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies pending schema migrations from MIGRATIONS_PATH against
// DATABASE_URL. A database that is already up to date is not an error.
func Migrate() {
	path := util.GetEnvString("MIGRATIONS_PATH", "migrations")

	m, err := migrate.New("file://"+path, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to initialize migrations", "path", path, "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to apply migrations", "err", err)
	}
	logger.Info("Database schema up to date")
}
