package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/database"
)

// InitializeDatabase opens fintrack.db and applies the embedded schema.
func InitializeDatabase(cfg *config.Config, log zerolog.Logger) (*database.DB, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "fintrack",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fintrack database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate fintrack database: %w", err)
	}

	log.Info().Str("path", db.Path()).Msg("Database ready")
	return db, nil
}
