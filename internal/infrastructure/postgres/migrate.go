package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // driver pgx5://
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator envuelve golang-migrate sobre las migraciones embebidas.
type Migrator struct {
	m   *migrate.Migrate
	log zerolog.Logger
}

// NewMigrator abre el origen embebido y la conexión de migrate. Cerrar con Close.
func NewMigrator(databaseURL string, log zerolog.Logger) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, pgx5URL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("migrate init: %w", err)
	}
	return &Migrator{m: m, log: log}, nil
}

// Up aplica las migraciones pendientes. Sin cambios no es error.
func (mg *Migrator) Up() error {
	return mg.report("up", mg.m.Up())
}

// Down revierte la última migración aplicada.
func (mg *Migrator) Down() error {
	return mg.report("down", mg.m.Steps(-1))
}

// Version versión actual y si quedó sucia.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close libera origen y conexión.
func (mg *Migrator) Close() {
	_, _ = mg.m.Close()
}

func (mg *Migrator) report(op string, err error) error {
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info().Str("op", op).Msg("migraciones al día")
			return nil
		}
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			return fmt.Errorf("migrate: base de datos en versión sucia %d", dirty.Version)
		}
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	version, _, _ := mg.Version()
	mg.log.Info().Str("op", op).Uint("version", version).Msg("migraciones aplicadas")
	return nil
}

// Migrate aplica las migraciones embebidas pendientes.
func Migrate(databaseURL string, log zerolog.Logger) error {
	mg, err := NewMigrator(databaseURL, log)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}

// pgx5URL el driver pgx/v5 de migrate se registra con el esquema pgx5://.
func pgx5URL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}
