package migrations

import (
	_ "embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_quiz_tables.sql
var createQuizTablesSQL string

//go:embed 0002_create_session_tables.sql
var createSessionTablesSQL string

var Migrations = migrate.NewMigrations()
