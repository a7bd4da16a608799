package migrations

import (
	"embed"
)

// Archive schema, applied with goose from the root of this FS
//
//go:embed *.sql
var embedMigrations embed.FS

func GetMigrations() embed.FS {
	return embedMigrations
}
