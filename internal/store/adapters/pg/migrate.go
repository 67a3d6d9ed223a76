package pg

import (
	"context"
	"fmt"
	"sort"

	migrations "github.com/dropDatabas3/authzcore/migrations/postgres"
)

// Migrate aplica las migraciones embebidas en orden lexicográfico.
// Los statements son idempotentes (IF NOT EXISTS), así que correrla en cada
// arranque es seguro.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrations.FS.ReadDir(migrations.Dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.FS.ReadFile(migrations.Dir + "/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
