package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/iliyamo/odwyaty/internal/config"
	"github.com/iliyamo/odwyaty/internal/database"
)

func main() {
	var (
		command = flag.String("command", "", "Migration command: up, down, version, force")
		steps   = flag.Int("steps", 0, "Number of migration steps (for up/down)")
		version = flag.Int("version", -1, "Migration version (for force)")
	)
	flag.Parse()

	if *command == "" {
		fmt.Println("Usage: migrate -command [up|down|version|force] [options]")
		fmt.Println("Commands:")
		fmt.Println("  up       - Apply pending migrations (all, or -steps N)")
		fmt.Println("  down     - Roll back -steps N migrations (default 1)")
		fmt.Println("  version  - Show current migration version")
		fmt.Println("  force    - Force set -version N after a failed migration")
		os.Exit(1)
	}

	cfg := config.LoadDB()
	db, err := database.Open(database.Params{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MultiStatements: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}()

	m, err := database.NewMigrator(db)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	switch *command {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
		report(err, "Migrations applied successfully", "No migrations to apply")

	case "down":
		n := *steps
		if n <= 0 {
			n = 1
		}
		report(m.Steps(-n), "Migrations rolled back successfully", "No migrations to rollback")

	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied")
			return
		}
		if err != nil {
			log.Fatalf("Failed to read version: %v", err)
		}
		fmt.Printf("Current version: %d (dirty: %t)\n", v, dirty)

	case "force":
		if *version < 0 {
			log.Fatal("force needs -version N")
		}
		if err := m.Force(*version); err != nil {
			log.Fatalf("Force failed: %v", err)
		}
		fmt.Printf("Forced version %d\n", *version)

	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}

func report(err error, done, noop string) {
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println(noop)
		return
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Println(done)
}
