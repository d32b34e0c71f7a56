// Command migrate applies or rolls back the SQL migrations under migrations/
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/amirphl/event-funnel/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const usage = "Usage: migrate <up|down [steps]|version|force <version>>"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, usage)
		return 1
	}

	dbCfg, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	m, err := migrate.New(sourceURL(), dbCfg.URL())
	if err != nil {
		log.Printf("Failed to create migrate instance: %v", err)
		return 1
	}
	defer func() { _, _ = m.Close() }()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(args) > 1 {
			if steps, err = strconv.Atoi(args[1]); err != nil || steps <= 0 {
				log.Printf("Invalid step count %q", args[1])
				return 1
			}
		}
		err = m.Steps(-steps)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Println("No migration applied yet")
			return 0
		}
		if verr != nil {
			log.Printf("Failed to read migration version: %v", verr)
			return 1
		}
		log.Printf("Migration version %d (dirty=%t)", version, dirty)
		return 0
	case "force":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, usage)
			return 1
		}
		version, perr := strconv.Atoi(args[1])
		if perr != nil {
			log.Printf("Invalid version %q", args[1])
			return 1
		}
		err = m.Force(version)
	default:
		fmt.Fprintln(os.Stderr, usage)
		return 1
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("No migrations to apply")
		return 0
	}
	if err != nil {
		log.Printf("Migration %s failed: %v", args[0], err)
		return 1
	}

	log.Printf("Migration %s completed successfully", args[0])
	return 0
}

// sourceURL points at MIGRATIONS_PATH, or ./migrations relative to the working directory
func sourceURL() string {
	dir := os.Getenv("MIGRATIONS_PATH")
	if dir == "" {
		dir = "migrations"
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return "file://" + dir
}
