package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"omrscan/internal/config"
)

const usage = "Usage: migrate [-path dir] <up|down|steps N|force V|version>"

func main() {
	path := flag.String("path", "db/migrations", "directory holding the migration files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("migrate: loading config: %v", err)
	}

	// Version bookkeeping lives in its own table, away from the scoring tables.
	dsn := cfg.DB.DSN() + "&x-migrations-table=omrscan_migrations"

	m, err := migrate.New("file://"+*path, dsn)
	if err != nil {
		log.Fatalf("migrate: opening %s: %v", *path, err)
	}
	defer m.Close()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println(usage)
		os.Exit(1)
	}

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migrate: up failed: %v", err)
		}
		log.Println("migrate: schema is up to date")

	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migrate: down failed: %v", err)
		}
		log.Println("migrate: schema reverted")

	case "steps":
		n, err := intArg(args, "steps")
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		if err := m.Steps(n); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migrate: steps failed: %v", err)
		}
		log.Printf("migrate: applied %d steps", n)

	case "force":
		v, err := intArg(args, "force")
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		if err := m.Force(v); err != nil {
			log.Fatalf("migrate: force failed: %v", err)
		}
		log.Printf("migrate: version forced to %d", v)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("migrate: reading version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)

	default:
		fmt.Printf("unknown command: %s\n", args[0])
		fmt.Println(usage)
		os.Exit(1)
	}
}

func intArg(args []string, cmd string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a number argument", cmd)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid %s argument %q", cmd, args[1])
	}
	return n, nil
}
