// migrate applies the kv_entries schema to a postgres database.
//
//	migrate [--dsn DSN] [--dir DIR] up|down|version|to N
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"ms-bookings/internal/config"
	"ms-bookings/internal/database/migrations"
	"ms-bookings/internal/kv"
	"ms-bookings/internal/logger"
)

var errUsage = errors.New("usage: migrate [--dsn DSN] [--dir DIR] up|down|version|to N")

func main() {
	_ = godotenv.Load()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cfg := config.Load()

	var dsn, dir string
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&dsn, "dsn", cfg.Store.PostgresDSN, "postgres connection string (default $POSTGRES_DSN)")
	flagSet.StringVar(&dir, "dir", cfg.Store.MigrationsDir, "read migrations from this directory instead of the embedded set")
	if err := flagSet.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		return errUsage
	}
	command := rest[0]

	var target uint
	switch command {
	case "up", "down", "version":
	case "to":
		if len(rest) != 2 {
			return errUsage
		}
		n, err := strconv.ParseUint(rest[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", rest[1], err)
		}
		target = uint(n)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	if dsn == "" {
		return errors.New("no postgres dsn: pass --dsn or set POSTGRES_DSN")
	}

	db, err := kv.OpenPostgres(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	log := logger.New(io.Discard)
	runner := migrations.NewRunner(db, migrations.MigrateOptions{MigrationsDir: dir}, log)
	defer runner.Close()

	switch command {
	case "up":
		err = runner.MigrateUp()
	case "down":
		err = runner.MigrateDown()
	case "to":
		err = runner.MigrateTo(target)
	}
	if err != nil {
		return err
	}

	version, dirty, err := runner.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "version %d (dirty=%t)\n", version, dirty)
	return nil
}
