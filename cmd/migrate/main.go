package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"fissure_watcher/migrations"
)

const usage = `Usage: migrate [-db path] <command>

Commands:
  up        Apply all pending migrations
  up-one    Apply the next pending migration
  down      Roll back the latest migration
  reset     Roll back every migration
  status    List migrations and whether they are applied
  version   Print the current schema version
`

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/fissures.db"), "path to the history database")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	p, err := migrations.NewProvider(db)
	if err != nil {
		log.Fatal(err)
	}

	cmd := flag.Arg(0)
	if err := run(context.Background(), p, cmd); err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func run(ctx context.Context, p *goose.Provider, cmd string) error {
	switch cmd {
	case "up":
		results, err := p.Up(ctx)
		printResults(results...)
		return err
	case "up-one":
		r, err := p.UpByOne(ctx)
		printResults(r)
		return err
	case "down":
		r, err := p.Down(ctx)
		printResults(r)
		return err
	case "reset":
		results, err := p.DownTo(ctx, 0)
		printResults(results...)
		return err
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
		}
		return w.Flush()
	case "version":
		v, err := p.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	default:
		return fmt.Errorf("unknown command")
	}
}

func printResults(results ...*goose.MigrationResult) {
	for _, r := range results {
		if r != nil {
			fmt.Println(r)
		}
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
