package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/act-community/steward/modules/contacts/domain/ports"
	"github.com/act-community/steward/modules/contacts/domain/types"
	contactpersistence "github.com/act-community/steward/modules/contacts/infrastructure/persistence"
)

func main() {
	if len(os.Args) < 2 {
		fatalf("usage: dbtool <migrate|seed|import|contacts-smoke> [args]")
	}

	switch os.Args[1] {
	case "migrate":
		migrate(os.Args[2:])
	case "seed":
		seed(os.Args[2:])
	case "import":
		importContacts(os.Args[2:])
	case "contacts-smoke":
		contactsSmoke(os.Args[2:])
	default:
		fatalf("unknown subcommand: %s", os.Args[1])
	}
}

const contactsDDL = `
CREATE TABLE IF NOT EXISTS contacts (
  id         text PRIMARY KEY,
  tags       jsonb NOT NULL DEFAULT '[]'::jsonb,
  fields     jsonb NOT NULL DEFAULT '{}'::jsonb,
  created_at timestamptz NOT NULL DEFAULT now(),
  updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS contacts_tags_gin ON contacts USING gin (tags);
CREATE INDEX IF NOT EXISTS contacts_fields_gin ON contacts USING gin (fields);
`

func migrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url string
	fs.StringVar(&url, "url", "", "postgres connection string")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if url == "" {
		fatalf("missing --url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		fatal(err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, contactsDDL); err != nil {
		fatal(err)
	}

	fmt.Println("[migrate] OK")
}

func seed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url string
	fs.StringVar(&url, "url", "", "postgres connection string")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if url == "" {
		fatalf("missing --url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		fatal(err)
	}
	defer conn.Close(context.Background())

	store := contactpersistence.NewContactPGStore(conn)
	demo := contactpersistence.DemoContacts()
	for _, contact := range demo {
		if _, err := store.Save(ctx, contact); err != nil {
			fatal(err)
		}
	}

	fmt.Printf("[seed] OK (%d contacts)\n", len(demo))
}

// contactsSmoke exercises the contact store against a real postgres.
// It runs on a temp table that shadows the production one, so the data
// it writes never lands anywhere.
func contactsSmoke(args []string) {
	fs := flag.NewFlagSet("contacts-smoke", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url string
	fs.StringVar(&url, "url", "", "postgres connection string")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if url == "" {
		fatalf("missing --url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		fatal(err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, `
CREATE TEMP TABLE contacts (
  id         text PRIMARY KEY,
  tags       jsonb NOT NULL DEFAULT '[]'::jsonb,
  fields     jsonb NOT NULL DEFAULT '{}'::jsonb,
  created_at timestamptz NOT NULL DEFAULT now(),
  updated_at timestamptz NOT NULL DEFAULT now()
);`); err != nil {
		fatal(err)
	}

	store := contactpersistence.NewContactPGStore(conn)

	saved, err := store.Save(ctx, types.Contact{
		ID:     "smoke_001",
		Tags:   []string{"the-harvest", "role:volunteer"},
		Fields: map[string]any{"email": "smoke@example.com", "volunteer_hours_total": 120},
	})
	if err != nil {
		fatal(err)
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		fatalf("expected timestamps on save")
	}

	loaded, err := store.Load(ctx, "smoke_001")
	if err != nil {
		fatal(err)
	}
	if loaded.Fields["email"] != "smoke@example.com" {
		fatalf("expected email round-trip, got %v", loaded.Fields["email"])
	}

	// A text value in a numeric field must be excluded by the
	// jsonb_typeof guard, not error the whole query.
	if _, err := store.Save(ctx, types.Contact{
		ID:     "smoke_002",
		Tags:   []string{"the-harvest"},
		Fields: map[string]any{"volunteer_hours_total": "n/a"},
	}); err != nil {
		fatal(err)
	}

	matches, err := store.Query(ctx, types.Predicate{
		Fields: []types.FieldCondition{{Field: "volunteer_hours_total", Op: types.CompareGte, Value: 100}},
	})
	if err != nil {
		fatal(err)
	}
	if len(matches) != 1 || matches[0].ID != "smoke_001" {
		fatalf("expected exactly smoke_001 for hours >= 100, got %d rows", len(matches))
	}

	matches, err = store.Query(ctx, types.Predicate{AnyTags: []string{"role:volunteer"}})
	if err != nil {
		fatal(err)
	}
	if len(matches) != 1 || matches[0].ID != "smoke_001" {
		fatalf("expected exactly smoke_001 for role:volunteer, got %d rows", len(matches))
	}

	if _, err := store.Load(ctx, "smoke_missing"); !errors.Is(err, ports.ErrNotFound) {
		fatalf("expected ErrNotFound for missing id, got %v", err)
	}

	_, err = conn.Exec(ctx, `SELECT 'not-a-number'::numeric;`)
	if err == nil {
		fatalf("expected invalid cast to fail")
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "22P02" {
		fatalf("expected SQLSTATE 22P02, got %v", err)
	}

	fmt.Println("[contacts-smoke] OK")
}

func fatal(err error) {
	if err == nil {
		os.Exit(1)
	}
	fatalf("%v", err)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
