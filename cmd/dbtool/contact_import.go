package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	cleanupservices "github.com/act-community/steward/modules/cleanup/services"
	"github.com/act-community/steward/modules/contacts/domain/ports"
	"github.com/act-community/steward/modules/contacts/domain/types"
	contactpersistence "github.com/act-community/steward/modules/contacts/infrastructure/persistence"
)

// contactRow is one validated line of an import CSV. Email and tags are
// already normalized; alreadyPresent marks rows whose email is in the
// database under the same contact id.
type contactRow struct {
	line  int
	id    string
	email string
	tags  []string

	alreadyPresent bool
}

type contactConflict struct {
	line   int
	reason string
	value  string
}

var contactIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// readContactCSV parses an import file with header contact_id,email,tags
// (tags semicolon separated). Rows with an invalid id or email become
// conflicts instead of rows; the raw id is checked unnormalized, so a
// stray space in an export shows up as a conflict rather than being
// silently repaired.
func readContactCSV(path string) ([]contactRow, []contactConflict) {
	f, err := os.Open(path)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	header, err := reader.Read()
	if err != nil {
		fatal(err)
	}
	if len(header) != 3 || header[0] != "contact_id" || header[1] != "email" || header[2] != "tags" {
		fatalf("expected header contact_id,email,tags, got %s", strings.Join(header, ","))
	}

	var rows []contactRow
	var conflicts []contactConflict
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			conflicts = append(conflicts, contactConflict{line: line, reason: "row_invalid", value: err.Error()})
			continue
		}

		id := record[0]
		if !contactIDPattern.MatchString(id) {
			conflicts = append(conflicts, contactConflict{line: line, reason: "contact_id_invalid", value: id})
			continue
		}

		email := cleanupservices.NormalizeEmail(record[1])
		if email == "" || !strings.Contains(email, "@") {
			conflicts = append(conflicts, contactConflict{line: line, reason: "email_invalid", value: record[1]})
			continue
		}

		tags := cleanupservices.NormalizeTags(strings.Split(record[2], ";"))
		rows = append(rows, contactRow{line: line, id: id, email: email, tags: tags})
	}
	return rows, conflicts
}

// validateContactRows cross-checks parsed rows against each other and
// against emails already in the database. A row whose email belongs to
// the same contact id passes through with alreadyPresent set; one whose
// email belongs to a different contact is a conflict.
func validateContactRows(rows []contactRow, existingEmails map[string]string) ([]contactRow, []contactConflict) {
	var valid []contactRow
	var conflicts []contactConflict
	seenIDs := make(map[string]int, len(rows))
	seenEmails := make(map[string]int, len(rows))

	for _, row := range rows {
		if _, dup := seenIDs[row.id]; dup {
			conflicts = append(conflicts, contactConflict{line: row.line, reason: "contact_id_duplicate_input", value: row.id})
			continue
		}
		seenIDs[row.id] = row.line

		if _, dup := seenEmails[row.email]; dup {
			conflicts = append(conflicts, contactConflict{line: row.line, reason: "email_duplicate_input", value: row.email})
			continue
		}
		seenEmails[row.email] = row.line

		if owner, ok := existingEmails[row.email]; ok {
			if owner != row.id {
				conflicts = append(conflicts, contactConflict{line: row.line, reason: "email_conflict_db", value: row.email})
				continue
			}
			row.alreadyPresent = true
		}
		valid = append(valid, row)
	}
	return valid, conflicts
}

func importContacts(args []string) {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url, file string
	fs.StringVar(&url, "url", "", "postgres connection string")
	fs.StringVar(&file, "file", "", "CSV file with header contact_id,email,tags")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if url == "" {
		fatalf("missing --url")
	}
	if file == "" {
		fatalf("missing --file")
	}

	rows, conflicts := readContactCSV(file)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		fatal(err)
	}
	defer conn.Close(context.Background())

	existingEmails := loadExistingEmails(ctx, conn)
	valid, dbConflicts := validateContactRows(rows, existingEmails)
	conflicts = append(conflicts, dbConflicts...)

	store := contactpersistence.NewContactPGStore(conn)
	imported, skipped := 0, 0
	for _, row := range valid {
		if row.alreadyPresent {
			skipped++
			continue
		}
		contact, err := store.Load(ctx, row.id)
		switch {
		case errors.Is(err, ports.ErrNotFound):
			contact = types.Contact{ID: row.id, Fields: map[string]any{}}
		case err != nil:
			fatal(err)
		}
		contact.Tags = cleanupservices.NormalizeTags(append(contact.Tags, row.tags...))
		if contact.Fields == nil {
			contact.Fields = map[string]any{}
		}
		contact.Fields["email"] = row.email
		if _, err := store.Save(ctx, contact); err != nil {
			fatal(err)
		}
		imported++
	}

	for _, c := range conflicts {
		fmt.Fprintf(os.Stderr, "[import] line %d: %s (%s)\n", c.line, c.reason, c.value)
	}
	fmt.Printf("[import] OK (%d imported, %d already present, %d conflicts)\n", imported, skipped, len(conflicts))
}

func loadExistingEmails(ctx context.Context, conn *pgx.Conn) map[string]string {
	rows, err := conn.Query(ctx, `SELECT id, fields->>'email' FROM contacts WHERE fields ? 'email'`)
	if err != nil {
		fatal(err)
	}
	defer rows.Close()

	emails := make(map[string]string)
	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			fatal(err)
		}
		emails[cleanupservices.NormalizeEmail(email)] = id
	}
	if err := rows.Err(); err != nil {
		fatal(err)
	}
	return emails
}
