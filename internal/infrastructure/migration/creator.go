package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode"
)

var headerTemplate = template.Must(template.New("migration").Parse(`-- Migration: {{.File.Name}}{{if .Rollback}} (Rollback){{end}}
-- Created: {{.File.Timestamp}}
-- Description: {{if .Rollback}}Rollback for {{end}}{{.File.Description}}
{{- if not .Rollback}}
--
-- Money columns are DECIMAL(18,2). Never alter purchase_audit here; it
-- belongs to the purchasing system.
{{- end}}

`))

// versionWidth matches the zero-padded prefix of the existing files
const versionWidth = 6

// MigrationFile represents a migration file pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down pair numbered one past the highest
// existing version in migrationsDir.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	existing, err := ListMigrations(migrationsDir)
	if err != nil {
		return nil, err
	}
	next := 1
	for _, f := range existing {
		if v, ok := versionOf(f); ok && int(v) >= next {
			next = int(v) + 1
		}
	}

	version := fmt.Sprintf("%0*d", versionWidth, next)
	stem := filepath.Join(migrationsDir, version+"_"+slug)
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
		UpPath:      stem + ".up.sql",
		DownPath:    stem + ".down.sql",
	}

	if err := writeHeader(mf.UpPath, mf, false); err != nil {
		return nil, err
	}
	if err := writeHeader(mf.DownPath, mf, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeHeader(path string, mf *MigrationFile, rollback bool) error {
	// O_EXCL: never clobber a migration that already ran somewhere
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	data := struct {
		File     *MigrationFile
		Rollback bool
	}{mf, rollback}
	if err := headerTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// versionOf parses the numeric prefix of "000002_purchase_audit"
func versionOf(base string) (uint64, bool) {
	prefix, _, _ := strings.Cut(base, "_")
	v, err := strconv.ParseUint(prefix, 10, 64)
	return v, err == nil
}

// sanitizeName lower-cases name and collapses runs of spaces, dashes and
// underscores into single underscores. Anything else is dropped.
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the base names of every up migration in a
// directory, sorted
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok && base != "" {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}
