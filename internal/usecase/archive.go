package usecase

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"ContentBriefs/internal/domain"
)

// DefaultArchiveName is used when the assembler is built without a name.
const DefaultArchiveName = "content_briefs.zip"

var (
	// ErrEmptyInput means no result succeeded, so there is nothing to bundle.
	ErrEmptyInput = errors.New("no successful results to assemble")
	// ErrInvalidResult marks a successful result that carries no document.
	ErrInvalidResult = errors.New("invalid batch result")
)

// Archive is a bundle of encoded briefs.
type Archive struct {
	Filename string
	Bytes    []byte
	Entries  []string
}

// Assembler bundles successful documents into a single ZIP archive.
type Assembler struct {
	name string
}

// NewAssembler builds an assembler producing archives called name.
func NewAssembler(name string) *Assembler {
	if strings.TrimSpace(name) == "" {
		name = DefaultArchiveName
	}
	return &Assembler{name: name}
}

// Assemble writes one entry per successful result in row order. Entries with
// clashing filenames are renamed with the later row's number, so nothing is
// overwritten. The output only depends on results, so repeated calls return
// identical bytes.
func (a *Assembler) Assemble(results []domain.BatchResult) (Archive, error) {
	ok := make([]domain.BatchResult, 0, len(results))
	for _, r := range results {
		if r.Status != domain.ResultSuccess {
			continue
		}
		if r.Document == nil || strings.TrimSpace(r.Document.Filename) == "" {
			return Archive{}, fmt.Errorf("%w: row %d has no document filename", ErrInvalidResult, r.Row)
		}
		ok = append(ok, r)
	}
	if len(ok) == 0 {
		return Archive{}, ErrEmptyInput
	}
	slices.SortStableFunc(ok, func(x, y domain.BatchResult) int { return x.Row - y.Row })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	taken := make(map[string]bool, len(ok))
	entries := make([]string, 0, len(ok))

	for _, r := range ok {
		name := uniqueName(r.Document.Filename, r.Row, taken)
		taken[name] = true

		// zero Modified keeps the output deterministic
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return Archive{}, fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := w.Write(r.Document.Bytes); err != nil {
			return Archive{}, fmt.Errorf("write entry %s: %w", name, err)
		}
		entries = append(entries, name)
	}

	if err := zw.Close(); err != nil {
		return Archive{}, fmt.Errorf("close archive: %w", err)
	}

	return Archive{Filename: a.name, Bytes: buf.Bytes(), Entries: entries}, nil
}

// uniqueName returns name, or name suffixed with the row number when it is
// already taken.
func uniqueName(name string, row int, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := fmt.Sprintf("%s_row%d%s", base, row, ext)
	for k := 2; taken[candidate]; k++ {
		candidate = fmt.Sprintf("%s_row%d-%d%s", base, row, k, ext)
	}
	return candidate
}
