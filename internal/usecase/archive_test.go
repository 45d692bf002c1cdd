package usecase

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"

	"ContentBriefs/internal/domain"
)

func success(row int, name, body string) domain.BatchResult {
	return domain.BatchResult{
		Row:      row,
		Topic:    name,
		Status:   domain.ResultSuccess,
		Document: &domain.BriefDocument{Filename: name, Bytes: []byte(body)},
	}
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = string(body)
	}
	return out
}

func TestAssembleSkipsFailedResults(t *testing.T) {
	t.Parallel()

	results := []domain.BatchResult{
		success(1, "one.docx", "first"),
		{Row: 2, Topic: "two", Status: domain.ResultError, Error: "boom"},
		success(3, "three.docx", "third"),
	}

	archive, err := NewAssembler("").Assemble(results)
	if err != nil {
		t.Fatalf("Assemble error: %v", err)
	}
	if archive.Filename != DefaultArchiveName {
		t.Fatalf("unexpected archive name %s", archive.Filename)
	}

	files := readArchive(t, archive.Bytes)
	if len(files) != 2 || files["one.docx"] != "first" || files["three.docx"] != "third" {
		t.Fatalf("unexpected archive contents: %v", files)
	}
}

func TestAssembleIsIdempotent(t *testing.T) {
	t.Parallel()

	results := []domain.BatchResult{success(1, "a.docx", "aaa"), success(2, "b.docx", "bbb")}
	asm := NewAssembler("briefs.zip")

	first, err := asm.Assemble(results)
	if err != nil {
		t.Fatalf("first Assemble: %v", err)
	}
	second, err := asm.Assemble(results)
	if err != nil {
		t.Fatalf("second Assemble: %v", err)
	}
	if !bytes.Equal(first.Bytes, second.Bytes) {
		t.Fatalf("archives differ between calls")
	}
}

func TestAssembleDisambiguatesCollisions(t *testing.T) {
	t.Parallel()

	results := []domain.BatchResult{
		success(4, "brief.docx", "row four"),
		success(2, "brief.docx", "row two"),
		success(9, "brief.docx", "row nine"),
	}

	archive, err := NewAssembler("").Assemble(results)
	if err != nil {
		t.Fatalf("Assemble error: %v", err)
	}

	want := []string{"brief.docx", "brief_row4.docx", "brief_row9.docx"}
	for i, name := range want {
		if archive.Entries[i] != name {
			t.Fatalf("entry %d: got %s, want %s", i, archive.Entries[i], name)
		}
	}
	files := readArchive(t, archive.Bytes)
	if files["brief.docx"] != "row two" || files["brief_row4.docx"] != "row four" {
		t.Fatalf("collision overwrote an entry: %v", files)
	}
}

func TestAssembleEmptyInput(t *testing.T) {
	t.Parallel()

	cases := [][]domain.BatchResult{
		nil,
		{{Row: 1, Status: domain.ResultError, Error: "x"}},
	}
	for _, results := range cases {
		if _, err := NewAssembler("").Assemble(results); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("expected ErrEmptyInput, got %v", err)
		}
	}
}

func TestAssembleRejectsMissingFilename(t *testing.T) {
	t.Parallel()

	results := []domain.BatchResult{success(1, "ok.docx", "x"), success(2, " ", "y")}
	if _, err := NewAssembler("").Assemble(results); !errors.Is(err, ErrInvalidResult) {
		t.Fatalf("expected ErrInvalidResult, got %v", err)
	}
}

func TestUniqueNameCounters(t *testing.T) {
	t.Parallel()

	taken := map[string]bool{"x.docx": true, "x_row5.docx": true}
	if got := uniqueName("x.docx", 5, taken); got != "x_row5-2.docx" {
		t.Fatalf("unexpected name %s", got)
	}
	if got := uniqueName("fresh.docx", 5, taken); got != "fresh.docx" {
		t.Fatalf("free name was changed to %s", got)
	}
}
