package sheet

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"ContentBriefs/internal/ports"
)

func TestParseWorkbook(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	rows := [][]any{
		{"URL", "Topic", "Primary KW", "Secondary KW1", "Secondary KW2", "Secondary KW3"},
		{"healthworks.co.uk", "Health checks", "corporate health checks", "staff wellbeing", "", "screening"},
		{"cell-gate.com", "", "gate access"},
		{},
		{" cell-gate.com ", "Smart gates", "smart gate"},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cellRef, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	items, err := NewParser(nil).Parse(context.Background(), "batch.xlsx", buf)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %+v", items)
	}
	first, second := items[0], items[1]
	if first.Row != 2 || first.URL != "healthworks.co.uk" || strings.Join(first.SecondaryKeywords, "|") != "staff wellbeing|screening" {
		t.Fatalf("unexpected first item %+v", first)
	}
	if second.Row != 5 || second.URL != "cell-gate.com" || second.Topic != "Smart gates" || len(second.SecondaryKeywords) != 0 {
		t.Fatalf("unexpected second item %+v", second)
	}
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	input := "URL,Topic,Primary KW,Secondary KW1\nexample.com,Office moves,office removals,packing\n,Missing url,kw\n"
	items, err := NewParser(nil).Parse(context.Background(), "batch.CSV", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(items) != 1 || items[0].Row != 2 || items[0].SecondaryKeywords[0] != "packing" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestParseRejectsUnknownFormats(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"batch.xls":  "legacy",
		"batch.xlsx": "not a zip",
		"batch.csv":  "a,\"b\nc",
	}
	for name, body := range cases {
		if _, err := NewParser(nil).Parse(context.Background(), name, strings.NewReader(body)); !errors.Is(err, ports.ErrParse) {
			t.Fatalf("%s: expected ErrParse, got %v", name, err)
		}
	}
}
