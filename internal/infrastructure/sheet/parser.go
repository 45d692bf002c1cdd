package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

const (
	colURL = iota
	colTopic
	colPrimary
	colSecondary1
	colSecondary2
	colSecondary3
)

// Parser reads batch items from XLSX or CSV uploads. The first row is a header;
// columns are URL, Topic, Primary KW and up to three secondary keywords.
type Parser struct {
	logger *slog.Logger
}

var _ ports.ItemParser = (*Parser)(nil)

// NewParser returns a spreadsheet parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger != nil {
		logger = logger.With("component", "sheet")
	}
	return &Parser{logger: logger}
}

// Parse picks the format from the file extension.
func (p *Parser) Parse(ctx context.Context, filename string, r io.Reader) ([]domain.BatchItem, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ports.ErrParse, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ports.ErrParse, filename, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := itemsFromRows(rows)
	if p.logger != nil {
		p.logger.Info("items parsed", "file", filename, "rows", len(rows), "items", len(items))
	}
	return items, nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheet)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

// itemsFromRows skips the header and any row missing a URL, topic or primary keyword.
// Row numbers are 1-based sheet rows.
func itemsFromRows(rows [][]string) []domain.BatchItem {
	var items []domain.BatchItem
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		item := domain.BatchItem{
			Row:            i + 1,
			URL:            cell(row, colURL),
			Topic:          cell(row, colTopic),
			PrimaryKeyword: cell(row, colPrimary),
		}
		if item.URL == "" || item.Topic == "" || item.PrimaryKeyword == "" {
			continue
		}
		for _, col := range []int{colSecondary1, colSecondary2, colSecondary3} {
			if kw := cell(row, col); kw != "" {
				item.SecondaryKeywords = append(item.SecondaryKeywords, kw)
			}
		}
		items = append(items, item)
	}
	return items
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
