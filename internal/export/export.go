// Package export writes lead snapshots as CSV or XLSX.
package export

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Columns is the fixed export column order.
var Columns = []string{
	"company_name", "email", "phone", "instagram_url", "contact_name", "status", "last_step_completed",
}

const sheetName = "Leads"

// Row renders a lead in column order. Missing values are empty.
func Row(l *model.Lead) []string {
	step := ""
	if l.LastStepCompleted != nil {
		step = strconv.Itoa(*l.LastStepCompleted)
	}
	return []string{
		l.CompanyName,
		deref(l.Email),
		deref(l.Phone),
		deref(l.InstagramURL),
		deref(l.ContactName),
		string(l.Status),
		step,
	}
}

// WriteCSV writes a header row and one row per lead.
func WriteCSV(w io.Writer, leads []model.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for i := range leads {
		if err := cw.Write(Row(&leads[i])); err != nil {
			return eris.Wrapf(err, "export: write csv row %d", i+1)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes the same rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, Columns)
	for i := range leads {
		addRow(sheet, Row(&leads[i]))
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// FormatFor picks the format from an explicit name or the file extension.
func FormatFor(format, path string) (string, error) {
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			return FormatXLSX, nil
		}
		return FormatCSV, nil
	}
	switch f := strings.ToLower(format); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("export: unknown format %q", format)
	}
}

// Leads writes every lead in the store to path and returns the row count.
func Leads(ctx context.Context, s store.Store, path, format string) (int, error) {
	format, err := FormatFor(format, path)
	if err != nil {
		return 0, err
	}

	leads, err := s.ListLeads(ctx, store.LeadFilter{})
	if err != nil {
		return 0, eris.Wrap(err, "export: list leads")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, eris.Wrapf(err, "export: create dir %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	switch format {
	case FormatXLSX:
		err = WriteXLSX(f, leads)
	default:
		err = WriteCSV(f, leads)
	}
	if err != nil {
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, eris.Wrapf(err, "export: close %s", path)
	}

	zap.L().Info("leads exported", zap.String("path", path), zap.String("format", format), zap.Int("rows", len(leads)))
	return len(leads), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
