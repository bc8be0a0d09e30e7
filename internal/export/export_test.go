package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func testLeads() []model.Lead {
	return []model.Lead{
		{
			CompanyName: "Smile, Studio", Email: strPtr("info@smile.co.uk"), Phone: strPtr("020 7000 0000"),
			InstagramURL: strPtr("https://instagram.com/smile"), ContactName: strPtr("Dr Lee"),
			Status: model.LeadStatusStopped, LastStepCompleted: intPtr(2),
		},
		{CompanyName: "Bare Dental", Status: model.LeadStatusCold},
	}
}

func TestRow(t *testing.T) {
	leads := testLeads()
	assert.Equal(t, []string{"Smile, Studio", "info@smile.co.uk", "020 7000 0000", "https://instagram.com/smile", "Dr Lee", "stopped", "2"}, Row(&leads[0]))
	assert.Equal(t, []string{"Bare Dental", "", "", "", "", "cold", ""}, Row(&leads[1]))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testLeads()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, "Smile, Studio", records[1][0])
	assert.Equal(t, "", records[2][6])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, testLeads()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[sheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "company_name", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "info@smile.co.uk", sheet.Rows[1].Cells[1].String())
}

func TestFormatFor(t *testing.T) {
	f, err := FormatFor("", "out/leads.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FormatFor("", "leads.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = FormatFor("CSV", "leads.xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatFor("json", "leads.json")
	assert.Error(t, err)
}

func TestLeads_WritesFile(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewSQLite(filepath.Join(dir, "leads.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	for _, l := range testLeads() {
		lead := l
		require.NoError(t, st.CreateLead(ctx, &lead))
	}

	path := filepath.Join(dir, "data", "leads_export.csv")
	n, err := Leads(ctx, st, path, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
