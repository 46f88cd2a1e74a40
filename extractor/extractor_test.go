package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		contains string
	}{
		{
			name:     "plain text passthrough",
			filename: "ordinance.txt",
			content:  []byte("Income Tax Ordinance 1984"),
			contains: "Income Tax Ordinance 1984",
		},
		{
			name:     "unknown extension treated as text",
			filename: "notes.xyz",
			content:  []byte("raw content"),
			contains: "raw content",
		},
		{
			name:     "invalid utf-8 dropped",
			filename: "notes.txt",
			content:  []byte("Section\xff 44"),
			contains: "Section 44",
		},
		{
			name:     "HTML visible text",
			filename: "sro.html",
			content:  []byte("<html><body><p>SRO 123</p><script>var x=1;</script><p>applies</p></body></html>"),
			contains: "SRO 123 applies",
		},
		{
			name:     "CSV tab separated",
			filename: "salary.csv",
			content:  []byte("item,amount\nsalary,1200000"),
			contains: "salary\t1200000",
		},
		{
			name:     "JSON pretty-print",
			filename: "input.json",
			content:  []byte(`{"tin":"123"}`),
			contains: "\"tin\": \"123\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(tt.content, tt.filename)
			require.NoError(t, err)
			assert.Contains(t, got, tt.contains)
		})
	}
}

func TestExtractHTML_SkipsStyle(t *testing.T) {
	got, err := ExtractText([]byte("<html><head><style>body{}</style></head><body>Rule 7</body></html>"), "x.htm")
	require.NoError(t, err)
	assert.NotContains(t, got, "body{}")
	assert.Equal(t, "Rule 7", got)
}

func TestExtractPDF_Invalid(t *testing.T) {
	_, err := ExtractText([]byte("not a pdf"), "law.pdf")
	assert.Error(t, err)
}

func xlsxFixture(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "item"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "amount"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "salary"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "1200000"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "rent"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExtractXLSX(t *testing.T) {
	got, err := ExtractText(xlsxFixture(t), "return.xlsx")
	require.NoError(t, err)
	assert.Contains(t, got, "# Sheet1")
	assert.Contains(t, got, "salary\t1200000")
}

func TestParseSpreadsheet(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		sheet, err := ParseSpreadsheet([]byte("item,amount\nsalary,1200000\nrent"), "a.csv")
		require.NoError(t, err)
		assert.Equal(t, []string{"item", "amount"}, sheet.Columns)
		assert.Equal(t, 2, sheet.TotalRows)
		assert.Equal(t, "1200000", sheet.Rows[0]["amount"])
		assert.Equal(t, "", sheet.Rows[1]["amount"])
	})

	t.Run("xlsx", func(t *testing.T) {
		sheet, err := ParseSpreadsheet(xlsxFixture(t), "a.xlsx")
		require.NoError(t, err)
		assert.Equal(t, []string{"item", "amount"}, sheet.Columns)
		assert.Equal(t, 2, sheet.TotalRows)
		assert.Equal(t, "salary", sheet.Rows[0]["item"])
	})

	t.Run("empty csv", func(t *testing.T) {
		sheet, err := ParseSpreadsheet(nil, "a.csv")
		require.NoError(t, err)
		assert.Zero(t, sheet.TotalRows)
	})

	t.Run("not tabular", func(t *testing.T) {
		_, err := ParseSpreadsheet([]byte("x"), "a.txt")
		assert.ErrorIs(t, err, ErrNotSpreadsheet)
	})
}

func TestFileType(t *testing.T) {
	assert.Equal(t, TypePDF, FileType("Finance Act.PDF"))
	assert.Equal(t, TypeHTML, FileType("a.htm"))
	assert.Equal(t, TypeText, FileType("README"))
	assert.Equal(t, TypeText, FileType("image.png"))
	assert.True(t, Supported("a.xlsx"))
	assert.False(t, Supported("image.png"))
	assert.True(t, IsSpreadsheet("a.csv"))
	assert.False(t, IsSpreadsheet("a.pdf"))
}
