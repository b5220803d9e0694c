package preview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		want FileType
	}{
		{"data.csv", FileType{Kind: CSV}},
		{"DATA.CSV", FileType{Kind: CSV}},
		{"table.tsv", FileType{Kind: TSV}},
		{"table.tab", FileType{Kind: TSV}},
		{"events.json", FileType{Kind: JSON}},
		{"events.jsonl", FileType{Kind: JSON}},
		{"README.md", FileType{Kind: Text, Label: "MD"}},
		{"logs/app.log", FileType{Kind: Text, Label: "LOG"}},
		{"main.go", FileType{Kind: Text, Label: "GO"}},
		{"Makefile", FileType{Kind: Text, Label: "MAKEFILE"}},
		{"build/Dockerfile", FileType{Kind: Text, Label: "DOCKERFILE"}},
		{"image.png", FileType{Kind: Unsupported}},
		{"data.parquet", FileType{Kind: Parquet}},
		{"part-0001.PQ", FileType{Kind: Parquet}},
		{"noext", FileType{Kind: Unsupported}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectType(tt.name))
		})
	}
}

func TestFileTypeString(t *testing.T) {
	assert.Equal(t, "CSV", DetectType("a.csv").String())
	assert.Equal(t, "PY", DetectType("a.py").String())
	assert.Equal(t, "Unsupported", DetectType("a.bin").String())
	assert.Equal(t, "PARQUET", DetectType("a.parquet").String())
}

func TestParse_CSV(t *testing.T) {
	data := []byte("name,age\nalice,30\nbob,25\n")

	got, err := Parse(data, FileType{Kind: CSV})
	require.NoError(t, err)

	table, ok := got.(*Table)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "age"}, table.Headers)
	assert.Equal(t, [][]string{{"alice", "30"}, {"bob", "25"}}, table.Rows)
	assert.Equal(t, 2, table.TotalRows)
	assert.False(t, table.Truncated)
}

func TestParse_TSVFlexibleRows(t *testing.T) {
	data := []byte("a\tb\tc\n1\t2\n3\t4\t5\t6\n")

	got, err := Parse(data, FileType{Kind: TSV})
	require.NoError(t, err)

	table := got.(*Table)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4", "5", "6"}}, table.Rows)
}

func TestParse_CSVCountsRowsPastLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < MaxRows+20; i++ {
		fmt.Fprintf(&b, "%d\n", i)
	}

	got, err := Parse([]byte(b.String()), FileType{Kind: CSV})
	require.NoError(t, err)

	table := got.(*Table)
	assert.Len(t, table.Rows, MaxRows)
	assert.Equal(t, MaxRows+20, table.TotalRows)
	assert.True(t, table.Truncated)
}

func TestParse_JSONArrayAsTable(t *testing.T) {
	data := []byte(`[{"name":"alice","age":30,"tags":["a","b"]},{"name":"bob","extra":true}]`)

	got, err := Parse(data, FileType{Kind: JSON})
	require.NoError(t, err)

	table, ok := got.(*Table)
	require.True(t, ok)
	assert.Equal(t, []string{"age", "name", "tags"}, table.Headers)
	assert.Equal(t, [][]string{
		{"30", "alice", "[a, b]"},
		{"", "bob", ""},
	}, table.Rows)
	assert.Equal(t, JSON, table.Type.Kind)
}

func TestParse_JSONObjectIsPrettyPrinted(t *testing.T) {
	data := []byte(`{"b":1,"a":{"c":[1,2]}}`)

	got, err := Parse(data, FileType{Kind: JSON})
	require.NoError(t, err)

	doc, ok := got.(*Document)
	require.True(t, ok)
	assert.False(t, doc.Raw)
	assert.False(t, doc.Truncated)
	assert.Equal(t, "{\n  \"a\": {\n    \"c\": [\n      1,\n      2\n    ]\n  },\n  \"b\": 1\n}", doc.Content)
	assert.Equal(t, 9, doc.TotalLines)
}

func TestParse_TruncatedJSONFallsBackToRaw(t *testing.T) {
	data := []byte("{\n  \"items\": [1, 2,\n")

	got, err := Parse(data, FileType{Kind: JSON})
	require.NoError(t, err)

	doc := got.(*Document)
	assert.True(t, doc.Raw)
	assert.True(t, doc.Truncated)
	assert.Equal(t, "{\n  \"items\": [1, 2,", doc.Content)
}

func TestParse_JSONLinesIsRaw(t *testing.T) {
	data := []byte("{\"a\":1}\n{\"a\":2}\n")

	got, err := Parse(data, FileType{Kind: JSON})
	require.NoError(t, err)
	assert.True(t, got.(*Document).Raw)
}

func TestParse_TextRepairsCutRune(t *testing.T) {
	data := append([]byte("héllo\nwörld "), []byte("日")[:2]...)

	got, err := Parse(data, FileType{Kind: Text, Label: "TXT"})
	require.NoError(t, err)

	plain := got.(*Plain)
	assert.Equal(t, "héllo\nwörld ", plain.Content)
	assert.Equal(t, 2, plain.TotalLines)
	assert.Equal(t, "TXT", plain.Label)
	assert.False(t, plain.Truncated)
}

func TestParse_TextLimitsLines(t *testing.T) {
	text := strings.Repeat("line\r\n", 2*MaxRows+5)

	got, err := Parse([]byte(text), FileType{Kind: Text, Label: "LOG"})
	require.NoError(t, err)

	plain := got.(*Plain)
	assert.Equal(t, 2*MaxRows+5, plain.TotalLines)
	assert.Len(t, strings.Split(plain.Content, "\n"), 2*MaxRows)
	assert.NotContains(t, plain.Content, "\r")
}

func TestParse_TextMarksFullRangeAsTruncated(t *testing.T) {
	data := []byte(strings.Repeat("x", MaxBytes))

	got, err := Parse(data, FileType{Kind: Text, Label: "TXT"})
	require.NoError(t, err)
	assert.True(t, got.(*Plain).Truncated)
}

func TestParse_UnsupportedSniffsContent(t *testing.T) {
	got, err := Parse([]byte("just some words\n"), FileType{Kind: Unsupported})
	require.NoError(t, err)
	assert.Equal(t, "TEXT", got.(*Plain).Label)

	_, err = Parse([]byte{0x89, 'P', 'N', 'G', 0x00, 0x01}, FileType{Kind: Unsupported})
	assert.ErrorIs(t, err, ErrBinary)

	_, err = Parse([]byte{0x01, 0x02, 0x03, 0x04, 'a'}, FileType{Kind: Unsupported})
	assert.ErrorIs(t, err, ErrBinary)
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "null", cellString(nil))
	assert.Equal(t, "true", cellString(true))
	assert.Equal(t, "[4 items]", cellString([]any{1, 2, 3, 4}))
	assert.Equal(t, "{3 keys}", cellString(map[string]any{"a": 1, "b": 2, "c": 3}))
	assert.Equal(t, "{a: x, b: null}", cellString(map[string]any{"b": nil, "a": "x"}))
}
