// Package preview detects previewable file types and turns the first bytes
// of an object into a table, formatted JSON or plain text. Parquet files are
// read from the footer instead and shown as their schema.
package preview

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MaxBytes is how much of an object is fetched for a preview.
	MaxBytes = 64 * 1024

	// MaxRows caps table rows; text and JSON keep twice as many lines.
	MaxRows = 100
)

// ErrBinary is returned for content that does not look like text.
var ErrBinary = errors.New("cannot preview binary file")

// Kind is the parser a file is routed to.
type Kind int

const (
	Unsupported Kind = iota
	CSV
	TSV
	JSON
	Text
	Parquet
)

// FileType is the detected type of a file. Label is the upper-cased
// extension for text files.
type FileType struct {
	Kind  Kind
	Label string
}

var textExtensions = []string{
	"txt", "md", "markdown", "rst", "adoc", "asciidoc",
	"yaml", "yml", "toml", "ini", "cfg", "conf", "config",
	"xml", "html", "htm", "svg", "css",
	"sh", "bash", "zsh", "fish", "ps1",
	"py", "pyw", "pyi", "rs", "go", "rb", "pl", "lua",
	"js", "ts", "jsx", "tsx", "mjs", "cjs",
	"c", "h", "cpp", "hpp", "cc", "cxx",
	"java", "kt", "kts", "scala", "groovy", "cs", "fs", "vb", "swift", "m", "mm",
	"r", "jl", "ex", "exs", "erl", "hrl", "hs", "lhs", "ml", "mli", "clj", "cljs",
	"sql", "graphql", "gql",
	"makefile", "cmake", "dockerfile", "gradle", "sbt", "cabal",
	"log", "env", "gitignore", "gitattributes", "editorconfig", "prettierrc", "eslintrc", "lock",
}

var extensionless = []string{"makefile", "dockerfile", "gemfile", "rakefile", "justfile", "procfile"}

// DetectType routes a file by its name.
func DetectType(filename string) FileType {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return FileType{Kind: CSV}
	case strings.HasSuffix(lower, ".tsv"), strings.HasSuffix(lower, ".tab"):
		return FileType{Kind: TSV}
	case strings.HasSuffix(lower, ".json"), strings.HasSuffix(lower, ".jsonl"):
		return FileType{Kind: JSON}
	case strings.HasSuffix(lower, ".parquet"), strings.HasSuffix(lower, ".pq"):
		return FileType{Kind: Parquet}
	}

	base := path.Base(lower)
	if i := strings.LastIndex(base, "."); i >= 0 && i < len(base)-1 {
		ext := base[i+1:]
		if slices.Contains(textExtensions, ext) {
			return FileType{Kind: Text, Label: strings.ToUpper(ext)}
		}
		return FileType{Kind: Unsupported}
	}
	if slices.Contains(extensionless, base) {
		return FileType{Kind: Text, Label: strings.ToUpper(base)}
	}
	return FileType{Kind: Unsupported}
}

// String returns the name shown in the preview title.
func (t FileType) String() string {
	switch t.Kind {
	case CSV:
		return "CSV"
	case TSV:
		return "TSV"
	case JSON:
		return "JSON"
	case Parquet:
		return "PARQUET"
	case Text:
		return t.Label
	default:
		return "Unsupported"
	}
}

// Data is one of *Table, *Document, *Plain or *Schema.
type Data interface {
	isData()
}

// Table is delimited data or a JSON array of objects.
type Table struct {
	Headers   []string
	Rows      [][]string
	TotalRows int
	Truncated bool
	Type      FileType
}

// Document is formatted JSON. Raw is set when the content did not parse,
// which is usually a document cut off at MaxBytes.
type Document struct {
	Content    string
	TotalLines int
	Truncated  bool
	Raw        bool
}

// Plain is a text file.
type Plain struct {
	Content    string
	TotalLines int
	Truncated  bool
	Label      string
}

func (*Table) isData()    {}
func (*Document) isData() {}
func (*Plain) isData()    {}

// Parse decodes data according to t. Unsupported types are sniffed and
// shown as text when they look like it. Parquet data must be the whole file.
func Parse(data []byte, t FileType) (Data, error) {
	switch t.Kind {
	case CSV:
		return parseDelimited(data, ',', t)
	case TSV:
		return parseDelimited(data, '\t', t)
	case JSON:
		return parseJSON(data)
	case Text:
		return parseText(data, t.Label)
	case Parquet:
		return ParseParquet(int64(len(data)), func(offset, length int64) ([]byte, error) {
			return data[offset : offset+length], nil
		})
	default:
		if isBinary(data) || !utf8.Valid(data) {
			return nil, ErrBinary
		}
		return parseText(data, "TEXT")
	}
}

func parseDelimited(data []byte, comma rune, t FileType) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}

	table := &Table{Headers: headers, Type: t}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(table.Rows) == 0 {
				return nil, fmt.Errorf("failed to parse data: %w", err)
			}
			table.Truncated = true
			break
		}
		table.TotalRows++
		if len(table.Rows) >= MaxRows {
			table.Truncated = true
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

func parseJSON(data []byte) (Data, error) {
	text := validText(data)
	if text == "" && len(data) > 0 {
		return nil, errors.New("could not decode file as UTF-8")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil || dec.More() {
		content, total := headLines(text, 2*MaxRows)
		return &Document{Content: content, TotalLines: total, Truncated: true, Raw: true}, nil
	}

	if arr, ok := value.([]any); ok {
		if table := arrayTable(arr); table != nil {
			return table, nil
		}
	}

	pretty, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to format JSON: %w", err)
	}
	content, total := headLines(string(pretty), 2*MaxRows)
	return &Document{Content: content, TotalLines: total, Truncated: total > 2*MaxRows}, nil
}

// arrayTable turns an array of objects into a table keyed by the first
// object's fields. It returns nil when any element is not an object.
func arrayTable(arr []any) *Table {
	if len(arr) == 0 {
		return nil
	}
	first, ok := arr[0].(map[string]any)
	if !ok || len(first) == 0 {
		return nil
	}
	headers := sortedKeys(first)

	table := &Table{
		Headers:   headers,
		TotalRows: len(arr),
		Truncated: len(arr) > MaxRows,
		Type:      FileType{Kind: JSON},
	}
	for i, v := range arr {
		if i >= MaxRows {
			break
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		row := make([]string, len(headers))
		for c, h := range headers {
			if cell, ok := obj[h]; ok {
				row[c] = cellString(cell)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func cellString(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		return fmt.Sprint(v)
	case json.Number:
		return v.String()
	case string:
		return v
	case []any:
		if len(v) > 3 {
			return fmt.Sprintf("[%d items]", len(v))
		}
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = cellString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		if len(v) > 2 {
			return fmt.Sprintf("{%d keys}", len(v))
		}
		keys := sortedKeys(v)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + cellString(v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}

func parseText(data []byte, label string) (*Plain, error) {
	text := validText(data)
	if text == "" && len(data) > 0 {
		return nil, ErrBinary
	}
	content, total := headLines(text, 2*MaxRows)
	return &Plain{
		Content:    content,
		TotalLines: total,
		Truncated:  len(data) >= MaxBytes,
		Label:      label,
	}, nil
}

// validText trims up to three trailing bytes to repair a multi-byte rune
// cut by the range read, falling back to replacing invalid sequences.
func validText(data []byte) string {
	for trim := 0; trim < 4 && trim < len(data); trim++ {
		if utf8.Valid(data[:len(data)-trim]) {
			return string(data[:len(data)-trim])
		}
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// isBinary looks for NUL bytes or a high share of control characters in
// the first 8 KiB.
func isBinary(data []byte) bool {
	sample := data[:min(len(data), 8192)]
	control := 0
	for _, b := range sample {
		switch {
		case b == 0:
			return true
		case b < 0x09, b > 0x0D && b < 0x20 && b != 0x1B:
			control++
		}
	}
	return control > len(sample)/10
}

// headLines returns at most limit lines of text and the total line count.
func headLines(text string, limit int) (string, int) {
	lines := splitLines(text)
	if len(lines) > limit {
		return strings.Join(lines[:limit], "\n"), len(lines)
	}
	return strings.Join(lines, "\n"), len(lines)
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
