package preview

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/parquet-go/parquet-go"
)

// MaxParquetBytes caps the footer fetched for a schema preview.
const MaxParquetBytes = 1024 * 1024

const parquetMagic = "PAR1"

// ErrNotParquet is returned when the trailer lacks the parquet magic.
var ErrNotParquet = errors.New("not a parquet file")

// RangeFunc reads length bytes at offset of the file being previewed.
type RangeFunc func(offset, length int64) ([]byte, error)

// Schema is the footer of a parquet file.
type Schema struct {
	Columns   []Column
	NumRows   int64
	RowGroups int
}

// Column is one schema field. Depth is the nesting level below the root.
type Column struct {
	Name     string
	Type     string
	Depth    int
	Optional bool
	Repeated bool
}

func (*Schema) isData() {}

// Repetition returns the column's parquet repetition.
func (c Column) Repetition() string {
	switch {
	case c.Repeated:
		return "repeated"
	case c.Optional:
		return "optional"
	default:
		return "required"
	}
}

// Table lays the columns out for display, indenting nested fields.
func (s *Schema) Table() *Table {
	t := &Table{
		Headers:   []string{"Column", "Type", "Repetition"},
		TotalRows: len(s.Columns),
		Type:      FileType{Kind: Parquet},
	}
	for _, c := range s.Columns {
		name := c.Name
		for range c.Depth {
			name = "  " + name
		}
		t.Rows = append(t.Rows, []string{name, c.Type, c.Repetition()})
	}
	return t
}

// ParseParquet reads the schema of a size byte parquet file from its
// footer. Only the trailer and the footer are fetched.
func ParseParquet(size int64, readRange RangeFunc) (*Schema, error) {
	if size < int64(2*len(parquetMagic)+4) {
		return nil, ErrNotParquet
	}

	trailer, err := readRange(size-8, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet trailer: %w", err)
	}
	if len(trailer) != 8 || string(trailer[4:]) != parquetMagic {
		return nil, ErrNotParquet
	}

	footerLen := int64(binary.LittleEndian.Uint32(trailer[:4]))
	if footerLen+8 > MaxParquetBytes {
		return nil, fmt.Errorf("parquet footer is too large to preview (%s)", humanize.IBytes(uint64(footerLen)))
	}
	if footerLen+12 > size {
		return nil, fmt.Errorf("corrupt parquet footer length %d", footerLen)
	}

	tail, err := readRange(size-footerLen-8, footerLen+8)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet footer: %w", err)
	}
	if int64(len(tail)) != footerLen+8 {
		return nil, fmt.Errorf("short parquet footer read: %d of %d bytes", len(tail), footerLen+8)
	}

	f, err := parquet.OpenFile(&footerReader{size: size, tail: tail}, size,
		parquet.SkipPageIndex(true),
		parquet.SkipBloomFilters(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to decode parquet footer: %w", err)
	}

	s := &Schema{NumRows: f.NumRows(), RowGroups: len(f.RowGroups())}
	s.Columns = appendColumns(s.Columns, f.Schema().Fields(), 0)
	return s, nil
}

func appendColumns(cols []Column, fields []parquet.Field, depth int) []Column {
	for _, field := range fields {
		c := Column{
			Name:     field.Name(),
			Depth:    depth,
			Optional: field.Optional(),
			Repeated: field.Repeated(),
		}
		if field.Leaf() {
			c.Type = field.Type().String()
		} else {
			c.Type = "group"
		}
		cols = append(cols, c)
		if !field.Leaf() {
			cols = appendColumns(cols, field.Fields(), depth+1)
		}
	}
	return cols
}

// footerReader serves the leading magic and the fetched tail of a parquet
// file. Reads anywhere else fail.
type footerReader struct {
	size int64
	tail []byte
}

func (r *footerReader) ReadAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if off >= 0 && end <= int64(len(parquetMagic)) {
		return copy(p, parquetMagic[off:end]), nil
	}
	start := r.size - int64(len(r.tail))
	if off < start || end > r.size {
		return 0, fmt.Errorf("read at %d outside the parquet footer", off)
	}
	return copy(p, r.tail[off-start:]), nil
}
