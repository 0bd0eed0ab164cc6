package caseload

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// recordBatch is an ordered, bounded-size slice of rows read from one source
// file, column-aligned to the schema columns present in the file's header.
// A batch is transient: created, inserted, discarded.
type recordBatch struct {
	// columns are the schema columns present in the file, in file order.
	columns []string
	// rows hold one value per column; the empty string denotes NULL.
	rows [][]string
	// skipped are header names excluded from ingestion (dropped archive
	// columns or names outside the fixed schema). Informational.
	skipped []string
}

// batchFunc consumes one record batch. Returning an error stops the parse.
type batchFunc func(batch *recordBatch) error

// columnProjection maps source fields onto the subset of schema columns the
// file actually carries.
type columnProjection struct {
	columns []string
	indexes []int
	skipped []string
}

// projectHeader builds the projection for a header row. The header defines
// column names; the two dropped archive columns and any name outside the
// fixed schema are excluded. A header that omits schema columns is fine; the
// insert targets only columns actually present.
func projectHeader(fields []string) (*columnProjection, error) {
	p := &columnProjection{}
	for i, raw := range fields {
		name := strings.TrimSpace(raw)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, drop := droppedColumns[name]; drop {
			p.skipped = append(p.skipped, name)
			continue
		}
		if _, ok := schemaColumns[name]; !ok {
			p.skipped = append(p.skipped, name)
			continue
		}
		p.columns = append(p.columns, name)
		p.indexes = append(p.indexes, i)
	}
	if len(p.columns) == 0 {
		return nil, ErrNoSchemaColumns
	}
	return p, nil
}

// project extracts the kept fields of one source row. Rows shorter than the
// header yield empty (NULL) values for the missing tail.
func (p *columnProjection) project(fields []string) []string {
	row := make([]string, len(p.indexes))
	for i, idx := range p.indexes {
		if idx < len(fields) {
			row[i] = fields[idx]
		}
	}
	return row
}

// parseSource streams the file content through fn in chunks of at most
// chunkRows rows. The delimiter applies to CSV sources only.
func parseSource(ctx context.Context, reader io.Reader, format fileFormat, delimiter rune, chunkRows int, fn batchFunc) error {
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}
	switch format {
	case formatCSV:
		return parseDelimitedChunks(ctx, reader, delimiter, chunkRows, fn)
	case formatTSV:
		return parseDelimitedChunks(ctx, reader, '\t', chunkRows, fn)
	case formatXLSX:
		return parseXLSXChunks(ctx, reader, chunkRows, fn)
	case formatParquet:
		return parseParquetChunks(ctx, reader, chunkRows, fn)
	default:
		return ErrUnsupportedFormat
	}
}

// parseDelimitedChunks reads delimited text row by row, emitting batches of at
// most chunkRows rows. The header row defines column names. Records may carry
// fewer or more fields than the header; surplus fields are ignored and missing
// ones become NULL.
func parseDelimitedChunks(ctx context.Context, reader io.Reader, delimiter rune, chunkRows int, fn batchFunc) error {
	csvReader := csv.NewReader(bufio.NewReaderSize(reader, 256*1024))
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1

	headerFields, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptySource
		}
		return fmt.Errorf("read header: %w", err)
	}

	proj, err := projectHeader(headerFields)
	if err != nil {
		return err
	}

	var rows [][]string
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := &recordBatch{columns: proj.columns, rows: rows, skipped: proj.skipped}
		rows = nil
		return fn(batch)
	}

	for {
		record, err := csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read record: %w", err)
		}
		rows = append(rows, proj.project(record))
		if len(rows) >= chunkRows {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// parseXLSXChunks reads the first sheet of a workbook through the same chunk
// pipeline as delimited text. Workbooks are read via a row iterator so only
// one chunk of rows is materialized at a time.
func parseXLSXChunks(ctx context.Context, reader io.Reader, chunkRows int, fn batchFunc) error {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = workbook.Close()
	}()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return ErrEmptySource
	}

	iter, err := workbook.Rows(sheets[0])
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", sheets[0], err)
	}
	defer iter.Close()

	var (
		proj *columnProjection
		rows [][]string
	)
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := &recordBatch{columns: proj.columns, rows: rows, skipped: proj.skipped}
		rows = nil
		return fn(batch)
	}

	for iter.Next() {
		fields, err := iter.Columns()
		if err != nil {
			return fmt.Errorf("read row in sheet %s: %w", sheets[0], err)
		}
		if proj == nil {
			// Skip leading empty rows before the header.
			if len(fields) == 0 {
				continue
			}
			if proj, err = projectHeader(fields); err != nil {
				return err
			}
			continue
		}
		rows = append(rows, proj.project(fields))
		if len(rows) >= chunkRows {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if proj == nil {
		return ErrEmptySource
	}
	return flush()
}

// parseParquetChunks converts parquet record batches to string rows and feeds
// them through the chunk pipeline. Parquet needs random access, so the whole
// file is buffered in memory first.
func parseParquetChunks(ctx context.Context, reader io.Reader, chunkRows int, fn batchFunc) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read parquet data: %w", err)
	}
	if len(data) == 0 {
		return ErrEmptySource
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("open parquet: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return fmt.Errorf("arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return fmt.Errorf("read parquet table: %w", err)
	}
	defer table.Release()

	schema := table.Schema()
	names := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		names[i] = field.Name
	}
	proj, err := projectHeader(names)
	if err != nil {
		return err
	}

	tableReader := array.NewTableReader(table, int64(chunkRows))
	defer tableReader.Release()

	for tableReader.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := tableReader.Record()

		numRows := int(rec.NumRows())
		fields := make([]string, rec.NumCols())
		rows := make([][]string, 0, numRows)
		for i := range numRows {
			for j, col := range rec.Columns() {
				if col.IsNull(i) {
					fields[j] = ""
				} else {
					fields[j] = col.ValueStr(i)
				}
			}
			rows = append(rows, proj.project(fields))
		}
		if len(rows) == 0 {
			continue
		}
		batch := &recordBatch{columns: proj.columns, rows: rows, skipped: proj.skipped}
		if err := fn(batch); err != nil {
			return err
		}
	}
	if err := tableReader.Err(); err != nil {
		return fmt.Errorf("read parquet records: %w", err)
	}
	return nil
}
