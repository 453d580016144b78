// Package export writes query results out as CSV, to any writer, a local
// file, or an object store bucket.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/koustreak/querykit/internal/database"
	"github.com/koustreak/querykit/internal/errs"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// CSVOptions controls the CSV layout.
type CSVOptions struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune

	// IncludeIndex prepends a column holding the zero-based row number.
	// Its header cell is empty.
	IncludeIndex bool

	// NoHeader omits the column-name row.
	NoHeader bool

	// Encoding is the output character set, named as in the WHATWG encoding
	// list (e.g. "windows-1252", "shift_jis"). Empty means UTF-8;
	// "utf-8-sig" is UTF-8 with a byte order mark.
	Encoding string
}

const utf8BOM = "\xEF\xBB\xBF"

// encoder wraps w so that output is written in o.Encoding. The returned
// flush must be called once everything is written.
func (o CSVOptions) encoder(w io.Writer) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	name := strings.ToLower(strings.TrimSpace(o.Encoding))
	switch name {
	case "", "utf-8", "utf8":
		return w, noop, nil
	case "utf-8-sig", "utf8-sig":
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return nil, nil, writeErr(err)
		}
		return w, noop, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported encoding %q", o.Encoding), err)
	}
	tw := transform.NewWriter(w, enc.NewEncoder())
	return tw, tw.Close, nil
}

func (o CSVOptions) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.Encoding)) {
	case "", "utf-8", "utf8", "utf-8-sig", "utf8-sig":
		return nil
	}
	if _, err := htmlindex.Get(o.Encoding); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported encoding %q", o.Encoding), err)
	}
	return nil
}

func (o CSVOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// WriteCSV writes res to w. Columns and rows keep driver order.
func WriteCSV(w io.Writer, res *database.Result, opts CSVOptions) error {
	if res == nil {
		return errs.New(errs.ErrKindInvalidInput, "no results to save; execute a query first")
	}
	if err := opts.validate(); err != nil {
		return err
	}

	out, flush, err := opts.encoder(w)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(out)
	cw.Comma = opts.delimiter()

	if !opts.NoHeader {
		header := res.Columns()
		if opts.IncludeIndex {
			header = append([]string{""}, header...)
		}
		if err := cw.Write(header); err != nil {
			return writeErr(err)
		}
	}

	width := len(res.Columns())
	if opts.IncludeIndex {
		width++
	}
	record := make([]string, 0, width)

	for i := 0; i < res.Len(); i++ {
		record = record[:0]
		if opts.IncludeIndex {
			record = append(record, strconv.Itoa(i))
		}
		for _, v := range res.Row(i) {
			record = append(record, formatValue(v))
		}
		if err := cw.Write(record); err != nil {
			return writeErr(err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return writeErr(err)
	}
	if err := flush(); err != nil {
		return writeErr(err)
	}
	return nil
}

// SaveCSV writes res to the file at path, creating or truncating it.
func SaveCSV(path string, res *database.Result, opts CSVOptions) (err error) {
	if res == nil {
		return errs.New(errs.ErrKindInvalidInput, "no results to save; execute a query first")
	}
	if err := opts.validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("cannot create %s", path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = writeErr(cerr)
		}
	}()

	return WriteCSV(f, res, opts)
}

func writeErr(err error) error {
	return errs.Wrap(errs.ErrKindUnknown, "failed to write CSV", err)
}

// formatValue renders one driver value as a CSV field. NULL becomes an
// empty field.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
