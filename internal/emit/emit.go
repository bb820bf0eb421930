package emit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/Zuo-Peng/rec2csv/internal/parse"
)

// Header is the first line of the numeric and string outputs.
const Header = "rec,field,val\n"

const bufSize = 64 * 1024

// Emitter routes parse results to the numeric, string and error sinks.
type Emitter struct {
	numbers *bufio.Writer
	strings *bufio.Writer
	errors  *bufio.Writer
}

// New wraps the three sinks and writes the header to the numeric and string
// sinks. The error sink gets no header.
func New(numbers, strs, errs io.Writer) (*Emitter, error) {
	e := &Emitter{
		numbers: bufio.NewWriterSize(numbers, bufSize),
		strings: bufio.NewWriterSize(strs, bufSize),
		errors:  bufio.NewWriterSize(errs, bufSize),
	}
	if _, err := e.numbers.WriteString(Header); err != nil {
		return nil, fmt.Errorf("write numbers header: %w", err)
	}
	if _, err := e.strings.WriteString(Header); err != nil {
		return nil, fmt.Errorf("write strings header: %w", err)
	}
	return e, nil
}

// Write appends one line per field for a parsed record, or the rendered
// error for a rejected one.
func (e *Emitter) Write(res parse.Result) error {
	if res.Err != nil {
		if _, err := e.errors.WriteString(res.Err.Error()); err != nil {
			return fmt.Errorf("write error log: %w", err)
		}
		return nil
	}

	rec := res.Record
	for _, f := range rec.Fields {
		w := e.numbers
		if f.Value.Kind == parse.KindStr {
			w = e.strings
		}
		if _, err := w.WriteString(FormatField(rec.ID, f)); err != nil {
			return fmt.Errorf("write record %d: %w", rec.ID, err)
		}
	}
	return nil
}

// Flush flushes all three sinks, returning the first error.
func (e *Emitter) Flush() error {
	return errors.Join(e.numbers.Flush(), e.strings.Flush(), e.errors.Flush())
}

// FormatField renders one output line: rec;field;value with strings quoted
// as they are.
func FormatField(recID int32, f parse.Field) string {
	b := make([]byte, 0, 32+len(f.Value.Str))
	b = strconv.AppendInt(b, int64(recID), 10)
	b = append(b, ';')
	b = strconv.AppendInt(b, int64(f.ID), 10)
	b = append(b, ';')
	if f.Value.Kind == parse.KindStr {
		b = append(b, '"')
		b = append(b, f.Value.Str...)
		b = append(b, '"')
	} else {
		b = strconv.AppendInt(b, int64(f.Value.Num), 10)
	}
	b = append(b, '\n')
	return string(b)
}

// ErrExists is returned when an output path is already taken.
var ErrExists = errors.New("output already exists")

// Files holds the three output files created for one run.
type Files struct {
	Numbers *os.File
	Strings *os.File
	Errors  *os.File
}

// CreateSinks creates the three output files. No existing file is ever
// truncated: if any path exists nothing is created, and files created before
// a later failure are removed again.
func CreateSinks(numbersPath, stringsPath, errorsPath string) (*Files, error) {
	paths := []string{numbersPath, stringsPath, errorsPath}
	for _, p := range paths {
		if _, err := os.Lstat(p); err == nil {
			return nil, fmt.Errorf("create %s: %w", p, ErrExists)
		}
	}

	var created []*os.File
	cleanup := func() {
		for _, f := range created {
			f.Close()
			os.Remove(f.Name())
		}
	}
	for _, p := range paths {
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			cleanup()
			if errors.Is(err, fs.ErrExist) {
				return nil, fmt.Errorf("create %s: %w", p, ErrExists)
			}
			return nil, fmt.Errorf("create %s: %w", p, err)
		}
		created = append(created, f)
	}

	return &Files{Numbers: created[0], Strings: created[1], Errors: created[2]}, nil
}

func (f *Files) Close() error {
	return errors.Join(f.Numbers.Close(), f.Strings.Close(), f.Errors.Close())
}
