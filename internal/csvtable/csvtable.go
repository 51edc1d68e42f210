// Package csvtable reads and writes header-addressed CSV tables through gocsv.
package csvtable

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
)

func init() {
	gocsv.SetHeaderNormalizer(strings.TrimSpace)
}

// MissingColumnsError names the required columns a table lacks.
type MissingColumnsError struct {
	Table   string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s is missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// Header returns the trimmed header row of a CSV document.
func Header(data []byte) ([]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read header: %w", err)
	}
	return lo.Map(header, func(h string, _ int) string { return strings.TrimSpace(h) }), nil
}

// Read decodes a CSV table into out (a pointer to a slice of tagged structs) after checking
// that every required column is present.
func Read(table string, r io.Reader, required []string, out any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", table, err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	header, err := Header(data)
	if err != nil {
		return fmt.Errorf("%s: %w", table, err)
	}
	missing, _ := lo.Difference(required, header)
	if len(missing) > 0 {
		return &MissingColumnsError{Table: table, Missing: missing}
	}

	if err := gocsv.UnmarshalBytes(data, out); err != nil {
		return fmt.Errorf("could not decode %s: %w", table, err)
	}
	return nil
}

// ReadFile opens path and decodes it with Read. The table is named after the file.
func ReadFile(path string, required []string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Read(filepath.Base(path), f, required, out)
}

// Write encodes in (a slice of tagged structs) with a header row.
func Write(w io.Writer, in any) error {
	return gocsv.Marshal(in, w)
}

// WriteFile encodes in into path, creating parent directories as needed.
func WriteFile(path string, in any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create directory for %s: %w", path, err)
	}
	var b bytes.Buffer
	if err := Write(&b, in); err != nil {
		return fmt.Errorf("could not encode %s: %w", path, err)
	}
	return os.WriteFile(path, b.Bytes(), 0o644)
}
