package report

import (
	"fmt"
	"io"

	"github.com/klokku/revenue/internal/csvtable"
	"github.com/klokku/revenue/pkg/period"
)

// Emitter writes the monthly revenue report file.
type Emitter struct {
	pathTemplate string
}

// NewEmitter takes the report path with a {month} placeholder, e.g. revenue_{month}.csv.
func NewEmitter(pathTemplate string) *Emitter {
	return &Emitter{pathTemplate: pathTemplate}
}

func (e *Emitter) Path(month period.Month) string {
	return month.Expand(e.pathTemplate)
}

// Write encodes records with a header row. An empty report still gets its header.
func (e *Emitter) Write(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	return csvtable.Write(w, &records)
}

// WriteFile writes the report of month and returns its path.
func (e *Emitter) WriteFile(month period.Month, records []Record) (string, error) {
	path := e.Path(month)
	if records == nil {
		records = []Record{}
	}
	if err := csvtable.WriteFile(path, &records); err != nil {
		return "", fmt.Errorf("could not write report: %w", err)
	}
	return path, nil
}
