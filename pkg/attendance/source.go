package attendance

import (
	"fmt"

	"github.com/klokku/revenue/internal/csvtable"
	"github.com/klokku/revenue/pkg/period"
	log "github.com/sirupsen/logrus"
)

// Source locates the monthly ledger and quarantine files from {month} path templates.
type Source struct {
	ledgerTemplate     string
	quarantineTemplate string
}

func NewSource(ledgerTemplate, quarantineTemplate string) *Source {
	return &Source{ledgerTemplate: ledgerTemplate, quarantineTemplate: quarantineTemplate}
}

// Load reads and normalizes the ledger of a month. Quarantined rows are written out even
// when normalization fails afterwards, so they can be inspected.
func (s *Source) Load(month period.Month) (*Ledger, error) {
	path := month.Expand(s.ledgerTemplate)
	rows, err := ReadLedger(path)
	if err != nil {
		return nil, err
	}
	log.Infof("Read %d attendance rows from %s", len(rows), path)

	ledger, normalizeErr := Normalize(rows, month)
	if len(ledger.Quarantined) > 0 {
		quarantinePath := month.Expand(s.quarantineTemplate)
		if err := WriteQuarantine(quarantinePath, ledger.Quarantined); err != nil {
			return nil, err
		}
		ledger.QuarantineFile = quarantinePath
		log.Warnf("Invalid attendance rows logged to %s", quarantinePath)
	}
	if normalizeErr != nil {
		return nil, normalizeErr
	}
	return ledger, nil
}

// WriteQuarantine writes rows in the ledger schema.
func WriteQuarantine(path string, rows []RawRecord) error {
	if err := csvtable.WriteFile(path, rows); err != nil {
		return fmt.Errorf("could not write quarantine file: %w", err)
	}
	return nil
}
