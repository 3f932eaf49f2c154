package wizard

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ImportResult is the merged reading map after a CSV import.
type ImportResult struct {
	Readings map[int]NewReading
	Accepted int
	Skipped  int
	Logs     []LogEntry
}

// Events turns the import into the transitions that record it.
func (r ImportResult) Events() []Event {
	events := []Event{ReadingsReplaced{Readings: r.Readings}}
	for _, entry := range r.Logs {
		events = append(events, LogAppended{Entry: entry})
	}
	return events
}

// ImportCSV merges a semicolon separated file of unit_code;reading;date rows
// into the readings of s. Rows for unknown units or with a non-numeric reading
// are skipped. A row with a bad date keeps its reading and gets a nil date.
// A malformed file fails the whole import and leaves s untouched.
func ImportCSV(reader io.Reader, s State, now time.Time) (ImportResult, error) {
	res := ImportResult{Readings: cloneReadings(s.Readings)}

	r := csv.NewReader(reader)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	first := true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ImportResult{}, fmt.Errorf("read csv: %w", err)
		}
		if first && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
			first = false
		}
		if len(record) < 2 {
			res.Skipped++
			continue
		}

		codigoLote, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			res.Skipped++
			continue
		}
		baseline, ok := s.Baseline(codigoLote)
		if !ok {
			res.Skipped++
			continue
		}
		leitura, ok := parseReadingValue(record[1])
		if !ok {
			res.Skipped++
			continue
		}

		var rawDate string
		if len(record) > 2 {
			rawDate = record[2]
		}
		var dataLeitura *string
		if formatted, err := ParseReadingDate(rawDate, now); err == nil {
			dataLeitura = ptr(formatted)
		} else {
			res.Logs = append(res.Logs, newLog(LogInfo, fmt.Sprintf("Warning: unit %d has an invalid reading date %q; reading kept without date.", codigoLote, strings.TrimSpace(rawDate)), now))
		}

		reading := res.Readings[codigoLote]
		if _, exists := res.Readings[codigoLote]; !exists {
			reading.MediaMovel6 = baseline.MediaMovel6MesesAnteriores
			reading.MediaMovel12 = baseline.MediaMovel12MesesAnteriores
		}
		reading.LeituraAtual = ptr(leitura)
		reading.Consumo = ptr(Consumption(leitura, baseline.LeituraAnterior))
		reading.DataLeituraAtual = dataLeitura
		res.Readings[codigoLote] = reading
		res.Accepted++
	}

	res.Logs = append(res.Logs, newLog(LogSuccess, fmt.Sprintf("%d readings from the CSV file were processed.", res.Accepted), now))
	return res, nil
}

func parseReadingValue(raw string) (float64, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Consumption is current minus previous, computed in decimal so that
// 345.6 - 300 is 45.6.
func Consumption(current, previous float64) float64 {
	f, _ := decimal.NewFromFloat(current).Sub(decimal.NewFromFloat(previous)).Float64()
	return f
}
