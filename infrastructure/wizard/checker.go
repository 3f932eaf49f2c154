package wizard

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Reading status messages, in classification precedence order.
const (
	MessagePending  = "Reading pending."
	MessageInvalid  = "Invalid reading or negative consumption."
	MessageUrgent   = "Urgent check required."
	MessageVeryHigh = "Consumption very high."
	MessageZero     = "Zero consumption this month."
	MessageAbnormal = "Abnormal consumption."
	MessageNormal   = "Normal consumption."
)

const (
	urgentFactor   = 2.5
	veryHighFactor = 2.0
	abnormalFactor = 1.5
	statsPlaces    = 2
)

// Stats are the descriptive statistics of valid consumption values.
type Stats struct {
	Total  float64
	Mean   float64
	Median float64
}

// ComputeStats returns total, mean and median of the non-nil, non-negative
// consumptions, each rounded to two decimals. No values yields zeros.
func ComputeStats(readings map[int]NewReading) Stats {
	values := make([]float64, 0, len(readings))
	for _, r := range readings {
		if r.Consumo != nil && *r.Consumo >= 0 {
			values = append(values, *r.Consumo)
		}
	}
	if len(values) == 0 {
		return Stats{}
	}
	sort.Float64s(values)

	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	mean := total.Div(decimal.NewFromInt(int64(len(values))))

	mid := len(values) / 2
	median := decimal.NewFromFloat(values[mid])
	if len(values)%2 == 0 {
		median = decimal.NewFromFloat(values[mid-1]).Add(median).Div(decimal.NewFromInt(2))
	}

	return Stats{
		Total:  round2(total),
		Mean:   round2(mean),
		Median: round2(median),
	}
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(statsPlaces).Float64()
	return f
}

// Classify returns the status message of a reading against the global median.
// notable reports whether the classification also deserves an info log line.
func Classify(r NewReading, median float64) (message string, notable bool) {
	if r.Consumo == nil || r.LeituraAtual == nil {
		return MessagePending, false
	}
	consumo := *r.Consumo
	switch {
	case consumo < 0 || *r.LeituraAtual == 0:
		return MessageInvalid, false
	case median > 0 && consumo >= urgentFactor*median:
		return MessageUrgent, true
	case median > 0 && consumo > veryHighFactor*median:
		return MessageVeryHigh, true
	case consumo == 0:
		return MessageZero, false
	case consumo > abnormalFactor*r.MediaMovel6 && consumo >= abnormalFactor*median:
		return MessageAbnormal, true
	default:
		return MessageNormal, false
	}
}

// CheckResult is the outcome of a consistency check. Logs are in emission
// order (oldest first).
type CheckResult struct {
	Stats      Stats
	Readings   map[int]NewReading
	ErrorCount int
	Logs       []LogEntry
}

// Passed reports whether submission may proceed.
func (r CheckResult) Passed() bool {
	return r.ErrorCount == 0
}

// Events turns the result into the transitions that record it.
func (r CheckResult) Events() []Event {
	events := []Event{
		ProductionDataChanged{Patch: ProductionPatch{
			TotalConsumoM3: Set(ptr(r.Stats.Total)),
			MediaM3:        Set(ptr(r.Stats.Mean)),
			MedianaM3:      Set(ptr(r.Stats.Median)),
		}},
		ReadingsReplaced{Readings: r.Readings},
	}
	for _, entry := range r.Logs {
		events = append(events, LogAppended{Entry: entry})
	}
	return events
}

// Check computes statistics, classifies every reading and counts the missing
// required fields of s.
func Check(s State, now time.Time) CheckResult {
	res := CheckResult{
		Readings: cloneReadings(s.Readings),
		Logs:     []LogEntry{newLog(LogInfo, "Running consistency check...", now)},
	}
	res.Stats = ComputeStats(s.Readings)

	codes := make([]int, 0, len(res.Readings))
	for code := range res.Readings {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		r := res.Readings[code]
		message, notable := Classify(r, res.Stats.Median)
		r.MesMensagem = message
		res.Readings[code] = r
		if notable {
			res.Logs = append(res.Logs, newLog(LogInfo, fmt.Sprintf("Unit %d: %s", code, message), now))
		}
	}

	missing := func(text string) {
		res.ErrorCount++
		res.Logs = append(res.Logs, newLog(LogError, "ERROR: "+text, now))
	}
	p := s.Production
	if p.DataRef == nil || *p.DataRef == "" {
		missing(`Field "Reference date" is missing.`)
	}
	if p.ProducaoM3 == nil {
		missing(`Field "Production m³" is missing.`)
	}
	if p.OutrosRS == nil {
		missing(`Field "Other costs R$" is missing.`)
	}
	if p.CompraRS == nil {
		missing(`Field "Water purchase R$" is missing.`)
	}
	for _, b := range s.Baselines {
		r, ok := res.Readings[b.CodigoLote]
		if !ok || r.DataLeituraAtual == nil {
			missing(fmt.Sprintf(`Field "Current reading date" of unit %d is pending.`, b.CodigoLote))
		}
		if !ok || r.LeituraAtual == nil {
			missing(fmt.Sprintf(`Field "Current reading" of unit %d is pending.`, b.CodigoLote))
		}
		if !ok || r.Consumo == nil {
			missing(fmt.Sprintf(`Field "Consumption" of unit %d is pending.`, b.CodigoLote))
		}
	}

	if res.ErrorCount == 0 {
		res.Logs = append(res.Logs, newLog(LogSuccess, "Consistency check finished. No errors found.", now))
	} else {
		res.Logs = append(res.Logs, newLog(LogError, fmt.Sprintf("Consistency check finished. %d error(s) found.", res.ErrorCount), now))
	}
	return res
}
