package wizard

import (
	"time"

	"condowater/models"
)

const (
	StepEntry  = 1
	StepReview = 2
)

type LogKind string

const (
	LogInfo    LogKind = "info"
	LogSuccess LogKind = "success"
	LogError   LogKind = "error"
)

// LogEntry is one line of the wizard event log.
type LogEntry struct {
	Text string
	Kind LogKind
	At   time.Time
}

func newLog(kind LogKind, text string, at time.Time) LogEntry {
	return LogEntry{Text: text, Kind: kind, At: at}
}

// NewReading is the in-progress reading of one unit. Nil pointers are unset
// values; a negative Consumo is kept as entered and flagged by the checker.
type NewReading struct {
	DataLeituraAtual *string
	LeituraAtual     *float64
	Consumo          *float64
	MesMensagem      string
	MediaMovel6      float64
	MediaMovel12     float64
}

// ProductionData holds the month-level inputs plus the statistics computed by
// the consistency check.
type ProductionData struct {
	DataRef        *string
	ProducaoM3     *float64
	OutrosRS       *float64
	CompraRS       *float64
	TotalConsumoM3 *float64
	MediaM3        *float64
	MedianaM3      *float64
}

// State is the whole wizard session. It is only changed through Reduce.
type State struct {
	Step       int
	Loading    bool
	Submitting bool
	Error      *string
	Baselines  []models.LatestReading
	Readings   map[int]NewReading
	Production ProductionData
	Results    []models.PipelineResult
	Log        []LogEntry
}

// NewState returns the initial wizard state.
func NewState() State {
	return State{
		Step:     StepEntry,
		Readings: make(map[int]NewReading),
		Log:      make([]LogEntry, 0),
	}
}

// Baseline returns the baseline of a unit.
func (s State) Baseline(codigoLote int) (models.LatestReading, bool) {
	for _, b := range s.Baselines {
		if b.CodigoLote == codigoLote {
			return b, true
		}
	}
	return models.LatestReading{}, false
}

// InitialReadings builds the empty reading map for a set of baselines.
func InitialReadings(baselines []models.LatestReading) map[int]NewReading {
	readings := make(map[int]NewReading, len(baselines))
	for _, b := range baselines {
		readings[b.CodigoLote] = NewReading{
			MediaMovel6:  b.MediaMovel6MesesAnteriores,
			MediaMovel12: b.MediaMovel12MesesAnteriores,
		}
	}
	return readings
}

func cloneReadings(src map[int]NewReading) map[int]NewReading {
	dst := make(map[int]NewReading, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func ptr[T any](v T) *T {
	return &v
}
