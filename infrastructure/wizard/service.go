package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"condowater/models"
)

const (
	DefaultLoadTimeout = 15 * time.Second
	loadFailedMessage  = "Could not load unit data."
)

// ReadingField selects which column of a unit row a manual edit targets.
type ReadingField string

const (
	FieldReading     ReadingField = "leitura_atual"
	FieldConsumption ReadingField = "consumo"
	FieldDate        ReadingField = "data_leitura_atual"
)

// Service runs the I/O around the reducer: loading baselines, importing files
// and submitting readings, dispatching the resulting events into a Store.
type Service struct {
	store       *Store
	now         func() time.Time
	loadTimeout time.Duration
}

func NewService(store *Store, loadTimeout time.Duration) *Service {
	if loadTimeout <= 0 {
		loadTimeout = DefaultLoadTimeout
	}
	return &Service{store: store, now: time.Now, loadTimeout: loadTimeout}
}

// WithClock replaces the time source used for log timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Store() *Store {
	return s.store
}

// Get returns the wizard bound to key.
func (s *Service) Get(key string) (State, string, error) {
	return s.store.Get(key)
}

// Open starts a fresh wizard for key and loads the baselines in the
// background. done is closed once the load result has been dispatched or
// dropped. The load outlives ctx's cancellation but not the load timeout.
func (s *Service) Open(ctx context.Context, key string, api Backend) (string, <-chan struct{}) {
	id := uuid.NewString()
	s.store.Open(key, id)

	done := make(chan struct{})
	go func() {
		defer close(done)

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()

		var ev Event
		baselines, err := api.LatestReadings(loadCtx)
		if err != nil {
			slog.Error("load latest readings", slog.String("wizard_session", id), slog.Any("err", err))
			ev = LoadFailed{Message: loadFailedMessage}
		} else {
			ev = InitialDataLoaded{
				Baselines:         baselines,
				Readings:          InitialReadings(baselines),
				NextReferenceDate: NextReferenceDate(baselines),
			}
		}
		if _, err := s.store.Dispatch(key, id, ev); err != nil {
			slog.Debug("dropped load result", slog.String("wizard_session", id), slog.Any("err", err))
		}
	}()
	return id, done
}

func requireEntry(st State) error {
	if st.Loading || st.Error != nil {
		return ErrNotReady
	}
	if st.Step != StepEntry {
		return ErrWrongStep
	}
	return nil
}

// UpdateProduction merges month-level inputs.
func (s *Service) UpdateProduction(key, id string, patch ProductionPatch) (State, error) {
	return s.store.Update(key, id, func(st State) ([]Event, error) {
		if err := requireEntry(st); err != nil {
			return nil, err
		}
		return []Event{ProductionDataChanged{Patch: patch}}, nil
	})
}

// UpdateReading applies a manual edit of one field of a unit row. Editing the
// reading recomputes consumption from the baseline; an empty reading clears
// both.
func (s *Service) UpdateReading(key, id string, codigoLote int, field ReadingField, raw string) (State, error) {
	return s.store.Update(key, id, func(st State) ([]Event, error) {
		if err := requireEntry(st); err != nil {
			return nil, err
		}
		baseline, ok := st.Baseline(codigoLote)
		if !ok {
			return nil, ErrUnknownUnit
		}

		readings := cloneReadings(st.Readings)
		r, ok := readings[codigoLote]
		if !ok {
			r = NewReading{
				MediaMovel6:  baseline.MediaMovel6MesesAnteriores,
				MediaMovel12: baseline.MediaMovel12MesesAnteriores,
			}
		}

		raw = strings.TrimSpace(raw)
		switch field {
		case FieldReading:
			if raw == "" {
				r.LeituraAtual, r.Consumo = nil, nil
				break
			}
			v, ok := parseReadingValue(raw)
			if !ok {
				return nil, ErrInvalidValue
			}
			r.LeituraAtual = ptr(v)
			r.Consumo = ptr(Consumption(v, baseline.LeituraAnterior))
		case FieldConsumption:
			if raw == "" {
				r.Consumo = nil
				break
			}
			v, ok := parseReadingValue(raw)
			if !ok {
				return nil, ErrInvalidValue
			}
			r.Consumo = ptr(v)
		case FieldDate:
			d, err := NormalizeFormDate(raw)
			if err != nil {
				return nil, err
			}
			r.DataLeituraAtual = d
		default:
			return nil, fmt.Errorf("unknown reading field %q", field)
		}

		readings[codigoLote] = r
		return []Event{ReadingsReplaced{Readings: readings}}, nil
	})
}

// ImportCSV merges a readings file and runs the consistency check on the
// result. A malformed file is logged into the wizard and returned as an error;
// the readings stay as they were.
func (s *Service) ImportCSV(key, id, filename string, r io.Reader) (ImportResult, State, error) {
	var (
		result    ImportResult
		importErr error
	)
	st, err := s.store.Update(key, id, func(st State) ([]Event, error) {
		if err := requireEntry(st); err != nil {
			return nil, err
		}
		now := s.now()
		events := []Event{LogAppended{Entry: newLog(LogInfo, fmt.Sprintf("Loading file %q...", filename), now)}}

		result, importErr = ImportCSV(r, st, now)
		if importErr != nil {
			return append(events, LogAppended{Entry: newLog(LogError, "Error processing CSV: "+importErr.Error(), now)}), nil
		}

		events = append(events, result.Events()...)
		merged := ReduceAll(st, events...)
		return append(events, Check(merged, now).Events()...), nil
	})
	if err != nil {
		return ImportResult{}, st, err
	}
	return result, st, importErr
}

// SubmitOutcome describes what a submission attempt sent and got back.
type SubmitOutcome struct {
	Payload    models.ProcessReadingsPayload
	Response   models.ProcessReadingsResponse
	Submitted  bool
	ErrorCount int
	// Discarded is set when the wizard was reopened while the call was in
	// flight; the backend outcome stands but the wizard no longer shows it.
	Discarded bool
}

// Submit runs the consistency check and, when it passes, sends the readings to
// the backend. Only one submission per wizard can be in flight. Once the call
// has been made the returned error is the backend outcome only.
func (s *Service) Submit(ctx context.Context, key, id string, api Backend) (SubmitOutcome, error) {
	var out SubmitOutcome
	_, err := s.store.Update(key, id, func(st State) ([]Event, error) {
		if err := requireEntry(st); err != nil {
			return nil, err
		}
		if st.Submitting {
			return nil, ErrSubmitInProgress
		}
		now := s.now()
		check := Check(st, now)
		out.ErrorCount = check.ErrorCount

		events := []Event{LogAppended{Entry: newLog(LogInfo, "Starting submission process...", now)}}
		events = append(events, check.Events()...)
		if !check.Passed() {
			return append(events, LogAppended{Entry: newLog(LogError, "Submission cancelled due to consistency errors.", now)}), nil
		}
		events = append(events, SubmitStarted{})
		out.Payload = BuildPayload(ReduceAll(st, events...))
		return events, nil
	})
	if err != nil {
		return out, err
	}
	if out.ErrorCount > 0 {
		return out, ErrConsistency
	}

	out.Submitted = true
	resp, callErr := api.ProcessReadings(ctx, out.Payload)
	out.Response = resp

	now := s.now()
	var events []Event
	if callErr != nil {
		events = append(events, LogAppended{Entry: newLog(LogError, "Submission failed: "+callErr.Error(), now)})
		var carrier LogCarrier
		if errors.As(callErr, &carrier) {
			events = append(events, backendLogEvents(carrier.BackendLogs(), now)...)
		}
		events = append(events, SubmitFailed{})
	} else {
		events = append(events, backendLogEvents(resp.Logs, now)...)
		if resp.Data != nil {
			events = append(events,
				SubmitSucceeded{Results: resp.Data},
				LogAppended{Entry: newLog(LogSuccess, resp.Message, now)},
			)
		} else {
			msg := resp.Error
			if msg == "" {
				msg = resp.Message
			}
			events = append(events,
				LogAppended{Entry: newLog(LogError, "Submission failed: "+msg, now)},
				SubmitFailed{},
			)
			callErr = fmt.Errorf("backend pipeline failed: %s", msg)
		}
	}

	if _, err := s.store.Dispatch(key, id, events...); err != nil {
		slog.Warn("dropped submission result", slog.String("wizard_session", id), slog.Any("err", err))
		out.Discarded = true
	}
	return out, callErr
}

func backendLogEvents(logs []models.BackendLog, now time.Time) []Event {
	events := make([]Event, 0, len(logs))
	for _, l := range logs {
		kind := LogSuccess
		if l.Status != models.BackendLogOK {
			kind = LogError
		}
		events = append(events, LogAppended{Entry: newLog(kind, l.Message, now)})
	}
	return events
}

// BuildPayload turns the wizard state into the process-readings request body.
// Units are sent in baseline order.
func BuildPayload(st State) models.ProcessReadingsPayload {
	p := models.ProcessReadingsPayload{
		ProductionData: models.ProductionPayload{
			DataRef:    st.Production.DataRef,
			ProducaoM3: st.Production.ProducaoM3,
			OutrosRS:   st.Production.OutrosRS,
			CompraRS:   st.Production.CompraRS,
		},
		UnitReadings: make([]models.UnitReadingPayload, 0, len(st.Baselines)),
	}
	for _, b := range st.Baselines {
		r := st.Readings[b.CodigoLote]
		p.UnitReadings = append(p.UnitReadings, models.UnitReadingPayload{
			CodigoLote:       b.CodigoLote,
			DataLeituraAtual: r.DataLeituraAtual,
			LeituraAtual:     r.LeituraAtual,
			Consumo:          r.Consumo,
		})
	}
	return p
}

// Back returns from review to entry keeping everything entered.
func (s *Service) Back(key, id string) (State, error) {
	return s.store.Dispatch(key, id, StepChanged{Step: StepEntry})
}

// Finalize closes a reviewed wizard and returns its reference date.
func (s *Service) Finalize(key, id string) (string, error) {
	var dataRef string
	_, err := s.store.Update(key, id, func(st State) ([]Event, error) {
		if st.Step != StepReview {
			return nil, ErrWrongStep
		}
		if st.Production.DataRef != nil {
			dataRef = *st.Production.DataRef
		}
		return []Event{LogAppended{Entry: newLog(LogInfo, "Saving final data...", s.now())}}, nil
	})
	if err != nil {
		return "", err
	}
	s.store.Close(key)
	return dataRef, nil
}

// Close discards the wizard of key.
func (s *Service) Close(key string) {
	s.store.Close(key)
}
