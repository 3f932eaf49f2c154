package wizard

import "condowater/models"

// Event is a wizard transition. The set is closed: only this package
// declares events.
type Event interface {
	isEvent()
}

// Reset re-initializes the state with Loading set. Dispatched on every open.
type Reset struct{}

// StartLoading marks a (re)load in progress and clears the last error.
type StartLoading struct{}

// InitialDataLoaded installs the baselines and the initial reading map.
type InitialDataLoaded struct {
	Baselines         []models.LatestReading
	Readings          map[int]NewReading
	NextReferenceDate *string
}

// LoadFailed ends loading with an error banner message.
type LoadFailed struct {
	Message string
}

// ProductionDataChanged shallow-merges the set fields of Patch.
type ProductionDataChanged struct {
	Patch ProductionPatch
}

// ReadingsReplaced swaps the whole reading map.
type ReadingsReplaced struct {
	Readings map[int]NewReading
}

// LogAppended puts Entry at the head of the log.
type LogAppended struct {
	Entry LogEntry
}

type SubmitStarted struct{}

// SubmitSucceeded installs backend results and moves to review.
type SubmitSucceeded struct {
	Results []models.PipelineResult
}

type SubmitFailed struct{}

// StepChanged navigates between steps. Only StepEntry and StepReview apply.
type StepChanged struct {
	Step int
}

func (Reset) isEvent()                 {}
func (StartLoading) isEvent()          {}
func (InitialDataLoaded) isEvent()     {}
func (LoadFailed) isEvent()            {}
func (ProductionDataChanged) isEvent() {}
func (ReadingsReplaced) isEvent()      {}
func (LogAppended) isEvent()           {}
func (SubmitStarted) isEvent()         {}
func (SubmitSucceeded) isEvent()       {}
func (SubmitFailed) isEvent()          {}
func (StepChanged) isEvent()           {}

// Field is an optional update of a nullable value: Valid reports whether the
// field is part of the patch, Value may be nil to clear it.
type Field[T any] struct {
	Valid bool
	Value *T
}

// Set builds a patch field. A nil v clears the target.
func Set[T any](v *T) Field[T] {
	return Field[T]{Valid: true, Value: v}
}

func (f Field[T]) apply(dst **T) {
	if f.Valid {
		*dst = f.Value
	}
}

// ProductionPatch is a partial ProductionData.
type ProductionPatch struct {
	DataRef        Field[string]
	ProducaoM3     Field[float64]
	OutrosRS       Field[float64]
	CompraRS       Field[float64]
	TotalConsumoM3 Field[float64]
	MediaM3        Field[float64]
	MedianaM3      Field[float64]
}

func (p ProductionPatch) applyTo(d ProductionData) ProductionData {
	p.DataRef.apply(&d.DataRef)
	p.ProducaoM3.apply(&d.ProducaoM3)
	p.OutrosRS.apply(&d.OutrosRS)
	p.CompraRS.apply(&d.CompraRS)
	p.TotalConsumoM3.apply(&d.TotalConsumoM3)
	p.MediaM3.apply(&d.MediaM3)
	p.MedianaM3.apply(&d.MedianaM3)
	return d
}
