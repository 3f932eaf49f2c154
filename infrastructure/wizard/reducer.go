package wizard

import "condowater/models"

// Reduce applies ev to s and returns the next state. It never performs I/O and
// never shares maps or slices with its inputs.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case Reset:
		next := NewState()
		next.Loading = true
		return next
	case StartLoading:
		s.Loading = true
		s.Error = nil
		return s
	case InitialDataLoaded:
		s.Loading = false
		s.Baselines = append([]models.LatestReading(nil), e.Baselines...)
		s.Readings = cloneReadings(e.Readings)
		s.Production.DataRef = e.NextReferenceDate
		return s
	case LoadFailed:
		s.Loading = false
		s.Error = ptr(e.Message)
		return s
	case ProductionDataChanged:
		s.Production = e.Patch.applyTo(s.Production)
		return s
	case ReadingsReplaced:
		s.Readings = cloneReadings(e.Readings)
		return s
	case LogAppended:
		log := make([]LogEntry, 0, len(s.Log)+1)
		log = append(log, e.Entry)
		s.Log = append(log, s.Log...)
		return s
	case SubmitStarted:
		s.Submitting = true
		return s
	case SubmitSucceeded:
		s.Submitting = false
		s.Results = append([]models.PipelineResult(nil), e.Results...)
		s.Step = StepReview
		return s
	case SubmitFailed:
		s.Submitting = false
		return s
	case StepChanged:
		if e.Step == StepEntry || e.Step == StepReview {
			s.Step = e.Step
		}
		return s
	default:
		return s
	}
}

// ReduceAll folds events over s in order.
func ReduceAll(s State, events ...Event) State {
	for _, ev := range events {
		s = Reduce(s, ev)
	}
	return s
}
