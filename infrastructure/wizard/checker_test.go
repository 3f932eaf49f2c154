package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condowater/models"
)

var checkTime = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

func readingWith(consumo *float64, leitura *float64, avg6 float64) NewReading {
	return NewReading{Consumo: consumo, LeituraAtual: leitura, MediaMovel6: avg6}
}

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name   string
		values []*float64
		want   Stats
	}{
		{name: "odd count", values: []*float64{ptr(30.0), ptr(10.0), ptr(20.0)}, want: Stats{Total: 60, Mean: 20, Median: 20}},
		{name: "even count", values: []*float64{ptr(20.0), ptr(10.0)}, want: Stats{Total: 30, Mean: 15, Median: 15}},
		{name: "empty", values: nil, want: Stats{}},
		{name: "all negative", values: []*float64{ptr(-1.0), ptr(-3.5)}, want: Stats{}},
		{name: "negatives and nils excluded", values: []*float64{ptr(-10.0), nil, ptr(4.0), ptr(6.0)}, want: Stats{Total: 10, Mean: 5, Median: 5}},
		{name: "rounded to two places", values: []*float64{ptr(1.0), ptr(1.0), ptr(2.0)}, want: Stats{Total: 4, Mean: 1.33, Median: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings := make(map[int]NewReading)
			for i, v := range tt.values {
				readings[i+1] = readingWith(v, ptr(100.0), 0)
			}
			assert.Equal(t, tt.want, ComputeStats(readings))
		})
	}
}

func TestClassify(t *testing.T) {
	const median, avg6 = 10.0, 8.0

	tests := []struct {
		name        string
		reading     NewReading
		wantMessage string
		wantNotable bool
	}{
		{name: "nil consumption", reading: readingWith(nil, ptr(100.0), avg6), wantMessage: MessagePending},
		{name: "nil reading", reading: readingWith(ptr(5.0), nil, avg6), wantMessage: MessagePending},
		{name: "negative consumption", reading: readingWith(ptr(-5.0), ptr(100.0), avg6), wantMessage: MessageInvalid},
		{name: "zero reading", reading: readingWith(ptr(5.0), ptr(0.0), avg6), wantMessage: MessageInvalid},
		{name: "urgent", reading: readingWith(ptr(26.0), ptr(100.0), avg6), wantMessage: MessageUrgent, wantNotable: true},
		{name: "urgent at the threshold", reading: readingWith(ptr(25.0), ptr(100.0), avg6), wantMessage: MessageUrgent, wantNotable: true},
		{name: "very high", reading: readingWith(ptr(21.0), ptr(100.0), avg6), wantMessage: MessageVeryHigh, wantNotable: true},
		{name: "zero consumption", reading: readingWith(ptr(0.0), ptr(100.0), avg6), wantMessage: MessageZero},
		{name: "above average but under median bar", reading: readingWith(ptr(13.0), ptr(100.0), avg6), wantMessage: MessageNormal},
		{name: "abnormal", reading: readingWith(ptr(16.0), ptr(100.0), avg6), wantMessage: MessageAbnormal, wantNotable: true},
		{name: "normal", reading: readingWith(ptr(9.0), ptr(100.0), avg6), wantMessage: MessageNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, notable := Classify(tt.reading, median)
			assert.Equal(t, tt.wantMessage, message)
			assert.Equal(t, tt.wantNotable, notable)
		})
	}
}

func TestClassifyZeroMedianSkipsMedianRules(t *testing.T) {
	message, notable := Classify(readingWith(ptr(50.0), ptr(100.0), 0), 0)
	assert.Equal(t, MessageAbnormal, message)
	assert.True(t, notable)
}

func completeState() State {
	st := NewState()
	st.Baselines = []models.LatestReading{
		{CodigoLote: 1, LeituraAnterior: 100, MediaMovel6MesesAnteriores: 8},
		{CodigoLote: 2, LeituraAnterior: 200, MediaMovel6MesesAnteriores: 25},
	}
	st.Readings = map[int]NewReading{
		1: {DataLeituraAtual: ptr("2026-03-01T00:00:00"), LeituraAtual: ptr(110.0), Consumo: ptr(10.0), MediaMovel6: 8},
		2: {DataLeituraAtual: ptr("2026-03-01T00:00:00"), LeituraAtual: ptr(230.0), Consumo: ptr(30.0), MediaMovel6: 25},
	}
	st.Production = ProductionData{
		DataRef:    ptr("2026-03-01"),
		ProducaoM3: ptr(500.0),
		OutrosRS:   ptr(10.5),
		CompraRS:   ptr(0.0),
	}
	return st
}

func TestCheckPasses(t *testing.T) {
	res := Check(completeState(), checkTime)

	assert.True(t, res.Passed())
	assert.Equal(t, 0, res.ErrorCount)
	assert.Equal(t, Stats{Total: 40, Mean: 20, Median: 20}, res.Stats)
	assert.Equal(t, MessageNormal, res.Readings[1].MesMensagem)
	assert.Equal(t, MessageNormal, res.Readings[2].MesMensagem)

	require.NotEmpty(t, res.Logs)
	assert.Equal(t, "Running consistency check...", res.Logs[0].Text)
	last := res.Logs[len(res.Logs)-1]
	assert.Equal(t, LogSuccess, last.Kind)
	assert.Equal(t, "Consistency check finished. No errors found.", last.Text)
}

func TestCheckCountsEveryMissingField(t *testing.T) {
	st := completeState()
	st.Production.ProducaoM3 = nil
	st.Production.DataRef = ptr("")
	r := st.Readings[2]
	r.DataLeituraAtual = nil
	r.LeituraAtual = nil
	r.Consumo = nil
	st.Readings[2] = r

	res := Check(st, checkTime)

	assert.False(t, res.Passed())
	assert.Equal(t, 5, res.ErrorCount)
	assert.Equal(t, MessagePending, res.Readings[2].MesMensagem)

	var errorTexts []string
	for _, l := range res.Logs {
		if l.Kind == LogError {
			errorTexts = append(errorTexts, l.Text)
		}
	}
	assert.Contains(t, errorTexts, `ERROR: Field "Reference date" is missing.`)
	assert.Contains(t, errorTexts, `ERROR: Field "Production m³" is missing.`)
	assert.Contains(t, errorTexts, `ERROR: Field "Current reading" of unit 2 is pending.`)
	assert.Equal(t, "Consistency check finished. 5 error(s) found.", res.Logs[len(res.Logs)-1].Text)
}

func TestCheckUnitWithoutReadingCountsThreeErrors(t *testing.T) {
	st := completeState()
	delete(st.Readings, 1)

	res := Check(st, checkTime)
	assert.Equal(t, 3, res.ErrorCount)
}

func TestCheckLogsNotableUnits(t *testing.T) {
	st := completeState()
	st.Baselines = append(st.Baselines, models.LatestReading{CodigoLote: 3, LeituraAnterior: 0})
	st.Readings[1] = NewReading{DataLeituraAtual: ptr("2026-03-01T00:00:00"), LeituraAtual: ptr(110.0), Consumo: ptr(10.0)}
	st.Readings[2] = NewReading{DataLeituraAtual: ptr("2026-03-01T00:00:00"), LeituraAtual: ptr(210.0), Consumo: ptr(10.0)}
	st.Readings[3] = NewReading{DataLeituraAtual: ptr("2026-03-01T00:00:00"), LeituraAtual: ptr(90.0), Consumo: ptr(90.0)}

	res := Check(st, checkTime)

	assert.Equal(t, MessageUrgent, res.Readings[3].MesMensagem)
	var found bool
	for _, l := range res.Logs {
		if l.Text == "Unit 3: "+MessageUrgent {
			found = true
			assert.Equal(t, LogInfo, l.Kind)
		}
	}
	assert.True(t, found)
}

func TestCheckDoesNotMutateInput(t *testing.T) {
	st := completeState()
	Check(st, checkTime)
	assert.Empty(t, st.Readings[1].MesMensagem)
}

func TestCheckResultEventsRecordStats(t *testing.T) {
	st := completeState()
	res := Check(st, checkTime)

	next := ReduceAll(st, res.Events()...)

	require.NotNil(t, next.Production.TotalConsumoM3)
	assert.Equal(t, 40.0, *next.Production.TotalConsumoM3)
	assert.Equal(t, 20.0, *next.Production.MediaM3)
	assert.Equal(t, 20.0, *next.Production.MedianaM3)
	assert.Equal(t, MessageNormal, next.Readings[1].MesMensagem)
	assert.Len(t, next.Log, len(res.Logs))
	assert.Equal(t, res.Logs[len(res.Logs)-1], next.Log[0])
}
