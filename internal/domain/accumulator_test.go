package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transformAll(t *testing.T, tr *Transformer, file string, rows ...map[string]string) Tables {
	t.Helper()
	var batch Tables
	for i, row := range rows {
		rs, err := tr.Transform(NewRawRecord(file, i, row))
		require.NoError(t, err)
		batch.Add(rs)
	}
	return batch
}

func TestAccumulator_AppendsInOrder(t *testing.T) {
	tr := newTestTransformer(TransformOptions{})
	first := transformAll(t, tr, "data_1920.json", rawRow(nil), rawRow(map[string]string{ColTime: "?"}))
	second := transformAll(t, tr, "data_1921.json", rawRow(map[string]string{ColDate: "May 1, 1921"}))

	acc := NewAccumulator(false)
	acc.Merge(first)
	acc.Merge(second)

	got := acc.Tables()
	require.Len(t, got.Facts, 3)
	assert.Equal(t, first.Facts[0].FactID, got.Facts[0].FactID)
	assert.Equal(t, first.Facts[1].FactID, got.Facts[1].FactID)
	assert.Equal(t, second.Facts[0].FactID, got.Facts[2].FactID)
	assert.Len(t, got.Dates, 3)
	assert.Len(t, got.Times, 2)
	assert.Equal(t, 1921, got.Dates[2].Year)
}

func TestAccumulator_EmptyBatch(t *testing.T) {
	acc := NewAccumulator(false)
	acc.Merge(Tables{})
	assert.Empty(t, acc.Tables().Facts)

	tr := newTestTransformer(TransformOptions{})
	acc.Merge(transformAll(t, tr, testFile, rawRow(map[string]string{ColTime: "?", ColAircraftType: "?"})))
	acc.Merge(Tables{})

	got := acc.Tables()
	assert.Len(t, got.Facts, 1)
	assert.Empty(t, got.Times)
	assert.Empty(t, got.AircraftTypes)
}

func TestAccumulator_KeepsDuplicateDimensionsByDefault(t *testing.T) {
	tr := newTestTransformer(TransformOptions{})
	acc := NewAccumulator(false)
	acc.Merge(transformAll(t, tr, testFile, rawRow(nil), rawRow(nil)))

	got := acc.Tables()
	require.Len(t, got.Airlines, 2)
	assert.Equal(t, got.Airlines[0].Name, got.Airlines[1].Name)
	assert.NotEqual(t, got.Airlines[0].AirlineID, got.Airlines[1].AirlineID)
	assert.Empty(t, CheckIntegrity(got))
}

func TestAccumulator_Deduplicates(t *testing.T) {
	tr := newTestTransformer(TransformOptions{})
	acc := NewAccumulator(true)
	acc.Merge(transformAll(t, tr, "data_1920.json", rawRow(nil), rawRow(map[string]string{ColRoute: "Sightseeing"})))
	acc.Merge(transformAll(t, tr, "data_1921.json",
		rawRow(nil),
		rawRow(map[string]string{ColAirlineOperator: "KLM", ColTime: "0915", ColRoute: "Sightseeing"}),
	))

	got := acc.Tables()
	require.Len(t, got.Facts, 4)
	assert.Len(t, got.Dates, 1, "all four accidents share a calendar date")
	assert.Len(t, got.Times, 2)
	assert.Len(t, got.Airlines, 2)
	assert.Len(t, got.Routes, 2)
	assert.Len(t, got.AircraftTypes, 1)

	assert.Equal(t, *got.Facts[0].AirlineID, *got.Facts[1].AirlineID)
	assert.Equal(t, *got.Facts[0].AirlineID, *got.Facts[2].AirlineID)
	assert.NotEqual(t, *got.Facts[0].AirlineID, *got.Facts[3].AirlineID)
	assert.Equal(t, *got.Facts[1].RouteID, *got.Facts[3].RouteID)
	assert.Equal(t, got.Dates[0].DateID, got.Facts[3].DateID)
	assert.Empty(t, CheckIntegrity(got))
}

func TestAccumulator_DoesNotMutateBatch(t *testing.T) {
	tr := newTestTransformer(TransformOptions{})
	acc := NewAccumulator(true)
	acc.Merge(transformAll(t, tr, testFile, rawRow(nil)))

	batch := transformAll(t, tr, testFile, rawRow(nil))
	before := *batch.Facts[0].AirlineID
	acc.Merge(batch)

	assert.Equal(t, before, *batch.Facts[0].AirlineID)
}

func TestCheckIntegrity_ReportsViolations(t *testing.T) {
	dangling := "missing"
	name := "Training"
	src := "A"
	bad := Tables{
		Facts: []AccidentFact{
			{FactID: "f1", DateID: "d1", TimeID: &dangling},
			{FactID: "f1", DateID: "d2"},
		},
		Dates:  []DimDate{{DateID: "d1", Day: 32, Month: 1, Year: 1920}},
		Times:  []DimTime{{TimeID: "t1", Hours: 24}},
		Routes: []DimRoute{{RouteID: "r1", RouteName: &name, Source: &src}},
	}

	errs := CheckIntegrity(bad)
	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	assert.Len(t, errs, 6, msgs)
	assert.Contains(t, msgs, "fact_accident: duplicate id f1")
	assert.Contains(t, msgs, "fact_accident f1: time_id missing not in dim_time")
	assert.Contains(t, msgs, "fact_accident f1: date_id d2 not in dim_date")
}

func TestManifest(t *testing.T) {
	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	fake := clockwork.NewFakeClockAt(start)
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	m := StartManifest("run-1", "data/raw", "data/out")
	fake.Advance(90 * time.Second)

	tr := newTestTransformer(TransformOptions{})
	m.Finish(transformAll(t, tr, testFile, rawRow(nil), rawRow(map[string]string{ColTime: "?"})))

	want := map[string]int{
		TableFact: 2, TableDate: 2, TableTime: 1, TableAirline: 2, TableRoute: 2, TableAircraftType: 2,
	}
	if diff := cmp.Diff(want, m.Tables); diff != "" {
		t.Fatalf("table counts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, start, m.StartedAt)
	assert.Equal(t, 90*time.Second, m.Duration())
}
