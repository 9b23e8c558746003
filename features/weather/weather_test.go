package weather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topo/ingest/features/weather"
)

func ptr(v float64) *float64 { return &v }

func TestMonthly(t *testing.T) {
	records := []weather.Record{
		{DataType: "MLY-TMAX-NORMAL", Date: "2010-01-01T00:00:00", Value: 5.5},
		{DataType: "MLY-TMIN-NORMAL", Date: "2010-01-01T00:00:00", Value: -3},
		{DataType: "MLY-PRCP-NORMAL", Date: "2010-01-01T00:00:00", Value: 80},
		{DataType: "MLY-TMAX-NORMAL", Date: "2010-07-01T00:00:00", Value: 30.5},
	}

	normals, err := weather.Monthly("GHCND:USC1", records)
	require.NoError(t, err)
	require.Len(t, normals, 12)

	jan := normals[0]
	assert.Equal(t, 1, jan.Month)
	assert.Equal(t, "GHCND:USC1", jan.Station)
	assert.Equal(t, ptr(5.5), jan.Tmax)
	assert.Equal(t, ptr(-3), jan.Tmin)
	assert.Equal(t, ptr(8), jan.Prcp, "precipitation is reported in tenths")

	assert.Equal(t, ptr(30.5), normals[6].Tmax)
	assert.Nil(t, normals[6].Prcp)
	assert.Nil(t, normals[1].Tmax, "months without data stay empty")
}

func TestMonthly_BadDate(t *testing.T) {
	_, err := weather.Monthly("s", []weather.Record{{DataType: "MLY-TMAX-NORMAL", Date: "July", Value: 1}})
	assert.Error(t, err)
}

func TestExtremes(t *testing.T) {
	normals := []weather.Normal{
		{Month: 1, Tmax: ptr(2), Tmin: ptr(-8), Prcp: ptr(3)},
		{Month: 7, Tmax: ptr(31), Tmin: ptr(18), Prcp: ptr(4.5)},
		{Month: 8},
	}

	got := weather.Extremes("s1", "DE", normals)
	assert.Equal(t, []weather.Extreme{
		{Station: "s1", State: "DE", Metric: weather.MetricMaxTmax, Value: 31},
		{Station: "s1", State: "DE", Metric: weather.MetricMinTmin, Value: -8},
		{Station: "s1", State: "DE", Metric: weather.MetricSumPrcp, Value: 7.5},
	}, got)
}

func TestExtremes_SkipsEmptyMetrics(t *testing.T) {
	got := weather.Extremes("s1", "DE", []weather.Normal{{Month: 1, Prcp: ptr(1)}})
	require.Len(t, got, 1)
	assert.Equal(t, weather.MetricSumPrcp, got[0].Metric)

	assert.Empty(t, weather.Extremes("s1", "DE", nil))
}
