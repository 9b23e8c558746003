package crime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topo/ingest/features/crime"
)

func rate(v float64) *float64 { return &v }

func TestOldest(t *testing.T) {
	agencies := []crime.Agency{
		{ORI: "C", StartDate: "2005-03-01"},
		{ORI: "B", StartDate: ""},
		{ORI: "A", StartDate: "1991-01-01"},
		{ORI: "D", StartDate: "2005-03-01"},
		{ORI: "E", StartDate: "not a date"},
	}

	got := crime.Oldest(agencies, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "C", "D"}, []string{got[0].ORI, got[1].ORI, got[2].ORI})

	all := crime.Oldest(agencies, 10)
	assert.Equal(t, "B", all[3].ORI, "undated agencies sort last")
	assert.Equal(t, "E", all[4].ORI)
	assert.Equal(t, "C", agencies[0].ORI, "input is not reordered")
}

func TestSummarize(t *testing.T) {
	agency := crime.Agency{ORI: "DE0050000", StateAbbr: "DE"}
	monthly := map[string]*float64{
		"01-2010": rate(10),
		"02-2010": rate(5.5),
		"03-2010": nil,
		"01-2011": rate(2),
	}

	got, err := crime.Summarize(agency, "BUR", monthly)
	require.NoError(t, err)
	assert.Equal(t, []crime.Record{
		{Year: 2010, State: "DE", ORI: "DE0050000", Offense: "BUR", Rate: 15.5, Months: 2},
		{Year: 2011, State: "DE", ORI: "DE0050000", Offense: "BUR", Rate: 2, Months: 1},
	}, got)
}

func TestSummarize_AllNull(t *testing.T) {
	got, err := crime.Summarize(crime.Agency{ORI: "X"}, "V", map[string]*float64{"01-2010": nil})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSummarize_BadPeriod(t *testing.T) {
	_, err := crime.Summarize(crime.Agency{ORI: "X"}, "V", map[string]*float64{"2010": rate(1)})
	assert.Error(t, err)

	_, err = crime.Summarize(crime.Agency{ORI: "X"}, "V", map[string]*float64{"01-20x0": rate(1)})
	assert.Error(t, err)
}
