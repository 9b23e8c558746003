// Package crime ingests FBI Crime Data Explorer summaries: for each state the
// longest-reporting agencies, and for each agency the monthly offense rates
// folded into one row per year.
package crime

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	Name = "crime"

	// Summary window requested from the API, MM-YYYY.
	From = "01-2010"
	To   = "12-2023"

	agencyCache  = "agency_cache"
	summaryCache = "summary_cache"
)

// Offenses are the summarized offense codes pulled per agency: violent,
// burglary, assault, larceny, motor vehicle theft, homicide, rape, robbery
// and property crime.
var Offenses = []string{"V", "BUR", "ASS", "LAR", "MVT", "HOM", "RPE", "ROB", "P"}

var unknownStart = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

type Agency struct {
	ORI       string `json:"ori"`
	Name      string `json:"agency_name"`
	StateAbbr string `json:"state_abbr"`
	StartDate string `json:"nibrs_start_date"`
}

// Started is the agency's NIBRS start date. Agencies without a parseable
// date sort after every dated one.
func (a Agency) Started() time.Time {
	if t, err := time.Parse("2006-01-02", a.StartDate); err == nil {
		return t
	}
	// Some payloads carry a full timestamp.
	if t, err := time.Parse(time.RFC3339, a.StartDate); err == nil {
		return t
	}
	return unknownStart
}

// agencyResponse groups agencies by county.
type agencyResponse map[string][]Agency

// Flatten returns the agencies of every county in a stable order.
func (r agencyResponse) Flatten() []Agency {
	counties := make([]string, 0, len(r))
	for c := range r {
		counties = append(counties, c)
	}
	sort.Strings(counties)

	var out []Agency
	for _, c := range counties {
		out = append(out, r[c]...)
	}
	return out
}

// Oldest orders agencies by start date, earliest first, and keeps limit of
// them. Ties keep ORI order.
func Oldest(agencies []Agency, limit int) []Agency {
	sorted := make([]Agency, len(agencies))
	copy(sorted, agencies)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Started(), sorted[j].Started()
		if !a.Equal(b) {
			return a.Before(b)
		}
		return sorted[i].ORI < sorted[j].ORI
	})
	if limit >= 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// summaryResponse carries rates per 100K keyed by series name, then by
// "MM-YYYY". A null rate is a month the agency did not report.
type summaryResponse struct {
	Offenses struct {
		Rates map[string]map[string]*float64 `json:"rates"`
	} `json:"offenses"`
}

// Record is one agency's yearly rate for an offense: the sum of the monthly
// rates it reported and how many months contributed.
type Record struct {
	Year    int
	State   string
	ORI     string
	Offense string
	Rate    float64
	Months  int
}

// Summarize folds the monthly series into yearly records, oldest year first.
// Months with a null rate are skipped.
func Summarize(agency Agency, offense string, monthly map[string]*float64) ([]Record, error) {
	byYear := map[int]*Record{}
	for period, rate := range monthly {
		if rate == nil {
			continue
		}
		_, yearPart, ok := strings.Cut(period, "-")
		if !ok {
			return nil, fmt.Errorf("agency %s: bad period %q", agency.ORI, period)
		}
		year, err := strconv.Atoi(yearPart)
		if err != nil {
			return nil, fmt.Errorf("agency %s: bad period %q: %w", agency.ORI, period, err)
		}

		rec, ok := byYear[year]
		if !ok {
			rec = &Record{Year: year, State: agency.StateAbbr, ORI: agency.ORI, Offense: offense}
			byYear[year] = rec
		}
		rec.Rate += *rate
		rec.Months++
	}

	out := make([]Record, 0, len(byYear))
	for _, rec := range byYear {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}
