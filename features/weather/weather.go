// Package weather ingests NOAA Climate Data Online monthly normals: the best
// covered stations of each state, their twelve monthly normals and the
// per-station extremes derived from them.
package weather

import (
	"fmt"
	"time"
)

const (
	Name = "weather"

	dataset     = "NORMAL_MLY"
	category    = "TEMP"
	dataTypeMax = "MLY-TMAX-NORMAL"
	dataTypeMin = "MLY-TMIN-NORMAL"
	dataTypePrc = "MLY-PRCP-NORMAL"

	stationCache = "station_cache"
	normalsCache = "normals_cache"

	dateLayout = "2006-01-02T15:04:05"
	pageLimit  = 1000
)

// Extreme metric names.
const (
	MetricMaxTmax = "max_tmax"
	MetricMinTmin = "min_tmin"
	MetricSumPrcp = "sum_prcp"
)

type Station struct {
	ID      string `json:"id"`
	MinDate string `json:"mindate"`
	MaxDate string `json:"maxdate"`
}

type stationsResponse struct {
	Results []Station `json:"results"`
}

type Record struct {
	DataType string  `json:"datatype"`
	Date     string  `json:"date"`
	Value    float64 `json:"value"`
}

type normalsResponse struct {
	Results []Record `json:"results"`
}

// Normal is one station-month. A nil field means the series had no value
// for that month.
type Normal struct {
	Station string
	Month   int
	Tmax    *float64
	Tmin    *float64
	Prcp    *float64
}

type Extreme struct {
	Station string
	State   string
	Metric  string
	Value   float64
}

// Monthly folds raw records into twelve station-months, January first.
// Precipitation is reported in tenths and scaled to whole units.
func Monthly(station string, records []Record) ([]Normal, error) {
	normals := make([]Normal, 12)
	for i := range normals {
		normals[i] = Normal{Station: station, Month: i + 1}
	}

	for _, r := range records {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("station %s: bad record date %q: %w", station, r.Date, err)
		}
		n := &normals[date.Month()-1]
		v := r.Value
		switch r.DataType {
		case dataTypeMax:
			n.Tmax = &v
		case dataTypeMin:
			n.Tmin = &v
		case dataTypePrc:
			v /= 10
			n.Prcp = &v
		}
	}
	return normals, nil
}

// Extremes derives the station's hottest monthly maximum, coldest monthly
// minimum and total precipitation. A metric with no contributing month is
// left out rather than written as a sentinel.
func Extremes(station, state string, normals []Normal) []Extreme {
	var (
		maxT, minT, sumP     float64
		hasMax, hasMin, hasP bool
	)
	for _, n := range normals {
		if n.Tmax != nil && (!hasMax || *n.Tmax > maxT) {
			maxT, hasMax = *n.Tmax, true
		}
		if n.Tmin != nil && (!hasMin || *n.Tmin < minT) {
			minT, hasMin = *n.Tmin, true
		}
		if n.Prcp != nil {
			sumP += *n.Prcp
			hasP = true
		}
	}

	var out []Extreme
	if hasMax {
		out = append(out, Extreme{Station: station, State: state, Metric: MetricMaxTmax, Value: maxT})
	}
	if hasMin {
		out = append(out, Extreme{Station: station, State: state, Metric: MetricMinTmin, Value: minT})
	}
	if hasP {
		out = append(out, Extreme{Station: station, State: state, Metric: MetricSumPrcp, Value: sumP})
	}
	return out
}
