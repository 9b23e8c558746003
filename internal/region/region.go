// Package region holds the lookup data for the US states ingested by the
// jobs: postal abbreviation, full name, FIPS code and an approximate
// centroid with a search radius.
package region

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownState = errors.New("unknown state code")

type State struct {
	Abbr         string
	Name         string
	FIPS         string
	Lat          float64
	Lon          float64
	RadiusMeters int
}

// LocationID is the NOAA location identifier for the state.
func (s State) LocationID() string {
	return "FIPS:" + s.FIPS
}

var states = []State{
	{Abbr: "AL", Name: "Alabama", FIPS: "01", Lat: 32.806671, Lon: -86.791130, RadiusMeters: 300_000},
	{Abbr: "AK", Name: "Alaska", FIPS: "02", Lat: 61.370716, Lon: -152.404419, RadiusMeters: 800_000},
	{Abbr: "AZ", Name: "Arizona", FIPS: "04", Lat: 33.729759, Lon: -111.431221, RadiusMeters: 500_000},
	{Abbr: "AR", Name: "Arkansas", FIPS: "05", Lat: 34.969704, Lon: -92.373123, RadiusMeters: 300_000},
	{Abbr: "CA", Name: "California", FIPS: "06", Lat: 36.116203, Lon: -119.681564, RadiusMeters: 600_000},
	{Abbr: "CO", Name: "Colorado", FIPS: "08", Lat: 39.059811, Lon: -105.311104, RadiusMeters: 400_000},
	{Abbr: "CT", Name: "Connecticut", FIPS: "09", Lat: 41.597782, Lon: -72.755371, RadiusMeters: 150_000},
	{Abbr: "DE", Name: "Delaware", FIPS: "10", Lat: 39.318523, Lon: -75.507141, RadiusMeters: 100_000},
	{Abbr: "FL", Name: "Florida", FIPS: "12", Lat: 27.766279, Lon: -81.686783, RadiusMeters: 500_000},
	{Abbr: "GA", Name: "Georgia", FIPS: "13", Lat: 33.040619, Lon: -83.643074, RadiusMeters: 400_000},
	{Abbr: "HI", Name: "Hawaii", FIPS: "15", Lat: 21.094318, Lon: -157.498337, RadiusMeters: 200_000},
	{Abbr: "ID", Name: "Idaho", FIPS: "16", Lat: 44.240459, Lon: -114.478828, RadiusMeters: 400_000},
	{Abbr: "IL", Name: "Illinois", FIPS: "17", Lat: 40.349457, Lon: -88.986137, RadiusMeters: 350_000},
	{Abbr: "IN", Name: "Indiana", FIPS: "18", Lat: 39.849426, Lon: -86.258278, RadiusMeters: 300_000},
	{Abbr: "IA", Name: "Iowa", FIPS: "19", Lat: 42.011539, Lon: -93.210526, RadiusMeters: 350_000},
	{Abbr: "KS", Name: "Kansas", FIPS: "20", Lat: 38.526600, Lon: -96.726486, RadiusMeters: 400_000},
	{Abbr: "KY", Name: "Kentucky", FIPS: "21", Lat: 37.668140, Lon: -84.670067, RadiusMeters: 300_000},
	{Abbr: "LA", Name: "Louisiana", FIPS: "22", Lat: 31.169546, Lon: -91.867805, RadiusMeters: 300_000},
	{Abbr: "ME", Name: "Maine", FIPS: "23", Lat: 44.693947, Lon: -69.381927, RadiusMeters: 300_000},
	{Abbr: "MD", Name: "Maryland", FIPS: "24", Lat: 39.063946, Lon: -76.802101, RadiusMeters: 150_000},
	{Abbr: "MA", Name: "Massachusetts", FIPS: "25", Lat: 42.230171, Lon: -71.530106, RadiusMeters: 150_000},
	{Abbr: "MI", Name: "Michigan", FIPS: "26", Lat: 43.326618, Lon: -84.536095, RadiusMeters: 400_000},
	{Abbr: "MN", Name: "Minnesota", FIPS: "27", Lat: 45.694454, Lon: -93.900192, RadiusMeters: 400_000},
	{Abbr: "MS", Name: "Mississippi", FIPS: "28", Lat: 32.741646, Lon: -89.678696, RadiusMeters: 300_000},
	{Abbr: "MO", Name: "Missouri", FIPS: "29", Lat: 38.456085, Lon: -92.288368, RadiusMeters: 350_000},
	{Abbr: "MT", Name: "Montana", FIPS: "30", Lat: 46.921925, Lon: -110.454353, RadiusMeters: 600_000},
	{Abbr: "NE", Name: "Nebraska", FIPS: "31", Lat: 41.125370, Lon: -98.268082, RadiusMeters: 400_000},
	{Abbr: "NV", Name: "Nevada", FIPS: "32", Lat: 38.313515, Lon: -117.055374, RadiusMeters: 500_000},
	{Abbr: "NH", Name: "New Hampshire", FIPS: "33", Lat: 43.452492, Lon: -71.563896, RadiusMeters: 150_000},
	{Abbr: "NJ", Name: "New Jersey", FIPS: "34", Lat: 40.298904, Lon: -74.521011, RadiusMeters: 150_000},
	{Abbr: "NM", Name: "New Mexico", FIPS: "35", Lat: 34.840515, Lon: -106.248482, RadiusMeters: 500_000},
	{Abbr: "NY", Name: "New York", FIPS: "36", Lat: 42.165726, Lon: -74.948051, RadiusMeters: 400_000},
	{Abbr: "NC", Name: "North Carolina", FIPS: "37", Lat: 35.630066, Lon: -79.806419, RadiusMeters: 300_000},
	{Abbr: "ND", Name: "North Dakota", FIPS: "38", Lat: 47.528912, Lon: -99.784012, RadiusMeters: 400_000},
	{Abbr: "OH", Name: "Ohio", FIPS: "39", Lat: 40.388783, Lon: -82.764915, RadiusMeters: 300_000},
	{Abbr: "OK", Name: "Oklahoma", FIPS: "40", Lat: 35.565342, Lon: -96.928917, RadiusMeters: 400_000},
	{Abbr: "OR", Name: "Oregon", FIPS: "41", Lat: 44.572021, Lon: -122.070938, RadiusMeters: 500_000},
	{Abbr: "PA", Name: "Pennsylvania", FIPS: "42", Lat: 40.590752, Lon: -77.209755, RadiusMeters: 300_000},
	{Abbr: "RI", Name: "Rhode Island", FIPS: "44", Lat: 41.680893, Lon: -71.511780, RadiusMeters: 100_000},
	{Abbr: "SC", Name: "South Carolina", FIPS: "45", Lat: 33.856892, Lon: -80.945007, RadiusMeters: 200_000},
	{Abbr: "SD", Name: "South Dakota", FIPS: "46", Lat: 44.299782, Lon: -99.438828, RadiusMeters: 400_000},
	{Abbr: "TN", Name: "Tennessee", FIPS: "47", Lat: 35.747845, Lon: -86.692345, RadiusMeters: 300_000},
	{Abbr: "TX", Name: "Texas", FIPS: "48", Lat: 31.054487, Lon: -97.563461, RadiusMeters: 600_000},
	{Abbr: "UT", Name: "Utah", FIPS: "49", Lat: 40.150032, Lon: -111.862434, RadiusMeters: 400_000},
	{Abbr: "VT", Name: "Vermont", FIPS: "50", Lat: 44.045876, Lon: -72.710686, RadiusMeters: 150_000},
	{Abbr: "VA", Name: "Virginia", FIPS: "51", Lat: 37.769337, Lon: -78.169968, RadiusMeters: 300_000},
	{Abbr: "WA", Name: "Washington", FIPS: "53", Lat: 47.400902, Lon: -121.490494, RadiusMeters: 500_000},
	{Abbr: "WV", Name: "West Virginia", FIPS: "54", Lat: 38.491226, Lon: -80.954453, RadiusMeters: 200_000},
	{Abbr: "WI", Name: "Wisconsin", FIPS: "55", Lat: 44.268543, Lon: -89.616508, RadiusMeters: 400_000},
	{Abbr: "WY", Name: "Wyoming", FIPS: "56", Lat: 42.755966, Lon: -107.302490, RadiusMeters: 500_000},
}

var byAbbr = func() map[string]State {
	m := make(map[string]State, len(states))
	for _, s := range states {
		m[s.Abbr] = s
	}
	return m
}()

var byName = func() map[string]State {
	m := make(map[string]State, len(states))
	for _, s := range states {
		m[s.Name] = s
	}
	return m
}()

// All returns the abbreviations of the 50 states in alphabetical order of
// their full names.
func All() []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.Abbr
	}
	return out
}

func Lookup(abbr string) (State, bool) {
	s, ok := byAbbr[strings.ToUpper(strings.TrimSpace(abbr))]
	return s, ok
}

func LookupName(name string) (State, bool) {
	s, ok := byName[name]
	return s, ok
}

// Normalize upper-cases and validates a scope list, rejecting unknown codes.
func Normalize(scope []string) ([]string, error) {
	out := make([]string, 0, len(scope))
	for _, abbr := range scope {
		s, ok := Lookup(abbr)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownState, abbr)
		}
		out = append(out, s.Abbr)
	}
	return out, nil
}
