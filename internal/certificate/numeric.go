package certificate

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var errNotFinite = errors.New("not a finite number")

// ParseLocaleFloat parses a certificate cell, translating a decimal comma to a point.
func ParseLocaleFloat(s string) (float64, error) {
	return parsePlainFloat(strings.ReplaceAll(s, ",", "."))
}

// parsePlainFloat parses a cell as written; "12,5" is not a number here.
func parsePlainFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errNotFinite
	}
	return v, nil
}

// coercion selects how a cell that does not parse is handled.
type coercion int

const (
	// strict fails the whole grid on the first bad cell
	strict coercion = iota
	// tolerant stores nil for the bad cell and keeps the row. Decimal commas are not
	// translated, so "12,5" is a bad cell too.
	tolerant
)

// tolerantColumns are parsed tolerantly whatever the template: electrical tilt is often
// printed as a remote-tilt range ("2-12") and never decided whether a table is usable.
var tolerantColumns = map[string]bool{
	"electricalTilt": true,
}

// toRecord converts a row already laid out in canonical column order.
func toRecord(cells []string, row int, mode coercion) (SectorRecord, error) {
	parse := ParseLocaleFloat
	if mode == tolerant {
		parse = parsePlainFloat
	}

	rec := SectorRecord{Antenna: strings.TrimSpace(cells[0])}
	for i, slot := range rec.numericFields() {
		column := Columns[i+1]
		raw := cells[i+1]
		v, err := parse(raw)
		if err != nil {
			if mode == strict && !tolerantColumns[column] {
				return SectorRecord{}, &NumericError{Column: column, Row: row, Value: raw, Err: err}
			}
			continue
		}
		*slot = Float(v)
	}
	return rec, nil
}
