package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseLenientNumber coerces a loosely-typed numeric string into a float64.
// Authors enter point values by hand, so the value may carry whitespace or a
// comma decimal separator ("0,25"). Anything unparseable falls back to 0 —
// a single bad value must never abort scoring of a whole submission.
func ParseLenientNumber(raw string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// LenientNumber is a float64 that unmarshals from either a JSON number or a
// loosely-formatted string. Quiz documents authored through the admin UI mix
// both representations for points and durations.
type LenientNumber float64

func (n *LenientNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = LenientNumber(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = LenientNumber(ParseLenientNumber(s))
		return nil
	}
	// null, object, anything else: degrade to zero.
	*n = 0
	return nil
}

func (n LenientNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(n))
}

// Float returns the plain float64 value.
func (n LenientNumber) Float() float64 {
	return float64(n)
}
