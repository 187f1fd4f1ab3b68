package duration

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Unit is the unit every preset in an OptionSet is expressed in.
type Unit string

const (
	UnitHours   Unit = "hours"
	UnitMinutes Unit = "minutes"
	UnitDays    Unit = "days"
)

// ParseUnit accepts the three unit names, case-insensitively.
func ParseUnit(s string) (Unit, bool) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case UnitHours:
		return UnitHours, true
	case UnitMinutes:
		return UnitMinutes, true
	case UnitDays:
		return UnitDays, true
	}
	return "", false
}

const otherValue = "other"

// OptionValue is either a numeric preset or the "other" sentinel.
type OptionValue struct {
	value float64
	other bool
}

// Other is the sentinel picked when the user wants a custom value.
var Other = OptionValue{other: true}

func Preset(v float64) OptionValue {
	return OptionValue{value: v}
}

func (v OptionValue) IsOther() bool {
	return v.other
}

// Float returns the numeric value; zero for Other.
func (v OptionValue) Float() float64 {
	return v.value
}

func (v OptionValue) String() string {
	if v.other {
		return otherValue
	}
	return formatNumber(v.value)
}

// MarshalJSON renders a number, or the string "other".
func (v OptionValue) MarshalJSON() ([]byte, error) {
	if v.other {
		return json.Marshal(otherValue)
	}
	return json.Marshal(v.value)
}

func (v *OptionValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != otherValue {
			return errors.New("duration: option value must be a number or \"other\"")
		}
		*v = Other
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Preset(f)
	return nil
}

// Option is one entry of a duration picker.
type Option struct {
	Label string      `json:"label"`
	Value OptionValue `json:"value"`
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
