package duration

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestFormatLabel(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     Unit
		expected string
	}{
		{name: "Whole hours", value: 2, unit: UnitHours, expected: "2 hours"},
		// Hours follow the minutes wording: "1 hour" rather than "1 hours",
		// and under an hour only the minutes part ("30 minutes").
		{name: "One hour", value: 1, unit: UnitHours, expected: "1 hour"},
		{name: "Fractional hours", value: 1.5, unit: UnitHours, expected: "1 hour, 30 minutes"},
		{name: "Quarter hours", value: 2.25, unit: UnitHours, expected: "2 hours, 15 minutes"},
		{name: "Half an hour", value: 0.5, unit: UnitHours, expected: "30 minutes"},
		{name: "Rounding carries into the hour", value: 1.999, unit: UnitHours, expected: "2 hours"},
		{name: "Minutes below an hour", value: 30, unit: UnitMinutes, expected: "30 minutes"},
		{name: "Sixty minutes", value: 60, unit: UnitMinutes, expected: "1 hour"},
		{name: "Ninety minutes", value: 90, unit: UnitMinutes, expected: "1 hour, 30 minutes"},
		{name: "Two hours in minutes", value: 120, unit: UnitMinutes, expected: "2 hours"},
		{name: "Two hours fifteen", value: 135, unit: UnitMinutes, expected: "2 hours, 15 minutes"},
		{name: "One day", value: 1, unit: UnitDays, expected: "1 day"},
		{name: "Several days", value: 3, unit: UnitDays, expected: "3 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatLabel(tt.value, tt.unit))
		})
	}
}

func TestOptionSet_BuildOptions(t *testing.T) {
	set := NewOptionSet([]float64{90, 30, 60}, UnitMinutes)

	opts := set.BuildOptions()
	require.Len(t, opts, 4)
	assert.Equal(t, Option{Label: "Other", Value: Other}, opts[0])
	assert.Equal(t, Option{Label: "30 minutes", Value: Preset(30)}, opts[1])
	assert.Equal(t, Option{Label: "1 hour", Value: Preset(60)}, opts[2])
	assert.Equal(t, Option{Label: "1 hour, 30 minutes", Value: Preset(90)}, opts[3])
}

func TestOptionSet_CustomSelectionIsSorted(t *testing.T) {
	set := NewOptionSet([]float64{1, 2, 3}, UnitHours)
	set.SetSelection(2.5)

	opts := set.BuildOptions()
	require.Len(t, opts, 5)
	assert.True(t, opts[0].Value.IsOther())

	var values []float64
	for _, o := range opts[1:] {
		values = append(values, o.Value.Float())
	}
	assert.Equal(t, []float64{1, 2, 2.5, 3}, values)
	assert.Equal(t, "2 hours, 30 minutes", opts[3].Label)
}

func TestOptionSet_SelectionSnapsToPreset(t *testing.T) {
	set := NewOptionSet([]float64{1, 1.5, 2}, UnitHours)

	set.SetSelection(1.5000001)
	assert.Equal(t, mo.Some(1.5), set.Selected())
	// A snapped selection is a preset, so nothing extra is emitted.
	assert.Len(t, set.BuildOptions(), 4)

	set.SetSelection(1.75)
	assert.Equal(t, mo.Some(1.75), set.Selected())
	assert.Len(t, set.BuildOptions(), 5)

	set.ClearSelection()
	assert.Len(t, set.BuildOptions(), 4)
}

func TestOptionSet_NonPositiveCustomIsNotEmitted(t *testing.T) {
	set := NewOptionSet([]float64{1, 2}, UnitDays)
	set.SetSelection(0)
	assert.Len(t, set.BuildOptions(), 3)

	set.SetSelection(-4)
	assert.Len(t, set.BuildOptions(), 3)
}

func TestOptionSet_MatchPreset(t *testing.T) {
	set := NewOptionSet([]float64{30, 60, 90}, UnitMinutes, WithTolerance(0.5))

	tests := []struct {
		name     string
		value    mo.Option[float64]
		expected mo.Option[float64]
	}{
		{name: "Exact", value: mo.Some(60.0), expected: mo.Some(60.0)},
		{name: "Within tolerance", value: mo.Some(89.7), expected: mo.Some(90.0)},
		{name: "Outside tolerance", value: mo.Some(45.0), expected: mo.None[float64]()},
		{name: "Absent never matches", value: mo.None[float64](), expected: mo.None[float64]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, set.MatchPreset(tt.value))
		})
	}
}

func TestOptionSet_CurrentSelectionFor(t *testing.T) {
	set := NewOptionSet([]float64{1, 2}, UnitHours)

	assert.Equal(t, Preset(2), set.CurrentSelectionFor(mo.Some(2.001)))
	assert.Equal(t, Other, set.CurrentSelectionFor(mo.Some(2.5)))
	assert.Equal(t, Other, set.CurrentSelectionFor(mo.None[float64]()))
	// Rendering must not change the stored selection.
	assert.True(t, set.Selected().IsAbsent())
}

func TestOptionSet_TranslatorReceivesNamespace(t *testing.T) {
	var seen []string
	tr := TranslatorFunc(func(text, ns string) string {
		seen = append(seen, ns)
		return strings.ToUpper(text)
	})
	set := NewOptionSet([]float64{2}, UnitDays, WithNamespace("events"), WithTranslator(tr))

	opts := set.BuildOptions()
	assert.Equal(t, "OTHER", opts[0].Label)
	assert.Equal(t, "2 DAYS", opts[1].Label)
	assert.Equal(t, []string{"events", "events"}, seen)
}

func TestCatalogTranslator(t *testing.T) {
	tr, err := NewCatalogTranslator("eventcal", language.German, map[string]string{
		"Other":  "Andere",
		"1 hour": "1 Stunde",
	})
	require.NoError(t, err)

	assert.Equal(t, "Andere", tr.Translate("Other", "eventcal"))
	assert.Equal(t, "1 Stunde", tr.Translate("1 hour", "eventcal"))
	assert.Equal(t, "2 hours", tr.Translate("2 hours", "eventcal"))
	assert.Equal(t, "Other", tr.Translate("Other", "another-plugin"))
}

func TestOptionValue_JSON(t *testing.T) {
	data, err := json.Marshal([]Option{{Label: "Other", Value: Other}, {Label: "1 day", Value: Preset(1)}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"label":"Other","value":"other"},{"label":"1 day","value":1}]`, string(data))

	var v OptionValue
	require.NoError(t, json.Unmarshal([]byte(`"other"`), &v))
	assert.True(t, v.IsOther())
	require.NoError(t, json.Unmarshal([]byte(`1.5`), &v))
	assert.Equal(t, Preset(1.5), v)
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &v))
}

func TestParseUnit(t *testing.T) {
	u, ok := ParseUnit(" Hours ")
	assert.True(t, ok)
	assert.Equal(t, UnitHours, u)

	_, ok = ParseUnit("weeks")
	assert.False(t, ok)
}
