package core

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
)

func TestDeepEqual(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.True(t, DeepEqual(nil, nil))
	assert.True(t, DeepEqual(json.Number("1.50"), 1.5))
	assert.True(t, DeepEqual(uint64(7), int32(7)))
	assert.True(t, DeepEqual([]any{1, "a", nil}, []any{1.0, "a", nil}))
	assert.True(t, DeepEqual(map[string]any{"a": []any{}}, map[string]any{"a": []any{}}))
	assert.True(t, DeepEqual(ts, ts))

	assert.False(t, DeepEqual(nil, false))
	assert.False(t, DeepEqual("1", 1))
	assert.False(t, DeepEqual([]any{1, 2}, []any{2, 1}))
	assert.False(t, DeepEqual(map[string]any{"a": nil}, map[string]any{}))
	assert.False(t, DeepEqual(map[string]any{"a": 1}, map[string]any{"b": 1}))
	assert.False(t, DeepEqual(int64(9007199254740993), int64(9007199254740992)))
}

func TestDeepEqual_NaNAndMalformedNumbers(t *testing.T) {
	assert.True(t, DeepEqual(math.NaN(), math.NaN()))
	assert.True(t, DeepEqual(float32(math.NaN()), math.NaN()))
	assert.True(t, DeepEqual(map[string]any{"r": math.NaN()}, map[string]any{"r": math.NaN()}))
	assert.False(t, DeepEqual(math.NaN(), 0.0))

	assert.True(t, DeepEqual(json.Number("1e400"), json.Number("1e400")))
	assert.False(t, DeepEqual(json.Number("1e400"), json.Number("2e400")))
	assert.False(t, DeepEqual(json.Number("1e400"), math.Inf(1)))
}

func TestDeepEqual_Datetimes(t *testing.T) {
	utc := time.Date(1979, 5, 27, 7, 32, 0, 0, time.UTC)
	offset := utc.In(time.FixedZone("", -7*3600))
	date := toml.LocalDate{Year: 1979, Month: 5, Day: 27}

	assert.Equal(t, models.KindDatetime, models.KindOf(utc))
	assert.Equal(t, models.KindDatetime, models.KindOf(date))
	assert.True(t, DeepEqual(utc, offset))
	assert.True(t, DeepEqual(date, toml.LocalDate{Year: 1979, Month: 5, Day: 27}))
	assert.False(t, DeepEqual(date, toml.LocalDate{Year: 1979, Month: 5, Day: 28}))
	assert.False(t, DeepEqual(utc, date))
	assert.False(t, DeepEqual(utc, utc.Format(time.RFC3339)))
}

func TestValueAtAndSetAt(t *testing.T) {
	d := models.Document{}
	setAt(d, models.Path{"a", "b", "c"}, 1)

	v, ok := ValueAt(d, models.Path{"a", "b", "c"})
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = ValueAt(d, models.Path{"a", "x"})
	assert.False(t, ok)

	root, ok := ValueAt(d, nil)
	assert.True(t, ok)
	assert.Equal(t, d, root)

	setAt(d, models.Path{"a", "b", "c", "d"}, 2)
	assert.Equal(t, map[string]any{"d": 2}, d["a"].(map[string]any)["b"].(map[string]any)["c"])

	deleteAt(d, models.Path{"a", "b"})
	assert.Equal(t, map[string]any{}, d["a"])
	deleteAt(d, models.Path{"missing", "path"})
}
