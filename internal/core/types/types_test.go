package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount_ClampZero(t *testing.T) {
	assert.Equal(t, Count(0), Count(-15).ClampZero())
	assert.Equal(t, Count(0), Count(0).ClampZero())
	assert.Equal(t, Count(40), Count(40).ClampZero())
}

func TestCount_Predicates(t *testing.T) {
	assert.True(t, Count(0).IsZero())
	assert.True(t, Count(3).IsPositive())
	assert.True(t, Count(-3).IsNegative())
	assert.Equal(t, Count(3), Count(-3).Neg())
	assert.Equal(t, Count(3), Count(-3).Abs())
}

func TestParseCount(t *testing.T) {
	c, err := ParseCount("42")
	require.NoError(t, err)
	assert.Equal(t, Count(42), c)

	_, err = ParseCount("4.2")
	assert.Error(t, err)
}

func TestNewDate_TruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("PKT", 5*3600)

	// 2026-08-31 02:30 +05 is still 2026-08-30 in UTC.
	d := NewDate(time.Date(2026, 8, 31, 2, 30, 0, 0, loc))
	assert.Equal(t, "2026-08-30", d.String())
	assert.Equal(t, time.UTC, d.Time().Location())
}

func TestDate_PrevNextDaysSince(t *testing.T) {
	d := DateOf(2026, 8, 30)

	assert.Equal(t, "2026-08-29", d.Prev().String())
	assert.Equal(t, "2026-08-31", d.Next().String())
	assert.Equal(t, 3, d.DaysSince(DateOf(2026, 8, 27)))
	assert.Equal(t, 0, d.DaysSince(d))
}

func TestDate_JSONRoundTrip(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
	}

	raw, err := json.Marshal(payload{Date: DateOf(2026, 8, 30)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-08-30"}`, string(raw))

	var back payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-08-30"}`), &back))
	assert.True(t, back.Date.Equal(DateOf(2026, 8, 30)))
}

func TestDate_ScanVariants(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, 8, 30, 13, 45, 0, 0, time.UTC)))
	assert.Equal(t, "2026-08-30", d.String())

	require.NoError(t, d.Scan("2026-08-29"))
	assert.Equal(t, "2026-08-29", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(12345))
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("30-08-2026")
	assert.Error(t, err)
}

func TestMoney_StringPrecision(t *testing.T) {
	m := MustMoney("1500.50")
	m = m.Add(MustMoney("150"))
	assert.True(t, MustMoney("1650.50").Equal(m))
	assert.Equal(t, "1650.5", m.String())
}
