package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		ts, err := NewTimeStringFromString("09:30")

		require.NoError(t, err)
		assert.Equal(t, "09:30", ts.String())
	})

	t.Run("invalid format", func(t *testing.T) {
		for _, s := range []string{"9:30:00", "25:00", "10:61", "abc", ""} {
			_, err := NewTimeStringFromString(s)
			assert.ErrorIs(t, err, ErrInvalidTimeString, "input %q", s)
		}
	})
}

func TestTimeString_Minutes(t *testing.T) {
	ts := TimeString("10:45")

	minutes, err := ts.Minutes()

	require.NoError(t, err)
	assert.Equal(t, 645, minutes)
}

func TestTimeString_AddMinutes(t *testing.T) {
	t.Run("within day", func(t *testing.T) {
		ts := TimeString("10:00")

		got, err := ts.AddMinutes(90)

		require.NoError(t, err)
		assert.Equal(t, TimeString("11:30"), got)
	})

	t.Run("crossing midnight is an error", func(t *testing.T) {
		ts := TimeString("23:30")

		_, err := ts.AddMinutes(60)

		assert.ErrorIs(t, err, ErrInvalidTimeString)
	})

	t.Run("negative result is an error", func(t *testing.T) {
		ts := TimeString("00:10")

		_, err := ts.AddMinutes(-30)

		assert.ErrorIs(t, err, ErrInvalidTimeString)
	})
}

func TestTimeString_Ordering(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("10:00"))
	assert.False(t, TimeString("10:00").IsBefore("10:00"))
	assert.True(t, TimeString("10:30").IsAfter("10:00"))
}

func TestTimeString_At(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Rotterdam")
	if err != nil {
		// tzdata может отсутствовать в окружении CI
		loc = time.FixedZone("CET", 3600)
	}
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	got, err := TimeString("10:30").At(date, loc)

	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.September, got.Month())
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, loc, got.Location())
}

func TestTimeString_Scan(t *testing.T) {
	t.Run("string with seconds", func(t *testing.T) {
		var ts TimeString
		require.NoError(t, ts.Scan("10:00:00"))
		assert.Equal(t, TimeString("10:00"), ts)
	})

	t.Run("bytes", func(t *testing.T) {
		var ts TimeString
		require.NoError(t, ts.Scan([]byte("08:15")))
		assert.Equal(t, TimeString("08:15"), ts)
	})

	t.Run("time.Time", func(t *testing.T) {
		var ts TimeString
		require.NoError(t, ts.Scan(time.Date(2026, 1, 1, 14, 5, 33, 0, time.UTC)))
		assert.Equal(t, TimeString("14:05"), ts)
	})

	t.Run("nil resets value", func(t *testing.T) {
		ts := TimeString("10:00")
		require.NoError(t, ts.Scan(nil))
		assert.True(t, ts.IsZero())
	})

	t.Run("unsupported type", func(t *testing.T) {
		var ts TimeString
		assert.ErrorIs(t, ts.Scan(42), ErrInvalidTimeString)
	})
}

func TestTimeString_Value(t *testing.T) {
	v, err := TimeString("10:00").Value()
	require.NoError(t, err)
	assert.Equal(t, "10:00", v)

	v, err = TimeString("").Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = TimeString("bad").Value()
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}
