package shared

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestTimeframeString(t *testing.T) {
	tests := []struct {
		name      string
		timeframe Timeframe
		want      string
	}{
		{"one minute", OneMinute, "1m"},
		{"five minute", FiveMinute, "5m"},
		{"fifteen minute", FifteenMinute, "15m"},
		{"thirty minute", ThirtyMinute, "30m"},
		{"one hour", OneHour, "1H"},
		{"four hour", FourHour, "4H"},
		{"one day", OneDay, "1D"},
		{"unknown", Timeframe(99), "unknown"},
	}

	for _, test := range tests {
		str := test.timeframe.String()
		if str != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, str)
		}
	}
}

func TestTimeframeDuration(t *testing.T) {
	assert.Equal(t, FiveMinute.Duration(), time.Minute*5)
	assert.Equal(t, OneHour.Duration(), time.Hour)
	assert.Equal(t, Timeframe(99).Duration(), time.Duration(0))
}

func TestParseTimeframe(t *testing.T) {
	// Ensure both broker and display notations parse.
	tf, err := ParseTimeframe("M5")
	assert.NoError(t, err)
	assert.Equal(t, tf, FiveMinute)

	tf, err = ParseTimeframe("1H")
	assert.NoError(t, err)
	assert.Equal(t, tf, OneHour)

	tf, err = ParseTimeframe(" h4 ")
	assert.NoError(t, err)
	assert.Equal(t, tf, FourHour)

	// Ensure every timeframe round trips through its string form.
	for tf := OneMinute; tf <= OneDay; tf++ {
		parsed, err := ParseTimeframe(tf.String())
		assert.NoError(t, err)
		assert.Equal(t, parsed, tf)
	}

	// Ensure unknown timeframes error.
	_, err = ParseTimeframe("2w")
	assert.Error(t, err)
}
