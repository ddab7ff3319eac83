package shared

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestNewSignal(t *testing.T) {
	now := time.Now()

	// Ensure buy signals reference the resistance.
	buy := NewSignal("EURUSD", Buy, 105, 90, 100, now)
	assert.Equal(t, buy.ReferenceLevel, float64(100))
	assert.Equal(t, buy.Direction, Buy)
	assert.Equal(t, buy.EntryPrice, float64(105))

	// Ensure sell signals reference the support.
	sell := NewSignal("EURUSD", Sell, 85, 90, 100, now)
	assert.Equal(t, sell.ReferenceLevel, float64(90))
	assert.Equal(t, sell.Support, float64(90))
	assert.Equal(t, sell.Resistance, float64(100))
}
