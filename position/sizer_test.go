package position

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dnldd/breakout/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
)

type testAccount struct {
	balance float64
	err     error
	calls   int
}

func (a *testAccount) AccountBalance(ctx context.Context) (float64, error) {
	a.calls++
	return a.balance, a.err
}

func setupSizer(t *testing.T, account *testAccount, risk float64) *Sizer {
	t.Helper()

	sizer, err := NewSizer(&SizerConfig{
		Market:      "EURUSD",
		RiskPercent: risk,
		Account:     account,
		Logger:      &log.Logger,
	})
	assert.NoError(t, err)

	return sizer
}

func TestNewSizer(t *testing.T) {
	account := &testAccount{}

	// Ensure sizer configs are validated.
	_, err := NewSizer(&SizerConfig{RiskPercent: 0, Account: account, Logger: &log.Logger})
	assert.Error(t, err)

	_, err = NewSizer(&SizerConfig{RiskPercent: 1, Logger: &log.Logger})
	assert.Error(t, err)

	_, err = NewSizer(&SizerConfig{RiskPercent: 1, Account: account})
	assert.Error(t, err)
}

func TestPipValue(t *testing.T) {
	assert.Equal(t, PipValue(5), 0.0001)
	assert.Equal(t, PipValue(3), 0.0001)
	assert.Equal(t, PipValue(2), 0.01)
	assert.Equal(t, PipValue(0), 0.01)
}

func TestSize(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		balance float64
		risk    float64
		pips    float64
		pip     float64
		err     error
		want    float64
	}{
		{
			// 100 / (50 * 0.0001 * 10) = 2000.
			name: "forex risk sizing", balance: 10000, risk: 1, pips: 50, pip: 0.0001, want: 2000,
		},
		{
			// 100 / (500 * 0.01 * 10) = 2.
			name: "two digit risk sizing", balance: 10000, risk: 1, pips: 500, pip: 0.01, want: 2,
		},
		{
			// 10 / (300 * 0.01 * 10) = 0.3333 -> 0.33.
			name: "rounded to two places", balance: 1000, risk: 1, pips: 300, pip: 0.01, want: 0.33,
		},
		{
			// 1 / (1000 * 0.01 * 10) = 0.01 -> 0.01.
			name: "exactly minimum", balance: 100, risk: 1, pips: 1000, pip: 0.01, want: 0.01,
		},
		{
			// 1 / (5000 * 0.01 * 10) = 0.002 -> minimum.
			name: "floored to minimum", balance: 100, risk: 1, pips: 5000, pip: 0.01, want: MinVolume,
		},
		{
			name: "zero pips", balance: 10000, risk: 1, pips: 0, pip: 0.0001, want: MinVolume,
		},
		{
			name: "zero pips large balance", balance: 1e9, risk: 5, pips: 0, pip: 0.0001, want: MinVolume,
		},
		{
			name: "invalid pip value", balance: 10000, risk: 1, pips: 50, pip: 0, want: MinVolume,
		},
		{
			name: "account unavailable", balance: 10000, risk: 1, pips: 50, pip: 0.0001,
			err: fmt.Errorf("fetching account: %w", shared.ErrAccountInfoUnavailable), want: MinVolume,
		},
		{
			name: "unexpected account error", balance: 10000, risk: 1, pips: 50, pip: 0.0001,
			err: errors.New("timeout"), want: MinVolume,
		},
	}

	for _, test := range tests {
		account := &testAccount{balance: test.balance, err: test.err}
		sizer := setupSizer(t, account, test.risk)

		got := sizer.Size(ctx, test.pips, test.pip)
		if got != test.want {
			t.Errorf("%s: expected volume %v, got %v", test.name, test.want, got)
		}
	}
}
