package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]struct {
		want Amount
		err  error
	}{
		"100":         {want: 10000},
		"100.5":       {want: 10050},
		"0.01":        {want: 1},
		"1000000":     {want: 100_000_000},
		"1000000.00":  {want: 100_000_000},
		"007.10":      {want: 710},
		"0":           {err: ErrAmountOutOfRange},
		"0.00":        {err: ErrAmountOutOfRange},
		"1000000.01":  {err: ErrAmountOutOfRange},
		"99999999999": {err: ErrAmountOutOfRange},
		"1.001":       {err: ErrInvalidAmount},
		"-5":          {err: ErrInvalidAmount},
		"1e3":         {err: ErrInvalidAmount},
		"":            {err: ErrInvalidAmount},
		"abc":         {err: ErrInvalidAmount},
	}
	for in, tc := range cases {
		got, err := ParseAmount(in)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, in)
			continue
		}
		require.NoError(t, err, in)
		assert.Equal(t, tc.want, got, in)
	}
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "100.00", Amount(10000).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "12.34", Amount(1234).String())

	b, err := json.Marshal(Amount(10050))
	require.NoError(t, err)
	assert.JSONEq(t, `"100.50"`, string(b))
}

func TestAmountInputAcceptsNumberAndString(t *testing.T) {
	var in CreatePaymentInput
	require.NoError(t, json.Unmarshal([]byte(`{"amount":100.5}`), &in))
	assert.Equal(t, AmountInput("100.5"), in.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount":"250.00"}`), &in))
	assert.Equal(t, AmountInput("250.00"), in.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount":null}`), &in))
	assert.Equal(t, AmountInput(""), in.Amount)

	assert.Error(t, json.Unmarshal([]byte(`{"amount":true}`), &in))
}

func TestParseAccountTypeCaseInsensitive(t *testing.T) {
	at, ok := ParseAccountType("Savings")
	assert.True(t, ok)
	assert.Equal(t, AccountTypeSavings, at)

	_, ok = ParseAccountType("crypto")
	assert.False(t, ok)
}

func TestParseCurrencyAndStatus(t *testing.T) {
	_, ok := ParseCurrency("ZAR")
	assert.True(t, ok)
	_, ok = ParseCurrency("usd")
	assert.False(t, ok)

	st, ok := ParsePaymentStatus("verified")
	assert.True(t, ok)
	assert.Equal(t, PaymentStatusVerified, st)
	_, ok = ParsePaymentStatus("settled")
	assert.False(t, ok)
}
