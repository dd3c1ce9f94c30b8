package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericStringToCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"115.00", 11500},
		{"0.05", 5},
		{"0", 0},
		{"1999.99", 199999},
		{"-42.50", -4250},
		{" 10.10 ", 1010},
		{"7", 700},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := numericStringToCents(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		for _, in := range []string{"", "abc", "10.0.0"} {
			_, err := numericStringToCents(in)
			assert.Error(t, err)
		}
	})
}

func TestCentsToNumericString(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{11500, "115.00"},
		{5, "0.05"},
		{0, "0.00"},
		{199999, "1999.99"},
		{-4250, "-42.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, centsToNumericString(tt.in))
	}
}

func TestMoneyRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 11500, 123456789, -250} {
		got, err := numericStringToCents(centsToNumericString(cents))
		require.NoError(t, err)
		assert.Equal(t, cents, got)
	}
}
