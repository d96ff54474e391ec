package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmountMinor(t *testing.T) {
	testCases := []struct {
		input     string
		precision int
		want      int64
	}{
		{"12.34", 2, 1234},
		{"-12.34", 2, -1234},
		{"+12", 2, 1200},
		{"(12.34)", 2, -1234},
		{"1,234.56", 2, 123456},
		{"0.10", 2, 10},
		{"0.1", 2, 10},
		{".5", 2, 50},
		{"500", 0, 500},
		{"-0.01", 2, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseAmountMinor(tc.input, tc.precision)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAmountMinor_Rejects(t *testing.T) {
	badInputs := []struct {
		input     string
		precision int
	}{
		{"", 2},
		{"abc", 2},
		{"12.3.4", 2},
		{"12.345", 2}, // more fractional digits than the currency allows
		{"1.5", 0},
		{"--5", 2},
	}

	for _, tc := range badInputs {
		t.Run(tc.input, func(t *testing.T) {
			_, err := ParseAmountMinor(tc.input, tc.precision)
			assert.Error(t, err)
		})
	}
}
