package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"int64", int64(7), 7},
		{"int", 7, 7},
		{"int32", int32(7), 7},
		{"float64", float64(7), 7},
		{"bytes", []byte("42"), 42},
		{"string", "42", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := AsInt64(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	_, err := AsInt64(nil)
	assert.Error(t, err)
	_, err = AsInt64("x")
	assert.Error(t, err)
}

func TestRowInt64(t *testing.T) {
	row := Row{"n": int64(3), "bad": true}

	n, err := row.Int64("n")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = row.Int64("bad")
	assert.ErrorContains(t, err, "column bad")
}
