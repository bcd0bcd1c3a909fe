package nodetree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextCompressesRuns(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", nil, ""},
		{"two A kept", []byte{0x00, 0x0F, 0xFF}, "AA//"},
		{"four A", make([]byte, 3), "@B"},
		{"eight A", make([]byte, 6), "@F"},
		{"sixty-four A", make([]byte, 48), "@9"},
		{"split at sixty-six", make([]byte, 51), "@/AA"},
		{"padding kept", []byte{0x00, 0x00, 0x00, 0x01}, "@CQ=="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeText(tt.in)
			assert.Equal(t, tt.want, got)

			back, err := DecodeText(got)
			require.NoError(t, err)
			assert.Equal(t, len(tt.in), len(back))
			assert.True(t, bytes.Equal(tt.in, back))
		})
	}
}

func TestTextRoundTripAllRunLengths(t *testing.T) {
	for zeros := 0; zeros <= 200; zeros++ {
		for _, edge := range [][2][]byte{
			{nil, nil},
			{{0xFF}, nil},
			{{0x12, 0x34}, {0x56}},
		} {
			var in []byte
			in = append(in, edge[0]...)
			in = append(in, make([]byte, zeros)...)
			in = append(in, edge[1]...)

			text := EncodeText(in)
			assert.NotContains(t, text, "AAA")
			out, err := DecodeText(text)
			require.NoError(t, err, "zeros=%d", zeros)
			require.True(t, bytes.Equal(in, out), "zeros=%d text=%s", zeros, text)
		}
	}
}

func TestDecodeTextRejectsBadInput(t *testing.T) {
	for _, in := range []string{"@", "AA@", "@!AA", "AB$=", "ABC", strings.Repeat("A", 5)} {
		_, err := DecodeText(in)
		assert.ErrorIs(t, err, ErrMalformed, "%q", in)
	}
}
