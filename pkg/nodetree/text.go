package nodetree

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Text layer: standard base64, except that runs of three or more 'A' (six
// zero bits, which dominate the binary stream) are written as the escape '@'
// followed by one alphabet character holding the run length minus three.
const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	escape   = '@'
	minRun   = 3
	maxRun   = minRun + len(alphabet) - 1 // 66
)

// EncodeText wraps a binary stream in the compressed base64 form.
func EncodeText(b []byte) string {
	plain := base64.StdEncoding.EncodeToString(b)

	var sb strings.Builder
	sb.Grow(len(plain))
	for i := 0; i < len(plain); {
		if plain[i] != 'A' {
			sb.WriteByte(plain[i])
			i++
			continue
		}
		run := 0
		for i+run < len(plain) && plain[i+run] == 'A' {
			run++
		}
		i += run
		for run >= minRun {
			n := min(run, maxRun)
			sb.WriteByte(escape)
			sb.WriteByte(alphabet[n-minRun])
			run -= n
		}
		sb.WriteString("AA"[:run])
	}
	return sb.String()
}

// DecodeText reverses EncodeText.
func DecodeText(s string) ([]byte, error) {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != escape {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("%w: escape at end of input", ErrMalformed)
		}
		n := strings.IndexByte(alphabet, s[i+1])
		if n < 0 {
			return nil, fmt.Errorf("%w: invalid run length %q at offset %d", ErrMalformed, s[i+1], i+1)
		}
		sb.WriteString(strings.Repeat("A", n+minRun))
		i++
	}

	b, err := base64.StdEncoding.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return b, nil
}
