package formats

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedToken is returned by the strict token policy.
var ErrMalformedToken = errors.New("malformed numeric token")

// TokenPolicy controls how malformed numeric tokens are handled.
type TokenPolicy int

const (
	// TokensLenient skips malformed tokens and keeps consuming. The declared
	// count check still catches payloads that lose values this way.
	TokensLenient TokenPolicy = iota
	// TokensStrict fails on the first malformed token.
	TokensStrict
)

// String returns the policy name.
func (p TokenPolicy) String() string {
	switch p {
	case TokensLenient:
		return "lenient"
	case TokensStrict:
		return "strict"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// DecodeFloats decodes a whitespace-delimited list of 32-bit floats.
// It returns the decoded values and the number of skipped tokens.
func DecodeFloats(text string, policy TokenPolicy) ([]float32, int, error) {
	tokens := strings.Fields(text)
	values := make([]float32, 0, len(tokens))
	skipped := 0

	for i, tok := range tokens {
		v, err := parseDecimalFloat(tok)
		if err != nil {
			if policy == TokensStrict {
				return nil, skipped, fmt.Errorf("%w %q at position %d", ErrMalformedToken, tok, i)
			}
			skipped++
			continue
		}
		values = append(values, float32(v))
	}

	return values, skipped, nil
}

// parseDecimalFloat parses a finite float written in plain decimal notation.
// NaN, infinities and hex floats are rejected.
func parseDecimalFloat(tok string) (float64, error) {
	if !isDecimalFloat(tok) {
		return 0, errors.New("not a decimal number")
	}
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.New("not finite")
	}
	return v, nil
}

// isDecimalFloat matches [+-]digits[.digits][(e|E)[+-]digits] with at
// least one mantissa digit.
func isDecimalFloat(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	mantissa := 0
	for ; i < len(s) && isDigit(s[i]); i++ {
		mantissa++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && isDigit(s[i]); i++ {
			mantissa++
		}
	}
	if mantissa == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for ; i < len(s) && isDigit(s[i]); i++ {
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// DecodeIndices decodes a whitespace-delimited list of unsigned 32-bit
// integers. It returns the decoded values and the number of skipped tokens.
func DecodeIndices(text string, policy TokenPolicy) ([]uint32, int, error) {
	tokens := strings.Fields(text)
	values := make([]uint32, 0, len(tokens))
	skipped := 0

	for i, tok := range tokens {
		v, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			if policy == TokensStrict {
				return nil, skipped, fmt.Errorf("%w %q at position %d", ErrMalformedToken, tok, i)
			}
			skipped++
			continue
		}
		values = append(values, uint32(v))
	}

	return values, skipped, nil
}

// parseDeclaredCount parses a Size or IndexLength attribute.
func parseDeclaredCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("missing")
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer: %q", s)
	}
	return int(n), nil
}

// trailingDigits returns the run of decimal digits at the end of s.
func trailingDigits(s string) string {
	start := len(s)
	for start > 0 && isDigit(s[start-1]) {
		start--
	}
	return s[start:]
}
