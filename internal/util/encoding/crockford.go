package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCharacter is returned when decoding input that contains a symbol
	// outside of the Crockford Base32 alphabet.
	ErrInvalidCharacter = errors.New("invalid crockford base32 character")

	// ErrNonCanonical is returned when the trailing padding bits of an encoded
	// value are not zero, i.e. the input was not produced by EncodeCrockfordB32LC.
	ErrNonCanonical = errors.New("non-canonical crockford base32 input")
)

const crockfordBase32Alphabet = "0123456789abcdefghjkmnpqrstvwxyz" // Crockford's Base32 alphabet, lowercase

//nolint:gochecknoglobals
var crockfordBase32Index = func() (index [256]int8) {
	for i := range index {
		index[i] = -1
	}

	for i := range len(crockfordBase32Alphabet) {
		index[crockfordBase32Alphabet[i]] = int8(i)
	}

	return
}()

// EncodedLen returns the length of the Crockford Base32 encoding of n bytes.
func EncodedLen(n int) int {
	return (n*8 + 4) / 5
}

// EncodeCrockfordB32LC encodes a byte slice using Crockford's Base32 alphabet and returns
// the result in lowercase. Trailing bits are zero-padded to a full symbol.
//
//nolint:gosec
func EncodeCrockfordB32LC(input []byte) string {
	var (
		result bytes.Buffer
		bits   = 0
		accum  = 0
	)

	result.Grow(EncodedLen(len(input)))

	for _, b := range input {
		accum = (accum<<8 | int(b)) & 0xFFFF
		bits += 8

		for bits >= 5 {
			bits -= 5
			result.WriteByte(crockfordBase32Alphabet[(accum>>bits)&0x1F])
		}
	}

	if bits > 0 {
		result.WriteByte(crockfordBase32Alphabet[(accum<<uint(5-bits))&0x1F])
	}

	return result.String()
}

// DecodeCrockfordB32LC reverses EncodeCrockfordB32LC. The input is normalized first,
// so upper case, whitespace, hyphens and the usual O/I/L transcription mistakes are
// accepted.
func DecodeCrockfordB32LC(input string) ([]byte, error) {
	input = strings.ReplaceAll(NormalizeCrockfordB32LC(input), "-", "")

	var (
		out   = make([]byte, 0, len(input)*5/8)
		bits  = 0
		accum = 0
	)

	for i := range len(input) {
		v := crockfordBase32Index[input[i]]
		if v < 0 {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidCharacter, input[i], i)
		}

		accum = (accum<<5 | int(v)) & 0xFFFF
		bits += 5

		if bits >= 8 {
			bits -= 8
			out = append(out, byte(accum>>bits))
		}
	}

	if bits >= 5 || accum&(1<<bits-1) != 0 {
		return nil, ErrNonCanonical
	}

	return out, nil
}

// NormalizeCrockfordB32LC normalizes a Crockford Base32 string by:
// - Removing all whitespace
// - Converting to lowercase
// - Replacing 'O' with '0'
// - Replacing 'I' and 'L' with '1'
// This helps handle common human transcription errors and variations in input.
func NormalizeCrockfordB32LC(input string) string {
	var result bytes.Buffer

	input = strings.Join(strings.Fields(input), "")
	input = strings.ToUpper(input)

	for _, char := range input {
		switch char {
		case 'O':
			result.WriteRune('0')
		case 'I', 'L':
			result.WriteRune('1')
		default:
			result.WriteRune(char)
		}
	}

	return strings.ToLower(result.String())
}
