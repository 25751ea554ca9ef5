package encoding_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/mkrupp/homecase-lists/internal/util/encoding"
)

func TestEncodeCrockfordB32LC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "empty input", input: []byte{}, want: ""},
		{name: "single byte", input: []byte{0xF5}, want: "ym"},
		{name: "two bytes", input: []byte{0xF5, 0x3A}, want: "ymx0"},
		{name: "three bytes", input: []byte{0xF5, 0x3A, 0x58}, want: "ymx5g"},
		{name: "four bytes", input: []byte{0xF5, 0x3A, 0x58, 0x9B}, want: "ymx5h6r"},
		{name: "five bytes without padding", input: []byte{0xF5, 0x3A, 0x58, 0x9B, 0xC4}, want: "ymx5h6y4"},
		{name: "all zero bytes", input: []byte{0, 0, 0, 0}, want: "0000000"},
		{name: "all ones", input: []byte{255, 255, 255, 255}, want: "zzzzzzr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := encoding.EncodeCrockfordB32LC(tt.input)
			if got != tt.want {
				t.Errorf("EncodeCrockfordB32LC() = %q, want %q", got, tt.want)
			}

			if len(got) != encoding.EncodedLen(len(tt.input)) {
				t.Errorf("EncodedLen(%d) = %d, encoded %d symbols", len(tt.input), encoding.EncodedLen(len(tt.input)), len(got))
			}
		})
	}
}

func TestDecodeCrockfordB32LC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr error
	}{
		{name: "empty input", input: "", want: []byte{}},
		{name: "single byte", input: "ym", want: []byte{0xF5}},
		{name: "five bytes", input: "ymx5h6y4", want: []byte{0xF5, 0x3A, 0x58, 0x9B, 0xC4}},
		{name: "upper case", input: "YMX5H6Y4", want: []byte{0xF5, 0x3A, 0x58, 0x9B, 0xC4}},
		{name: "hyphenated", input: "ymx5-h6y4", want: []byte{0xF5, 0x3A, 0x58, 0x9B, 0xC4}},
		{name: "transcription errors", input: "OOOOOOO", want: []byte{0, 0, 0, 0}},
		{name: "invalid symbol", input: "ym!", wantErr: encoding.ErrInvalidCharacter},
		{name: "excluded letter u", input: "uu", wantErr: encoding.ErrInvalidCharacter},
		{name: "dangling symbol", input: "ymx", wantErr: encoding.ErrNonCanonical},
		{name: "non-zero padding", input: "yn", wantErr: encoding.ErrNonCanonical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := encoding.DecodeCrockfordB32LC(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecodeCrockfordB32LC() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err == nil && !bytes.Equal(got, tt.want) {
				t.Errorf("DecodeCrockfordB32LC() = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestDecodeRoundtrip(t *testing.T) {
	t.Parallel()

	for size := range 40 {
		input := make([]byte, size)
		if _, err := rand.Read(input); err != nil {
			t.Fatalf("rand: %v", err)
		}

		decoded, err := encoding.DecodeCrockfordB32LC(encoding.EncodeCrockfordB32LC(input))
		if err != nil {
			t.Fatalf("size %d: decode: %v", size, err)
		}

		if !bytes.Equal(decoded, input) {
			t.Errorf("size %d: roundtrip = %x, want %x", size, decoded, input)
		}
	}
}

func TestNormalizeCrockfordB32LC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty string", input: "", want: ""},
		{name: "already lowercase", input: "abc123def", want: "abc123def"},
		{name: "mixed case", input: "aBc123DeF", want: "abc123def"},
		{name: "with whitespace", input: "  ABC 123\tDEF  ", want: "abc123def"},
		{name: "O to 0", input: "ABCO123ODEF", want: "abc01230def"},
		{name: "I and L to 1", input: "ABCI123LDEF", want: "abc11231def"},
		{name: "hyphens are kept", input: "Z7IO-L5KM-NXQP", want: "z710-15km-nxqp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := encoding.NormalizeCrockfordB32LC(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeCrockfordB32LC() = %q, want %q", got, tt.want)
			}
		})
	}
}
