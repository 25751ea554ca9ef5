package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/mkrupp/homecase-lists/internal/util/encoding"
)

// ErrInvalidID is returned when a textual identifier cannot be decoded.
var ErrInvalidID = errors.New("invalid id")

// IDSize is the number of random bytes in an ID.
const IDSize = 29

// IDStringLength is the length of the textual form of an ID.
//
//nolint:gochecknoglobals
var IDStringLength = encoding.EncodedLen(IDSize)

// ID is an opaque identifier for users and list items. It is a value type:
// two IDs are equal when their bytes are equal, and IDs can be used as map keys.
type ID [IDSize]byte

// ParseID decodes the textual form produced by ID.String.
func ParseID(s string) (ID, error) {
	var id ID

	raw, err := encoding.DecodeCrockfordB32LC(s)
	if err != nil {
		return ID{}, errors.Join(ErrInvalidID, err)
	}

	if len(raw) != IDSize {
		return ID{}, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidID, len(raw), IDSize)
	}

	copy(id[:], raw)

	return id, nil
}

// IDFromBytes copies b into an ID. b must be exactly IDSize bytes long.
func IDFromBytes(b []byte) (ID, error) {
	var id ID

	if len(b) != IDSize {
		return ID{}, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidID, len(b), IDSize)
	}

	copy(id[:], b)

	return id, nil
}

// String returns the lowercase Crockford Base32 form of the ID.
func (id ID) String() string {
	return encoding.EncodeCrockfordB32LC(id[:])
}

// Bytes returns a copy of the raw bytes of the ID.
func (id ID) Bytes() []byte {
	b := make([]byte, IDSize)
	copy(b, id[:])

	return b
}

// IsZero reports whether the ID is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}

// IDGenerator produces fresh identifiers. Uniqueness is probabilistic; generators
// do not check for collisions.
type IDGenerator interface {
	Generate() ID
}

// IDGeneratorFunc adapts a plain function to IDGenerator.
type IDGeneratorFunc func() ID

// Generate implements IDGenerator.
func (f IDGeneratorFunc) Generate() ID {
	return f()
}

// RandomIDGenerator fills IDs from a random source.
type RandomIDGenerator struct {
	// Source defaults to crypto/rand.Reader when nil.
	Source io.Reader
}

var _ IDGenerator = RandomIDGenerator{}

// Generate implements IDGenerator. A failing random source is an environment
// fault, so Generate panics instead of returning an error.
func (g RandomIDGenerator) Generate() ID {
	var id ID

	src := g.Source
	if src == nil {
		src = rand.Reader
	}

	if _, err := io.ReadFull(src, id[:]); err != nil {
		panic("failed to generate id: " + err.Error())
	}

	return id
}

// NewID generates an ID from crypto/rand.
func NewID() ID {
	return RandomIDGenerator{}.Generate()
}
