package codec

import (
	"fmt"

	"github.com/QEStudios/boxcodec/codec/bitfield"
	"github.com/pkg/errors"
)

var (
	// ErrUnknownTag is returned when the decoder meets a tag code it has no
	// parser for. Match it with errors.Is, or errors.As with *TagError for
	// the position.
	ErrUnknownTag = errors.New("unknown tag")
	// ErrTruncated is returned when the link ends inside a field.
	ErrTruncated = errors.New("song data ends early")
	// ErrInvalidSymbol is returned when a field contains a character outside
	// the symbol table.
	ErrInvalidSymbol = bitfield.ErrInvalidSymbol
	// ErrOutOfRange is returned when a field holds a count or code no
	// encoder produces.
	ErrOutOfRange = bitfield.ErrOutOfRange
	// ErrUnknownInstrumentType is returned by the encoder for an instrument
	// type it cannot write.
	ErrUnknownInstrumentType = errors.New("unknown instrument type")
)

// TagError reports an unrecognised tag code and where it was found.
type TagError struct {
	Tag byte
	Pos int
}

func (e *TagError) Error() string {
	return fmt.Sprintf("unknown tag %q at %d", e.Tag, e.Pos)
}

func (e *TagError) Unwrap() error {
	return ErrUnknownTag
}

// Warning is a non-fatal problem found while decoding.
type Warning struct {
	Pos     int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("position %d: %s", w.Pos, w.Message)
}
