package ttf

import "errors"

// Error kinds returned by the parser and the glyph decoders. Errors returned
// by this package wrap one of these, test with errors.Is.
var (
	// ErrOutOfBounds is returned when a read would cross the end of the font buffer.
	ErrOutOfBounds = errors.New("ttf: read out of bounds")

	// ErrMalformedFont flags structurally invalid font data: a missing required
	// table, a broken table, an invalid composite chain or charstring.
	ErrMalformedFont = errors.New("ttf: malformed font")

	// ErrIndexOutOfRange is returned for a collection index or glyph index
	// beyond the available range.
	ErrIndexOutOfRange = errors.New("ttf: index out of range")

	// ErrBufferTooSmall is returned when a caller supplied output buffer cannot
	// hold the requested bitmap.
	ErrBufferTooSmall = errors.New("ttf: buffer too small")
)
