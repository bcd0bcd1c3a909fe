package noise

import (
	"errors"

	"github.com/sanonone/noisegraph/pkg/metadata"
)

// Configuration errors shared with the metadata descriptors, so callers can
// match either package's value.
var (
	ErrWrongNodeType = metadata.ErrWrongNodeType
	ErrLevelMismatch = metadata.ErrLevelMismatch
	ErrUnknownMember = metadata.ErrUnknownMember
)

var (
	// ErrUnknownKind means a kind name or id is not registered.
	ErrUnknownKind = errors.New("unknown node kind")
	// ErrCycle means a link would make a node reachable from itself.
	ErrCycle = errors.New("link would create a cycle")
	// ErrUnavailable means no compiled and supported feature level satisfies
	// the request.
	ErrUnavailable = errors.New("no usable feature level")
)

// Generation errors. Nothing is written to the output when one is returned.
var (
	ErrInvalidSize    = errors.New("grid size must be positive")
	ErrBufferTooSmall = errors.New("output buffer too small")
	ErrLengthMismatch = errors.New("coordinate slices differ in length")
)
