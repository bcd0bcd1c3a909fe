package nodetree

import "errors"

var (
	// ErrMalformed means the text or byte stream does not follow the format.
	ErrMalformed = errors.New("malformed node tree")
	// ErrTruncated means the stream ended inside a node.
	ErrTruncated = errors.New("truncated node tree")
	// ErrBadReference means a back-reference points past the nodes decoded so far.
	ErrBadReference = errors.New("back-reference out of range")
	// ErrUnknownType means a node type id is not registered.
	ErrUnknownType = errors.New("unknown node type id")
	// ErrSetterRejected means a decoded value or link was refused by its member.
	ErrSetterRejected = errors.New("member rejected decoded value")

	// ErrMissingSource means a source slot is unset; sources are mandatory.
	ErrMissingSource = errors.New("source slot not set")
	// ErrCycle means the tree links back to one of its own ancestors and was
	// encoded without fix-up.
	ErrCycle = errors.New("node tree contains a cycle")
	// ErrTooManyNodes means the tree has more distinct nodes than a
	// back-reference can address.
	ErrTooManyNodes = errors.New("too many nodes to encode")
)
