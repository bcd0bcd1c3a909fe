package metadata

import "errors"

// Configuration errors returned by descriptor setters. A setter that returns
// one of these has not modified the node.
var (
	// ErrWrongNodeType means the descriptor belongs to a different node kind
	// than the node it was applied to, or a source of the wrong kind was given.
	ErrWrongNodeType = errors.New("wrong node type")
	// ErrLevelMismatch means two nodes with different feature levels were wired
	// together.
	ErrLevelMismatch = errors.New("feature level mismatch")
	// ErrMemberIndex means a member index is outside the node's schema, which
	// happens when data from another schema version is applied.
	ErrMemberIndex = errors.New("member index out of range")
	// ErrValueOutOfRange means an enum value has no matching option or an int
	// is outside its bounds.
	ErrValueOutOfRange = errors.New("value out of range")
	// ErrNilNode means a nil node was passed where one is required.
	ErrNilNode = errors.New("nil node")
	// ErrUnknownMember means a member name did not match any member.
	ErrUnknownMember = errors.New("unknown member")
)
