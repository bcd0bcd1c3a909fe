package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Constants for the preset log binary protocol.
const (
	// MagicByte marks the start of a valid frame.
	MagicByte = 0xA5

	// HeaderSize is the fixed size of the frame metadata:
	// 1 byte (Magic) + 1 byte (OpCode) + 4 bytes (Length) + 4 bytes (CRC32) = 10 bytes.
	HeaderSize = 10

	// MaxPayload bounds a single frame. A larger length in a header is
	// treated as corruption rather than allocated.
	MaxPayload = 16 << 20
)

// OpCode says what a frame does to the preset set.
type OpCode byte

const (
	// OpPut stores or replaces a preset. The payload is the JSON preset.
	OpPut OpCode = 0x01
	// OpDelete removes a preset. The payload is the raw name.
	OpDelete OpCode = 0x02
)

func (op OpCode) String() string {
	switch op {
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	}
	return fmt.Sprintf("op(0x%02x)", byte(op))
}

var (
	// ErrInvalidMagic indicates the stream lost synchronization or is not a preset log.
	ErrInvalidMagic = errors.New("invalid magic byte")
	// ErrChecksumMismatch indicates data corruption within the frame payload.
	ErrChecksumMismatch = errors.New("crc32 checksum mismatch")
	// ErrIncompleteFrame indicates the file ended abruptly (e.g., power loss during write).
	ErrIncompleteFrame = errors.New("incomplete frame")
	// ErrUnknownOp indicates a frame with an opcode this version does not know.
	ErrUnknownOp = errors.New("unknown frame opcode")
)

// FrameWriter handles the writing of binary frames to an io.Writer.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter creates a writer that wraps an underlying io.Writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame encodes the payload into a binary frame and writes it.
// Frame Format: [Magic(1)][OpCode(1)][Length(4)][CRC(4)][Payload(N)]
func (fw *FrameWriter) WriteFrame(op OpCode, payload []byte) error {
	if len(payload) > MaxPayload {
		return fmt.Errorf("frame payload of %d bytes exceeds %d", len(payload), MaxPayload)
	}

	// 1. Prepare Header
	header := make([]byte, HeaderSize, HeaderSize+len(payload))
	header[0] = MagicByte
	header[1] = byte(op)
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[6:10], crc32.ChecksumIEEE(payload))

	// 2. Write header and payload in one call so a buffered writer
	// never splits a frame across two flushes of its own making.
	_, err := fw.w.Write(append(header, payload...))
	return err
}

// ReadFrame reads the next frame from the reader and validates the Magic
// Byte, the opcode and the CRC32 checksum.
// Returns the opcode, the payload, the total bytes consumed and an error.
// io.EOF is returned only when the stream ends exactly on a frame boundary.
func ReadFrame(r io.Reader) (OpCode, []byte, int, error) {
	header := make([]byte, HeaderSize)

	// 1. Read Header
	if n, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, nil, 0, io.EOF
		}
		return 0, nil, n, ErrIncompleteFrame
	}

	// 2. Validate Magic Byte and OpCode
	if header[0] != MagicByte {
		return 0, nil, HeaderSize, ErrInvalidMagic
	}
	op := OpCode(header[1])
	if op != OpPut && op != OpDelete {
		return op, nil, HeaderSize, fmt.Errorf("%w: %s", ErrUnknownOp, op)
	}

	// 3. Parse Length and Expected CRC
	length := binary.LittleEndian.Uint32(header[2:6])
	expectedCRC := binary.LittleEndian.Uint32(header[6:10])
	if length > MaxPayload {
		return op, nil, HeaderSize, fmt.Errorf("%w: length %d", ErrInvalidMagic, length)
	}

	// 4. Read Payload
	payload := make([]byte, length)
	if n, err := io.ReadFull(r, payload); err != nil {
		return op, nil, HeaderSize + n, ErrIncompleteFrame
	}

	// 5. Verify Checksum
	if crc32.ChecksumIEEE(payload) != expectedCRC {
		return op, nil, HeaderSize + int(length), ErrChecksumMismatch
	}

	return op, payload, HeaderSize + int(length), nil
}
