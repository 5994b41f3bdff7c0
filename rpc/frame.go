package converterrpc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// frame header: uint32 length, uint32 crc32 (IEEE), little endian
const frameHeaderLen = 8

// MaxFrameLen bounds a single packet so a corrupt header cannot make the
// buffer wait forever.
const MaxFrameLen = 60 * 1024

var (
	ErrChecksum      = errors.New("frame checksum mismatch")
	ErrFrameTooLarge = errors.New("frame too large")
)

type Frame struct {
	Length      uint32
	Checksum    uint32
	PacketBytes []byte
}

func EncodeFrame(pktBytes []byte) ([]byte, error) {
	if len(pktBytes) > MaxFrameLen {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, frameHeaderLen+len(pktBytes))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(pktBytes)))
	binary.LittleEndian.PutUint32(buf[4:8], crc32.ChecksumIEEE(pktBytes))
	copy(buf[frameHeaderLen:], pktBytes)
	return buf, nil
}

// FrameBuffer reassembles frames from a byte stream.
type FrameBuffer struct {
	buf bytes.Buffer
}

// Feed appends data and returns every frame completed by it. On a bad
// frame the buffer is reset and the frames decoded so far are returned
// with the error.
func (fb *FrameBuffer) Feed(data []byte) ([]Frame, error) {
	fb.buf.Write(data)

	var results []Frame
	for {
		if fb.buf.Len() < frameHeaderLen {
			// not enough data yet, stop
			break
		}
		head := fb.buf.Bytes()[:frameHeaderLen]
		length := binary.LittleEndian.Uint32(head[0:4])
		checksum := binary.LittleEndian.Uint32(head[4:8])
		if length > MaxFrameLen {
			fb.buf.Reset()
			return results, ErrFrameTooLarge
		}
		if fb.buf.Len() < frameHeaderLen+int(length) {
			break
		}
		payload := make([]byte, length)
		copy(payload, fb.buf.Bytes()[frameHeaderLen:frameHeaderLen+int(length)])
		fb.buf.Next(frameHeaderLen + int(length))
		if crc32.ChecksumIEEE(payload) != checksum {
			fb.buf.Reset()
			return results, ErrChecksum
		}
		results = append(results, Frame{Length: length, Checksum: checksum, PacketBytes: payload})
	}
	return results, nil
}

func (fb *FrameBuffer) Buffered() int {
	return fb.buf.Len()
}
