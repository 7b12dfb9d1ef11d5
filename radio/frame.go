package radio

import (
	simplelogger "github.com/simonlingoogle/go-simplelogger"
)

// rtsMagic prefixes every RTS frame so a listener can distinguish a real
// RTS from noise before trusting the length byte that follows it.
var rtsMagic = [4]byte{0xCA, 0xFE, 0xBA, 0xBE}

const rtsHeaderLen = len(rtsMagic) + 1 // magic + data_len

// RtsFrame is the Request-to-Send announcement: magic, followed by the
// length (in bytes) of the DATA frame the sender is about to transmit.
type RtsFrame struct {
	DataLen uint8
}

// Encode renders the RTS frame body (without the leading type tag) as
// wire bytes: magic followed by the data length.
func (f RtsFrame) Encode() []byte {
	buf := make([]byte, rtsHeaderLen)
	copy(buf[:4], rtsMagic[:])
	buf[4] = f.DataLen
	return buf
}

// DecodeRtsFrame parses an RTS frame body. It returns ok=false if data is
// too short or the magic does not match, so a caller can discard a
// corrupted or spurious frame without panicking.
func DecodeRtsFrame(data []byte) (f RtsFrame, ok bool) {
	if len(data) < rtsHeaderLen {
		return RtsFrame{}, false
	}
	for i, b := range rtsMagic {
		if data[i] != b {
			return RtsFrame{}, false
		}
	}
	return RtsFrame{DataLen: data[4]}, true
}

// EncodeFramedPacket prepends the type tag byte (I5: the first byte
// emitted on air for any MAC frame identifies its type) to a frame body.
func EncodeFramedPacket(t FrameType, body []byte) []byte {
	out := make([]byte, 1+len(body))
	out[0] = byte(t)
	n := copy(out[1:], body)
	simplelogger.AssertTrue(n == len(body))
	return out
}

// DecodeFramedPacket splits a received buffer into its type tag and body.
// It returns ok=false for an empty buffer.
func DecodeFramedPacket(data []byte) (t FrameType, body []byte, ok bool) {
	if len(data) < 1 {
		return 0, nil, false
	}
	return FrameType(data[0]), data[1:], true
}

// EncodeDataFrame frames an application payload as a DATA packet. Callers
// must have already checked len(payload) <= MaxPayloadLen.
func EncodeDataFrame(payload []byte) []byte {
	return EncodeFramedPacket(FrameTypeDATA, payload)
}

// EncodeRtsPacket frames an RtsFrame as a complete on-air RTS packet.
func EncodeRtsPacket(dataLen uint8) []byte {
	return EncodeFramedPacket(FrameTypeRTS, RtsFrame{DataLen: dataLen}.Encode())
}

// EncodedRtsLen is the total on-air length of an RTS packet; mac.Core
// derives the RTS payload length from it for the Phase 1 listen window.
const EncodedRtsLen = 1 + rtsHeaderLen
