package servobus

import "fmt"

// ServoID identifies one servo on the bus.
type ServoID uint8

const (
	sync0 = 0xFF
	sync1 = 0xFF

	InstrPing  = 0x01
	InstrRead  = 0x02
	InstrWrite = 0x03

	// Sync bytes, id, length, instruction/error and checksum.
	frameOverhead = 6
)

// Checksum is the one's complement of the sum of everything between the sync
// bytes and the checksum byte.  Servos silently drop packets that get this
// wrong, so it has to match bit for bit.
func Checksum(body []byte) byte {
	var sum byte
	for _, b := range body {
		sum += b
	}
	return ^sum
}

// EncodePacket builds an instruction packet:
//
//	0xFF 0xFF id length instruction params... checksum
//
// where length counts the instruction, the params and the checksum.
func EncodePacket(id ServoID, instruction byte, params []byte) []byte {
	packet := make([]byte, 0, frameOverhead+len(params))
	packet = append(packet, sync0, sync1, byte(id), byte(len(params)+2), instruction)
	packet = append(packet, params...)
	return append(packet, Checksum(packet[2:]))
}

// Response is a decoded status packet.
type Response struct {
	ID     ServoID
	Error  byte
	Params []byte
}

// DecodeResponse checks a complete status frame.  The frame must start with
// the sync bytes, carry a length that matches its size and have a correct
// checksum.
func DecodeResponse(frame []byte) (Response, error) {
	if len(frame) < frameOverhead {
		return Response{}, fmt.Errorf("frame too short: %d bytes", len(frame))
	}
	if frame[0] != sync0 || frame[1] != sync1 {
		return Response{}, fmt.Errorf("bad sync bytes %#02x %#02x", frame[0], frame[1])
	}
	length := int(frame[3])
	if length+4 != len(frame) {
		return Response{}, fmt.Errorf("length byte %d does not match %d byte frame", length, len(frame))
	}
	last := len(frame) - 1
	if sum := Checksum(frame[2:last]); sum != frame[last] {
		return Response{}, fmt.Errorf("checksum %#02x, expected %#02x", frame[last], sum)
	}
	return Response{
		ID:     ServoID(frame[2]),
		Error:  frame[4],
		Params: append([]byte(nil), frame[5:last]...),
	}, nil
}
