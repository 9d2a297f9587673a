package servobus

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort records writes and hands back whatever respond returns for each
// write, a few bytes per Read to exercise reassembly.
type fakePort struct {
	written  [][]byte
	pending  []byte
	respond  func(packet []byte) []byte
	writeErr error
	drained  int
	closed   bool
}

func (f *fakePort) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, append([]byte(nil), p...))
	if f.respond != nil {
		f.pending = append(f.pending, f.respond(p)...)
	}
	return len(p), nil
}

func (f *fakePort) Read(p []byte) (int, error) {
	if len(f.pending) == 0 {
		return 0, nil
	}
	n := copy(p[:min(len(p), 3)], f.pending)
	f.pending = f.pending[n:]
	return n, nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func (f *fakePort) Drain() error {
	f.drained++
	return nil
}

func (f *fakePort) ResetInputBuffer() error {
	f.pending = nil
	return nil
}

func (f *fakePort) SetReadTimeout(time.Duration) error { return nil }

func statusFrame(id ServoID, errByte byte, params ...byte) []byte {
	frame := []byte{0xFF, 0xFF, byte(id), byte(len(params) + 2), errByte}
	frame = append(frame, params...)
	return append(frame, Checksum(frame[2:]))
}

func TestChecksumRoundTrip(t *testing.T) {
	cases := []struct {
		id      ServoID
		address byte
		data    []byte
	}{
		{1, RegGoalPosition, []byte{0x00, 0x08}},
		{2, RegGoalSpeed, []byte{0xFE, 0x00}},
		{254, 0x00, nil},
		{7, 0xFF, bytes.Repeat([]byte{0xFF}, 40)},
	}
	for _, c := range cases {
		params := append([]byte{c.address}, c.data...)
		packet := EncodePacket(c.id, InstrWrite, params)

		require.Len(t, packet, 6+len(params))
		assert.Equal(t, []byte{0xFF, 0xFF}, packet[:2])
		assert.Equal(t, byte(len(c.data)+3), packet[3])
		last := len(packet) - 1
		assert.Equal(t, packet[last], Checksum(packet[2:last]), "checksum for %v", c)
	}
}

func TestChecksumKnownValue(t *testing.T) {
	// Ping of servo 1, as documented for the STS bus.
	assert.Equal(t, []byte{0xFF, 0xFF, 0x01, 0x02, 0x01, 0xFB}, EncodePacket(1, InstrPing, nil))
}

func TestWriteRegister(t *testing.T) {
	port := &fakePort{}
	bus := New(port)

	require.NoError(t, bus.WriteRegister(3, RegGoalPosition, []byte{0x34, 0x12}))
	require.Len(t, port.written, 1)
	assert.Equal(t, EncodePacket(3, InstrWrite, []byte{RegGoalPosition, 0x34, 0x12}), port.written[0])
	assert.Equal(t, 1, port.drained)
}

func TestWriteFailure(t *testing.T) {
	port := &fakePort{writeErr: io.ErrClosedPipe}
	bus := New(port)

	err := bus.MoveToAngle(1, 90)
	require.ErrorIs(t, err, ErrWriteFailure)
}

func TestReadRegister(t *testing.T) {
	port := &fakePort{respond: func([]byte) []byte {
		return statusFrame(4, 0, 0x00, 0x08)
	}}
	bus := New(port)

	data, err := bus.ReadRegister(4, RegPresentPosition, 2, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x08}, data)
	assert.Equal(t, EncodePacket(4, InstrRead, []byte{RegPresentPosition, 2}), port.written[0])
}

func TestReadRegisterSkipsBadFrames(t *testing.T) {
	port := &fakePort{respond: func([]byte) []byte {
		var junk []byte
		junk = append(junk, 0x12, 0xFF)
		// Wrong servo.
		junk = append(junk, statusFrame(5, 0, 0x01, 0x01)...)
		// Error byte set.
		junk = append(junk, statusFrame(4, 0x20, 0x01, 0x01)...)
		// Corrupt checksum.
		bad := statusFrame(4, 0, 0x02, 0x02)
		bad[len(bad)-1]++
		junk = append(junk, bad...)
		return append(junk, statusFrame(4, 0, 0xFF, 0x0F)...)
	}}
	bus := New(port)

	pos, err := bus.PresentPosition(4)
	require.NoError(t, err)
	assert.Equal(t, MaxPosition, pos)
}

func TestReadRegisterTimeout(t *testing.T) {
	bus := New(&fakePort{})

	start := time.Now()
	_, err := bus.ReadRegister(1, RegPresentPosition, 2, 30*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestPing(t *testing.T) {
	port := &fakePort{respond: func(p []byte) []byte {
		return statusFrame(ServoID(p[2]), 0)
	}}
	bus := New(port)

	require.NoError(t, bus.Ping(9, 50*time.Millisecond))
}

func TestAngleToPosition(t *testing.T) {
	assert.Equal(t, 0, AngleToPosition(0))
	assert.Equal(t, 4095, AngleToPosition(360))
	assert.Equal(t, 4095, AngleToPosition(400))
	assert.Equal(t, 0, AngleToPosition(-10))
	assert.Equal(t, 2048, AngleToPosition(180))

	last := -1
	for a := 0.0; a <= 360; a += 0.25 {
		pos := AngleToPosition(a)
		require.GreaterOrEqual(t, pos, last, "not monotonic at %v", a)
		last = pos
	}
}

func TestWordEncoding(t *testing.T) {
	assert.Equal(t, []byte{0xFF, 0x0F}, EncodeWord(4095))
	assert.Equal(t, 4095, DecodeWord([]byte{0xFF, 0x0F}))
	assert.InDelta(t, 180.0, PositionToAngle(AngleToPosition(180)), 0.1)
}

func TestSetSpeedClamps(t *testing.T) {
	port := &fakePort{}
	bus := New(port)

	require.NoError(t, bus.SetSpeed(1, 1000))
	assert.Equal(t, EncodePacket(1, InstrWrite, []byte{RegGoalSpeed, MaxSpeed, 0}), port.written[0])
}
