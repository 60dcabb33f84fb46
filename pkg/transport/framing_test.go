package transport

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/oiascix/ble-app/pkg/log"
)

// header builds a bare length prefix.
func header(n uint32) []byte {
	var b [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(b[:], n)
	return b[:]
}

func encode(t *testing.T, m *Message) []byte {
	t.Helper()
	data, err := EncodeMessage(m)
	require.NoError(t, err)
	return data
}

// An unlock exchange on the wire: read the key, write the token, send the
// command.
func unlockExchange(t *testing.T) [][]byte {
	t.Helper()
	d := gatt.DoorLock
	return [][]byte{
		encode(t, &Message{Type: MsgRead, ID: 1, Char: d.KeyChar}),
		encode(t, &Message{Type: MsgReadResult, ID: 1, Char: d.KeyChar, Value: []byte("JBSWY3DPEHPK3PXP\n")}),
		encode(t, &Message{Type: MsgWrite, ID: 2, Char: d.AuthChar, Value: bytes.Repeat([]byte("t"), 160)}),
		encode(t, &Message{Type: MsgWriteResult, ID: 2, Char: d.AuthChar}),
		encode(t, &Message{Type: MsgWrite, ID: 3, Char: d.CommandChar, Value: []byte("unlock")}),
	}
}

func TestFramesCarryUnlockExchange(t *testing.T) {
	var wire bytes.Buffer
	w := NewFrameWriter(&wire)

	msgs := unlockExchange(t)
	total := 0
	for _, m := range msgs {
		require.NoError(t, w.WriteFrame(m))
		total += FrameSize(len(m))
	}
	assert.Equal(t, total, wire.Len())

	r := NewFrameReader(&wire)
	for i, want := range msgs {
		got, err := r.ReadFrame()
		require.NoError(t, err, "frame %d", i)
		assert.Equal(t, want, got, "frame %d", i)
	}
	_, err := r.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestFramePayloadBounds(t *testing.T) {
	cases := map[string]struct {
		size int
		err  error
	}{
		"one byte":   {size: 1},
		"gatt value": {size: 512},
		"at limit":   {size: DefaultMaxMessageSize},
		"over limit": {size: DefaultMaxMessageSize + 1, err: ErrMessageTooLarge},
		"empty":      {size: 0, err: ErrMessageEmpty},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var wire bytes.Buffer
			err := NewFrameWriter(&wire).WriteFrame(bytes.Repeat([]byte{0xA5}, tc.size))
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.Zero(t, wire.Len(), "nothing written on error")
				return
			}
			require.NoError(t, err)

			got, err := NewFrameReader(&wire).ReadFrame()
			require.NoError(t, err)
			assert.Len(t, got, tc.size)
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, NewFrameWriter(io.Discard).WriteFrame(nil), ErrMessageEmpty)
	})
}

func TestFrameReaderRejectsBadInput(t *testing.T) {
	cases := map[string]struct {
		wire    []byte
		maxSize uint32
		err     error
	}{
		"short prefix":     {wire: []byte{0x00, 0x01}, err: ErrFrameTruncated},
		"zero length":      {wire: header(0), err: ErrMessageEmpty},
		"short payload":    {wire: append(header(64), make([]byte, 10)...), err: ErrFrameTruncated},
		"above reader cap": {wire: append(header(300), make([]byte, 300)...), maxSize: 256, err: ErrMessageTooLarge},
		"no data":          {wire: nil, err: io.EOF},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := NewFrameReader(bytes.NewReader(tc.wire))
			if tc.maxSize > 0 {
				r = NewFrameReaderWithMaxSize(bytes.NewReader(tc.wire), tc.maxSize)
			}
			_, err := r.ReadFrame()
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestFrameReaderMaxSizeAdjustable(t *testing.T) {
	wire := append(header(300), make([]byte, 300)...)

	r := NewFrameReaderWithMaxSize(bytes.NewReader(wire), 256)
	r.SetMaxMessageSize(512)
	got, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Len(t, got, 300)
}

func TestFrameWriterCustomLimit(t *testing.T) {
	w := NewFrameWriterWithMaxSize(io.Discard, 64)
	assert.NoError(t, w.WriteFrame(make([]byte, 64)))
	assert.ErrorIs(t, w.WriteFrame(make([]byte, 65)), ErrMessageTooLarge)
}

func TestFramerOverConnection(t *testing.T) {
	central, lock := net.Pipe()
	defer central.Close()
	defer lock.Close()

	d := gatt.DoorLock
	req := encode(t, &Message{Type: MsgRead, ID: 9, Char: d.KeyChar})
	resp := encode(t, &Message{Type: MsgReadResult, ID: 9, Char: d.KeyChar, Value: []byte("secret")})

	lockSide := NewFramer(lock)
	errc := make(chan error, 1)
	go func() {
		got, err := lockSide.ReadFrame()
		if err == nil && !bytes.Equal(got, req) {
			err = io.ErrUnexpectedEOF
		}
		if err == nil {
			err = lockSide.WriteFrame(resp)
		}
		errc <- err
	}()

	centralSide := NewFramer(central)
	require.NoError(t, centralSide.WriteFrame(req))
	got, err := centralSide.ReadFrame()
	require.NoError(t, err)
	require.NoError(t, <-errc)

	m, err := DecodeMessage(got)
	require.NoError(t, err)
	assert.Equal(t, MsgReadResult, m.Type)
	assert.Equal(t, uint32(9), m.ID)
	assert.Equal(t, []byte("secret"), m.Value)
}

func TestFrameSize(t *testing.T) {
	assert.Equal(t, 4, FrameSize(0))
	assert.Equal(t, 516, FrameSize(512))
}

// frameEvents keeps every traced event.
type frameEvents struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *frameEvents) Log(e log.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *frameEvents) all() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]log.Event(nil), r.events...)
}

func TestFrameTracing(t *testing.T) {
	d := gatt.DoorLock
	write := encode(t, &Message{Type: MsgWrite, ID: 2, Char: d.AuthChar, Value: []byte("token")})

	t.Run("outgoing", func(t *testing.T) {
		rec := &frameEvents{}
		w := NewFrameWriter(io.Discard)
		w.SetLogger(rec, "01HF3K5Z8Q", log.RoleClient, "192.168.1.40:7420")
		require.NoError(t, w.WriteFrame(write))

		events := rec.all()
		require.Len(t, events, 1)
		e := events[0]
		assert.Equal(t, "01HF3K5Z8Q", e.SessionID)
		assert.Equal(t, log.DirectionOut, e.Direction)
		assert.Equal(t, log.LayerTransport, e.Layer)
		assert.Equal(t, log.CategoryFrame, e.Category)
		assert.Equal(t, log.RoleClient, e.LocalRole)
		assert.Equal(t, "192.168.1.40:7420", e.Peripheral)
		require.NotNil(t, e.Frame)
		assert.Equal(t, FrameSize(len(write)), e.Frame.Size)
		assert.Equal(t, "WRITE", e.Frame.MsgType)
	})

	t.Run("incoming", func(t *testing.T) {
		var wire bytes.Buffer
		require.NoError(t, NewFrameWriter(&wire).WriteFrame(write))

		rec := &frameEvents{}
		r := NewFrameReader(&wire)
		r.SetLogger(rec, "conn-2", log.RoleLock, "10.0.0.7:50112")
		_, err := r.ReadFrame()
		require.NoError(t, err)

		events := rec.all()
		require.Len(t, events, 1)
		assert.Equal(t, log.DirectionIn, events[0].Direction)
		assert.Equal(t, log.RoleLock, events[0].LocalRole)
		assert.Equal(t, "WRITE", events[0].Frame.MsgType)
	})

	t.Run("opaque payload", func(t *testing.T) {
		rec := &frameEvents{}
		w := NewFrameWriter(io.Discard)
		w.SetLogger(rec, "s", log.RoleClient, "")
		require.NoError(t, w.WriteFrame([]byte{0xFF}))

		events := rec.all()
		require.Len(t, events, 1)
		assert.Empty(t, events[0].Frame.MsgType)
	})

	t.Run("disabled", func(t *testing.T) {
		var wire bytes.Buffer
		f := NewFramer(&wire)
		f.SetLogger(nil, "", log.RoleClient, "")
		require.NoError(t, f.WriteFrame([]byte("ping")))
		got, err := f.ReadFrame()
		require.NoError(t, err)
		assert.Equal(t, []byte("ping"), got)
	})
}

func BenchmarkFrameRoundTrip(b *testing.B) {
	payload := bytes.Repeat([]byte{0x5A}, 512)
	var wire bytes.Buffer
	w := NewFrameWriter(&wire)
	r := NewFrameReader(&wire)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := w.WriteFrame(payload); err != nil {
			b.Fatal(err)
		}
		if _, err := r.ReadFrame(); err != nil {
			b.Fatal(err)
		}
	}
}
