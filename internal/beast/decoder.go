package beast

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

const initialBufferSize = 4096

var errDesync = errors.New("unescaped sync byte inside frame")

// Decoder decodes Beast mode messages from a byte stream that may split frames
// across reads
type Decoder struct {
	logger *logrus.Logger
	buffer []byte
}

// NewDecoder creates a new Beast decoder
func NewDecoder(logger *logrus.Logger) *Decoder {
	return &Decoder{
		logger: logger,
		buffer: make([]byte, 0, initialBufferSize),
	}
}

// Decode appends data to the pending buffer and returns every complete frame
func (d *Decoder) Decode(data []byte) []*Frame {
	d.buffer = append(d.buffer, data...)

	var frames []*Frame
	for {
		syncIndex := bytes.IndexByte(d.buffer, SyncByte)
		if syncIndex == -1 {
			if len(d.buffer) > 0 {
				d.logger.WithField("discarded", len(d.buffer)).Debug("No sync byte found, clearing buffer")
			}
			d.buffer = d.buffer[:0]
			break
		}
		d.buffer = d.buffer[syncIndex:]

		if len(d.buffer) < 2 {
			break
		}

		messageType := d.buffer[1]
		n := dataLength(messageType)
		if n == 0 {
			// Unknown type, or the second half of an escaped 0x1A pair
			d.logger.WithField("message_type", fmt.Sprintf("0x%02x", messageType)).Debug("Unknown message type, skipping")
			d.buffer = d.buffer[1:]
			continue
		}

		body, consumed, err := unescape(d.buffer[2:], headerBytes+n)
		if err != nil {
			d.logger.WithError(err).Debug("Failed to decode beast message")
			d.buffer = d.buffer[1:]
			continue
		}
		if body == nil {
			break // incomplete
		}

		frames = append(frames, newFrame(messageType, body))
		d.buffer = d.buffer[2+consumed:]
	}

	return frames
}

func newFrame(messageType byte, body []byte) *Frame {
	var mlat uint64
	for _, b := range body[:timestampBytes] {
		mlat = mlat<<8 | uint64(b)
	}
	data := make([]byte, len(body)-headerBytes)
	copy(data, body[headerBytes:])

	return &Frame{
		MessageType: messageType,
		MLAT:        mlat,
		Signal:      body[timestampBytes],
		Data:        data,
	}
}

// unescape reads want unescaped bytes from src. It returns a nil body when src
// ends before the frame does.
func unescape(src []byte, want int) (body []byte, consumed int, err error) {
	out := make([]byte, 0, want)
	i := 0
	for len(out) < want {
		if i >= len(src) {
			return nil, 0, nil
		}
		b := src[i]
		if b == SyncByte {
			if i+1 >= len(src) {
				return nil, 0, nil
			}
			if src[i+1] != SyncByte {
				return nil, 0, errDesync
			}
			i++
		}
		out = append(out, b)
		i++
	}
	return out, i, nil
}
