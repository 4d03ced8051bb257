// Package pcm converts between raw little-endian 16-bit PCM, normalized
// float samples and the base64 transport encoding used by the live session.
package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/studyai/handsfree/domain/entities"
)

// DecodeError marks a malformed inbound audio or transport payload. The
// offending chunk is dropped and the session continues; a DecodeError is
// never fatal.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pcm: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("pcm: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeFrame scales normalized samples by 32768, truncates to 16-bit
// signed integers, packs them little-endian and applies standard base64.
// Input outside [-1, 1] is undefined; callers pre-normalize.
func EncodeFrame(samples []float32) string {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(s*32768)))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeFrame reverses the transport encoding
func DecodeFrame(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, &DecodeError{Reason: "malformed base64 payload", Err: err}
	}
	return data, nil
}

// BytesToFrame reinterprets raw bytes as consecutive little-endian 16-bit
// samples normalized into [-1, 1), channel-interleaved.
func BytesToFrame(data []byte, sampleRate, channels int) (*entities.AudioFrame, error) {
	if channels <= 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid channel count %d", channels)}
	}
	if len(data)%(2*channels) != 0 {
		return nil, &DecodeError{
			Reason: fmt.Sprintf("byte length %d is not a multiple of %d", len(data), 2*channels),
		}
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768
	}

	return &entities.AudioFrame{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}
