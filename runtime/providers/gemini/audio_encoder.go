package gemini

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// InputSampleRate is the capture rate the Live API expects.
	InputSampleRate = 16000
	// OutputSampleRate is the rate of the model's speech.
	OutputSampleRate = 24000

	bytesPerSample = 2
)

// AudioEncoder converts between raw PCM16 buffers and the base64 payloads
// carried in Live API messages.
type AudioEncoder struct {
	sampleRate int
}

// NewAudioEncoder creates an encoder that labels uplink audio with sampleRate.
// Zero selects InputSampleRate.
func NewAudioEncoder(sampleRate int) *AudioEncoder {
	if sampleRate <= 0 {
		sampleRate = InputSampleRate
	}
	return &AudioEncoder{sampleRate: sampleRate}
}

// MimeType is the media type sent with every uplink chunk.
func (e *AudioEncoder) MimeType() string {
	return fmt.Sprintf("audio/pcm;rate=%d", e.sampleRate)
}

// EncodePCM encodes little-endian PCM16 for transmission.
func (e *AudioEncoder) EncodePCM(pcm []byte) (string, error) {
	if len(pcm) == 0 {
		return "", ErrEmptyAudioData
	}
	if len(pcm)%bytesPerSample != 0 {
		return "", fmt.Errorf("%w: %d bytes", ErrMisalignedAudio, len(pcm))
	}
	return base64.StdEncoding.EncodeToString(pcm), nil
}

// DecodePCM decodes a base64 payload back to PCM16 bytes.
func (e *AudioEncoder) DecodePCM(data string) ([]byte, error) {
	if data == "" {
		return nil, ErrEmptyAudioData
	}
	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 audio: %w", err)
	}
	if len(pcm)%bytesPerSample != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMisalignedAudio, len(pcm))
	}
	return pcm, nil
}

// SampleRateFromMime extracts the rate from "audio/pcm;rate=24000", falling
// back to OutputSampleRate.
func SampleRateFromMime(mime string) int {
	_, params, found := strings.Cut(mime, ";")
	if !found {
		return OutputSampleRate
	}
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || k != "rate" {
			continue
		}
		var rate int
		if _, err := fmt.Sscanf(v, "%d", &rate); err == nil && rate > 0 {
			return rate
		}
	}
	return OutputSampleRate
}
