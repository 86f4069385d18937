package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beatlab/structuralmap/pkg/model"
	"github.com/hajimehoshi/go-mp3"
)

// decodeAudioFile turns a file on disk into the Listener's PCMInput
// contract (spec.md §6). Decoding is deliberately kept at the CLI
// boundary, never imported by pkg/listener/architect/theorist, so the
// core pipeline's "we don't decode audio" non-goal holds regardless of
// what the CLI does to produce samples.
func decodeAudioFile(path string) (model.PCMInput, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return decodeMP3Mono(path)
	default:
		return model.PCMInput{}, fmt.Errorf("unsupported audio format: %s", ext)
	}
}

// Additional samples go-mp3 produces relative to a browser decoder.
// Measured: browser first transient at 48446, go-mp3 at 50735. The LAME
// header said 1365, so go-mp3 adds 50735 - 48446 - 1365 = 924 samples.
const goMP3DecoderDelay = 924

// defaultEncoderDelay is used when the LAME header can't be read.
const defaultEncoderDelay = 576

// mp3Delay reads the total delay to skip: LAME encoder delay (from the
// header, if present) plus go-mp3's own decoder delay.
func mp3Delay(path string) int {
	return readLAMEEncoderDelay(path) + goMP3DecoderDelay
}

// readLAMEEncoderDelay reads the encoder delay from an MP3's LAME/Xing
// header, if present.
func readLAMEEncoderDelay(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return defaultEncoderDelay
	}
	defer f.Close()

	buf := make([]byte, 4096)
	n, err := f.Read(buf)
	if err != nil || n < 200 {
		return defaultEncoderDelay
	}
	buf = buf[:n]

	lameIdx := bytes.Index(buf, []byte("LAME"))
	if lameIdx == -1 {
		return defaultEncoderDelay
	}

	// The 3-byte field 21 bytes past "LAME" packs a 12-bit encoder delay
	// in its upper bits and 12 bits of padding below it.
	delayOffset := lameIdx + 21
	if delayOffset+3 > len(buf) {
		return defaultEncoderDelay
	}
	b := buf[delayOffset : delayOffset+3]
	delay := (int(b[0]) << 4) | (int(b[1]) >> 4)

	if delay < 0 || delay > 4096 {
		return defaultEncoderDelay
	}
	return delay
}

// decodeMP3Mono decodes an MP3 file to mono float32 PCM at its native
// sample rate, trimming the encoder/decoder delay so frame timestamps
// line up with what a browser would play back.
func decodeMP3Mono(path string) (model.PCMInput, error) {
	totalDelay := mp3Delay(path)

	f, err := os.Open(path)
	if err != nil {
		return model.PCMInput{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return model.PCMInput{}, fmt.Errorf("create mp3 decoder: %w", err)
	}
	sampleRate := decoder.SampleRate()

	pcmData, err := io.ReadAll(decoder)
	if err != nil {
		return model.PCMInput{}, fmt.Errorf("decode mp3: %w", err)
	}

	// go-mp3 emits 16-bit signed stereo, 4 bytes per sample pair.
	numSamplePairs := len(pcmData) / 4
	samples := make([]float32, numSamplePairs)
	for i := range numSamplePairs {
		offset := i * 4
		left := int16(binary.LittleEndian.Uint16(pcmData[offset:]))
		right := int16(binary.LittleEndian.Uint16(pcmData[offset+2:]))
		mono := (float32(left) + float32(right)) / 2.0
		samples[i] = mono / 32768.0
	}

	if len(samples) > totalDelay {
		samples = samples[totalDelay:]
	}

	return model.PCMInput{
		Samples:         samples,
		SampleRate:      sampleRate,
		DurationSeconds: float64(len(samples)) / float64(sampleRate),
	}, nil
}
