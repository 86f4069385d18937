package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeAudioFileRejectsUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := decodeAudioFile(path); err == nil {
		t.Fatalf("expected an error for an unsupported extension")
	}
}

func TestReadLAMEEncoderDelayFallsBackWithoutHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	// No LAME/Xing marker anywhere in this file.
	if err := os.WriteFile(path, make([]byte, 512), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	delay := readLAMEEncoderDelay(path)
	if delay != defaultEncoderDelay {
		t.Fatalf("expected default encoder delay %d, got %d", defaultEncoderDelay, delay)
	}
}

func TestReadLAMEEncoderDelayFallsBackOnMissingFile(t *testing.T) {
	delay := readLAMEEncoderDelay(filepath.Join(t.TempDir(), "missing.mp3"))
	if delay != defaultEncoderDelay {
		t.Fatalf("expected default encoder delay %d, got %d", defaultEncoderDelay, delay)
	}
}
