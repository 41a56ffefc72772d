package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestEncodeWAVPCM16LEHeader(t *testing.T) {
	pcm := make([]byte, 320)
	out, err := EncodeWAVPCM16LE(pcm, 16000)
	if err != nil {
		t.Fatalf("EncodeWAVPCM16LE() error = %v", err)
	}
	if len(out) != 44+len(pcm) {
		t.Fatalf("len(out) = %d, want %d", len(out), 44+len(pcm))
	}
	if string(out[:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(out[24:28]); rate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", rate)
	}
	if size := binary.LittleEndian.Uint32(out[40:44]); size != uint32(len(pcm)) {
		t.Fatalf("data size = %d, want %d", size, len(pcm))
	}
}

func TestConfigFrameSizing(t *testing.T) {
	cfg := Config{SampleRate: 16000, FrameDuration: 30 * time.Millisecond}
	if got := cfg.FrameSamples(); got != 480 {
		t.Fatalf("FrameSamples() = %d, want 480", got)
	}
	if got := cfg.FrameBytes(); got != 960 {
		t.Fatalf("FrameBytes() = %d, want 960", got)
	}
}
