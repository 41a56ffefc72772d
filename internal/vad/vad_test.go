package vad

import (
	"encoding/binary"
	"testing"
)

func pcmFrame(amplitude int16, samples int) []byte {
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(amplitude))
	}
	return buf
}

func TestEnergySilenceFrame(t *testing.T) {
	c := NewEnergy(2)
	if c.IsSpeech(pcmFrame(0, 480)) {
		t.Fatalf("IsSpeech(zero frame) = true, want false")
	}
}

func TestEnergyLoudFrame(t *testing.T) {
	c := NewEnergy(3)
	if !c.IsSpeech(pcmFrame(8000, 480)) {
		t.Fatalf("IsSpeech(loud frame) = false, want true")
	}
}

func TestEnergyDeterministic(t *testing.T) {
	c := NewEnergy(1)
	frame := pcmFrame(1200, 480)
	first := c.IsSpeech(frame)
	for i := 0; i < 5; i++ {
		if got := c.IsSpeech(frame); got != first {
			t.Fatalf("IsSpeech() flipped from %v to %v on identical input", first, got)
		}
	}
}

func TestEnergyMalformedFrameIsSilence(t *testing.T) {
	c := NewEnergy(0)
	if c.IsSpeech(nil) {
		t.Fatalf("IsSpeech(nil) = true, want false")
	}
	if c.IsSpeech([]byte{0x01}) {
		t.Fatalf("IsSpeech(odd-length frame) = true, want false")
	}
}

func TestEnergyAggressivenessOrdering(t *testing.T) {
	// An amplitude between the level-0 and level-3 thresholds: speech at the
	// permissive end, silence at the strict end.
	frame := pcmFrame(300, 480)
	if !NewEnergy(0).IsSpeech(frame) {
		t.Fatalf("level 0 classified borderline frame as silence")
	}
	if NewEnergy(3).IsSpeech(frame) {
		t.Fatalf("level 3 classified borderline frame as speech")
	}
}

func TestEnergyClampsAggressiveness(t *testing.T) {
	frame := pcmFrame(8000, 480)
	if !NewEnergy(-1).IsSpeech(frame) {
		t.Fatalf("clamped low level should still classify loud frame as speech")
	}
	if !NewEnergy(10).IsSpeech(frame) {
		t.Fatalf("clamped high level should still classify loud frame as speech")
	}
}
