// Package vad classifies fixed-duration audio frames as speech or silence.
package vad

import (
	"log"
	"math"
)

// Classifier decides whether a single PCM16LE mono frame contains speech.
// Implementations must be deterministic for identical input and must not
// mutate the frame.
type Classifier interface {
	IsSpeech(frame []byte) bool
}

// Aggressiveness levels trade false-positive silence (cutting trailing
// speech) against false-negative silence (recordings running long). Higher
// levels require more energy before a frame counts as speech.
var energyThresholds = [4]float64{0.006, 0.010, 0.015, 0.022}

// Energy is an RMS-amplitude classifier over PCM16LE samples. It carries no
// per-frame state, so identical frames always classify identically.
type Energy struct {
	threshold float64
}

// NewEnergy returns an Energy classifier for the given aggressiveness
// level (0-3). Out-of-range levels are clamped.
func NewEnergy(aggressiveness int) *Energy {
	if aggressiveness < 0 {
		aggressiveness = 0
	}
	if aggressiveness > len(energyThresholds)-1 {
		aggressiveness = len(energyThresholds) - 1
	}
	return &Energy{threshold: energyThresholds[aggressiveness]}
}

// IsSpeech reports whether the frame's RMS amplitude clears the threshold.
// Malformed frames (empty or odd byte count) classify as silence so a bad
// capture never produces an unbounded recording.
func (e *Energy) IsSpeech(frame []byte) bool {
	if len(frame) == 0 || len(frame)%2 != 0 {
		log.Printf("vad: malformed frame (%d bytes), classifying as silence", len(frame))
		return false
	}
	return rms(frame) >= e.threshold
}

// rms computes root-mean-square amplitude normalized to [0, 1].
func rms(frame []byte) float64 {
	var sum float64
	n := len(frame) / 2
	for i := 0; i < len(frame); i += 2 {
		s := int16(uint16(frame[i]) | uint16(frame[i+1])<<8)
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
