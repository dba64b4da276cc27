package ui

import (
	"encoding/binary"
	"time"

	"github.com/dmgcore/gbemu/internal/emu"
)

// apuStream implements io.Reader by pulling PCM stereo frames from the
// Machine's APU and converting them to 16-bit little-endian interleaved
// samples, grounded on the teacher's internal/ui/audio.go adapter.
type apuStream struct {
	m *emu.Machine
}

func (s *apuStream) Read(p []byte) (int, error) {
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	want := len(p) / 4
	deadline := time.Now().Add(8 * time.Millisecond)
	for s.m.AudioAvailable() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	frames := s.m.PullAudio(want)
	i := 0
	for j := 0; j+1 < len(frames) && i+3 < len(p); j += 2 {
		binary.LittleEndian.PutUint16(p[i:], uint16(frames[j]))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(frames[j+1]))
		i += 4
	}
	for ; i+3 < len(p); i += 4 {
		binary.LittleEndian.PutUint16(p[i:], 0)
		binary.LittleEndian.PutUint16(p[i+2:], 0)
	}
	return len(p), nil
}
