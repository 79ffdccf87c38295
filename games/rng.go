package games

import (
	"crypto/hmac"
	"crypto/sha256"
	"strconv"
)

// Ordinals partition the seed so that each use of randomness inside a
// session draws from its own stream.
const (
	OrdinalBoard uint64 = 0
	OrdinalPins  uint64 = 1
	OrdinalReels uint64 = 2
	// The k-th tile shuffle of a session draws from OrdinalShuffle+k, so
	// this must stay the highest ordinal.
	OrdinalShuffle uint64 = 3
)

// Stream is a deterministic byte source keyed by a session seed. Round r of
// ordinal o is HMAC-SHA256(seed, "o:r"); bytes are consumed in order and a
// new round is hashed every 32 bytes.
type Stream struct {
	seed    []byte
	ordinal uint64
	round   uint64
	pos     int
	buffer  [32]byte
}

// NewStream returns the stream for (seed, ordinal). Two streams built from
// the same inputs yield identical sequences.
func NewStream(seed string, ordinal uint64) *Stream {
	s := &Stream{seed: []byte(seed), ordinal: ordinal}
	s.generateRound()
	return s
}

func (s *Stream) generateRound() {
	h := hmac.New(sha256.New, s.seed)
	msg := strconv.FormatUint(s.ordinal, 10) + ":" + strconv.FormatUint(s.round, 10)
	h.Write([]byte(msg))
	copy(s.buffer[:], h.Sum(nil))
	s.pos = 0
}

// Next returns the next byte.
func (s *Stream) Next() byte {
	if s.pos >= len(s.buffer) {
		s.round++
		s.generateRound()
	}
	b := s.buffer[s.pos]
	s.pos++
	return b
}

// Float returns a value in [0, 1) built from four bytes.
func (s *Stream) Float() float64 {
	result := 0.0
	divider := 1.0
	for i := 0; i < 4; i++ {
		divider *= 256
		result += float64(s.Next()) / divider
	}
	return result
}

// Intn returns a value in [0, n). n must be positive.
func (s *Stream) Intn(n int) int {
	idx := int(s.Float() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// Shuffle permutes items in place (Fisher-Yates).
func Shuffle[T any](s *Stream, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
