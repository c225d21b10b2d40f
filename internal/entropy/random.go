// Package entropy chooses the seeds that drive variety generation and
// placement strategies. Explicit seeds always win; otherwise a seed is
// drawn from crypto/rand so unseeded runs differ from each other.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"time"
)

// Seed returns the first non-nil candidate, or a fresh crypto seed when all
// are nil. Candidates are listed from most to least specific, e.g. the
// variety file's seed before the command-line flag.
func Seed(candidates ...*int64) int64 {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	s := CryptoSeed()
	slog.Debug("no seed configured, drew one", "seed", s)
	return s
}

// CryptoSeed returns a non-negative seed from crypto/rand. If the system
// source fails the clock is used instead.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		slog.Debug("crypto/rand failed, seeding from clock", "error", err)
		return time.Now().UnixNano() & (1<<63 - 1)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
