// Package fair implements the provably-fair crash point derivation.
//
// Before a round opens the server publishes Commit(serverSeed). After the
// round crashes the seed is revealed and anyone can recompute the crash
// point: HMAC-SHA256 keyed with the server seed over
// "serverSeed|clientSeed|nonce", first 8 hex chars taken as a uint32 h,
// u = h/2^32, crash = floor(((1-edge)*100)/u)/100, clamped to
// [1.01, MaxCrash].
package fair

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
)

const (
	// MinCrash is the lowest crash point a round can have.
	MinCrash = 1.01
	// MaxCrash caps the derived crash point (also used when the hash
	// prefix happens to be zero).
	MaxCrash = 1000.00
	// DefaultHouseEdge is the fraction retained by the house.
	DefaultHouseEdge = 0.01
)

// Generator derives crash points from seed material.
type Generator struct {
	houseEdge float64
}

// New returns a Generator with the given house edge. Values outside (0, 1)
// fall back to DefaultHouseEdge.
func New(houseEdge float64) *Generator {
	if houseEdge <= 0 || houseEdge >= 1 {
		houseEdge = DefaultHouseEdge
	}
	return &Generator{houseEdge: houseEdge}
}

// NewServerSeed returns 32 random bytes hex-encoded.
func NewServerSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random server seed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewClientSeed returns 16 random bytes hex-encoded. Shorter than the
// server seed; a player-supplied seed may be used instead.
func NewClientSeed() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random client seed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Commit returns the commitment hash published before betting opens:
// hex(SHA-256(serverSeed)). The seed itself stays secret until reveal.
func Commit(serverSeed string) string {
	h := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(h[:])
}

// Verify reports whether commitment matches Commit(serverSeed).
func Verify(serverSeed, commitment string) bool {
	want := Commit(serverSeed)
	return subtle.ConstantTimeCompare([]byte(want), []byte(commitment)) == 1
}

// Derive computes the crash point for a round. It is a pure function:
// identical inputs always yield the identical crash point.
func (g *Generator) Derive(serverSeed, clientSeed string, nonce uint64) float64 {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(mac, "%s|%s|%d", serverSeed, clientSeed, nonce)
	digest := hex.EncodeToString(mac.Sum(nil))

	h, err := strconv.ParseUint(digest[:8], 16, 64)
	if err != nil {
		// digest is always valid hex; unreachable
		return MinCrash
	}
	u := float64(h) / float64(1<<32)
	if u == 0 {
		return MaxCrash
	}

	crash := math.Floor(((1-g.houseEdge)*100)/u) / 100
	if crash < MinCrash {
		crash = MinCrash
	}
	if crash > MaxCrash {
		crash = MaxCrash
	}
	return crash
}
