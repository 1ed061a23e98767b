// Package random provides the uniform draw sources used by the offer randomizer.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	mrand "math/rand/v2"
	"sync"
)

// ErrInvalidRange is returned by NextUniformRange when max < min.
var ErrInvalidRange = errors.New("invalid range")

// Provider is a source of uniform draws in the half-open interval [0,1).
type Provider interface {
	NextUniform() float64
	// NextUniformRange draws from [min,max). min == max yields min.
	NextUniformRange(min, max float64) (float64, error)
}

// 2^53, the number of distinct doubles a 53-bit mantissa can address in [0,1).
const mantissaSteps = 1 << 53

// Seeded is a deterministic provider: the same seed always yields the same sequence.
type Seeded struct {
	mu  sync.Mutex
	rnd *mrand.Rand
}

// NewSeeded creates a deterministic provider backed by a PCG generator.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{rnd: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Seeded) NextUniform() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func (s *Seeded) NextUniformRange(min, max float64) (float64, error) {
	return scale(s, min, max)
}

// Crypto draws raw entropy from crypto/rand. It is the production default.
type Crypto struct{}

// NewCrypto returns a cryptographically strong provider.
func NewCrypto() *Crypto {
	return &Crypto{}
}

// NextUniform maps the top 53 bits of an 8-byte sample onto [0,1).
func (c *Crypto) NextUniform() float64 {
	var buf [8]byte
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(buf[:])
	top53 := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(top53) / mantissaSteps
}

func (c *Crypto) NextUniformRange(min, max float64) (float64, error) {
	return scale(c, min, max)
}

func scale(p Provider, min, max float64) (float64, error) {
	if max < min {
		return 0, fmt.Errorf("%w: max %v is less than min %v", ErrInvalidRange, max, min)
	}
	if max == min {
		return min, nil
	}
	v := min + p.NextUniform()*(max-min)
	// min + u*(max-min) can round up to max for u close to 1.
	if v >= max {
		v = math.Nextafter(max, min)
	}
	return v, nil
}
