// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

// Package position implements the fixed-width circular counter used as both
// ordering key and storage key by the persistent queue.
//
// A Position is an integer in [0, 36^6-1] rendered as exactly six uppercase
// base-36 digits. Because every rendering has the same width, lexical order
// of the keys equals numeric order. Arithmetic wraps modulo RingSize.
package position

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Radix is the numeral base of the rendered form.
	Radix = 36

	// Width is the number of digits in the rendered form.
	Width = 6

	// RingSize is the number of distinct positions (36^6).
	RingSize uint32 = 36 * 36 * 36 * 36 * 36 * 36

	// Max is the largest position value.
	Max Position = Position(RingSize - 1)

	// Zero is the smallest position value.
	Zero Position = 0
)

// ErrMalformed is returned by Parse for strings that are not a rendered Position.
var ErrMalformed = errors.New("malformed position")

// Position is a point on the ring. The zero value is position 0.
type Position uint32

// New returns the position for n reduced modulo RingSize.
func New(n uint64) Position {
	return Position(n % uint64(RingSize))
}

// Next returns the following position, wrapping from Max to Zero.
func (p Position) Next() Position {
	if p >= Max {
		return Zero
	}
	return p + 1
}

// Prev returns the preceding position, wrapping from Zero to Max.
func (p Position) Prev() Position {
	if p == Zero || p > Max {
		return Max
	}
	return p - 1
}

// Advance returns the position n steps forward.
func (p Position) Advance(n uint32) Position {
	return New(uint64(p%Position(RingSize)) + uint64(n%RingSize))
}

// Retreat returns the position n steps backward.
func (p Position) Retreat(n uint32) Position {
	n %= RingSize
	return New(uint64(p%Position(RingSize)) + uint64(RingSize-n))
}

// DistanceTo returns the number of forward steps needed to reach other from p,
// wrapping through Zero if needed. It is 0 iff the positions are equal.
func (p Position) DistanceTo(other Position) uint32 {
	a := uint32(p) % RingSize
	b := uint32(other) % RingSize
	if b >= a {
		return b - a
	}
	return RingSize - a + b
}

// String renders the position as six zero-padded uppercase base-36 digits.
func (p Position) String() string {
	s := strings.ToUpper(strconv.FormatUint(uint64(uint32(p)%RingSize), Radix))
	if len(s) < Width {
		s = strings.Repeat("0", Width-len(s)) + s
	}
	return s
}

// Parse is the inverse of String. Lowercase digits are rejected: every stored
// key was written by String, so anything else indicates corruption.
func Parse(s string) (Position, error) {
	if len(s) != Width {
		return Zero, fmt.Errorf("%w: %q has length %d, want %d", ErrMalformed, s, len(s), Width)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return Zero, fmt.Errorf("%w: %q contains invalid digit %q", ErrMalformed, s, c)
		}
	}
	n, err := strconv.ParseUint(s, Radix, 32)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	return Position(n), nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) Position {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}
