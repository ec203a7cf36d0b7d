// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package geo

import (
	"math/rand"
	"sync"
)

// Jitterer perturbs coordinates by a small bounded random offset so pins
// submitted from the same place don't stack exactly on top of each other.
// Purely a display concern; it never affects platform or content validity.
type Jitterer struct {
	mu        sync.Mutex
	rng       *rand.Rand
	maxOffset float64
}

// NewJitterer creates a Jitterer. maxOffset is the total span in degrees:
// each axis moves by a uniform offset in [-maxOffset/2, +maxOffset/2].
func NewJitterer(rng *rand.Rand, maxOffset float64) *Jitterer {
	return &Jitterer{rng: rng, maxOffset: maxOffset}
}

// Jitter returns c displaced independently on each axis.
func (j *Jitterer) Jitter(c Coordinate) Coordinate {
	j.mu.Lock()
	defer j.mu.Unlock()

	half := j.maxOffset / 2
	return Coordinate{
		Latitude:  c.Latitude + (j.rng.Float64()*j.maxOffset - half),
		Longitude: c.Longitude + (j.rng.Float64()*j.maxOffset - half),
	}
}
