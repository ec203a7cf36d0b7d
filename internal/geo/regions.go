// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package geo

import (
	"math/rand"
	"sync"
)

// Region is a named bounding box with a population weight used for random
// pin placement.
type Region struct {
	Name   string
	Weight int
	LatMin float64
	LatMax float64
	LngMin float64
	LngMax float64
}

// Regions is the fixed world-region table. Weights roughly track population
// so random pins cluster where people are.
var Regions = []Region{
	{Name: "Asia", Weight: 59, LatMin: 5, LatMax: 55, LngMin: 60, LngMax: 150},
	{Name: "Africa", Weight: 17, LatMin: -35, LatMax: 37, LngMin: -17, LngMax: 51},
	{Name: "Europe", Weight: 10, LatMin: 36, LatMax: 70, LngMin: -10, LngMax: 40},
	{Name: "North America", Weight: 8, LatMin: 15, LatMax: 70, LngMin: -130, LngMax: -60},
	{Name: "South America", Weight: 5, LatMin: -55, LatMax: 12, LngMin: -80, LngMax: -35},
	{Name: "Oceania", Weight: 1, LatMin: -47, LatMax: -10, LngMin: 110, LngMax: 180},
}

// RegionSampler draws population-weighted random coordinates from the fixed
// region table using a cumulative-weight scan. The random source is
// injected so tests can seed it.
type RegionSampler struct {
	mu          sync.Mutex
	rng         *rand.Rand
	regions     []Region
	totalWeight int
}

// NewRegionSampler creates a sampler over the default region table.
func NewRegionSampler(rng *rand.Rand) *RegionSampler {
	return NewRegionSamplerWithTable(rng, Regions)
}

// NewRegionSamplerWithTable creates a sampler over a custom region table.
func NewRegionSamplerWithTable(rng *rand.Rand, regions []Region) *RegionSampler {
	total := 0
	for _, r := range regions {
		total += r.Weight
	}
	return &RegionSampler{
		rng:         rng,
		regions:     regions,
		totalWeight: total,
	}
}

// Sample picks a region proportionally to its weight, then draws latitude
// and longitude independently and uniformly within its bounding box.
func (s *RegionSampler) Sample() Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()

	draw := s.rng.Intn(s.totalWeight)
	cumulative := 0
	region := s.regions[len(s.regions)-1]
	for _, r := range s.regions {
		cumulative += r.Weight
		if draw < cumulative {
			region = r
			break
		}
	}

	return Coordinate{
		Latitude:  region.LatMin + s.rng.Float64()*(region.LatMax-region.LatMin),
		Longitude: region.LngMin + s.rng.Float64()*(region.LngMax-region.LngMin),
	}
}
