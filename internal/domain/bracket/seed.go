// Package bracket implements the double-elimination tournament engine:
// template generation, instantiation from seeded entries, bye resolution,
// and winner/loser advancement. All functions are pure: they read a snapshot
// and return a new one, leaving persistence to the caller.
package bracket

import "fmt"

// SeedOrder returns the standard seeding permutation for a power-of-two
// bracket size: the order for size/2 with each seed s followed by size+1-s.
// Consecutive pairs form the round-one matchups (1 vs size, and so on),
// which keeps the top seeds apart until the late rounds.
func SeedOrder(size int) ([]int, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("seed order for size %d: %w", size, ErrUnsupportedSize)
	}
	order := []int{1, 2}
	for n := 4; n <= size; n *= 2 {
		next := make([]int, 0, n)
		for _, s := range order {
			next = append(next, s, n+1-s)
		}
		order = next
	}
	return order, nil
}
