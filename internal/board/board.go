// internal/board/board.go
//
// Shared letter-board generator.
//
// Responsibilities:
//   - Produce the 4×4 grid of letters every session member plays on.
//   - Draw each cell independently and uniformly from a fixed weighted letter
//     pool, so board letter statistics match the classic word-tile distribution
//     ('e' twelve tiles, 'q'/'z'/'x'/'j'/'k' one tile each, and so on).
//
// Notes:
//   - No adjacency or connectivity constraint: cells are sampled independently.
//   - Generation is a pure function of its random source; a seeded source gives
//     reproducible boards for tests.

package board

import (
	"math/rand"
	"sync"
)

// Board dimensions are fixed for the classic game.
const (
	Rows = 4
	Cols = 4
)

// letterPool is the classic English letter-frequency multiset (98 tiles).
var letterPool = []string{
	"e", "e", "e", "e", "e", "e", "e", "e", "e", "e", "e", "e",
	"a", "a", "a", "a", "a", "a", "a", "a", "a",
	"i", "i", "i", "i", "i", "i", "i", "i", "i",
	"o", "o", "o", "o", "o", "o", "o", "o",
	"n", "n", "n", "n", "n", "n",
	"r", "r", "r", "r", "r", "r",
	"t", "t", "t", "t", "t", "t",
	"l", "l", "l", "l",
	"s", "s", "s", "s",
	"u", "u", "u", "u",
	"d", "d", "d", "d",
	"g", "g", "g",
	"b", "b",
	"c", "c",
	"m", "m",
	"p", "p",
	"f", "f",
	"h", "h",
	"v", "v",
	"w", "w",
	"y", "y",
	"k",
	"j",
	"x",
	"q",
	"z",
}

// Grid is a rows×cols matrix of single-letter strings.
type Grid [][]string

// Generator samples boards from letterPool using its own random source.
// Safe for concurrent use: sessions can deal boards from any goroutine.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Generator backed by the given source.
// Production callers seed from entropy; tests pass a fixed seed.
func New(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// Generate returns a rows×cols grid with every cell drawn from the pool.
func (g *Generator) Generate(rows, cols int) Grid {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(Grid, rows)
	for i := range out {
		out[i] = make([]string, cols)
		for j := range out[i] {
			out[i][j] = letterPool[g.rng.Intn(len(letterPool))]
		}
	}
	return out
}

// GenerateDefault returns the standard 4×4 board.
func (g *Generator) GenerateDefault() Grid {
	return g.Generate(Rows, Cols)
}

// InPool reports whether a letter can appear on a board.
func InPool(letter string) bool {
	for _, l := range letterPool {
		if l == letter {
			return true
		}
	}
	return false
}
