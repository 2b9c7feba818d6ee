package parallel

import (
	"errors"
	"fmt"
)

var (
	ErrTileOverlap = errors.New("tiles overlap")
	ErrTileGap     = errors.New("tiles do not cover the target range")
	ErrTileBounds  = errors.New("tile lies outside the target range")
)

// Tile is a half-open rectangle [Row0, Row1) x [Col0, Col1) of a 2-D grid,
// handed to one worker as a single unit of work.
type Tile struct {
	Row0, Row1 int
	Col0, Col1 int
}

func (t Tile) Rows() int { return t.Row1 - t.Row0 }
func (t Tile) Cols() int { return t.Col1 - t.Col0 }

func (t Tile) Area() int {
	if t.Empty() {
		return 0
	}
	return t.Rows() * t.Cols()
}

func (t Tile) Empty() bool {
	return t.Row1 <= t.Row0 || t.Col1 <= t.Col0
}

func (t Tile) Contains(row, col int) bool {
	return row >= t.Row0 && row < t.Row1 && col >= t.Col0 && col < t.Col1
}

func (t Tile) String() string {
	return fmt.Sprintf("[%d,%d)x[%d,%d)", t.Row0, t.Row1, t.Col0, t.Col1)
}

// Grid splits the target range into tiles of at most tileRows x tileCols,
// row-major. The last row and column of tiles absorb any remainder.
// A non-positive tile dimension means "the whole extent".
func Grid(target Tile, tileRows, tileCols int) []Tile {
	if target.Empty() {
		return nil
	}
	if tileRows <= 0 {
		tileRows = target.Rows()
	}
	if tileCols <= 0 {
		tileCols = target.Cols()
	}

	tilesY := (target.Rows() + tileRows - 1) / tileRows
	tilesX := (target.Cols() + tileCols - 1) / tileCols
	tiles := make([]Tile, 0, tilesX*tilesY)

	for y := target.Row0; y < target.Row1; y += tileRows {
		for x := target.Col0; x < target.Col1; x += tileCols {
			tiles = append(tiles, Tile{
				Row0: y,
				Row1: min(y+tileRows, target.Row1),
				Col0: x,
				Col1: min(x+tileCols, target.Col1),
			})
		}
	}
	return tiles
}

// Split divides the target range into an n x m grid of near-equal tiles.
func Split(target Tile, n, m int) []Tile {
	if target.Empty() || n <= 0 || m <= 0 {
		return nil
	}
	n = min(n, target.Rows())
	m = min(m, target.Cols())

	tiles := make([]Tile, 0, n*m)
	for i := range n {
		r0 := target.Row0 + i*target.Rows()/n
		r1 := target.Row0 + (i+1)*target.Rows()/n
		for j := range m {
			tiles = append(tiles, Tile{
				Row0: r0,
				Row1: r1,
				Col0: target.Col0 + j*target.Cols()/m,
				Col1: target.Col0 + (j+1)*target.Cols()/m,
			})
		}
	}
	return tiles
}

// Verify checks that tiles cover target exactly once: no tile sticks out of
// the target, no cell is claimed twice and no cell is left over.
func Verify(target Tile, tiles []Tile) error {
	if target.Empty() {
		for _, t := range tiles {
			if !t.Empty() {
				return fmt.Errorf("%w: %s in empty target", ErrTileBounds, t)
			}
		}
		return nil
	}

	owned := make([]bool, target.Area())
	covered := 0
	for _, t := range tiles {
		if t.Empty() {
			continue
		}
		if t.Row0 < target.Row0 || t.Row1 > target.Row1 || t.Col0 < target.Col0 || t.Col1 > target.Col1 {
			return fmt.Errorf("%w: %s not within %s", ErrTileBounds, t, target)
		}
		for y := t.Row0; y < t.Row1; y++ {
			base := (y - target.Row0) * target.Cols()
			for x := t.Col0; x < t.Col1; x++ {
				idx := base + x - target.Col0
				if owned[idx] {
					return fmt.Errorf("%w: cell (%d,%d) claimed again by %s", ErrTileOverlap, y, x, t)
				}
				owned[idx] = true
			}
		}
		covered += t.Area()
	}

	if covered != target.Area() {
		return fmt.Errorf("%w: %d of %d cells covered", ErrTileGap, covered, target.Area())
	}
	return nil
}
