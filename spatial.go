package rowan

import (
	"errors"
	"math"
)

// ErrGridFull is returned when an insert would exceed the grid's configured
// occupied-cell capacity.
var ErrGridFull = errors.New("rowan: spatial grid cell capacity exceeded")

// defaultCellSize is the spatial grid cell edge length in world units.
// Tuned for scenes whose typical entity is a few hundred pixels or less.
const defaultCellSize = 256.0

// maxCellSpan clamps the number of cells an entity occupies per axis. An
// entity larger than maxCellSpan cells is registered only in the clamped
// range starting at its top-left; culling for such entities is approximate
// (they are still found via the cells they legitimately occupy) in exchange
// for a bounded per-mutation cost of maxCellSpan² cell touches.
const maxCellSpan = 4

// cellKey addresses one grid cell.
type cellKey struct {
	X, Y int32
}

// spatialGrid is a uniform grid over world space answering "which entities
// overlap this rectangle" in O(cells touched). Entities spanning several
// cells are listed in every overlapping cell; queries deduplicate.
type spatialGrid struct {
	cellSize float64
	cells    map[cellKey][]EntityID

	// maxCells bounds the number of occupied cells (0 = unbounded). Inserts
	// that would allocate a cell past the bound fail with ErrGridFull.
	maxCells int

	// Generation-stamped seen set reused across queries to dedup without
	// per-call allocation.
	seen    map[EntityID]uint64
	seenGen uint64
}

func newSpatialGrid(cellSize float64, maxCells int) *spatialGrid {
	if cellSize <= 0 {
		cellSize = defaultCellSize
	}
	return &spatialGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]EntityID),
		maxCells: maxCells,
		seen:     make(map[EntityID]uint64),
	}
}

// occupiedCellCount returns the number of cells holding at least one entity.
// The render pipeline uses zero here as the "culling not worth it" signal and
// falls back to full-bucket iteration.
func (g *spatialGrid) occupiedCellCount() int {
	return len(g.cells)
}

// cellRange returns the clamped inclusive cell range overlapped by rect.
func (g *spatialGrid) cellRange(rect Rect) (minX, minY, maxX, maxY int32) {
	minX = int32(math.Floor(rect.X / g.cellSize))
	minY = int32(math.Floor(rect.Y / g.cellSize))
	maxX = int32(math.Floor((rect.X + rect.Width) / g.cellSize))
	maxY = int32(math.Floor((rect.Y + rect.Height) / g.cellSize))
	if maxX-minX >= maxCellSpan {
		maxX = minX + maxCellSpan - 1
	}
	if maxY-minY >= maxCellSpan {
		maxY = minY + maxCellSpan - 1
	}
	return
}

// insert registers id in every cell overlapped by rect. On ErrGridFull any
// cells already touched by this call are rolled back, leaving the grid
// unchanged.
func (g *spatialGrid) insert(id EntityID, rect Rect) error {
	minX, minY, maxX, maxY := g.cellRange(rect)
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			key := cellKey{X: cx, Y: cy}
			if _, ok := g.cells[key]; !ok && g.maxCells > 0 && len(g.cells) >= g.maxCells {
				g.removeRange(id, minX, maxX, minY, cx, cy)
				return ErrGridFull
			}
			g.cells[key] = append(g.cells[key], id)
		}
	}
	return nil
}

// remove unregisters id from every cell overlapped by rect. rect must be the
// same rectangle the id was inserted with. Cells emptied by the removal are
// freed eagerly so occupiedCellCount stays meaningful.
func (g *spatialGrid) remove(id EntityID, rect Rect) {
	minX, minY, maxX, maxY := g.cellRange(rect)
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			g.removeFromCell(id, cellKey{X: cx, Y: cy})
		}
	}
}

// removeRange unregisters id from the cells a partially completed insert
// already touched: rows minY..stopY-1 in full, then the final row up to but
// excluding stopX.
func (g *spatialGrid) removeRange(id EntityID, minX, maxX, minY, stopX, stopY int32) {
	for cy := minY; cy <= stopY; cy++ {
		endX := maxX
		if cy == stopY {
			endX = stopX - 1
		}
		for cx := minX; cx <= endX; cx++ {
			g.removeFromCell(id, cellKey{X: cx, Y: cy})
		}
	}
}

// removeFromCell removes one occurrence of id from the cell, freeing the cell
// when it becomes empty.
func (g *spatialGrid) removeFromCell(id EntityID, key cellKey) {
	list, ok := g.cells[key]
	if !ok {
		return
	}
	for i := range list {
		if list[i] == id {
			list[i] = list[len(list)-1]
			list = list[:len(list)-1]
			if len(list) == 0 {
				delete(g.cells, key)
			} else {
				g.cells[key] = list
			}
			return
		}
	}
}

// update moves id from oldRect's cells to newRect's cells. When both rects
// map to the same cell range this is a no-op (the common case for small
// movements). On failure the old registration is restored and the grid is
// left as it was before the call.
func (g *spatialGrid) update(id EntityID, oldRect, newRect Rect) error {
	oMinX, oMinY, oMaxX, oMaxY := g.cellRange(oldRect)
	nMinX, nMinY, nMaxX, nMaxY := g.cellRange(newRect)
	if oMinX == nMinX && oMinY == nMinY && oMaxX == nMaxX && oMaxY == nMaxY {
		return nil
	}
	g.remove(id, oldRect)
	if err := g.insert(id, newRect); err != nil {
		// Restore the old registration. The old cells were occupied a moment
		// ago, so re-inserting them cannot exceed the capacity bound.
		if rerr := g.insert(id, oldRect); rerr != nil {
			warnf("spatial update rollback failed for id %d: %v", id, rerr)
		}
		return err
	}
	return nil
}

// query appends to buf every entity whose registration overlaps viewport,
// each exactly once, and returns the extended slice. The traversal cost is
// proportional to the cells the viewport touches plus their occupancy.
func (g *spatialGrid) query(viewport Rect, buf []EntityID) []EntityID {
	g.seenGen++
	minX := int32(math.Floor(viewport.X / g.cellSize))
	minY := int32(math.Floor(viewport.Y / g.cellSize))
	maxX := int32(math.Floor((viewport.X + viewport.Width) / g.cellSize))
	maxY := int32(math.Floor((viewport.Y + viewport.Height) / g.cellSize))
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			for _, id := range g.cells[cellKey{X: cx, Y: cy}] {
				if g.seen[id] == g.seenGen {
					continue
				}
				g.seen[id] = g.seenGen
				buf = append(buf, id)
			}
		}
	}
	return buf
}
