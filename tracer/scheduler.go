package tracer

import "sync"

// TileCursor hands out the upper left corners of square tiles covering a
// frame in row-major order. It is safe for concurrent use; every tile is
// served exactly once.
type TileCursor struct {
	sync.Mutex

	width, height, tileSize int

	nextX, nextY int
}

// Create a cursor over a width x height frame split into tileSize tiles.
func NewTileCursor(width, height, tileSize int) *TileCursor {
	if tileSize < 1 {
		tileSize = DefaultTileSize
	}
	return &TileCursor{
		width:    width,
		height:   height,
		tileSize: tileSize,
	}
}

// Claim the next tile. Returns false once the whole frame has been served.
func (c *TileCursor) Next() (x, y int, ok bool) {
	c.Lock()
	defer c.Unlock()

	if c.width <= 0 || c.nextY >= c.height {
		return 0, 0, false
	}

	x, y = c.nextX, c.nextY
	c.nextX += c.tileSize
	if c.nextX >= c.width {
		c.nextX = 0
		c.nextY += c.tileSize
	}
	return x, y, true
}

// Get the total number of tiles in the frame.
func (c *TileCursor) NumTiles() int {
	if c.width <= 0 || c.height <= 0 {
		return 0
	}
	cols := (c.width + c.tileSize - 1) / c.tileSize
	rows := (c.height + c.tileSize - 1) / c.tileSize
	return cols * rows
}

// Rewind the cursor to the first tile.
func (c *TileCursor) Reset() {
	c.Lock()
	c.nextX, c.nextY = 0, 0
	c.Unlock()
}
