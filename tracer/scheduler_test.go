package tracer

import (
	"sync"
	"testing"
)

func TestTileCursorCoversFrame(t *testing.T) {
	type spec struct {
		width, height, tileSize int
		expTiles                int
	}
	specs := []spec{
		{64, 64, 16, 16},
		{65, 33, 16, 15},
		{10, 10, 16, 1},
		{1, 1, 1, 1},
		{0, 10, 16, 0},
		{10, 0, 16, 0},
	}

	for index, s := range specs {
		cursor := NewTileCursor(s.width, s.height, s.tileSize)
		if cursor.NumTiles() != s.expTiles {
			t.Fatalf("[spec %d] expected NumTiles to return %d; got %d", index, s.expTiles, cursor.NumTiles())
		}

		covered := make([]int, s.width*s.height)
		tiles := 0
		for {
			x0, y0, ok := cursor.Next()
			if !ok {
				break
			}
			tiles++
			for y := y0; y < min(y0+s.tileSize, s.height); y++ {
				for x := x0; x < min(x0+s.tileSize, s.width); x++ {
					covered[y*s.width+x]++
				}
			}
		}

		if tiles != s.expTiles {
			t.Fatalf("[spec %d] expected %d tiles; got %d", index, s.expTiles, tiles)
		}
		for i, count := range covered {
			if count != 1 {
				t.Fatalf("[spec %d] expected pixel %d to be covered once; got %d", index, i, count)
			}
		}

		if _, _, ok := cursor.Next(); ok {
			t.Fatalf("[spec %d] expected exhausted cursor to keep returning false", index)
		}
	}
}

func TestTileCursorRowMajorOrder(t *testing.T) {
	cursor := NewTileCursor(40, 20, 16)
	exp := [][2]int{{0, 0}, {16, 0}, {32, 0}, {0, 16}, {16, 16}, {32, 16}}
	for index, e := range exp {
		x, y, ok := cursor.Next()
		if !ok || x != e[0] || y != e[1] {
			t.Fatalf("[tile %d] expected tile (%d, %d); got (%d, %d, %t)", index, e[0], e[1], x, y, ok)
		}
	}

	cursor.Reset()
	if x, y, ok := cursor.Next(); !ok || x != 0 || y != 0 {
		t.Fatalf("expected reset cursor to serve (0, 0); got (%d, %d, %t)", x, y, ok)
	}
}

func TestTileCursorConcurrentClaims(t *testing.T) {
	const workers = 8
	cursor := NewTileCursor(512, 384, 16)

	var mu sync.Mutex
	seen := make(map[[2]int]int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				x, y, ok := cursor.Next()
				if !ok {
					return
				}
				mu.Lock()
				seen[[2]int{x, y}]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != cursor.NumTiles() {
		t.Fatalf("expected %d distinct tiles; got %d", cursor.NumTiles(), len(seen))
	}
	for tile, count := range seen {
		if count != 1 {
			t.Fatalf("expected tile %v to be claimed once; got %d", tile, count)
		}
	}
}
