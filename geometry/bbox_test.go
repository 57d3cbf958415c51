package geometry

import (
	"math/rand"
	"testing"

	"github.com/blockspacer/kdtracer/types"
)

func TestBoundingBoxIntersects(t *testing.T) {
	type spec struct {
		origin types.Vec3
		dir    types.Vec3
		expHit bool
	}

	bbox := BoundingBox{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{1, 1, 1}}
	specs := []spec{
		// Box behind the ray
		{types.Vec3{2, 2, 2}, types.Vec3{1, 1, 1}, false},
		// Box in front of the ray
		{types.Vec3{2, 2, 2}, types.Vec3{-1, -1, -1}, true},
		{types.Vec3{0.5, 0.5, -5}, types.Vec3{0, 0, 1}, true},
		// Parallel to the z slab with origin outside it
		{types.Vec3{0.5, 0.5, 5}, types.Vec3{1, 0, 0}, false},
		// Parallel to the x and y slabs with origin inside them
		{types.Vec3{0.5, 0.5, 5}, types.Vec3{0, 0, -1}, true},
		// Parallel to the x slab with origin outside it
		{types.Vec3{1.5, 0.5, 5}, types.Vec3{0, 0, -1}, false},
		// Misses diagonally
		{types.Vec3{-1, 2, 0.5}, types.Vec3{1, 0.1, 0}, false},
		// Origin inside the box
		{types.Vec3{0.5, 0.5, 0.5}, types.Vec3{0, 1, 0}, true},
		// Origin on the far face, leaving the box
		{types.Vec3{0.5, 1, 0.5}, types.Vec3{0, 1, 0}, false},
	}

	for index, s := range specs {
		ray := NewRay(s.origin, s.dir)
		if got := bbox.Intersects(&ray); got != s.expHit {
			t.Fatalf("[spec %d] expected Intersects to return %t; got %t", index, s.expHit, got)
		}
	}
}

func TestBoundingBoxIntersectsIsSymmetric(t *testing.T) {
	permutations := [][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	permute := func(v types.Vec3, p [3]int) types.Vec3 {
		return types.Vec3{v[p[0]], v[p[1]], v[p[2]]}
	}

	rng := rand.New(rand.NewSource(7))
	randVec := func(scale float64) types.Vec3 {
		return types.Vec3{
			(rng.Float64()*2 - 1) * scale,
			(rng.Float64()*2 - 1) * scale,
			(rng.Float64()*2 - 1) * scale,
		}
	}

	for i := 0; i < 500; i++ {
		bbox := NewBoundingBox(randVec(2), randVec(2))
		ray := NewRay(randVec(5), randVec(1))
		exp := bbox.Intersects(&ray)

		for _, p := range permutations {
			pBox := BoundingBox{Min: permute(bbox.Min, p), Max: permute(bbox.Max, p)}
			pRay := NewRay(permute(ray.Origin, p), permute(ray.Direction, p))
			if got := pBox.Intersects(&pRay); got != exp {
				t.Fatalf("[iteration %d] expected permutation %v to return %t; got %t", i, p, exp, got)
			}
		}

		// Swapping the slab bounds of an axis the ray is not parallel to
		// must not change the outcome.
		for axis := 0; axis < 3; axis++ {
			swapped := bbox
			swapped.Min[axis], swapped.Max[axis] = bbox.Max[axis], bbox.Min[axis]
			if got := swapped.Intersects(&ray); got != exp {
				t.Fatalf("[iteration %d] expected box with swapped axis %d bounds to return %t; got %t", i, axis, exp, got)
			}
		}
	}
}

func TestBoundingBoxLongestAxis(t *testing.T) {
	type spec struct {
		max     types.Vec3
		expAxis int
	}
	specs := []spec{
		{types.Vec3{3, 1, 1}, 0},
		{types.Vec3{1, 3, 1}, 1},
		{types.Vec3{1, 1, 3}, 2},
		{types.Vec3{2, 2, 1}, 0},
		{types.Vec3{1, 2, 2}, 1},
		{types.Vec3{2, 2, 2}, 0},
		{types.Vec3{0, 0, 0}, 0},
	}

	for index, s := range specs {
		bbox := BoundingBox{Max: s.max}
		if got := bbox.LongestAxis(); got != s.expAxis {
			t.Fatalf("[spec %d] expected longest axis %d; got %d", index, s.expAxis, got)
		}
	}
}

func TestBoundingBoxSplit(t *testing.T) {
	bbox := BoundingBox{Min: types.Vec3{-1, -2, -3}, Max: types.Vec3{1, 2, 3}}

	left, right := bbox.Split(1, 0.5)
	expLeft := BoundingBox{Min: types.Vec3{-1, -2, -3}, Max: types.Vec3{1, 0.5, 3}}
	expRight := BoundingBox{Min: types.Vec3{-1, 0.5, -3}, Max: types.Vec3{1, 2, 3}}
	if left != expLeft {
		t.Fatalf("expected left box %v; got %v", expLeft, left)
	}
	if right != expRight {
		t.Fatalf("expected right box %v; got %v", expRight, right)
	}

	// Split positions outside the box are clamped
	left, right = bbox.Split(0, 10)
	if left != bbox || right.Min[0] != 1 || !right.IsValid() {
		t.Fatalf("expected clamped split; got left %v, right %v", left, right)
	}
}

func TestBoundingBoxCorners(t *testing.T) {
	bbox := NewBoundingBox(types.Vec3{0, 0, 0}, types.Vec3{1, 2, 3})
	seen := make(map[types.Vec3]bool)
	for _, c := range bbox.Corners() {
		for axis := 0; axis < 3; axis++ {
			if c[axis] != bbox.Min[axis] && c[axis] != bbox.Max[axis] {
				t.Fatalf("corner %v is not on the box", c)
			}
		}
		seen[c] = true
	}
	if len(seen) != 8 {
		t.Fatalf("expected 8 distinct corners; got %d", len(seen))
	}

	if exp := bbox.Size().Len(); bbox.Diagonal() != exp {
		t.Fatalf("expected diagonal %f; got %f", exp, bbox.Diagonal())
	}
}
