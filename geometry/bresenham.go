package geometry

// Bresenham visits the integer pixels on the line from (x0, y0) to (x1, y1),
// both ends included. The walk stops early when visit returns false; the
// result reports whether the end was reached.
func Bresenham(x0, y0, x1, y1 int, visit func(x, y int) bool) bool {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if !visit(x0, y0) {
			return false
		}
		if x0 == x1 && y0 == y1 {
			return true
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// PixelLine returns the pixels of the Bresenham line from p to q.
func PixelLine(p, q Point) [][2]int {
	x0, y0 := p.Floor()
	x1, y1 := q.Floor()
	n := max(abs(x1-x0), abs(y1-y0)) + 1
	pts := make([][2]int, 0, n)
	Bresenham(x0, y0, x1, y1, func(x, y int) bool {
		pts = append(pts, [2]int{x, y})
		return true
	})
	return pts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
