package mandelbrot

// IterationsAtPoint
// Runs the escape-time iteration z = z^2 + c for c = (x, y), starting from z = c, and returns how many steps it
// took for |z|^2 to exceed 4. Points that never escape return max.
// Products are converted explicitly so they are never fused into an FMA.
func IterationsAtPoint(x float64, y float64, max int) int {
	x0, y0 := x, y
	iteration := 0

	for float64(x*x)+float64(y*y) <= 4 && iteration < max {
		x, y = float64(x*x)-float64(y*y)+x0, float64(2*x*y)+y0
		iteration++
	}
	return iteration
}
