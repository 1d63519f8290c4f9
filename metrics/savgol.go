package metrics

import "math"

// savitzkyGolay smooths xs with local least-squares polynomial fits of the
// given window length and order. The leading and trailing half-windows are
// filled by evaluating a polynomial fitted over the first and last full
// window, so the edges follow the data instead of flattening out. Inputs
// shorter than the window are returned unchanged.
func savitzkyGolay(xs []float64, window, order int) []float64 {
	out := append([]float64(nil), xs...)
	if window < 2 || order >= window || len(xs) < window {
		return out
	}
	if window%2 == 0 {
		window++
	}
	if len(xs) < window {
		return out
	}
	half := window / 2

	for i := half; i < len(xs)-half; i++ {
		c := polyfitWindow(xs[i-half:i+half+1], -half, order)
		out[i] = polyval(c, 0)
	}

	lead := polyfitWindow(xs[:window], 0, order)
	for i := 0; i < half; i++ {
		out[i] = polyval(lead, float64(i))
	}
	trail := polyfitWindow(xs[len(xs)-window:], 0, order)
	for i := 0; i < half; i++ {
		out[len(xs)-half+i] = polyval(trail, float64(window-half+i))
	}
	return out
}

// polyfitWindow fits a polynomial of the given order to ys sampled at
// consecutive integer positions starting at x0, returning coefficients in
// ascending power order.
func polyfitWindow(ys []float64, x0, order int) []float64 {
	m := order + 1
	aug := make([][]float64, m)
	for j := range aug {
		aug[j] = make([]float64, m+1)
	}
	powers := make([]float64, 2*m-1)
	for i, y := range ys {
		x := float64(x0 + i)
		p := 1.0
		for j := range powers {
			powers[j] = p
			p *= x
		}
		for j := 0; j < m; j++ {
			for k := 0; k < m; k++ {
				aug[j][k] += powers[j+k]
			}
			aug[j][m] += y * powers[j]
		}
	}
	return solveAugmented(aug)
}

// solveAugmented runs Gaussian elimination with partial pivoting on an
// augmented matrix [A|b] and returns x solving Ax = b.
func solveAugmented(a [][]float64) []float64 {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		if a[col][col] == 0 {
			continue
		}
		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= n; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}
	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := a[r][n]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		if a[r][r] != 0 {
			x[r] = sum / a[r][r]
		}
	}
	return x
}

func polyval(c []float64, x float64) float64 {
	out := 0.0
	for j := len(c) - 1; j >= 0; j-- {
		out = out*x + c[j]
	}
	return out
}
