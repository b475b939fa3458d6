package algo

import "math"

// loessEstimate fits a locally weighted polynomial (degree 0 or 1) over
// y[nleft..nright] and evaluates it at position xs. Positions are 0-based and
// may lie outside the data when extrapolating. When userw is set, the tricube
// neighborhood weights are multiplied by the robustness weights rw.
// It reports false when every neighbor has zero weight.
func loessEstimate(y []float64, n, span, degree int, xs float64, nleft, nright int, w []float64, userw bool, rw []float64) (float64, bool) {
	rng := float64(n) - 1
	h := math.Max(xs-float64(nleft), float64(nright)-xs)
	if span > n {
		h += float64((span - n) / 2)
	}
	h9 := 0.999 * h
	h1 := 0.001 * h

	var a float64
	for j := nleft; j <= nright; j++ {
		w[j] = 0
		r := math.Abs(float64(j) - xs)
		if r <= h9 {
			if r <= h1 {
				w[j] = 1
			} else {
				q := r / h
				q = 1 - q*q*q
				w[j] = q * q * q
			}
			if userw {
				w[j] *= rw[j]
			}
			a += w[j]
		}
	}
	if a <= 0 {
		return 0, false
	}

	for j := nleft; j <= nright; j++ {
		w[j] /= a
	}
	if h > 0 && degree > 0 {
		// Tilt the weights to fit a local line instead of a local constant.
		a = 0
		for j := nleft; j <= nright; j++ {
			a += w[j] * float64(j)
		}
		b := xs - a
		var c float64
		for j := nleft; j <= nright; j++ {
			d := float64(j) - a
			c += w[j] * d * d
		}
		if math.Sqrt(c) > 0.001*rng {
			b /= c
			for j := nleft; j <= nright; j++ {
				w[j] *= b*(float64(j)-a) + 1
			}
		}
	}

	var ys float64
	for j := nleft; j <= nright; j++ {
		ys += w[j] * y[j]
	}
	return ys, true
}

// loessSmooth evaluates the loess fit at every position of y[0..n-1] into ys.
// Positions where the fit is undefined keep their original value.
func loessSmooth(y []float64, n, span, degree int, userw bool, rw, ys, w []float64) {
	if n < 2 {
		ys[0] = y[0]
		return
	}

	nleft, nright := 0, n-1
	if span < n {
		half := (span + 1) / 2
		nright = span - 1
		for i := range n {
			if i+1 > half && nright != n-1 {
				nleft++
				nright++
			}
			if v, ok := loessEstimate(y, n, span, degree, float64(i), nleft, nright, w, userw, rw); ok {
				ys[i] = v
			} else {
				ys[i] = y[i]
			}
		}
		return
	}

	for i := range n {
		if v, ok := loessEstimate(y, n, span, degree, float64(i), nleft, nright, w, userw, rw); ok {
			ys[i] = v
		} else {
			ys[i] = y[i]
		}
	}
}

// movingAverage writes the running mean of width span over x[0..n-1] into ave,
// which must hold n-span+1 values.
func movingAverage(x []float64, n, span int, ave []float64) {
	newN := n - span + 1
	flen := float64(span)
	var v float64
	for i := range span {
		v += x[i]
	}
	ave[0] = v / flen
	for j := 1; j < newN; j++ {
		v = v - x[j-1] + x[span+j-1]
		ave[j] = v / flen
	}
}
