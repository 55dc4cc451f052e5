package vmath

// Dot returns x1*x2 + y1*y2
// Callers keep components below 2^31 so the sum stays inside int64
func Dot(x1, y1, x2, y2 int64) int64 {
	return x1*x2 + y1*y2
}

// MagnitudeSq returns squared length without sqrt
func MagnitudeSq(x, y int64) int64 {
	return x*x + y*y
}

// Magnitude returns floor of the Euclidean length
func Magnitude(x, y int64) int64 {
	return Sqrt(x*x + y*y)
}

// ScaleTo returns the vector (x, y) rescaled to length l, truncating toward zero
// Zero vector stays zero
func ScaleTo(x, y, l int64) (sx, sy int64) {
	mag := Magnitude(x, y)
	if mag == 0 {
		return 0, 0
	}
	return MulDiv(x, l, mag), MulDiv(y, l, mag)
}

// Project returns the signed length of (x, y) along the direction (nx, ny)
func Project(x, y, nx, ny int64) int64 {
	mag := Magnitude(nx, ny)
	if mag == 0 {
		return 0
	}
	return MulDiv(x, nx, mag) + MulDiv(y, ny, mag)
}

// Reduce halves both components until each fits in 30 bits
// Direction is preserved (up to truncation), so the result is safe for Dot and Magnitude
// Halving truncates toward zero, so Reduce(-x, -y) is the exact negation of Reduce(x, y)
func Reduce(x, y int64) (rx, ry int64) {
	const limit = 1 << 30
	for Abs(x) >= limit || Abs(y) >= limit {
		x /= 2
		y /= 2
	}
	return x, y
}
