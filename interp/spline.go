package interp

// naturalSpline returns the second derivatives of the natural cubic spline
// through every series of y (sample-major, n series per sample row).
//
// The tridiagonal system only depends on x, so the forward sweep factors are
// shared and each elimination step updates a whole sample row.
func naturalSpline(x, y []float64, n int) []float64 {
	m := len(x)
	m2 := make([]float64, m*n)
	if m < 3 {
		return m2
	}

	// Interior unknowns j = 1..m-2:
	//   h[j-1]·M[j-1] + 2(h[j-1]+h[j])·M[j] + h[j]·M[j+1] = 6·(s[j] - s[j-1])
	// with M[0] = M[m-1] = 0 and s[j] the slope of interval j.
	cp := make([]float64, m)
	for j := 1; j < m-1; j++ {
		hl := x[j] - x[j-1]
		hr := x[j+1] - x[j]
		diag := 2 * (hl + hr)
		if j > 1 {
			diag -= hl * cp[j-1]
		}
		cp[j] = hr / diag

		row := m2[j*n : (j+1)*n]
		prev := m2[(j-1)*n : j*n]
		yl := y[(j-1)*n : j*n]
		yc := y[j*n : (j+1)*n]
		yr := y[(j+1)*n : (j+2)*n]
		for s := range row {
			d := 6 * ((yr[s]-yc[s])/hr - (yc[s]-yl[s])/hl)
			if j > 1 {
				d -= hl * prev[s]
			}
			row[s] = d / diag
		}
	}

	for j := m - 3; j >= 1; j-- {
		row := m2[j*n : (j+1)*n]
		next := m2[(j+1)*n : (j+2)*n]
		for s := range row {
			row[s] -= cp[j] * next[s]
		}
	}
	return m2
}
