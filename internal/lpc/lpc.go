// Package lpc implements linear-predictive-coding analysis: autocorrelation
// followed by Levinson-Durbin recursion. It is used only by the iterative
// Wiener suppressor (spec §4.5 wiener-iter).
//
// The original toolkit's lpc.c did not survive distillation; only its
// prototypes (lpc.h: lpc_from_data, lpc_predict) did. This reimplements the
// standard autocorrelation-method LPC the prototypes describe.
package lpc

// FromData fits an order-m all-pole model to the first n samples of data,
// returning the m LPC coefficients a[1..m] (a[0] = 1 is implicit and not
// part of the returned slice) via the Levinson-Durbin recursion.
//
// If the prediction error collapses to (near) zero, FromData returns a
// zero-valued coefficient vector instead of propagating NaN/Inf, per spec
// §4.3.
func FromData(data []float64, n, order int) []float64 {
	if n > len(data) {
		n = len(data)
	}

	r := autocorrelate(data[:n], order)

	// a is 1-indexed: a[1..order] are the LPC coefficients, a[0] is the
	// implicit unit leading term of the Levinson-Durbin recursion.
	a := make([]float64, order+1)
	zero := make([]float64, order)
	if r[0] == 0 {
		return zero
	}

	errEnergy := r[0]
	for i := 1; i <= order; i++ {
		acc := r[i]
		for j := 1; j < i; j++ {
			acc -= a[j] * r[i-j]
		}

		if errEnergy == 0 {
			return zero
		}
		k := acc / errEnergy

		prev := append([]float64(nil), a...)
		for j := 1; j < i; j++ {
			a[j] = prev[j] - k*prev[i-j]
		}
		a[i] = k

		errEnergy *= 1 - k*k
		if errEnergy <= 0 {
			errEnergy = 0
		}
	}

	return a[1:]
}

// autocorrelate returns r[0..order] where r[j] = sum_{i=0}^{n-1-j} x[i]*x[i+j].
func autocorrelate(x []float64, order int) []float64 {
	n := len(x)
	r := make([]float64, order+1)
	for j := 0; j <= order; j++ {
		var sum float64
		for i := 0; i < n-j; i++ {
			sum += x[i] * x[i+j]
		}
		r[j] = sum
	}
	return r
}

// Predict runs the order-m LPC synthesis filter coeff over n samples of
// data in place, using prime as the m-sample history preceding data[0].
// This mirrors the original toolkit's lpc_predict for completeness; the
// suppressors in this module only need FromData.
func Predict(coeff []float64, prime []float64, data []float64) {
	m := len(coeff)
	history := make([]float64, m+len(data))
	copy(history, prime)
	copy(history[m:], data)

	for i := 0; i < len(data); i++ {
		var pred float64
		for j := 0; j < m; j++ {
			pred += coeff[j] * history[m+i-1-j]
		}
		history[m+i] += pred
		data[i] = history[m+i]
	}
}
