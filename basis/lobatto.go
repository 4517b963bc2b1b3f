/*
 * lobatto.go, part of confinement.
 * Gauss-Lobatto rules: node placement for the element polynomials
 * and the reference quadrature on [-1,1].
 *
 */

package basis

import "math"

//Lobatto returns the n-point Gauss-Lobatto nodes and weights on [-1,1],
//in ascending node order. The endpoints are always included, which is what
//makes these nodes suitable for C0-continuous element polynomials.
//The rule integrates polynomials up to degree 2n-3 exactly and the weights
//sum to 2. Orders below 2 are not defined.
func Lobatto(n int) ([]float64, []float64, error) {
	if n < 2 {
		return nil, nil, Error{message: ErrLobattoOrder, deco: []string{"Lobatto"}}
	}
	x := make([]float64, n)
	xold := make([]float64, n)
	//p holds the Legendre polynomials P_0..P_{n-1} evaluated at every
	//current node guess, built column by column from the recurrence.
	p := make([]float64, n*n)
	for i := 0; i < n; i++ {
		x[i] = math.Cos(math.Pi * float64(i) / float64(n-1))
		xold[i] = 2.0
	}
	const tol = 1e-15
	for it := 0; it < 200; it++ {
		delta := 0.0
		for i := range x {
			if d := math.Abs(x[i] - xold[i]); d > delta {
				delta = d
			}
		}
		if delta <= tol {
			break
		}
		copy(xold, x)
		for i := 0; i < n; i++ {
			p[i] = 1.0
			p[i+n] = x[i]
		}
		for j := 2; j < n; j++ {
			fj := float64(j)
			for i := 0; i < n; i++ {
				p[i+j*n] = ((2*fj-1)*x[i]*p[i+(j-1)*n] - (fj-1)*p[i+(j-2)*n]) / fj
			}
		}
		for i := 0; i < n; i++ {
			x[i] = xold[i] - (x[i]*p[i+(n-1)*n]-p[i+(n-2)*n])/(float64(n)*p[i+(n-1)*n])
		}
	}
	//the cosine seed runs from +1 down to -1
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		pn := legendre(n-1, x[i])
		w[i] = 2.0 / (float64(n-1) * float64(n) * pn * pn)
	}
	return x, w, nil
}

//legendre evaluates the Legendre polynomial P_n at y by the usual
//three-term recurrence.
func legendre(n int, y float64) float64 {
	if n == 0 {
		return 1.0
	}
	pm, p := 1.0, y
	for j := 2; j <= n; j++ {
		fj := float64(j)
		pm, p = p, ((2*fj-1)*y*p-(fj-1)*pm)/fj
	}
	return p
}
