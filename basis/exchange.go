/*
 * exchange.go, part of confinement.
 * Spherically averaged exact exchange from the multipole expansion of the
 * Coulomb kernel.
 *
 */

package basis

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

//Exchange returns the per-channel exact-exchange operators for the
//capacity-normalized channel densities fr (index = angular momentum,
//entries are mean occupations per degenerate suborbital):
//
//  K_l = - sum_{l'} sum_k (2l'+1) tj(l,k,l')^2 Phi^k[fr_{l'}]
//
//where tj is the 3j symbol with zero projections and Phi^k contracts the
//density kernel with r_<^k / r_>^(k+1) on the quadrature grid. The exchange
//energy of a spin channel is then (1/2) sum_l tr(P_l K_l) with the
//integer-weighted P_l, for restricted and unrestricted occupations alike.
func (b *Radial) Exchange(fr []*mat.Dense) ([]*mat.Dense, error) {
	if len(fr) == 0 {
		return nil, Error{message: ErrNoChannels, deco: []string{"Exchange"}}
	}
	lmax := len(fr) - 1
	nq := len(b.r)
	//density kernels D_{l'}(r_p, r_q) on the grid
	g := make([]*mat.Dense, lmax+1)
	for lp := 0; lp <= lmax; lp++ {
		var bp, gg mat.Dense
		bp.Mul(b.bf, fr[lp])
		gg.Mul(&bp, b.bf.T())
		g[lp] = &gg
	}
	out := make([]*mat.Dense, lmax+1)
	m := mat.NewDense(nq, nq, nil)
	phi := mat.NewDense(nq, b.nbf, nil)
	for l := 0; l <= lmax; l++ {
		k := mat.NewDense(b.nbf, b.nbf, nil)
		for lp := 0; lp <= lmax; lp++ {
			for kk := abs(l - lp); kk <= l+lp; kk += 2 {
				c3 := threeJ000(l, kk, lp)
				if c3 == 0 {
					continue
				}
				coef := -float64(2*lp+1) * c3 * c3
				kern := b.kernel(kk)
				m.MulElem(kern, g[lp])
				phi.Mul(m, b.bf)
				var term mat.Dense
				term.Mul(b.bf.T(), phi)
				term.Scale(coef, &term)
				k.Add(k, &term)
			}
		}
		out[l] = k
	}
	return out, nil
}

//kernel returns the weighted multipole kernel
//W^k_pq = w_p w_q r_<^k / r_>^(k+1) on the quadrature grid, building and
//caching it on first use. Safe for concurrent callers.
func (b *Radial) kernel(k int) *mat.Dense {
	b.kmu.Lock()
	defer b.kmu.Unlock()
	if w, ok := b.kern[k]; ok {
		return w
	}
	nq := len(b.r)
	w := mat.NewDense(nq, nq, nil)
	for p := 0; p < nq; p++ {
		for q := p; q < nq; q++ {
			rmin, rmaj := b.r[p], b.r[q]
			if rmin > rmaj {
				rmin, rmaj = rmaj, rmin
			}
			v := b.w[p] * b.w[q] * math.Pow(rmin/rmaj, float64(k)) / rmaj
			w.Set(p, q, v)
			w.Set(q, p, v)
		}
	}
	b.kern[k] = w
	return w
}

//threeJ000 is the Wigner 3j symbol (l1 l2 l3; 0 0 0) in closed form. It
//vanishes unless l1+l2+l3 is even and the triangle condition holds.
func threeJ000(l1, l2, l3 int) float64 {
	j := l1 + l2 + l3
	if j%2 != 0 {
		return 0
	}
	if l3 < abs(l1-l2) || l3 > l1+l2 {
		return 0
	}
	g := j / 2
	s := math.Sqrt(fact(j-2*l1) * fact(j-2*l2) * fact(j-2*l3) / fact(j+1))
	v := s * fact(g) / (fact(g-l1) * fact(g-l2) * fact(g-l3))
	if g%2 != 0 {
		v = -v
	}
	return v
}

func fact(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
