/*
 * diis.go, part of confinement.
 *
 * Copyright 2026 Hugo Astrom
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package atom

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

//A DIIS weight larger than this means the extrapolation subspace has gone
//linearly dependent and the oldest snapshots should be dropped.
const maxDIISWeight = 1e3

//accEntry is one snapshot of the iteration: the effective operators and
//densities of every spin channel as supermatrices, the total energy, the
//commutator residuals and their scalar error.
type accEntry struct {
	f   []*mat.Dense
	p   []*mat.Dense
	res []*mat.Dense
	e   float64
	err float64
}

//accelerator keeps a bounded first-in-first-out history of iteration
//snapshots and extrapolates an improved operator from them. Far from the
//fixed point it minimizes the ADIIS energy surrogate, close to it it solves
//the C1-DIIS least-squares problem on the residuals, and in between the two
//weight sets are blended linearly on the error metric. The history belongs
//to one SCF run and is never shared.
type accelerator struct {
	s     *mat.Dense //overlap supermatrix
	sinvh *mat.Dense
	nspin int
	order int
	eps   float64 //pure ADIIS above this error
	thr   float64 //pure C1-DIIS below this error
	hist  []*accEntry
	log   *slog.Logger
}

func newAccelerator(s, sinvh *mat.Dense, nspin, order int, eps, thr float64, log *slog.Logger) *accelerator {
	return &accelerator{s: s, sinvh: sinvh, nspin: nspin, order: order, eps: eps, thr: thr, log: log}
}

//update pushes a snapshot into the history, evicting the oldest one beyond
//the configured order, and returns the root-mean-square of the commutator
//residual FPS-SPF in the orthonormal basis.
func (acc *accelerator) update(f, p []*mat.Dense, e float64) float64 {
	entry := &accEntry{e: e, err: 0}
	entry.f = make([]*mat.Dense, acc.nspin)
	entry.p = make([]*mat.Dense, acc.nspin)
	entry.res = make([]*mat.Dense, acc.nspin)
	sum := 0.0
	nelem := 0
	for s := 0; s < acc.nspin; s++ {
		entry.f[s] = mat.DenseCopyOf(f[s])
		entry.p[s] = mat.DenseCopyOf(p[s])
		r := acc.residual(f[s], p[s])
		entry.res[s] = r
		sum += frobInner(r, r)
		rows, cols := r.Dims()
		nelem += rows * cols
	}
	entry.err = math.Sqrt(sum / float64(nelem))
	acc.hist = append(acc.hist, entry)
	if len(acc.hist) > acc.order {
		acc.hist = acc.hist[1:]
	}
	return entry.err
}

//residual builds Sinvh^T (FPS - SPF) Sinvh.
func (acc *accelerator) residual(f, p *mat.Dense) *mat.Dense {
	n, _ := f.Dims()
	fps := mat.NewDense(n, n, nil)
	fps.Mul(f, p)
	fps.Mul(fps, acc.s)
	spf := mat.NewDense(n, n, nil)
	spf.Mul(acc.s, p)
	spf.Mul(spf, f)
	fps.Sub(fps, spf)
	r := mat.NewDense(n, n, nil)
	r.Mul(acc.sinvh.T(), fps)
	r.Mul(r, acc.sinvh)
	return r
}

//extrapolate overwrites f with the weighted combination of the stored
//operators. With a single snapshot the operator passes through unchanged.
func (acc *accelerator) extrapolate(f []*mat.Dense) error {
	n := len(acc.hist)
	if n == 0 {
		return stateError(ErrEmptyHistory)
	}
	if n == 1 {
		return nil
	}
	errNew := acc.hist[n-1].err

	var w []float64
	switch {
	case errNew >= acc.eps:
		w = acc.adiisWeights()
	case errNew <= acc.thr:
		w = acc.c1Weights()
	default:
		lambda := (acc.eps - errNew) / (acc.eps - acc.thr)
		wc := acc.c1Weights()
		wa := acc.adiisWeights()
		w = make([]float64, n)
		for i := range w {
			w[i] = lambda*wc[i] + (1-lambda)*wa[i]
		}
	}

	for s := 0; s < acc.nspin; s++ {
		f[s].Scale(w[n-1], acc.hist[n-1].f[s])
		var tmp mat.Dense
		for i := 0; i < n-1; i++ {
			if w[i] == 0 {
				continue
			}
			tmp.Scale(w[i], acc.hist[i].f[s])
			f[s].Add(f[s], &tmp)
		}
	}
	return nil
}

//newestOnly is the fallback weight set: take the latest operator as is.
func (acc *accelerator) newestOnly() []float64 {
	w := make([]float64, len(acc.hist))
	w[len(w)-1] = 1
	return w
}

//c1Weights solves the C1-DIIS least-squares problem on the residual inner
//products. When the linear system is singular or produces runaway weights
//the oldest snapshots are dropped from the subspace until it behaves; a
//subspace of one falls back to the newest operator.
func (acc *accelerator) c1Weights() []float64 {
	n := len(acc.hist)
	for m := n; m >= 2; m-- {
		off := n - m
		b := mat.NewDense(m+1, m+1, nil)
		for i := 0; i < m; i++ {
			for j := i; j < m; j++ {
				v := 0.0
				for s := 0; s < acc.nspin; s++ {
					v += frobInner(acc.hist[off+i].res[s], acc.hist[off+j].res[s])
				}
				b.Set(i, j, v)
				b.Set(j, i, v)
			}
			b.Set(i, m, -1)
			b.Set(m, i, -1)
		}
		rhs := mat.NewVecDense(m+1, nil)
		rhs.SetVec(m, -1)

		var lu mat.LU
		lu.Factorize(b)
		sol := mat.NewVecDense(m+1, nil)
		if err := lu.SolveVecTo(sol, false, rhs); err != nil {
			continue
		}
		ok := true
		for i := 0; i < m; i++ {
			wi := sol.AtVec(i)
			if math.IsNaN(wi) || math.IsInf(wi, 0) || math.Abs(wi) > maxDIISWeight {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		w := make([]float64, n)
		for i := 0; i < m; i++ {
			w[off+i] = sol.AtVec(i)
		}
		return w
	}
	return acc.newestOnly()
}

//adiisWeights minimizes the ADIIS energy surrogate
//
//	E(c) = 2 sum_i c_i <P_i-P_n, F_n> + sum_ij c_i c_j <P_i-P_n, F_j-F_n>
//
//over the simplex, parameterizing c_i = x_i^2/sum(x^2) so the weights stay
//non-negative and normalized. The surrogate needs no residuals, which is
//what makes it usable far from the fixed point where the commutator metric
//is meaningless. If the minimizer fails the newest operator is kept.
func (acc *accelerator) adiisWeights() []float64 {
	n := len(acc.hist)
	newest := acc.hist[n-1]

	dp := make([][]*mat.Dense, n)
	df := make([][]*mat.Dense, n)
	for i := 0; i < n; i++ {
		dp[i] = make([]*mat.Dense, acc.nspin)
		df[i] = make([]*mat.Dense, acc.nspin)
		for s := 0; s < acc.nspin; s++ {
			rows, cols := newest.p[s].Dims()
			dpm := mat.NewDense(rows, cols, nil)
			dpm.Sub(acc.hist[i].p[s], newest.p[s])
			dp[i][s] = dpm
			dfm := mat.NewDense(rows, cols, nil)
			dfm.Sub(acc.hist[i].f[s], newest.f[s])
			df[i][s] = dfm
		}
	}
	lin := make([]float64, n)
	quad := make([][]float64, n)
	for i := 0; i < n; i++ {
		for s := 0; s < acc.nspin; s++ {
			lin[i] += 2 * frobInner(dp[i][s], newest.f[s])
		}
		quad[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			for s := 0; s < acc.nspin; s++ {
				quad[i][j] += frobInner(dp[i][s], df[j][s])
			}
		}
	}

	surrogate := func(x []float64) float64 {
		norm := 0.0
		for _, xi := range x {
			norm += xi * xi
		}
		if norm == 0 {
			return math.Inf(1)
		}
		c := make([]float64, len(x))
		for i, xi := range x {
			c[i] = xi * xi / norm
		}
		e := 0.0
		for i := 0; i < len(c); i++ {
			e += c[i] * lin[i]
			for j := 0; j < len(c); j++ {
				e += c[i] * c[j] * quad[i][j]
			}
		}
		return e
	}

	problem := optimize.Problem{Func: surrogate}
	x0 := make([]float64, n)
	for i := range x0 {
		x0[i] = 1
	}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil || result == nil {
		acc.log.Debug("adiis minimization failed, keeping newest operator", "error", err)
		return acc.newestOnly()
	}
	norm := 0.0
	for _, xi := range result.X {
		norm += xi * xi
	}
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return acc.newestOnly()
	}
	w := make([]float64, n)
	for i, xi := range result.X {
		w[i] = xi * xi / norm
	}
	return w
}
