/*
 * supermat.go, part of confinement.
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

import "gonum.org/v1/gonum/mat"

//The effective operator depends on the angular channel, so the acceleration
//history works on block-diagonal supermatrices with one block per channel.

//superMat replicates m along the diagonal of an nrep-block supermatrix.
func superMat(m *mat.Dense, nrep int) *mat.Dense {
	n, _ := m.Dims()
	sup := mat.NewDense(n*nrep, n*nrep, nil)
	for l := 0; l < nrep; l++ {
		sup.Slice(l*n, (l+1)*n, l*n, (l+1)*n).(*mat.Dense).Copy(m)
	}
	return sup
}

//superCube lays the channel matrices along the diagonal of a supermatrix.
func superCube(ms []*mat.Dense) *mat.Dense {
	n, _ := ms[0].Dims()
	sup := mat.NewDense(n*len(ms), n*len(ms), nil)
	for l, m := range ms {
		sup.Slice(l*n, (l+1)*n, l*n, (l+1)*n).(*mat.Dense).Copy(m)
	}
	return sup
}

//miniMat splits a supermatrix back into its nrep diagonal blocks.
func miniMat(sup *mat.Dense, nrep int) []*mat.Dense {
	dim, _ := sup.Dims()
	n := dim / nrep
	ms := make([]*mat.Dense, nrep)
	for l := 0; l < nrep; l++ {
		ms[l] = mat.DenseCopyOf(sup.Slice(l*n, (l+1)*n, l*n, (l+1)*n))
	}
	return ms
}

//trProd returns the trace of a*b.
func trProd(a, b *mat.Dense) float64 {
	r, c := a.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += a.At(i, j) * b.At(j, i)
		}
	}
	return sum
}

//frobInner returns the element-wise inner product of a and b. It equals
//trProd when either matrix is symmetric.
func frobInner(a, b *mat.Dense) float64 {
	r, c := a.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += a.At(i, j) * b.At(i, j)
		}
	}
	return sum
}
