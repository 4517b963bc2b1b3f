/*
 * diis_test.go, part of confinement.
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
	"io"
	"log/slog"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAccelerator(order int, eps, thr float64) *accelerator {
	return newAccelerator(eye(2), eye(2), 1, order, eps, thr, quietLog())
}

func TestAcceleratorHistory(Te *testing.T) {
	acc := testAccelerator(3, 1e-1, 1e-2)
	f := []*mat.Dense{mat.NewDense(2, 2, []float64{0, 1, 1, 0})}
	p := []*mat.Dense{mat.NewDense(2, 2, []float64{1, 0, 0, 0})}
	for i := 0; i < 5; i++ {
		acc.update(f, p, float64(i))
	}
	if len(acc.hist) != 3 {
		Te.Fatalf("history holds %d entries, want 3", len(acc.hist))
	}
	//first in, first out
	for i, want := range []float64{2, 3, 4} {
		if acc.hist[i].e != want {
			Te.Errorf("entry %d has energy %v, want %v", i, acc.hist[i].e, want)
		}
	}
	//snapshots must not alias the caller's matrices
	f[0].Set(0, 1, 99)
	if acc.hist[2].f[0].At(0, 1) == 99 {
		Te.Error("the history aliases a caller matrix")
	}
}

//TestResidualError pushes one snapshot with a known commutator and checks
//the root-mean-square metric: FP-PF has entries 0,-1,1,0, so the RMS over
//the four elements is sqrt(1/2).
func TestResidualError(Te *testing.T) {
	acc := testAccelerator(5, 1e-1, 1e-2)
	f := []*mat.Dense{mat.NewDense(2, 2, []float64{0, 1, 1, 0})}
	p := []*mat.Dense{mat.NewDense(2, 2, []float64{1, 0, 0, 0})}
	err := acc.update(f, p, -1.0)
	if math.Abs(err-math.Sqrt(0.5)) > 1e-12 {
		Te.Errorf("residual error: got %v want %v", err, math.Sqrt(0.5))
	}
	//a commuting pair has no residual
	fc := []*mat.Dense{mat.NewDense(2, 2, []float64{2, 0, 0, 1})}
	pc := []*mat.Dense{mat.NewDense(2, 2, []float64{1, 0, 0, 0})}
	if err := acc.update(fc, pc, -1.0); err != 0 {
		Te.Errorf("commuting pair has residual %v", err)
	}
}

func TestExtrapolateEmptyAndSingle(Te *testing.T) {
	acc := testAccelerator(5, 1e-1, 1e-2)
	f := []*mat.Dense{mat.NewDense(2, 2, []float64{0, 1, 1, 0})}
	if err := acc.extrapolate(f); Kind(err) != ErrPrecondition {
		Te.Errorf("empty history: got kind %v", Kind(err))
	}
	p := []*mat.Dense{mat.NewDense(2, 2, []float64{1, 0, 0, 0})}
	acc.update(f, p, -1.0)
	probe := []*mat.Dense{mat.NewDense(2, 2, []float64{5, 6, 6, 5})}
	if err := acc.extrapolate(probe); err != nil {
		Te.Fatal(err)
	}
	if probe[0].At(0, 0) != 5 || probe[0].At(0, 1) != 6 {
		Te.Error("a single-entry history must pass the operator through")
	}
}

//TestC1Extrapolation drives two snapshots whose residual overlaps are known
//in closed form. The bordered system gives weights 2/3 and 1/3, so the
//extrapolated operator has off-diagonal 4/3.
func TestC1Extrapolation(Te *testing.T) {
	//thresholds chosen so the second update lands in the pure C1 branch
	acc := testAccelerator(5, 1e3, 1e2)
	f1 := []*mat.Dense{mat.NewDense(2, 2, []float64{0, 1, 1, 0})}
	p1 := []*mat.Dense{mat.NewDense(2, 2, []float64{1, 0, 0, 0})}
	acc.update(f1, p1, -1.0)
	f2 := []*mat.Dense{mat.NewDense(2, 2, []float64{0, 2, 2, 0})}
	p2 := []*mat.Dense{mat.NewDense(2, 2, []float64{0, 0, 0, 1})}
	acc.update(f2, p2, -1.1)

	w := acc.c1Weights()
	if math.Abs(w[0]-2.0/3.0) > 1e-10 || math.Abs(w[1]-1.0/3.0) > 1e-10 {
		Te.Fatalf("C1 weights: got %v want [2/3 1/3]", w)
	}
	out := []*mat.Dense{mat.NewDense(2, 2, nil)}
	if err := acc.extrapolate(out); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(out[0].At(0, 1)-4.0/3.0) > 1e-10 || math.Abs(out[0].At(0, 0)) > 1e-10 {
		Te.Errorf("extrapolated operator: %v", mat.Formatted(out[0]))
	}
}

//TestADIISWeights checks the surrogate minimizer on two snapshots built so
//the minimum lies first at the newest operator alone, then at an even mix.
func TestADIISWeights(Te *testing.T) {
	acc := testAccelerator(5, 1e-1, 1e-2)
	//E(c0) = 2*c0 + 2*c0^2, minimal at c0 = 0
	f0 := []*mat.Dense{mat.NewDense(2, 2, []float64{3, 0, 0, 0})}
	p0 := []*mat.Dense{mat.NewDense(2, 2, []float64{1, 0, 0, 0})}
	f1 := []*mat.Dense{mat.NewDense(2, 2, []float64{2, 0, 0, 1})}
	p1 := []*mat.Dense{mat.NewDense(2, 2, []float64{0, 0, 0, 1})}
	acc.update(f0, p0, -1.0)
	acc.update(f1, p1, -1.1)
	w := acc.adiisWeights()
	if sum := w[0] + w[1]; math.Abs(sum-1) > 1e-6 {
		Te.Errorf("weights sum to %v", sum)
	}
	if w[1] < 0.99 {
		Te.Errorf("expected the newest operator to dominate, got %v", w)
	}

	//E(c0) = -2*c0 + 2*c0^2, minimal at c0 = 1/2
	acc = testAccelerator(5, 1e-1, 1e-2)
	f0 = []*mat.Dense{mat.NewDense(2, 2, []float64{1, 0, 0, 0})}
	f1 = []*mat.Dense{mat.NewDense(2, 2, []float64{1, 0, 0, 2})}
	acc.update(f0, p0, -1.0)
	acc.update(f1, p1, -1.1)
	w = acc.adiisWeights()
	if math.Abs(w[0]-0.5) > 0.02 || math.Abs(w[1]-0.5) > 0.02 {
		Te.Errorf("expected an even mix, got %v", w)
	}
}

func TestSupermatrices(Te *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 2, []float64{5, 6, 7, 8})
	sup := superCube([]*mat.Dense{a, b})
	if r, c := sup.Dims(); r != 4 || c != 4 {
		Te.Fatalf("supermatrix dims %dx%d", r, c)
	}
	if sup.At(0, 1) != 2 || sup.At(2, 3) != 6 || sup.At(3, 2) != 7 {
		Te.Errorf("supermatrix blocks misplaced:\n%v", mat.Formatted(sup))
	}
	if sup.At(0, 2) != 0 || sup.At(3, 1) != 0 {
		Te.Error("off-diagonal blocks are not zero")
	}
	back := miniMat(sup, 2)
	if len(back) != 2 || back[0].At(1, 0) != 3 || back[1].At(1, 1) != 8 {
		Te.Error("miniMat does not invert superCube")
	}
	back[0].Set(0, 0, 99)
	if sup.At(0, 0) == 99 {
		Te.Error("miniMat blocks alias the supermatrix")
	}

	rep := superMat(a, 3)
	if r, c := rep.Dims(); r != 6 || c != 6 {
		Te.Fatalf("replicated dims %dx%d", r, c)
	}
	if rep.At(4, 5) != 2 || rep.At(0, 1) != 2 {
		Te.Error("replicated blocks differ")
	}
}

//TestTraceProducts pins the difference between the two inner products on an
//asymmetric pair.
func TestTraceProducts(Te *testing.T) {
	a := mat.NewDense(2, 2, []float64{0, 1, 0, 0})
	b := mat.NewDense(2, 2, []float64{0, 5, 7, 0})
	if got := trProd(a, b); got != 7 {
		Te.Errorf("trace product: got %v want 7", got)
	}
	if got := frobInner(a, b); got != 5 {
		Te.Errorf("Frobenius product: got %v want 5", got)
	}
	s := mat.NewDense(2, 2, []float64{2, 3, 3, 4})
	if trProd(s, s) != frobInner(s, s) {
		Te.Error("the products must agree on symmetric matrices")
	}
}
