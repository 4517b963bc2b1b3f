/*
 * xc_test.go, part of confinement.
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

package xc

import (
	"math"
	"testing"

	"github.com/hugoastrom/confinement/basis"
	"gonum.org/v1/gonum/mat"
)

//TestSlaterDerivative checks the potential against a numerical derivative
//of the energy density.
func TestSlaterDerivative(Te *testing.T) {
	for _, n := range []float64{1e-3, 0.1, 0.9, 4.2} {
		h := n * 1e-6
		ep, _ := slater(n + h)
		em, _ := slater(n - h)
		_, v := slater(n)
		fd := (ep - em) / (2 * h)
		if math.Abs(fd-v) > 1e-5*math.Abs(v) {
			Te.Errorf("slater potential at n=%v: got %v, derivative gives %v", n, v, fd)
		}
	}
}

//TestPW92Derivative checks both spin potentials against numerical
//derivatives of the energy density, including a fully polarized point.
func TestPW92Derivative(Te *testing.T) {
	f := func(na, nb float64) float64 {
		n := na + nb
		e, _, _ := pw92(n, (na-nb)/n)
		return e
	}
	cases := [][2]float64{{0.3, 0.3}, {0.5, 0.1}, {0.02, 0.07}}
	for _, c := range cases {
		na, nb := c[0], c[1]
		_, va, vb := pw92(na+nb, (na-nb)/(na+nb))
		h := 1e-7
		fda := (f(na+h, nb) - f(na-h, nb)) / (2 * h)
		fdb := (f(na, nb+h) - f(na, nb-h)) / (2 * h)
		if math.Abs(fda-va) > 1e-5*math.Abs(va) {
			Te.Errorf("pw92 up potential at (%v,%v): got %v, derivative gives %v", na, nb, va, fda)
		}
		if math.Abs(fdb-vb) > 1e-5*math.Abs(vb) {
			Te.Errorf("pw92 down potential at (%v,%v): got %v, derivative gives %v", na, nb, vb, fdb)
		}
	}
	//fully polarized: only the occupied spin has a well-defined derivative
	na := 0.4
	_, va, _ := pw92(na, 1)
	h := 1e-7
	fda := (f(na+h, 0) - f(na-h, 0)) / (2 * h)
	if math.Abs(fda-va) > 1e-5*math.Abs(va) {
		Te.Errorf("pw92 potential at zeta=1: got %v, derivative gives %v", va, fda)
	}
}

//TestSlaterSpinScaling checks Ex[n/2,n/2] = Ex[n].
func TestSlaterSpinScaling(Te *testing.T) {
	for _, n := range []float64{0.01, 0.67, 3.1} {
		e, v := slater(n)
		ep, va, vb := slaterPolarized(n/2, n/2)
		if math.Abs(e-ep) > 1e-14*math.Abs(e) {
			Te.Errorf("spin scaling broken at n=%v: %v vs %v", n, e, ep)
		}
		if va != vb || math.Abs(va-v) > 1e-14*math.Abs(v) {
			Te.Errorf("spin potentials at n=%v: %v %v, unpolarized %v", n, va, vb, v)
		}
	}
}

func TestParse(Te *testing.T) {
	cases := []struct {
		name string
		id   int
	}{
		{"", None},
		{"none", None},
		{"lda_x", Slater},
		{" Slater ", Slater},
		{"LDA_C_PW", PW92},
		{"pw92", PW92},
	}
	for _, tc := range cases {
		id, err := Parse(tc.name)
		if err != nil {
			Te.Errorf("Parse(%q): %v", tc.name, err)
		}
		if id != tc.id {
			Te.Errorf("Parse(%q): got %d want %d", tc.name, id, tc.id)
		}
	}
	if _, err := Parse("b3lyp"); err == nil {
		Te.Error("an unknown functional parsed without error")
	}
}

func TestCheck(Te *testing.T) {
	b := gridBasis(Te)
	g := NewGrid(b)
	if err := g.Check(Slater, nil, PW92, nil); err != nil {
		Te.Error(err)
	}
	if err := g.Check(PW92, nil, None, nil); err == nil {
		Te.Error("a correlation id was accepted as exchange")
	}
	if err := g.Check(None, nil, Slater, nil); err == nil {
		Te.Error("an exchange id was accepted as correlation")
	}
	if err := g.Check(Slater, []float64{0.5}, None, nil); err == nil {
		Te.Error("parameters were accepted by a parameter-free functional")
	}
}

func gridBasis(Te *testing.T) *basis.Radial {
	o := basis.DefaultOptions()
	o.Rmax(30)
	o.Elements(5)
	o.Nodes(10)
	o.Quadrature(20)
	b, err := basis.New(2, o)
	if err != nil {
		Te.Fatal(err)
	}
	return b
}

func guessDensity(Te *testing.T, b *basis.Radial) *mat.Dense {
	h := mat.NewDense(b.Nbf(), b.Nbf(), nil)
	h.Add(b.Kinetic(), b.Nuclear())
	_, c, err := b.EigGSym(h)
	if err != nil {
		Te.Fatal(err)
	}
	p := mat.NewDense(b.Nbf(), b.Nbf(), nil)
	p.Outer(2, c.ColView(0), c.ColView(0))
	return p
}

//TestEvalKnownExchange integrates Dirac exchange over the He+ 1s density
//with two electrons in it; the analytic value is -1.072108.
func TestEvalKnownExchange(Te *testing.T) {
	b := gridBasis(Te)
	g := NewGrid(b)
	p := guessDensity(Te, b)
	_, ex, nel, err := g.Eval(Slater, nil, None, nil, p)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(nel-2) > 1e-6 {
		Te.Errorf("grid electron count: got %v want 2", nel)
	}
	if math.Abs(ex+1.072108) > 1e-3 {
		Te.Errorf("LDA exchange: got %v want -1.072108", ex)
	}
}

//TestEvalPolarizedConsistency splits the same density evenly over two spins
//and requires the polarized path to reproduce the unpolarized one.
func TestEvalPolarizedConsistency(Te *testing.T) {
	b := gridBasis(Te)
	g := NewGrid(b)
	p := guessDensity(Te, b)
	var half mat.Dense
	half.Scale(0.5, p)
	v, ex, nel, err := g.Eval(Slater, nil, PW92, nil, p)
	if err != nil {
		Te.Fatal(err)
	}
	va, vb, ex2, nel2, err := g.EvalPolarized(Slater, nil, PW92, nil, &half, &half)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(ex-ex2) > 1e-10 || math.Abs(nel-nel2) > 1e-10 {
		Te.Errorf("polarized energies differ: %v vs %v, counts %v vs %v", ex, ex2, nel, nel2)
	}
	n, _ := v.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if d := math.Abs(v.At(i, j) - va.At(i, j)); d > 1e-10 {
				Te.Fatalf("potential matrices differ at %d,%d by %v", i, j, d)
			}
			if d := math.Abs(va.At(i, j) - vb.At(i, j)); d > 1e-12 {
				Te.Fatalf("spin potentials differ at %d,%d by %v", i, j, d)
			}
		}
	}
	//the grid potential values follow the same path
	pv, err := g.Potential(Slater, nil, PW92, nil, p)
	if err != nil {
		Te.Fatal(err)
	}
	pvab, err := g.Potential(Slater, nil, PW92, nil, &half, &half)
	if err != nil {
		Te.Fatal(err)
	}
	for pt := range pv[0] {
		if d := math.Abs(pv[0][pt] - pvab[0][pt]); d > 1e-10 {
			Te.Fatalf("grid potentials differ at point %d by %v", pt, d)
		}
	}
}
