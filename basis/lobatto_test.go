/*
 * lobatto_test.go, part of confinement.
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

package basis

import (
	"math"
	"testing"
)

//TestLobattoKnownRules checks the orders whose nodes and weights are known
//in closed form.
func TestLobattoKnownRules(Te *testing.T) {
	x, w, err := Lobatto(2)
	if err != nil {
		Te.Fatal(err)
	}
	checkRule(Te, 2, x, w, []float64{-1, 1}, []float64{1, 1})

	x, w, err = Lobatto(3)
	if err != nil {
		Te.Fatal(err)
	}
	checkRule(Te, 3, x, w, []float64{-1, 0, 1}, []float64{1.0 / 3, 4.0 / 3, 1.0 / 3})

	x, w, err = Lobatto(4)
	if err != nil {
		Te.Fatal(err)
	}
	s := 1.0 / math.Sqrt(5)
	checkRule(Te, 4, x, w, []float64{-1, -s, s, 1}, []float64{1.0 / 6, 5.0 / 6, 5.0 / 6, 1.0 / 6})

	if _, _, err := Lobatto(1); err == nil {
		Te.Error("expected an error for a 1-point rule")
	}
}

func checkRule(Te *testing.T, n int, x, w, wantx, wantw []float64) {
	if len(x) != n || len(w) != n {
		Te.Fatalf("rule %d: got %d nodes and %d weights", n, len(x), len(w))
	}
	for i := range x {
		if math.Abs(x[i]-wantx[i]) > 1e-13 {
			Te.Errorf("rule %d node %d: got %v want %v", n, i, x[i], wantx[i])
		}
		if math.Abs(w[i]-wantw[i]) > 1e-13 {
			Te.Errorf("rule %d weight %d: got %v want %v", n, i, w[i], wantw[i])
		}
	}
}

//TestLobattoExactness integrates monomials with the 8-point rule, which
//is exact through degree 13.
func TestLobattoExactness(Te *testing.T) {
	x, w, err := Lobatto(8)
	if err != nil {
		Te.Fatal(err)
	}
	for deg := 0; deg <= 13; deg++ {
		got := 0.0
		for i := range x {
			got += w[i] * math.Pow(x[i], float64(deg))
		}
		want := 0.0
		if deg%2 == 0 {
			want = 2.0 / float64(deg+1)
		}
		if math.Abs(got-want) > 1e-12 {
			Te.Errorf("degree %d: got %v want %v", deg, got, want)
		}
	}
}

//TestLobattoWeightSum checks that every rule preserves the measure of the
//reference interval.
func TestLobattoWeightSum(Te *testing.T) {
	for n := 2; n <= 30; n++ {
		x, w, err := Lobatto(n)
		if err != nil {
			Te.Fatal(err)
		}
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		if math.Abs(sum-2.0) > 1e-12 {
			Te.Errorf("rule %d: weights sum to %v", n, sum)
		}
		if x[0] != -1 || x[n-1] != 1 {
			//the endpoints come from the cosine seed and must be exact
			if math.Abs(x[0]+1) > 1e-15 || math.Abs(x[n-1]-1) > 1e-15 {
				Te.Errorf("rule %d: endpoints %v and %v", n, x[0], x[n-1])
			}
		}
	}
}
