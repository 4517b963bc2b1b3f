/*
 * occupation_test.go, part of confinement.
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
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

//fakeChannel builds a channel whose orbitals are the canonical basis and
//whose energy tables are given, which is all the occupation bookkeeping
//needs.
func fakeChannel(restr bool, e ...[]float64) *OrbitalChannel {
	ch := NewChannel(restr, len(e)-1)
	ch.c = make([]*mat.Dense, len(e))
	ch.e = make([][]float64, len(e))
	for l, el := range e {
		ch.c[l] = eye(len(el))
		ch.e[l] = append([]float64(nil), el...)
	}
	return ch
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func TestShellCapacity(Te *testing.T) {
	for l := 0; l < 6; l++ {
		if got := ShellCapacity(l, true); got != 4*l+2 {
			Te.Errorf("restricted capacity of l=%d: got %d", l, got)
		}
		if got := ShellCapacity(l, false); got != 2*l+1 {
			Te.Errorf("unrestricted capacity of l=%d: got %d", l, got)
		}
	}
	labels := []string{"s", "p", "d", "f", "g", "h", "i", "k"}
	for l, want := range labels {
		if got := ShellLabel(l); got != want {
			Te.Errorf("label of l=%d: got %q want %q", l, got, want)
		}
	}
	if got := ShellLabel(8); got != "l8" {
		Te.Errorf("label past the table: got %q want \"l8\"", got)
	}
}

func TestOccupationVector(Te *testing.T) {
	v := OccupationVector{2, 1, 0}
	if v.Nel() != 3 {
		Te.Errorf("Nel: got %d want 3", v.Nel())
	}
	if v.String() != "2 1 0" {
		Te.Errorf("String: got %q", v.String())
	}
	cp := v.Copy()
	cp[0] = 7
	if v[0] != 2 {
		Te.Error("Copy aliases the original")
	}
	if !v.Equal(OccupationVector{2, 1, 0}) || v.Equal(cp) || v.Equal(OccupationVector{2, 1}) {
		Te.Error("Equal misbehaves")
	}
}

//TestMoveVectors enumerates the neighborhood of a 1s^2 restricted pattern
//with an empty p channel.
func TestMoveVectors(Te *testing.T) {
	got := moveVectors(OccupationVector{2, 0}, []int{2, 6})
	if len(got) != 4 {
		Te.Fatalf("got %d moves, want 4: %v", len(got), got)
	}
	found := map[string]bool{}
	for _, v := range got {
		found[v.String()] = true
	}
	for _, want := range []string{"2 0", "1 1", "0 2"} {
		if !found[want] {
			Te.Errorf("move %q missing from %v", want, got)
		}
	}
	//nothing to move: a single all-zero copy keeps the search walking
	got = moveVectors(OccupationVector{0, 0}, []int{2, 6})
	if len(got) != 1 || !got[0].Equal(OccupationVector{0, 0}) {
		Te.Errorf("degenerate neighborhood: %v", got)
	}
}

func TestAufbau(Te *testing.T) {
	ch := fakeChannel(true, []float64{-2.0, -0.2, 0.5}, []float64{-0.3, 0.6})
	if err := ch.AufbauOccupations(5); err != nil {
		Te.Fatal(err)
	}
	if !ch.Occs().Equal(OccupationVector{2, 3}) {
		Te.Errorf("5 electrons: got %v want [2 3]", ch.Occs())
	}
	if s := ch.Characterize(); s != "1s^{2} 2p^{3}" {
		Te.Errorf("Characterize: got %q", s)
	}
	if err := ch.AufbauOccupations(6); err != nil {
		Te.Fatal(err)
	}
	if !ch.Occs().Equal(OccupationVector{2, 4}) {
		Te.Errorf("6 electrons: got %v want [2 4]", ch.Occs())
	}
	//the fake tables hold 3 s-shells and 2 p-shells
	if err := ch.AufbauOccupations(19); err == nil {
		Te.Error("19 electrons fit into 18 slots")
	} else if Kind(err) != ErrParameter {
		Te.Errorf("wrong error kind: %v", Kind(err))
	}

	un := fakeChannel(false, []float64{-2.0, -0.2}, []float64{-0.3, 0.6})
	if err := un.AufbauOccupations(3); err != nil {
		Te.Fatal(err)
	}
	if !un.Occs().Equal(OccupationVector{1, 2}) {
		Te.Errorf("unrestricted 3 electrons: got %v want [1 2]", un.Occs())
	}
}

func TestAufbauNoOrbitals(Te *testing.T) {
	ch := NewChannel(true, 1)
	err := ch.AufbauOccupations(2)
	if err == nil {
		Te.Fatal("Aufbau ran without orbitals")
	}
	if Kind(err) != ErrPrecondition {
		Te.Errorf("wrong error kind: %v", Kind(err))
	}
}

//TestDensityWeights checks the integer and fractional shell weights on
//canonical orbitals, where the density matrices are diagonal.
func TestDensityWeights(Te *testing.T) {
	ch := fakeChannel(true, []float64{-2.0, -1.0, 0.0})
	ch.SetOccs(OccupationVector{3})
	p := ch.Density()[0]
	wantP := []float64{2, 1, 0}
	fr := ch.FractionalDensity()[0]
	wantF := []float64{1, 0.5, 0}
	tr := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = wantP[i]
			}
			if math.Abs(p.At(i, j)-want) > 1e-15 {
				Te.Errorf("P at %d,%d: got %v want %v", i, j, p.At(i, j), want)
			}
			want = 0.0
			if i == j {
				want = wantF[i]
			}
			if math.Abs(fr.At(i, j)-want) > 1e-15 {
				Te.Errorf("fractional P at %d,%d: got %v want %v", i, j, fr.At(i, j), want)
			}
		}
		tr += p.At(i, i)
	}
	if int(tr) != ch.Nel() {
		Te.Errorf("density trace %v, channel holds %d electrons", tr, ch.Nel())
	}
	//rebuilding on unchanged state must be bit-identical
	if !mat.Equal(p, ch.Density()[0]) || !mat.Equal(fr, ch.FractionalDensity()[0]) {
		Te.Error("rebuilding the density on unchanged occupations changed it")
	}
}

func TestGap(Te *testing.T) {
	ch := fakeChannel(true, []float64{-2.0, -0.2, 0.5}, []float64{-0.3, 0.6})
	ch.SetOccs(OccupationVector{2, 3})
	gap := ch.Gap()
	if math.Abs(gap[0]-1.8) > 1e-15 {
		Te.Errorf("s gap: got %v want 1.8", gap[0])
	}
	if math.Abs(gap[1]-0.9) > 1e-15 {
		Te.Errorf("p gap: got %v want 0.9", gap[1])
	}
	ch.SetOccs(OccupationVector{2, 0})
	gap = ch.Gap()
	if math.Abs(gap[1]+0.3) > 1e-15 {
		Te.Errorf("empty p channel: got %v want the lowest level -0.3", gap[1])
	}
}

//TestMoveElectronsCopies checks that neighborhood members share nothing
//with their parent.
func TestMoveElectronsCopies(Te *testing.T) {
	ch := fakeChannel(true, []float64{-2.0, -0.2}, []float64{-0.3, 0.6})
	ch.SetOccs(OccupationVector{2, 1})
	moves := ch.MoveElectrons()
	if len(moves) == 0 {
		Te.Fatal("no moves")
	}
	moves[0].occs[0] = 99
	moves[0].c[0].Set(0, 0, 99)
	if ch.occs[0] != 2 || ch.c[0].At(0, 0) != 1 {
		Te.Error("a move aliases its parent")
	}
	//every move conserves the electron count
	for _, m := range ch.MoveElectrons() {
		if m.Nel() != ch.Nel() {
			Te.Errorf("move %v holds %d electrons, parent %d", m.Occs(), m.Nel(), ch.Nel())
		}
	}
}

//TestNeighborsSpinFlip checks that an unrestricted neighborhood includes
//moves between the spin channels.
func TestNeighborsSpinFlip(Te *testing.T) {
	c := NewUnrestricted(0)
	if err := c.SetOccupations(OccupationVector{1}, OccupationVector{1}); err != nil {
		Te.Fatal(err)
	}
	nb := c.Neighbors()
	if len(nb) != 4 {
		Te.Fatalf("got %d neighbors, want 4", len(nb))
	}
	flips := 0
	for _, n := range nb {
		occs := n.Occupations()
		if occs[0].Nel()+occs[1].Nel() != 2 {
			Te.Errorf("neighbor %v does not conserve electrons", occs)
		}
		if occs[0].Nel() != 1 {
			flips++
		}
	}
	if flips != 2 {
		Te.Errorf("got %d spin flips, want 2", flips)
	}
}

func TestSetOccupationsValidation(Te *testing.T) {
	c := NewRestricted(1)
	if err := c.SetOccupations(OccupationVector{2, 1}); err != nil {
		Te.Fatal(err)
	}
	err := c.SetOccupations(OccupationVector{2, 1}, OccupationVector{2, 1})
	if Kind(err) != ErrPrecondition {
		Te.Errorf("spin count mismatch: got kind %v", Kind(err))
	}
	err = c.SetOccupations(OccupationVector{2})
	if Kind(err) != ErrPrecondition {
		Te.Errorf("channel count mismatch: got kind %v", Kind(err))
	}
	err = c.SetOccupations(OccupationVector{2, -1})
	if Kind(err) != ErrParameter {
		Te.Errorf("negative occupation: got kind %v", Kind(err))
	}
	//the failed calls must not have touched the stored pattern
	if !c.Occupations()[0].Equal(OccupationVector{2, 1}) {
		Te.Errorf("stored pattern changed: %v", c.Occupations()[0])
	}
}

func TestConfigurationEqualAndKey(Te *testing.T) {
	a := NewUnrestricted(1)
	b := NewUnrestricted(1)
	if err := a.SetOccupations(OccupationVector{2, 1}, OccupationVector{1, 0}); err != nil {
		Te.Fatal(err)
	}
	if err := b.SetOccupations(OccupationVector{2, 1}, OccupationVector{1, 0}); err != nil {
		Te.Fatal(err)
	}
	if !a.Equal(b) {
		Te.Error("equal patterns compare unequal")
	}
	if a.key() != b.key() {
		Te.Errorf("keys differ: %q vs %q", a.key(), b.key())
	}
	if err := b.SetOccupations(OccupationVector{2, 1}, OccupationVector{0, 1}); err != nil {
		Te.Fatal(err)
	}
	if a.Equal(b) || a.key() == b.key() {
		Te.Error("different patterns compare equal")
	}
}
