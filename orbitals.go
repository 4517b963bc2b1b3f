/*
 * orbitals.go, part of confinement.
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
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

//RadialOrbitals is the occupied-orbital table of a solved configuration:
//the reduced radial amplitude u(r) of every occupied orbital sampled on the
//quadrature grid, with its label, occupation and energy. Orbitals are in
//ascending energy order; in an unrestricted configuration the labels carry
//an "a" or "b" spin suffix.
type RadialOrbitals struct {
	R      []float64
	Labels []string
	Occ    []int
	E      []float64
	Amp    *mat.Dense //one row per grid point, one column per orbital
}

//Orbitals samples the occupied orbitals of the configuration on the
//quadrature grid.
func (s *Solver) Orbitals(c *Configuration) (*RadialOrbitals, error) {
	if err := s.check(c); err != nil {
		return nil, errDecorate(err, "Orbitals")
	}
	r := s.ints.Grid()
	vals := s.ints.Values()
	npts := len(r)

	type orb struct {
		label string
		occ   int
		e     float64
		amp   []float64
	}
	var orbs []orb
	for i, ch := range c.orbs {
		suffix := ""
		if !c.Restricted() {
			suffix = string("ab"[i])
		}
		for _, sh := range ch.Occupied() {
			col := sh.N - sh.L - 1
			amp := make([]float64, npts)
			cvec := ch.Coefficients(sh.L).ColView(col)
			for q := 0; q < npts; q++ {
				sum := 0.0
				for b := 0; b < cvec.Len(); b++ {
					sum += vals.At(q, b) * cvec.AtVec(b)
				}
				amp[q] = sum
			}
			orbs = append(orbs, orb{
				label: fmt.Sprintf("%d%s%s", sh.N, ShellLabel(sh.L), suffix),
				occ:   sh.Nocc,
				e:     sh.E,
				amp:   amp,
			})
		}
	}
	sort.SliceStable(orbs, func(i, j int) bool { return orbs[i].e < orbs[j].e })

	ro := &RadialOrbitals{
		R:      append([]float64(nil), r...),
		Labels: make([]string, len(orbs)),
		Occ:    make([]int, len(orbs)),
		E:      make([]float64, len(orbs)),
		Amp:    mat.NewDense(npts, len(orbs), nil),
	}
	for j, o := range orbs {
		ro.Labels[j] = o.label
		ro.Occ[j] = o.occ
		ro.E[j] = o.e
		for q := 0; q < npts; q++ {
			ro.Amp.Set(q, j, o.amp[q])
		}
	}
	return ro, nil
}

//Write writes the table as text: a "npts norb" header, one line of orbital
//labels, one of occupations, one of energies, then one line per grid point
//with the radius followed by every orbital amplitude.
func (o *RadialOrbitals) Write(w io.Writer) error {
	npts := len(o.R)
	norb := len(o.Labels)
	if r, c := o.Amp.Dims(); r != npts || c != norb || len(o.Occ) != norb || len(o.E) != norb {
		return stateError(ErrWriteOrbitals)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", npts, norb)
	fmt.Fprintln(bw, strings.Join(o.Labels, " "))
	occ := make([]string, norb)
	for j, n := range o.Occ {
		occ[j] = strconv.Itoa(n)
	}
	fmt.Fprintln(bw, strings.Join(occ, " "))
	for j, e := range o.E {
		if j > 0 {
			fmt.Fprint(bw, " ")
		}
		fmt.Fprintf(bw, "%.16e", e)
	}
	fmt.Fprintln(bw)
	for q := 0; q < npts; q++ {
		fmt.Fprintf(bw, "%.16e", o.R[q])
		for j := 0; j < norb; j++ {
			fmt.Fprintf(bw, " %.16e", o.Amp.At(q, j))
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

//WriteFile writes the table to a file, compressing by extension: gzip for
//.gz, zstandard for .zst, plain text otherwise.
func (o *RadialOrbitals) WriteFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	switch {
	case strings.HasSuffix(name, ".gz"):
		zw := gzip.NewWriter(f)
		if err := o.Write(zw); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case strings.HasSuffix(name, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			return err
		}
		if err := o.Write(zw); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	}
	return o.Write(f)
}

//ReadOrbitals parses a table written by Write.
func ReadOrbitals(r io.Reader) (*RadialOrbitals, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	line := func() ([]string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, paramError(ErrOrbitalsParse)
		}
		return strings.Fields(sc.Text()), nil
	}
	head, err := line()
	if err != nil {
		return nil, errDecorate(err, "ReadOrbitals")
	}
	if len(head) != 2 {
		return nil, paramError(ErrOrbitalsParse)
	}
	npts, err1 := strconv.Atoi(head[0])
	norb, err2 := strconv.Atoi(head[1])
	if err1 != nil || err2 != nil || npts <= 0 || norb <= 0 {
		return nil, paramError(ErrOrbitalsParse)
	}
	labels, err := line()
	if err != nil {
		return nil, errDecorate(err, "ReadOrbitals")
	}
	occf, err := line()
	if err != nil {
		return nil, errDecorate(err, "ReadOrbitals")
	}
	ef, err := line()
	if err != nil {
		return nil, errDecorate(err, "ReadOrbitals")
	}
	if len(labels) != norb || len(occf) != norb || len(ef) != norb {
		return nil, paramError(ErrOrbitalsParse)
	}
	ro := &RadialOrbitals{
		R:      make([]float64, npts),
		Labels: labels,
		Occ:    make([]int, norb),
		E:      make([]float64, norb),
		Amp:    mat.NewDense(npts, norb, nil),
	}
	for j := 0; j < norb; j++ {
		if ro.Occ[j], err = strconv.Atoi(occf[j]); err != nil {
			return nil, paramError(ErrOrbitalsParse)
		}
		if ro.E[j], err = strconv.ParseFloat(ef[j], 64); err != nil {
			return nil, paramError(ErrOrbitalsParse)
		}
	}
	for q := 0; q < npts; q++ {
		row, err := line()
		if err != nil {
			return nil, errDecorate(err, "ReadOrbitals")
		}
		if len(row) != norb+1 {
			return nil, paramError(ErrOrbitalsParse)
		}
		if ro.R[q], err = strconv.ParseFloat(row[0], 64); err != nil {
			return nil, paramError(ErrOrbitalsParse)
		}
		for j := 0; j < norb; j++ {
			v, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, paramError(ErrOrbitalsParse)
			}
			ro.Amp.Set(q, j, v)
		}
	}
	return ro, nil
}

//ReadOrbitalsFile reads a table written by WriteFile, decompressing by
//extension the same way.
func ReadOrbitalsFile(name string) (*RadialOrbitals, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}
	return ReadOrbitals(r)
}

//EffectivePotential tabulates what the solved electron cloud does to the
//nuclear potential. The columns are the radius, the electron density, the
//Coulomb potential of the density, the exchange-correlation potential
//(averaged over the spin channels, zero for pure Hartree-Fock where
//exchange has no local potential), the quadrature weight, and the screened
//effective charge Z - r*(vC+vxc) seen at that radius.
func (s *Solver) EffectivePotential(c *Configuration) (*mat.Dense, error) {
	if err := s.check(c); err != nil {
		return nil, errDecorate(err, "EffectivePotential")
	}
	r := s.ints.Grid()
	wt := s.ints.Weights()
	npts := len(r)
	nbf := s.ints.Nbf()

	ptot := mat.NewDense(nbf, nbf, nil)
	pspin := make([]*mat.Dense, c.Nspin())
	for i, ch := range c.orbs {
		pspin[i] = mat.NewDense(nbf, nbf, nil)
		for _, pl := range ch.Density() {
			pspin[i].Add(pspin[i], pl)
		}
		ptot.Add(ptot, pspin[i])
	}

	vcoul := s.ints.CoulombPotential(ptot)
	rho := s.ints.DensityOnGrid(ptot)

	vxc := make([]float64, npts)
	if s.o.xfunc != 0 || s.o.cfunc != 0 {
		pots, err := s.grid.Potential(s.o.xfunc, s.o.xpars, s.o.cfunc, s.o.cpars, pspin...)
		if err != nil {
			return nil, errDecorate(err, "EffectivePotential")
		}
		for _, pot := range pots {
			for q := range vxc {
				vxc[q] += pot[q] / float64(len(pots))
			}
		}
	}

	z := s.ints.Charge()
	table := mat.NewDense(npts, 6, nil)
	for q := 0; q < npts; q++ {
		n := rho[q] / (4 * math.Pi * r[q] * r[q])
		table.Set(q, 0, r[q])
		table.Set(q, 1, n)
		table.Set(q, 2, vcoul[q])
		table.Set(q, 3, vxc[q])
		table.Set(q, 4, wt[q])
		table.Set(q, 5, z-r[q]*(vcoul[q]+vxc[q]))
	}
	return table, nil
}
