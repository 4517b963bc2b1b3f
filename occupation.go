/*
 * occupation.go, part of confinement.
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
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

//Spectroscopic labels for the angular channels.
const shellLabels = "spdfghik"

//ShellLabel returns the spectroscopic letter of angular momentum l.
func ShellLabel(l int) string {
	if l >= 0 && l < len(shellLabels) {
		return string(shellLabels[l])
	}
	return fmt.Sprintf("l%d", l)
}

//ShellCapacity returns the number of electrons one shell of angular momentum
//l can hold: 4l+2 when the occupations are spin-restricted and 2l+1 when a
//single spin channel is filled.
func ShellCapacity(l int, restricted bool) int {
	if restricted {
		return 4*l + 2
	}
	return 2*l + 1
}

//OccupationVector holds the number of electrons in each angular channel,
//indexed by l. A channel may hold more electrons than one shell; they spill
//over into the next radial shell of the same l.
type OccupationVector []int

//Nel returns the total number of electrons in the vector.
func (occs OccupationVector) Nel() int {
	n := 0
	for _, o := range occs {
		n += o
	}
	return n
}

//Equal returns whether the two vectors are element-wise equal.
func (occs OccupationVector) Equal(rh OccupationVector) bool {
	if len(occs) != len(rh) {
		return false
	}
	for i, o := range occs {
		if o != rh[i] {
			return false
		}
	}
	return true
}

//Copy returns an independent copy of the vector.
func (occs OccupationVector) Copy() OccupationVector {
	ret := make(OccupationVector, len(occs))
	copy(ret, occs)
	return ret
}

func (occs OccupationVector) String() string {
	str := make([]string, len(occs))
	for i, o := range occs {
		str[i] = fmt.Sprintf("%d", o)
	}
	return strings.Join(str, " ")
}

//moveVectors enumerates the one-move neighborhood of occs: for every ordered
//channel pair, every move size up to a full shell of either channel. The
//identity pairs are kept so a fully polarized channel set still produces
//candidates. A vector with no movable electrons yields a single all-zero
//copy.
func moveVectors(occs OccupationVector, caps []int) []OccupationVector {
	var ret []OccupationVector
	for from := range occs {
		for to := range occs {
			limit := caps[from]
			if caps[to] < limit {
				limit = caps[to]
			}
			for nmove := 1; nmove <= limit; nmove++ {
				if occs[from] < nmove {
					continue
				}
				cp := occs.Copy()
				cp[from] -= nmove
				cp[to] += nmove
				ret = append(ret, cp)
			}
		}
	}
	if len(ret) == 0 {
		ret = append(ret, make(OccupationVector, len(occs)))
	}
	return ret
}

//ShellOccupation describes one occupied radial shell.
type ShellOccupation struct {
	N    int     //principal quantum number
	L    int     //angular momentum
	E    float64 //orbital energy
	Nocc int     //electrons in the shell
}

//OrbitalChannel owns the orbitals of one spin channel: a coefficient matrix
//and an energy table per angular momentum, and the occupations that select
//which orbitals carry electrons. The coefficient and energy tables are the
//output of the most recent diagonalization and go stale the moment the
//occupations change; callers re-solve before trusting them. A channel is
//owned by exactly one SCF run, copies are always deep.
type OrbitalChannel struct {
	c     []*mat.Dense //orbital coefficients, one matrix per l
	e     [][]float64  //orbital energies, ascending, one table per l
	occs  OccupationVector
	restr bool
	lmax  int
}

//NewChannel returns an empty channel for angular momenta 0..lmax. Orbitals
//and occupations are set later, by an initial diagonalization and either
//AufbauOccupations or SetOccs.
func NewChannel(restricted bool, lmax int) *OrbitalChannel {
	return &OrbitalChannel{restr: restricted, lmax: lmax}
}

//Restricted returns whether shells hold both spins.
func (ch *OrbitalChannel) Restricted() bool {
	return ch.restr
}

//Lmax returns the largest angular momentum of the channel.
func (ch *OrbitalChannel) Lmax() int {
	return ch.lmax
}

//ShellCapacity returns the electron capacity of one shell with angular
//momentum l under the channel's spin restriction.
func (ch *OrbitalChannel) ShellCapacity(l int) int {
	return ShellCapacity(l, ch.restr)
}

//OrbitalsInitialized returns whether the channel has been diagonalized at
//least once.
func (ch *OrbitalChannel) OrbitalsInitialized() bool {
	return ch.c != nil
}

//OccupationsInitialized returns whether occupations have been assigned.
func (ch *OrbitalChannel) OccupationsInitialized() bool {
	return ch.occs != nil
}

//Nel returns the number of electrons in the channel.
func (ch *OrbitalChannel) Nel() int {
	return ch.occs.Nel()
}

//Occs returns a copy of the channel's occupations.
func (ch *OrbitalChannel) Occs() OccupationVector {
	return ch.occs.Copy()
}

//SetOccs assigns the occupations. The vector is copied.
func (ch *OrbitalChannel) SetOccs(occs OccupationVector) {
	ch.occs = occs.Copy()
}

//Equal returns whether the two channels hold the same occupations. Orbitals
//are not compared; two channels that occupy the same shells describe the
//same candidate no matter where their iterates currently stand.
func (ch *OrbitalChannel) Equal(rh *OrbitalChannel) bool {
	return ch.occs.Equal(rh.occs)
}

//Copy returns a deep copy of the channel. Nothing is aliased.
func (ch *OrbitalChannel) Copy() *OrbitalChannel {
	cp := &OrbitalChannel{restr: ch.restr, lmax: ch.lmax}
	if ch.occs != nil {
		cp.occs = ch.occs.Copy()
	}
	if ch.c != nil {
		cp.c = make([]*mat.Dense, len(ch.c))
		cp.e = make([][]float64, len(ch.e))
		for l := range ch.c {
			cp.c[l] = mat.DenseCopyOf(ch.c[l])
			cp.e[l] = make([]float64, len(ch.e[l]))
			copy(cp.e[l], ch.e[l])
		}
	}
	return cp
}

//Energies returns the energy table of channel l. The slice is owned by the
//channel and must not be modified.
func (ch *OrbitalChannel) Energies(l int) []float64 {
	return ch.e[l]
}

//Coefficients returns the coefficient matrix of channel l, one orbital per
//column in ascending energy order. The matrix is owned by the channel and
//must not be modified.
func (ch *OrbitalChannel) Coefficients(l int) *mat.Dense {
	return ch.c[l]
}

//countOccupied returns the number of shells of channel l that hold
//electrons.
func (ch *OrbitalChannel) countOccupied(l int) int {
	numl := ch.occs[l]
	capl := ch.ShellCapacity(l)
	var nsh int
	for nsh = 0; nsh < len(ch.e[l]); nsh++ {
		nocc := capl
		if numl < nocc {
			nocc = numl
		}
		numl -= nocc
		if nocc == 0 {
			break
		}
	}
	return nsh
}

//UpdateOrbitals diagonalizes the per-channel operators and replaces the
//coefficient and energy tables.
func (ch *OrbitalChannel) UpdateOrbitals(f []*mat.Dense, ints Integrals) error {
	c := make([]*mat.Dense, ch.lmax+1)
	e := make([][]float64, ch.lmax+1)
	for l := 0; l <= ch.lmax; l++ {
		el, cl, err := ints.EigGSym(f[l])
		if err != nil {
			return errDecorate(err, "UpdateOrbitals")
		}
		c[l] = cl
		e[l] = el
	}
	ch.c = c
	ch.e = e
	return nil
}

//UpdateOrbitalsShifted diagonalizes with a level shift added to the virtual
//subspace of each channel: shift*S*Cv*Cv^T*S built from the previous
//iteration's unoccupied orbitals. Occupied orbitals are left untouched by
//the shift, virtuals are pushed up, which keeps a difficult iteration from
//swapping the occupied manifold. Channels without occupied shells fall back
//to a plain diagonalization.
func (ch *OrbitalChannel) UpdateOrbitalsShifted(f []*mat.Dense, ints Integrals, shift float64) error {
	s := ints.Overlap()
	nbf := ints.Nbf()
	c := make([]*mat.Dense, ch.lmax+1)
	e := make([][]float64, ch.lmax+1)
	for l := 0; l <= ch.lmax; l++ {
		fl := f[l]
		nsh := ch.countOccupied(l)
		if shift != 0 && nsh > 0 && nsh < nbf {
			cv := ch.c[l].Slice(0, nbf, nsh, nbf)
			scv := mat.NewDense(nbf, nbf-nsh, nil)
			scv.Mul(s, cv)
			sh := mat.NewDense(nbf, nbf, nil)
			sh.Mul(scv, scv.T())
			sh.Scale(shift, sh)
			sh.Add(fl, sh)
			fl = sh
		}
		el, cl, err := ints.EigGSym(fl)
		if err != nil {
			return errDecorate(err, "UpdateOrbitalsShifted")
		}
		c[l] = cl
		e[l] = el
	}
	ch.c = c
	ch.e = e
	return nil
}

//UpdateOrbitalsDamped diagonalizes after scaling the occupied-virtual
//coupling blocks of each operator by dampov in the orbital basis of the
//previous iteration. The occupied/virtual split itself is unchanged, only
//the rotation between the subspaces is slowed down.
func (ch *OrbitalChannel) UpdateOrbitalsDamped(f []*mat.Dense, ints Integrals, dampov float64) error {
	s := ints.Overlap()
	nbf := ints.Nbf()
	c := make([]*mat.Dense, ch.lmax+1)
	e := make([][]float64, ch.lmax+1)
	for l := 0; l <= ch.lmax; l++ {
		fl := f[l]
		nsh := ch.countOccupied(l)
		if nsh > 0 && nsh < nbf {
			//to the orbital basis
			sfs := mat.NewDense(nbf, nbf, nil)
			sfs.Mul(s, fl)
			sfs.Mul(sfs, s)
			fmo := mat.NewDense(nbf, nbf, nil)
			fmo.Mul(ch.c[l].T(), sfs)
			fmo.Mul(fmo, ch.c[l])
			for i := 0; i < nsh; i++ {
				for j := nsh; j < nbf; j++ {
					fmo.Set(i, j, dampov*fmo.At(i, j))
					fmo.Set(j, i, dampov*fmo.At(j, i))
				}
			}
			//and back
			back := mat.NewDense(nbf, nbf, nil)
			back.Mul(ch.c[l], fmo)
			back.Mul(back, ch.c[l].T())
			fl = back
		}
		el, cl, err := ints.EigGSym(fl)
		if err != nil {
			return errDecorate(err, "UpdateOrbitalsDamped")
		}
		c[l] = cl
		e[l] = el
	}
	ch.c = c
	ch.e = e
	return nil
}

//Density builds the per-channel density matrices weighted by the integer
//electron count of each shell. Shells fill in ascending energy order; the
//last one takes whatever electrons remain. Its trace against the overlap
//matrix is the electron count of the channel.
func (ch *OrbitalChannel) Density() []*mat.Dense {
	nbf, _ := ch.c[0].Dims()
	pl := make([]*mat.Dense, ch.lmax+1)
	for l := 0; l <= ch.lmax; l++ {
		p := mat.NewDense(nbf, nbf, nil)
		numl := ch.occs[l]
		capl := ch.ShellCapacity(l)
		for io := 0; io < nbf; io++ {
			nocc := capl
			if numl < nocc {
				nocc = numl
			}
			if nocc == 0 {
				break
			}
			numl -= nocc
			rankUpdate(p, ch.c[l].ColView(io), float64(nocc))
		}
		pl[l] = p
	}
	return pl
}

//FractionalDensity builds the per-channel density matrices with each shell
//weighted by its filled fraction instead of its electron count. In this
//normalization one exchange expression covers both spin restrictions, so
//exact-exchange builds consume this density.
func (ch *OrbitalChannel) FractionalDensity() []*mat.Dense {
	nbf, _ := ch.c[0].Dims()
	fr := make([]*mat.Dense, ch.lmax+1)
	for l := 0; l <= ch.lmax; l++ {
		p := mat.NewDense(nbf, nbf, nil)
		numl := ch.occs[l]
		capl := ch.ShellCapacity(l)
		for io := 0; io < nbf; io++ {
			nocc := capl
			if numl < nocc {
				nocc = numl
			}
			if nocc == 0 {
				break
			}
			numl -= nocc
			rankUpdate(p, ch.c[l].ColView(io), float64(nocc)/float64(capl))
		}
		fr[l] = p
	}
	return fr
}

//AufbauOccupations fills the channel with nel electrons from the lowest
//orbital energy up, a full shell at a time, and replaces the occupations.
//Ties keep the energy-table order. The orbitals must have been solved
//first.
func (ch *OrbitalChannel) AufbauOccupations(nel int) error {
	if ch.c == nil {
		return stateError(ErrNoOrbitals)
	}
	type shell struct {
		e float64
		l int
	}
	var shells []shell
	for l := 0; l <= ch.lmax; l++ {
		for _, e := range ch.e[l] {
			shells = append(shells, shell{e: e, l: l})
		}
	}
	sort.SliceStable(shells, func(i, j int) bool { return shells[i].e < shells[j].e })
	occs := make(OccupationVector, ch.lmax+1)
	for _, sh := range shells {
		if nel == 0 {
			break
		}
		nocc := ch.ShellCapacity(sh.l)
		if nel < nocc {
			nocc = nel
		}
		occs[sh.l] += nocc
		nel -= nocc
	}
	if nel > 0 {
		return paramError(ErrElectronsCap)
	}
	ch.occs = occs
	return nil
}

//MoveElectrons returns the one-move neighborhood of the channel: deep
//copies with every way of shifting up to a full shell of electrons between
//two angular channels. Identity moves are included, and a channel with no
//electrons to move yields a single all-zero copy.
func (ch *OrbitalChannel) MoveElectrons() []*OrbitalChannel {
	caps := make([]int, ch.lmax+1)
	for l := range caps {
		caps[l] = ch.ShellCapacity(l)
	}
	vecs := moveVectors(ch.occs, caps)
	ret := make([]*OrbitalChannel, len(vecs))
	for i, v := range vecs {
		cp := ch.Copy()
		cp.occs = v
		ret[i] = cp
	}
	return ret
}

//Occupied lists the occupied shells in ascending energy order.
func (ch *OrbitalChannel) Occupied() []ShellOccupation {
	var list []ShellOccupation
	for l := 0; l <= ch.lmax; l++ {
		numl := ch.occs[l]
		capl := ch.ShellCapacity(l)
		for io := 0; io < len(ch.e[l]); io++ {
			nocc := capl
			if numl < nocc {
				nocc = numl
			}
			numl -= nocc
			if nocc == 0 {
				break
			}
			list = append(list, ShellOccupation{N: l + io + 1, L: l, E: ch.e[l][io], Nocc: nocc})
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].E < list[j].E })
	return list
}

//Characterize writes the configuration in spectroscopic notation, occupied
//shells in ascending energy order, e.g. "1s^{2} 2s^{1}".
func (ch *OrbitalChannel) Characterize() string {
	list := ch.Occupied()
	str := make([]string, len(list))
	for i, sh := range list {
		str[i] = fmt.Sprintf("%d%s^{%d}", sh.N, ShellLabel(sh.L), sh.Nocc)
	}
	return strings.Join(str, " ")
}

//Gap returns, per angular channel, the energy gap between the highest
//occupied and lowest unoccupied shell. A channel with nothing occupied
//reports its lowest orbital energy instead.
func (ch *OrbitalChannel) Gap() []float64 {
	gap := make([]float64, ch.lmax+1)
	for l := 0; l <= ch.lmax; l++ {
		nsh := ch.countOccupied(l)
		switch {
		case nsh == 0:
			gap[l] = ch.e[l][0]
		case nsh < len(ch.e[l]):
			gap[l] = ch.e[l][nsh] - ch.e[l][nsh-1]
		}
	}
	return gap
}

//rankUpdate adds w*c*c^T to p.
func rankUpdate(p *mat.Dense, c mat.Vector, w float64) {
	n := c.Len()
	for i := 0; i < n; i++ {
		ci := w * c.AtVec(i)
		if ci == 0 {
			continue
		}
		for j := 0; j < n; j++ {
			p.Set(i, j, p.At(i, j)+ci*c.AtVec(j))
		}
	}
}
