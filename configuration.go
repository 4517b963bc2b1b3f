/*
 * configuration.go, part of confinement.
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
	"strings"

	"gonum.org/v1/gonum/mat"
)

//EnergyBreakdown collects the energy components of a configuration, in
//Hartree.
type EnergyBreakdown struct {
	Kinetic float64
	Nuclear float64
	Coulomb float64
	XC      float64 //exchange-correlation, including any exact-exchange part
	Total   float64
}

//Configuration is one candidate electron arrangement together with the
//state of its self-consistent solve: the orbital channels (one when spin
//restricted, two when not), the latest effective operators and densities,
//the energy components and the convergence outcome. A Configuration is
//mutated in place by Solver.Solve and owns all of its state; spawning a
//neighbor always deep-copies.
type Configuration struct {
	orbs  []*OrbitalChannel
	f     [][]*mat.Dense //effective operator per spin, per l
	p     [][]*mat.Dense //density per spin, per l
	trace []IterStat

	Energy     EnergyBreakdown
	Converged  bool
	Iterations int
}

//NewRestricted returns an empty spin-restricted configuration for angular
//momenta 0..lmax.
func NewRestricted(lmax int) *Configuration {
	return &Configuration{orbs: []*OrbitalChannel{NewChannel(true, lmax)}}
}

//NewUnrestricted returns an empty spin-unrestricted configuration, one
//channel per spin.
func NewUnrestricted(lmax int) *Configuration {
	return &Configuration{orbs: []*OrbitalChannel{NewChannel(false, lmax), NewChannel(false, lmax)}}
}

//Restricted returns whether the configuration holds a single doubly
//occupied channel set.
func (c *Configuration) Restricted() bool {
	return len(c.orbs) == 1
}

//Nspin returns the number of spin channels, 1 or 2.
func (c *Configuration) Nspin() int {
	return len(c.orbs)
}

//Lmax returns the largest angular momentum of the configuration.
func (c *Configuration) Lmax() int {
	return c.orbs[0].Lmax()
}

//Channel returns the orbitals of spin channel i (0 for alpha, 1 for beta).
func (c *Configuration) Channel(i int) *OrbitalChannel {
	return c.orbs[i]
}

//Nel returns the total number of electrons over all spin channels.
func (c *Configuration) Nel() int {
	n := 0
	for _, ch := range c.orbs {
		n += ch.Nel()
	}
	return n
}

//Occupations returns a copy of the occupations of every spin channel.
func (c *Configuration) Occupations() []OccupationVector {
	ret := make([]OccupationVector, len(c.orbs))
	for i, ch := range c.orbs {
		ret[i] = ch.Occs()
	}
	return ret
}

//SetOccupations assigns the occupations, one vector per spin channel.
func (c *Configuration) SetOccupations(occs ...OccupationVector) error {
	if len(occs) != len(c.orbs) {
		return stateError(ErrSpinMismatch)
	}
	for _, v := range occs {
		if len(v) != c.Lmax()+1 {
			return stateError(ErrOccLength)
		}
		for _, o := range v {
			if o < 0 {
				return paramError(ErrOccRange)
			}
		}
	}
	for i, v := range occs {
		c.orbs[i].SetOccs(v)
	}
	return nil
}

//Equal returns whether the two configurations occupy the same shells in
//every spin channel. Orbitals and energies are not compared.
func (c *Configuration) Equal(rh *Configuration) bool {
	if len(c.orbs) != len(rh.orbs) {
		return false
	}
	for i, ch := range c.orbs {
		if !ch.Equal(rh.orbs[i]) {
			return false
		}
	}
	return true
}

//key is the canonical occupation string of the configuration, used to
//deduplicate candidates across a search.
func (c *Configuration) key() string {
	str := make([]string, len(c.orbs))
	for i, ch := range c.orbs {
		str[i] = ch.occs.String()
	}
	return strings.Join(str, "|")
}

//Copy returns a deep copy. No matrices are shared with the original.
func (c *Configuration) Copy() *Configuration {
	cp := &Configuration{
		Energy:     c.Energy,
		Converged:  c.Converged,
		Iterations: c.Iterations,
	}
	cp.orbs = make([]*OrbitalChannel, len(c.orbs))
	for i, ch := range c.orbs {
		cp.orbs[i] = ch.Copy()
	}
	cp.f = copyCube(c.f)
	cp.p = copyCube(c.p)
	if c.trace != nil {
		cp.trace = make([]IterStat, len(c.trace))
		copy(cp.trace, c.trace)
	}
	return cp
}

//spawn returns a deep copy with the solve state cleared, keeping the
//orbitals of the parent as the starting guess.
func (c *Configuration) spawn() *Configuration {
	cp := &Configuration{}
	cp.orbs = make([]*OrbitalChannel, len(c.orbs))
	for i, ch := range c.orbs {
		cp.orbs[i] = ch.Copy()
	}
	return cp
}

//Neighbors returns the one-move neighborhood of the configuration: every
//way of shifting up to one shell's worth of electrons between two channels.
//For a spin-unrestricted configuration the channel list runs over both
//spins, so moves that flip spin are included. The neighbors keep the
//current orbitals as their starting guess but carry no solve state. The
//list may contain duplicates; deduplication is the searcher's job.
func (c *Configuration) Neighbors() []*Configuration {
	lmax := c.Lmax()
	nch := len(c.orbs) * (lmax + 1)
	occs := make(OccupationVector, 0, nch)
	caps := make([]int, 0, nch)
	for _, ch := range c.orbs {
		occs = append(occs, ch.occs...)
		for l := 0; l <= lmax; l++ {
			caps = append(caps, ch.ShellCapacity(l))
		}
	}
	vecs := moveVectors(occs, caps)
	ret := make([]*Configuration, len(vecs))
	for i, v := range vecs {
		cp := c.spawn()
		for s, ch := range cp.orbs {
			ch.occs = v[s*(lmax+1) : (s+1)*(lmax+1)].Copy()
		}
		ret[i] = cp
	}
	return ret
}

//Characterize writes the configuration in spectroscopic notation. The spin
//channels of an unrestricted configuration are separated by " | ", alpha
//first.
func (c *Configuration) Characterize() string {
	str := make([]string, len(c.orbs))
	for i, ch := range c.orbs {
		str[i] = ch.Characterize()
	}
	return strings.Join(str, " | ")
}

//Trace returns the per-iteration record of the most recent solve.
func (c *Configuration) Trace() []IterStat {
	return c.trace
}

func copyCube(m [][]*mat.Dense) [][]*mat.Dense {
	if m == nil {
		return nil
	}
	cp := make([][]*mat.Dense, len(m))
	for s, ms := range m {
		cp[s] = make([]*mat.Dense, len(ms))
		for l, ml := range ms {
			cp[s][l] = mat.DenseCopyOf(ml)
		}
	}
	return cp
}
