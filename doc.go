/*
 * doc.go, part of confinement.
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

/*Package atom is the main package of the confinement library. It computes
self-consistent-field electronic structure references for single atoms on a
finite-element radial basis, and searches over electron occupation patterns
for the arrangement of lowest energy.


	**Capabilities**


    Spin-restricted and spin-unrestricted SCF for an atom in a hard-wall
	radial cage, on the same code path: a Configuration carries one or
	two spin channels and everything downstream loops over them.

    Hartree-Fock, LDA, and hybrid mixtures thereof. The exact exchange is
	the spherically averaged multipole form; the density functionals are
	Slater exchange and PW92 correlation, evaluated on the radial
	quadrature grid (package xc).

    Convergence acceleration by Pulay extrapolation (C1-DIIS) blended with
	the ADIIS energy surrogate far from convergence, with level shifting
	or damping as the stabilized orbital update.

    Aufbau filling, neighbor enumeration over occupation vectors
	(including spin-flip moves for unrestricted runs), and a greedy
	occupation search that solves the neighbor set concurrently and keeps
	a visited set so degenerate landscapes cannot cycle.

    Orbital tables in a plain text format, optionally compressed (gzip or
	zstd, chosen by file extension), radial effective-potential tables,
	shell-structure strings such as "1s^{2} 2s^{1}", and orbital or
	convergence plots through package atomplot.

The radial basis itself, with every integral the solver consumes, lives in
package basis; the solver only sees it through the Integrals interface, so
a different discretization can be substituted without touching the SCF
machinery.*/
package atom
