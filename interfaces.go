/*
 * interfaces.go, part of confinement.
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

//Integrals is the contract between the SCF core and a radial basis. The
//basis is built once, bound to a nuclear charge, and is read-only afterwards;
//every method may be called from concurrent solves. Matrices returned by the
//accessors are owned by the basis and must not be modified. Package basis
//provides the finite-element implementation.
type Integrals interface {

	//Nbf returns the number of radial functions.
	Nbf() int

	//Charge returns the nuclear charge the basis is bound to.
	Charge() float64

	//Grid returns the radii of the quadrature grid, ascending, and Weights
	//the matching quadrature weights.
	Grid() []float64
	Weights() []float64

	//Values returns the function values on the grid, one row per point,
	//one column per function.
	Values() *mat.Dense

	//Overlap and its symmetric half-inverse.
	Overlap() *mat.Dense
	OverlapHalfInverse() *mat.Dense

	//Kinetic is the l-independent radial kinetic matrix; Centrifugal the
	//factor matrix that enters channel l scaled by l(l+1).
	Kinetic() *mat.Dense
	Centrifugal() *mat.Dense

	//Nuclear is the nuclear attraction matrix for the bound charge.
	Nuclear() *mat.Dense

	//Coulomb returns the Hartree operator of a density matrix, and
	//CoulombPotential the underlying potential on the grid.
	Coulomb(p *mat.Dense) *mat.Dense
	CoulombPotential(p *mat.Dense) []float64

	//DensityOnGrid returns the reduced radial density of p at the grid
	//points (its quadrature sum is the electron count).
	DensityOnGrid(p *mat.Dense) []float64

	//Exchange returns the per-channel exact-exchange operators for the
	//capacity-normalized channel densities.
	Exchange(fr []*mat.Dense) ([]*mat.Dense, error)

	//EigGSym solves the generalized symmetric eigenproblem of an operator
	//in this basis, returning ascending eigenvalues and S-orthonormal
	//coefficients.
	EigGSym(f *mat.Dense) ([]float64, *mat.Dense, error)
}

//XCGrid is the contract for a density-functional service on the radial
//grid. Check must accept a functional selection before Eval can be trusted
//with it; the solver calls Check at construction so a bad selection never
//reaches the iteration loop. Package xc provides the LDA implementation.
type XCGrid interface {

	//Check validates a functional selection and its parameters.
	Check(xid int, xpar []float64, cid int, cpar []float64) error

	//Eval returns the potential matrix, the exchange-correlation energy
	//and the grid-integrated electron count for an unpolarized density.
	Eval(xid int, xpar []float64, cid int, cpar []float64, p *mat.Dense) (*mat.Dense, float64, float64, error)

	//EvalPolarized is Eval for two spin densities, one potential each.
	EvalPolarized(xid int, xpar []float64, cid int, cpar []float64, pa, pb *mat.Dense) (*mat.Dense, *mat.Dense, float64, float64, error)

	//Potential returns the potential values on the grid, one slice per
	//spin channel (one or two density matrices).
	Potential(xid int, xpar []float64, cid int, cpar []float64, p ...*mat.Dense) ([][]float64, error)
}

//Errors

// Error is the interface for errors that all packages in this library
// implement. The Decorate method adds information to the error as it is
// passed up, without changing its type or wrapping it; each call returns
// the current decoration trail. Passing an empty string only reads the
// trail. The trail should contain the functions in the calling stack, each
// optionally followed by extra information as "FunctionName: Extra info".
type Error interface {
	Error() string
	Decorate(string) []string
}
