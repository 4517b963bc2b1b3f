/*
 * coulomb.go, part of confinement.
 * Hartree potential of a radial density by a Poisson solve in the
 * same finite-element basis.
 *
 */

package basis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Coulomb returns the matrix of the Hartree potential generated by the
//density matrix p: J_ij = int u_i(r) u_j(r) vH(r) dr, with
//vH(r) = w(r)/r and (rw')' solving the radial Poisson equation for the
//density. The solve happens in the same element basis through the
//prefactored stiffness matrix, so J is exact within the basis and
//tr(P1 J[P2]) = tr(P2 J[P1]) holds to machine precision.
func (b *Radial) Coulomb(p *mat.Dense) *mat.Dense {
	return b.PotentialMatrix(b.CoulombPotential(p))
}

//CoulombPotential returns the Hartree potential of the density matrix p on
//the quadrature grid. The potential of the total charge q behaves as q/r
//beyond the density; that tail is carried by a linear ramp in w(r)=r*vH(r),
//which the basis functions cannot represent because they vanish at rmax.
func (b *Radial) CoulombPotential(p *mat.Dense) []float64 {
	rho := b.DensityOnGrid(p)
	nq := len(b.r)
	q := 0.0
	f := mat.NewVecDense(b.nbf, nil)
	for pt := 0; pt < nq; pt++ {
		q += b.w[pt] * rho[pt]
		wv := b.w[pt] * rho[pt] / b.r[pt]
		floats.AddScaled(f.RawVector().Data, wv, b.bf.RawRowView(pt))
	}
	var c mat.VecDense
	if err := b.stiff.SolveVecTo(&c, f); err != nil {
		//the stiffness factorization was checked at construction; a failure
		//here means the density itself is not finite
		panic("confinement/basis.CoulombPotential: " + err.Error())
	}
	var wvals mat.VecDense
	wvals.MulVec(b.bf, &c)
	v := make([]float64, nq)
	for pt := 0; pt < nq; pt++ {
		v[pt] = (wvals.AtVec(pt) + q*b.r[pt]/b.rmax) / b.r[pt]
	}
	return v
}
