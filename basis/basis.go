/*
 * basis.go, part of confinement
 *
 * Copyright 2026 Hugo Astrom
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 *
*/

//Package basis builds the radial finite-element basis for a single atom and
//evaluates every integral the SCF core consumes: overlap, kinetic, centrifugal,
//nuclear attraction, the Coulomb operator of a radial density and the
//spherically averaged exact exchange. Orbitals are expanded in the reduced
//radial form u(r)=r*R(r) on [0,rmax], with u(0)=u(rmax)=0, so every operator
//here is a plain matrix over the u-space functions. The element polynomials
//are Lagrange interpolants at Gauss-Lobatto nodes, glued C0-continuously at
//the element boundaries.
package basis

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

//Options holds the discretization parameters for a radial basis.
type Options struct {
	rmax   float64
	nelem  int
	nnodes int
	nquad  int
	zexp   float64
}

//DefaultOptions returns discretization parameters that resolve light atoms
//to microhartree accuracy.
func DefaultOptions() *Options {
	o := new(Options)
	o.rmax = 40.0
	o.nelem = 8
	o.nnodes = 15
	o.nquad = 30
	o.zexp = 2.0
	return o
}

//Rmax returns the radial cutoff, in bohr, and sets it if a positive
//value is given.
func (o *Options) Rmax(rmax ...float64) float64 {
	ret := o.rmax
	if len(rmax) > 0 && rmax[0] > 0 {
		o.rmax = rmax[0]
	}
	return ret
}

//Elements returns the number of radial elements and sets it if a positive
//value is given.
func (o *Options) Elements(n ...int) int {
	ret := o.nelem
	if len(n) > 0 && n[0] > 0 {
		o.nelem = n[0]
	}
	return ret
}

//Nodes returns the number of Lobatto nodes per element (the element
//polynomial order plus one) and sets it if a value of at least 2 is given.
func (o *Options) Nodes(n ...int) int {
	ret := o.nnodes
	if len(n) > 0 && n[0] >= 2 {
		o.nnodes = n[0]
	}
	return ret
}

//Quadrature returns the Gauss-Legendre points per element used for the
//integrals and sets it if a positive value is given.
func (o *Options) Quadrature(n ...int) int {
	ret := o.nquad
	if len(n) > 0 && n[0] > 0 {
		o.nquad = n[0]
	}
	return ret
}

//GridExponent returns the exponent of the polynomial element mesh
//(boundary i sits at rmax*(i/nelem)^zexp; 1 gives a uniform mesh) and sets
//it if a value of at least 1 is given.
func (o *Options) GridExponent(z ...float64) float64 {
	ret := o.zexp
	if len(z) > 0 && z[0] >= 1 {
		o.zexp = z[0]
	}
	return ret
}

//Radial is a finite-element radial basis bound to a nuclear charge, with
//every one-electron integral precomputed on construction. It is read-only
//after New returns, so one Radial can serve any number of concurrent solves.
type Radial struct {
	z      float64
	rmax   float64
	nelem  int
	nnodes int
	nquad  int
	nbf    int
	bounds []float64
	r, w   []float64 //global quadrature grid and weights
	bf     *mat.Dense
	df     *mat.Dense
	s      *mat.Dense
	sinvh  *mat.Dense
	t      *mat.Dense
	tl     *mat.Dense
	vn     *mat.Dense
	stiff  *mat.Cholesky //factorization of 2T, for the radial Poisson solves
	kmu    sync.Mutex
	kern   map[int]*mat.Dense //multipole kernels, built on first use
}

//New builds the radial basis for nuclear charge z. The element count, node
//count, quadrature order, cutoff and mesh exponent come from the options;
//out-of-range parameters are rejected here, before any solver touches the
//basis.
func New(z float64, options ...*Options) (*Radial, error) {
	var o *Options
	if len(options) > 0 && options[0] != nil {
		o = options[0]
	} else {
		o = DefaultOptions()
	}
	if z <= 0 {
		return nil, Error{message: ErrCharge, deco: []string{"New"}}
	}
	if o.nelem < 1 {
		return nil, Error{message: ErrElements, deco: []string{"New"}}
	}
	if o.rmax <= 0 {
		return nil, Error{message: ErrRmax, deco: []string{"New"}}
	}
	if o.zexp < 1 {
		return nil, Error{message: ErrGridExp, deco: []string{"New"}}
	}
	nodes, _, err := Lobatto(o.nnodes)
	if err != nil {
		return nil, errDecorate(err, "New")
	}
	if o.nquad < o.nnodes {
		return nil, Error{message: ErrQuadOrder, deco: []string{"New"}}
	}
	b := new(Radial)
	b.z = z
	b.rmax = o.rmax
	b.nelem = o.nelem
	b.nnodes = o.nnodes
	b.nquad = o.nquad
	b.nbf = o.nelem*(o.nnodes-1) - 1
	if b.nbf < 1 {
		return nil, Error{message: ErrBasisSize, deco: []string{"New"}}
	}
	b.kern = make(map[int]*mat.Dense)
	b.mesh(o.zexp)
	b.sample(nodes)
	b.assemble()
	if err := b.orthonormalizer(); err != nil {
		return nil, errDecorate(err, "New")
	}
	if err := b.poissonFactor(); err != nil {
		return nil, errDecorate(err, "New")
	}
	return b, nil
}

//mesh places the element boundaries on the polynomial grid.
func (b *Radial) mesh(zexp float64) {
	b.bounds = make([]float64, b.nelem+1)
	for i := 0; i <= b.nelem; i++ {
		b.bounds[i] = b.rmax * math.Pow(float64(i)/float64(b.nelem), zexp)
	}
}

//sample lays the per-element Gauss-Legendre grid and evaluates every basis
//function and derivative on it. The open rule never touches r=0, which keeps
//the 1/r and 1/r^2 integrands finite without special-casing the first element.
func (b *Radial) sample(nodes []float64) {
	nq := b.nelem * b.nquad
	b.r = make([]float64, nq)
	b.w = make([]float64, nq)
	b.bf = mat.NewDense(nq, b.nbf, nil)
	b.df = mat.NewDense(nq, b.nbf, nil)
	m := b.nnodes
	val := make([]float64, m)
	der := make([]float64, m)
	xq := make([]float64, b.nquad)
	wq := make([]float64, b.nquad)
	for e := 0; e < b.nelem; e++ {
		lo, hi := b.bounds[e], b.bounds[e+1]
		quad.Legendre{}.FixedLocations(xq, wq, lo, hi)
		scale := 2.0 / (hi - lo)
		for q := 0; q < b.nquad; q++ {
			p := e*b.nquad + q
			b.r[p] = xq[q]
			b.w[p] = wq[q]
			y := (2*xq[q] - lo - hi) / (hi - lo)
			lagrange(nodes, y, val, der)
			for i := 0; i < m; i++ {
				g := e*(m-1) + i
				if g == 0 || g == b.nelem*(m-1) {
					continue //boundary conditions u(0)=u(rmax)=0
				}
				b.bf.Set(p, g-1, val[i])
				b.df.Set(p, g-1, der[i]*scale)
			}
		}
	}
}

//lagrange fills val and der with the Lagrange cardinal polynomials over the
//given nodes, and their first derivatives, evaluated at y.
func lagrange(nodes []float64, y float64, val, der []float64) {
	m := len(nodes)
	for i := 0; i < m; i++ {
		den := 1.0
		num := 1.0
		for j := 0; j < m; j++ {
			if j == i {
				continue
			}
			den *= nodes[i] - nodes[j]
			num *= y - nodes[j]
		}
		val[i] = num / den
		d := 0.0
		for k := 0; k < m; k++ {
			if k == i {
				continue
			}
			term := 1.0
			for j := 0; j < m; j++ {
				if j == i || j == k {
					continue
				}
				term *= y - nodes[j]
			}
			d += term
		}
		der[i] = d / den
	}
}

//assemble builds the one-electron integral matrices.
func (b *Radial) assemble() {
	nq := len(b.r)
	one := make([]float64, nq)
	rinv := make([]float64, nq)
	r2inv := make([]float64, nq)
	for p := range b.r {
		one[p] = 1.0
		rinv[p] = 1.0 / b.r[p]
		r2inv[p] = rinv[p] * rinv[p]
	}
	b.s = b.PotentialMatrix(one)
	b.tl = b.PotentialMatrix(r2inv)
	scaleInPlace(b.tl, 0.5)
	b.vn = b.PotentialMatrix(rinv)
	scaleInPlace(b.vn, -b.z)
	//kinetic needs the derivatives instead of the values
	wd := mat.NewDense(nq, b.nbf, nil)
	for p := 0; p < nq; p++ {
		row := b.df.RawRowView(p)
		out := wd.RawRowView(p)
		for i, v := range row {
			out[i] = 0.5 * b.w[p] * v
		}
	}
	t := mat.NewDense(b.nbf, b.nbf, nil)
	t.Mul(b.df.T(), wd)
	b.t = t
}

//PotentialMatrix returns the matrix elements of a local multiplicative
//potential given by its values on the quadrature grid:
//M_ij = sum_p w_p v_p b_i(r_p) b_j(r_p).
func (b *Radial) PotentialMatrix(v []float64) *mat.Dense {
	nq := len(b.r)
	wb := mat.NewDense(nq, b.nbf, nil)
	for p := 0; p < nq; p++ {
		row := b.bf.RawRowView(p)
		out := wb.RawRowView(p)
		wv := b.w[p] * v[p]
		for i, bv := range row {
			out[i] = wv * bv
		}
	}
	m := mat.NewDense(b.nbf, b.nbf, nil)
	m.Mul(b.bf.T(), wb)
	return m
}

//orthonormalizer builds the symmetric half-inverse of the overlap.
func (b *Radial) orthonormalizer() error {
	sym := denseToSym(b.s)
	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return Error{message: ErrEigFailed, deco: []string{"orthonormalizer"}}
	}
	ev := es.Values(nil)
	if ev[0] <= 0 {
		return Error{message: ErrOverlapNotPD, deco: []string{"orthonormalizer"}}
	}
	var v mat.Dense
	es.VectorsTo(&v)
	half := mat.NewDense(b.nbf, b.nbf, nil)
	for j := 0; j < b.nbf; j++ {
		f := 1.0 / math.Sqrt(ev[j])
		for i := 0; i < b.nbf; i++ {
			half.Set(i, j, v.At(i, j)*f)
		}
	}
	sinvh := mat.NewDense(b.nbf, b.nbf, nil)
	sinvh.Mul(half, v.T())
	b.sinvh = sinvh
	return nil
}

//poissonFactor factorizes the stiffness matrix used by the Coulomb solves.
func (b *Radial) poissonFactor() error {
	stiff := mat.NewDense(b.nbf, b.nbf, nil)
	stiff.Scale(2.0, b.t)
	b.stiff = new(mat.Cholesky)
	if ok := b.stiff.Factorize(denseToSym(stiff)); !ok {
		return Error{message: ErrStiffnessNotPD, deco: []string{"poissonFactor"}}
	}
	return nil
}

//Nbf returns the number of radial basis functions.
func (b *Radial) Nbf() int { return b.nbf }

//Charge returns the nuclear charge the basis is bound to.
func (b *Radial) Charge() float64 { return b.z }

//Rmax returns the radial cutoff.
func (b *Radial) Rmax() float64 { return b.rmax }

//Grid returns the radii of the quadrature grid. The slice is shared;
//treat it as read-only.
func (b *Radial) Grid() []float64 { return b.r }

//Weights returns the quadrature weights matching Grid. Read-only.
func (b *Radial) Weights() []float64 { return b.w }

//Values returns the basis function values on the quadrature grid, one row
//per point and one column per function. Read-only.
func (b *Radial) Values() *mat.Dense { return b.bf }

//Overlap returns the overlap matrix S. Read-only.
func (b *Radial) Overlap() *mat.Dense { return b.s }

//OverlapHalfInverse returns the symmetric S^(-1/2). Read-only.
func (b *Radial) OverlapHalfInverse() *mat.Dense { return b.sinvh }

//Kinetic returns the l-independent radial kinetic matrix
//T_ij = (1/2) int u_i' u_j' dr. Read-only.
func (b *Radial) Kinetic() *mat.Dense { return b.t }

//Centrifugal returns the factor matrix (1/2) int u_i u_j / r^2 dr; channel l
//adds it to the kinetic energy scaled by l(l+1). Read-only.
func (b *Radial) Centrifugal() *mat.Dense { return b.tl }

//Nuclear returns the nuclear attraction matrix -Z int u_i u_j / r dr for the
//bound charge. Read-only.
func (b *Radial) Nuclear() *mat.Dense { return b.vn }

//DensityOnGrid returns the reduced radial density of the density matrix P at
//every quadrature point: rho(r_p) = sum_ij P_ij b_i(r_p) b_j(r_p). Its
//quadrature sum is the electron count; the 3D density is rho/(4 pi r^2).
func (b *Radial) DensityOnGrid(p *mat.Dense) []float64 {
	nq := len(b.r)
	var bp mat.Dense
	bp.Mul(b.bf, p)
	rho := make([]float64, nq)
	for q := 0; q < nq; q++ {
		rho[q] = floats.Dot(bp.RawRowView(q), b.bf.RawRowView(q))
	}
	return rho
}

//EigGSym solves the generalized symmetric eigenproblem F C = S C E for this
//basis through its half-inverse overlap, returning the eigenvalues in
//ascending order and the S-orthonormal coefficients.
func (b *Radial) EigGSym(f *mat.Dense) ([]float64, *mat.Dense, error) {
	return EigGSym(f, b.sinvh)
}

//EigGSym diagonalizes the operator f in the metric implied by the
//half-inverse overlap sinvh: it solves sinvh^T f sinvh, in which the problem
//is an ordinary symmetric one, and maps the vectors back. Eigenvalues come
//out ascending, coefficients S-orthonormal.
func EigGSym(f, sinvh *mat.Dense) ([]float64, *mat.Dense, error) {
	var tmp, fo mat.Dense
	tmp.Mul(sinvh.T(), f)
	fo.Mul(&tmp, sinvh)
	var es mat.EigenSym
	if ok := es.Factorize(denseToSym(&fo), true); !ok {
		return nil, nil, Error{message: ErrEigFailed, deco: []string{"EigGSym"}}
	}
	ev := es.Values(nil)
	var v mat.Dense
	es.VectorsTo(&v)
	var c mat.Dense
	c.Mul(sinvh, &v)
	return ev, &c, nil
}

//denseToSym symmetrizes a nearly symmetric Dense into a SymDense.
func denseToSym(a *mat.Dense) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}

func scaleInPlace(a *mat.Dense, f float64) {
	raw := a.RawMatrix()
	floats.Scale(f, raw.Data)
}

//errDecorate adds the caller to the trail of a basis Error and passes any
//other error through unchanged.
func errDecorate(err error, caller string) error {
	e, ok := err.(Error)
	if !ok {
		return err
	}
	e.deco = e.Decorate(caller)
	return e
}
