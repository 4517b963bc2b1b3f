//Package xc evaluates local exchange-correlation functionals on the
//quadrature grid of a radial basis and assembles the matching potential
//matrices. Only the local-density functionals an atomic reference needs are
//implemented: Slater exchange and the PW92 parametrization of the
//correlation energy, both with full spin scaling. Functional ids follow the
//conventional LDA numbering so configuration files read naturally.
package xc

import (
	"math"
	"strings"

	"github.com/hugoastrom/confinement/basis"
	"gonum.org/v1/gonum/mat"
)

//Functional ids.
const (
	None   = 0  //no functional; with None/None the solver runs pure exchange-only theory
	Slater = 1  //Slater (Dirac) LDA exchange
	PW92   = 12 //Perdew-Wang 1992 LDA correlation
)

//Parse maps a functional name from a configuration file to its id.
func Parse(name string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "lda_x", "slater", "x":
		return Slater, nil
	case "lda_c_pw", "pw92", "pw":
		return PW92, nil
	}
	return 0, Error{message: ErrUnknownFunctional + ": " + name, deco: []string{"Parse"}}
}

//Error is the error type for functional selection. All of it is parameter
//validation; nothing here fails once Check has passed.
type Error struct {
	message string
	deco    []string
}

func (err Error) Error() string { return err.message }

//Decorate adds the caller's name to the error trail and returns the trail.
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

const (
	ErrUnknownFunctional = "xc: unknown functional"
	ErrNotExchange       = "xc: not an exchange functional"
	ErrNotCorrelation    = "xc: not a correlation functional"
	ErrParams            = "xc: functional takes no parameters"
)

//Grid evaluates functionals on the quadrature grid of a radial basis.
//Points whose density falls below the threshold are skipped, which keeps
//the far tail from feeding rounding noise into the potential.
type Grid struct {
	b   *basis.Radial
	thr float64
}

//NewGrid returns a Grid over the given basis. An optional density threshold
//replaces the default 1e-12.
func NewGrid(b *basis.Radial, thr ...float64) *Grid {
	g := new(Grid)
	g.b = b
	g.thr = 1e-12
	if len(thr) > 0 && thr[0] > 0 {
		g.thr = thr[0]
	}
	return g
}

//Check validates a functional selection. It runs before any SCF iteration;
//an id this method accepts cannot fail later.
func (g *Grid) Check(xid int, xpar []float64, cid int, cpar []float64) error {
	switch xid {
	case None, Slater:
	default:
		return Error{message: ErrNotExchange, deco: []string{"Check"}}
	}
	switch cid {
	case None, PW92:
	default:
		return Error{message: ErrNotCorrelation, deco: []string{"Check"}}
	}
	if len(xpar) > 0 || len(cpar) > 0 {
		return Error{message: ErrParams, deco: []string{"Check"}}
	}
	return nil
}

//Eval computes the exchange-correlation potential matrix, the
//exchange-correlation energy and the grid-integrated electron count for a
//spin-unpolarized density matrix.
func (g *Grid) Eval(xid int, xpar []float64, cid int, cpar []float64, p *mat.Dense) (*mat.Dense, float64, float64, error) {
	if err := g.Check(xid, xpar, cid, cpar); err != nil {
		return nil, 0, 0, err
	}
	r := g.b.Grid()
	rho := g.b.DensityOnGrid(p)
	v := make([]float64, len(r))
	exc := 0.0
	nel := 0.0
	w := g.b.Weights()
	for pt := range r {
		vol := 4 * math.Pi * r[pt] * r[pt]
		n := rho[pt] / vol
		if n < g.thr {
			continue
		}
		nel += w[pt] * rho[pt]
		var e, vp float64
		if xid == Slater {
			ex, vx := slater(n)
			e += ex
			vp += vx
		}
		if cid == PW92 {
			ec, vc, _ := pw92(n, 0)
			e += ec
			vp += vc
		}
		exc += w[pt] * vol * e
		v[pt] = vp
	}
	return g.b.PotentialMatrix(v), exc, nel, nil
}

//EvalPolarized is Eval for a spin-polarized pair of density matrices. It
//returns one potential matrix per spin.
func (g *Grid) EvalPolarized(xid int, xpar []float64, cid int, cpar []float64, pa, pb *mat.Dense) (*mat.Dense, *mat.Dense, float64, float64, error) {
	if err := g.Check(xid, xpar, cid, cpar); err != nil {
		return nil, nil, 0, 0, err
	}
	r := g.b.Grid()
	rhoa := g.b.DensityOnGrid(pa)
	rhob := g.b.DensityOnGrid(pb)
	va := make([]float64, len(r))
	vb := make([]float64, len(r))
	exc := 0.0
	nel := 0.0
	w := g.b.Weights()
	for pt := range r {
		vol := 4 * math.Pi * r[pt] * r[pt]
		na := rhoa[pt] / vol
		nb := rhob[pt] / vol
		if na < 0 {
			na = 0
		}
		if nb < 0 {
			nb = 0
		}
		n := na + nb
		if n < g.thr {
			continue
		}
		nel += w[pt] * (rhoa[pt] + rhob[pt])
		var e, vpa, vpb float64
		if xid == Slater {
			ex, vxa, vxb := slaterPolarized(na, nb)
			e += ex
			vpa += vxa
			vpb += vxb
		}
		if cid == PW92 {
			zeta := (na - nb) / n
			ec, vca, vcb := pw92(n, zeta)
			e += ec
			vpa += vca
			vpb += vcb
		}
		exc += w[pt] * vol * e
		va[pt] = vpa
		vb[pt] = vpb
	}
	return g.b.PotentialMatrix(va), g.b.PotentialMatrix(vb), exc, nel, nil
}

//Potential returns the exchange-correlation potential values on the grid,
//one slice per spin channel: pass one density matrix for a restricted run,
//two for an unrestricted one. Used by the effective-potential tables.
func (g *Grid) Potential(xid int, xpar []float64, cid int, cpar []float64, p ...*mat.Dense) ([][]float64, error) {
	if err := g.Check(xid, xpar, cid, cpar); err != nil {
		return nil, err
	}
	r := g.b.Grid()
	switch len(p) {
	case 1:
		rho := g.b.DensityOnGrid(p[0])
		v := make([]float64, len(r))
		for pt := range r {
			n := rho[pt] / (4 * math.Pi * r[pt] * r[pt])
			if n < g.thr {
				continue
			}
			if xid == Slater {
				_, vx := slater(n)
				v[pt] += vx
			}
			if cid == PW92 {
				_, vc, _ := pw92(n, 0)
				v[pt] += vc
			}
		}
		return [][]float64{v}, nil
	case 2:
		rhoa := g.b.DensityOnGrid(p[0])
		rhob := g.b.DensityOnGrid(p[1])
		va := make([]float64, len(r))
		vb := make([]float64, len(r))
		for pt := range r {
			vol := 4 * math.Pi * r[pt] * r[pt]
			na, nb := rhoa[pt]/vol, rhob[pt]/vol
			if na < 0 {
				na = 0
			}
			if nb < 0 {
				nb = 0
			}
			if na+nb < g.thr {
				continue
			}
			if xid == Slater {
				_, vxa, vxb := slaterPolarized(na, nb)
				va[pt] += vxa
				vb[pt] += vxb
			}
			if cid == PW92 {
				_, vca, vcb := pw92(na+nb, (na-nb)/(na+nb))
				va[pt] += vca
				vb[pt] += vcb
			}
		}
		return [][]float64{va, vb}, nil
	}
	return nil, Error{message: "xc: Potential takes one or two density matrices", deco: []string{"Potential"}}
}
