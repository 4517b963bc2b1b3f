/*
 * scf.go, part of confinement.
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
	"io"
	"log/slog"
	"math"
	"runtime"

	"gonum.org/v1/gonum/mat"
)

//IterStat is the record of one SCF iteration.
type IterStat struct {
	Iter   int
	Energy float64
	DeltaE float64
	Err    float64 //commutator residual in the orthonormal basis
}

//Options for the SCF solver.
type Options struct {
	maxit     int
	convthr   float64
	ethr      float64
	shift     float64
	dampov    float64
	diiseps   float64
	diisthr   float64
	diisorder int
	xfunc     int
	cfunc     int
	xpars     []float64
	cpars     []float64
	kfrac     float64
	cpus      int
	logger    *slog.Logger
}

//Returns an Options with the default options: a Hartree-Fock solve with
//level shifting far from convergence and a silent logger.
func DefaultOptions() *Options {
	ret := new(Options)
	ret.maxit = 128
	ret.convthr = 1e-7
	ret.ethr = 1e-8
	ret.shift = 1.0
	ret.dampov = 0
	ret.diiseps = 1e-1
	ret.diisthr = 1e-2
	ret.diisorder = 10
	ret.xfunc = 0
	ret.cfunc = 0
	ret.kfrac = 1.0
	ret.cpus = runtime.NumCPU()
	ret.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return ret
}

//Returns the maximum number of SCF iterations and sets it, if a valid
//value is given. Exhausting the budget is not an error; the configuration
//comes back with its Converged flag cleared.
func (r *Options) Maxit(maxit ...int) int {
	ret := r.maxit
	if len(maxit) > 0 && maxit[0] > 0 {
		r.maxit = maxit[0]
	}
	return ret
}

//Returns the convergence threshold on the commutator residual and sets it,
//if a valid value is given.
func (r *Options) ConvThr(convthr ...float64) float64 {
	ret := r.convthr
	if len(convthr) > 0 && convthr[0] > 0 {
		r.convthr = convthr[0]
	}
	return ret
}

//Returns the convergence threshold on the energy change between iterations
//and sets it, if a valid value is given. Convergence requires the residual
//and the energy change to pass their thresholds on the same iteration.
func (r *Options) EnergyThr(ethr ...float64) float64 {
	ret := r.ethr
	if len(ethr) > 0 && ethr[0] > 0 {
		r.ethr = ethr[0]
	}
	return ret
}

//Returns the level shift applied to virtual orbitals while the iteration
//is far from convergence and sets it, if a valid value is given. Zero
//disables shifting.
func (r *Options) Shift(shift ...float64) float64 {
	ret := r.shift
	if len(shift) > 0 && shift[0] >= 0 {
		r.shift = shift[0]
	}
	return ret
}

//Returns the damping factor for the occupied-virtual coupling blocks and
//sets it, if a valid value is given. A non-zero factor replaces level
//shifting as the far-from-convergence update. Zero disables damping.
func (r *Options) Damp(dampov ...float64) float64 {
	ret := r.dampov
	if len(dampov) > 0 && dampov[0] >= 0 && dampov[0] < 1 {
		r.dampov = dampov[0]
	}
	return ret
}

//Returns the error above which extrapolation uses the ADIIS surrogate
//alone and sets it, if a valid value is given.
func (r *Options) DIISEps(eps ...float64) float64 {
	ret := r.diiseps
	if len(eps) > 0 && eps[0] > 0 {
		r.diiseps = eps[0]
	}
	return ret
}

//Returns the error below which extrapolation uses C1-DIIS alone and sets
//it, if a valid value is given. Between DIISThr and DIISEps the two weight
//sets are blended.
func (r *Options) DIISThr(thr ...float64) float64 {
	ret := r.diisthr
	if len(thr) > 0 && thr[0] > 0 {
		r.diisthr = thr[0]
	}
	return ret
}

//Returns the number of snapshots the acceleration history keeps and sets
//it, if a valid value is given.
func (r *Options) DIISOrder(order ...int) int {
	ret := r.diisorder
	if len(order) > 0 && order[0] > 0 {
		r.diisorder = order[0]
	}
	return ret
}

//Returns the exchange functional id and sets it, if given. Zero means no
//density-functional exchange.
func (r *Options) XFunc(id ...int) int {
	ret := r.xfunc
	if len(id) > 0 && id[0] >= 0 {
		r.xfunc = id[0]
	}
	return ret
}

//Returns the correlation functional id and sets it, if given. Zero means
//no correlation functional.
func (r *Options) CFunc(id ...int) int {
	ret := r.cfunc
	if len(id) > 0 && id[0] >= 0 {
		r.cfunc = id[0]
	}
	return ret
}

//Returns the external parameters of the exchange functional and sets them,
//if given.
func (r *Options) XPars(pars ...[]float64) []float64 {
	ret := r.xpars
	if len(pars) > 0 {
		r.xpars = pars[0]
	}
	return ret
}

//Returns the external parameters of the correlation functional and sets
//them, if given.
func (r *Options) CPars(pars ...[]float64) []float64 {
	ret := r.cpars
	if len(pars) > 0 {
		r.cpars = pars[0]
	}
	return ret
}

//Returns the fraction of exact exchange in the effective operator and sets
//it, if a valid value is given. One gives Hartree-Fock exchange, zero a
//pure density functional, anything between a hybrid.
func (r *Options) KFrac(kfrac ...float64) float64 {
	ret := r.kfrac
	if len(kfrac) > 0 && kfrac[0] >= 0 && kfrac[0] <= 1 {
		r.kfrac = kfrac[0]
	}
	return ret
}

//Returns the number of goroutines used to solve candidate configurations
//concurrently and sets it, if a valid value is given.
func (r *Options) Cpus(cpus ...int) int {
	ret := r.cpus
	if len(cpus) > 0 && cpus[0] > 0 {
		r.cpus = cpus[0]
	}
	return ret
}

//Returns the logger used by the solver and sets it, if a non-nil one is
//given. The default logger discards everything.
func (r *Options) Logger(logger ...*slog.Logger) *slog.Logger {
	ret := r.logger
	if len(logger) > 0 && logger[0] != nil {
		r.logger = logger[0]
	}
	return ret
}

//Solver runs self-consistent-field iterations for candidate configurations
//on a fixed radial basis. A Solver is read-only once constructed, so any
//number of configurations can be solved concurrently with the same Solver.
type Solver struct {
	ints   Integrals
	grid   XCGrid
	lmax   int
	o      *Options
	log    *slog.Logger
	hl     []*mat.Dense //one-electron operator per channel
	ssup   *mat.Dense   //overlap supermatrix
	sihsup *mat.Dense   //half-inverse supermatrix
}

//NewSolver validates the options against the basis and the functional
//service and precomputes the channel core operators. The grid may be nil
//when no density functional is requested.
func NewSolver(ints Integrals, grid XCGrid, lmax int, options ...*Options) (*Solver, error) {
	if ints == nil {
		return nil, stateError(ErrNilBasis)
	}
	if lmax < 0 {
		return nil, paramError(ErrNoChannels)
	}
	var o *Options
	if len(options) > 0 && options[0] != nil {
		o = options[0]
	} else {
		o = DefaultOptions()
	}
	op := *o //the solver keeps its own copy so later setter calls cannot race a running solve
	switch {
	case op.maxit <= 0:
		return nil, paramError(ErrMaxit)
	case op.convthr <= 0 || op.ethr <= 0:
		return nil, paramError(ErrThreshold)
	case op.shift < 0:
		return nil, paramError(ErrShift)
	case op.dampov < 0 || op.dampov >= 1:
		return nil, paramError(ErrDamp)
	case op.kfrac < 0 || op.kfrac > 1:
		return nil, paramError(ErrKfrac)
	case op.diisorder <= 0:
		return nil, paramError(ErrOrder)
	case op.diisthr <= 0 || op.diisthr >= op.diiseps:
		return nil, paramError(ErrDiisRange)
	}
	if op.cpus <= 0 {
		op.cpus = runtime.NumCPU()
	}
	if op.logger == nil {
		op.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if op.xfunc != 0 || op.cfunc != 0 {
		if grid == nil {
			return nil, stateError(ErrNoGrid)
		}
		if err := grid.Check(op.xfunc, op.xpars, op.cfunc, op.cpars); err != nil {
			return nil, errDecorate(err, "NewSolver")
		}
	}

	s := &Solver{ints: ints, grid: grid, lmax: lmax, o: &op, log: op.logger}
	nbf := ints.Nbf()
	h0 := mat.NewDense(nbf, nbf, nil)
	h0.Add(ints.Kinetic(), ints.Nuclear())
	s.hl = make([]*mat.Dense, lmax+1)
	for l := 0; l <= lmax; l++ {
		hl := mat.NewDense(nbf, nbf, nil)
		hl.Scale(float64(l*(l+1)), ints.Centrifugal())
		hl.Add(hl, h0)
		s.hl[l] = hl
	}
	s.ssup = superMat(ints.Overlap(), lmax+1)
	s.sihsup = superMat(ints.OverlapHalfInverse(), lmax+1)
	return s, nil
}

//Lmax returns the largest angular momentum the solver handles.
func (s *Solver) Lmax() int {
	return s.lmax
}

//Basis returns the integral service the solver was built on.
func (s *Solver) Basis() Integrals {
	return s.ints
}

//Grid returns the functional service, nil for pure Hartree-Fock.
func (s *Solver) Grid() XCGrid {
	return s.grid
}

//check verifies the preconditions shared by FockBuild and Solve.
func (s *Solver) check(c *Configuration) error {
	if c == nil {
		return stateError(ErrNilConf)
	}
	if c.Lmax() != s.lmax {
		return stateError(ErrLmaxMismatch)
	}
	nbf := s.ints.Nbf()
	for _, ch := range c.orbs {
		if ch.Restricted() != c.Restricted() {
			return stateError(ErrSpinMismatch)
		}
		if !ch.OrbitalsInitialized() {
			return stateError(ErrNoOrbitals)
		}
		if !ch.OccupationsInitialized() {
			return stateError(ErrNoOccupations)
		}
		if len(ch.occs) != s.lmax+1 {
			return stateError(ErrOccLength)
		}
		if r, _ := ch.c[0].Dims(); r != nbf {
			return stateError(ErrBasisMismatch)
		}
	}
	return nil
}

//Initialize diagonalizes the bare one-electron operators and stores the
//resulting core-guess orbitals in the configuration.
func (s *Solver) Initialize(c *Configuration) error {
	if c == nil {
		return stateError(ErrNilConf)
	}
	if c.Lmax() != s.lmax {
		return stateError(ErrLmaxMismatch)
	}
	for _, ch := range c.orbs {
		if err := ch.UpdateOrbitals(s.hl, s.ints); err != nil {
			return errDecorate(err, "Initialize")
		}
	}
	return nil
}

//FockBuild rebuilds the densities and effective operators of the
//configuration from its current orbitals and returns the total energy. The
//energy components are stored in the configuration.
func (s *Solver) FockBuild(c *Configuration) (float64, error) {
	if err := s.check(c); err != nil {
		return 0, errDecorate(err, "FockBuild")
	}
	nspin := c.Nspin()
	nbf := s.ints.Nbf()

	c.p = make([][]*mat.Dense, nspin)
	pspin := make([]*mat.Dense, nspin)
	ptot := mat.NewDense(nbf, nbf, nil)
	for i, ch := range c.orbs {
		c.p[i] = ch.Density()
		pspin[i] = mat.NewDense(nbf, nbf, nil)
		for _, pl := range c.p[i] {
			pspin[i].Add(pspin[i], pl)
		}
		ptot.Add(ptot, pspin[i])
	}

	ekin := trProd(ptot, s.ints.Kinetic())
	tl := s.ints.Centrifugal()
	for _, ps := range c.p {
		for l, pl := range ps {
			if l == 0 {
				continue
			}
			ekin += float64(l*(l+1)) * trProd(pl, tl)
		}
	}
	enuc := trProd(ptot, s.ints.Nuclear())

	j := s.ints.Coulomb(ptot)
	ecoul := 0.5 * trProd(ptot, j)

	exc := 0.0
	var vxc []*mat.Dense
	if s.o.xfunc != 0 || s.o.cfunc != 0 {
		if nspin == 1 {
			v, e, nel, err := s.grid.Eval(s.o.xfunc, s.o.xpars, s.o.cfunc, s.o.cpars, ptot)
			if err != nil {
				return 0, errDecorate(err, "FockBuild")
			}
			vxc = []*mat.Dense{v}
			exc += e
			s.log.Debug("xc quadrature", "nel", nel, "target", c.Nel())
		} else {
			va, vb, e, nel, err := s.grid.EvalPolarized(s.o.xfunc, s.o.xpars, s.o.cfunc, s.o.cpars, pspin[0], pspin[1])
			if err != nil {
				return 0, errDecorate(err, "FockBuild")
			}
			vxc = []*mat.Dense{va, vb}
			exc += e
			s.log.Debug("xc quadrature", "nel", nel, "target", c.Nel())
		}
	}

	var k [][]*mat.Dense
	if s.o.kfrac != 0 {
		k = make([][]*mat.Dense, nspin)
		for i, ch := range c.orbs {
			kl, err := s.ints.Exchange(ch.FractionalDensity())
			if err != nil {
				return 0, errDecorate(err, "FockBuild")
			}
			for l := range kl {
				kl[l].Scale(s.o.kfrac, kl[l])
				exc += 0.5 * trProd(kl[l], c.p[i][l])
			}
			k[i] = kl
		}
	}

	c.f = make([][]*mat.Dense, nspin)
	for i := 0; i < nspin; i++ {
		c.f[i] = make([]*mat.Dense, s.lmax+1)
		for l := 0; l <= s.lmax; l++ {
			fl := mat.NewDense(nbf, nbf, nil)
			fl.Add(s.hl[l], j)
			if k != nil {
				fl.Add(fl, k[i][l])
			}
			if vxc != nil {
				fl.Add(fl, vxc[i])
			}
			c.f[i][l] = fl
		}
	}

	c.Energy = EnergyBreakdown{Kinetic: ekin, Nuclear: enuc, Coulomb: ecoul, XC: exc}
	c.Energy.Total = ekin + enuc + ecoul + exc
	return c.Energy.Total, nil
}

//Solve iterates the configuration to self-consistency, or until the
//iteration budget runs out, and returns the final total energy. Running
//out of iterations is not an error: the configuration keeps its last
//iterate with the Converged flag cleared. The update rule follows the
//residual: while it is above the C1-DIIS threshold the extrapolated
//operator is diagonalized with a level shift on the virtuals (or with
//damped occupied-virtual coupling when damping is enabled), after that a
//plain diagonalization takes over.
func (s *Solver) Solve(c *Configuration) (float64, error) {
	if err := s.check(c); err != nil {
		return 0, errDecorate(err, "Solve")
	}
	nspin := c.Nspin()
	acc := newAccelerator(s.ssup, s.sihsup, nspin, s.o.diisorder, s.o.diiseps, s.o.diisthr, s.log)
	c.Converged = false
	c.trace = nil

	var e, diiserr float64
	fsuper := make([]*mat.Dense, nspin)
	psuper := make([]*mat.Dense, nspin)
	for it := 1; it <= s.o.maxit; it++ {
		eold := e
		var err error
		e, err = s.FockBuild(c)
		if err != nil {
			return 0, errDecorate(err, "Solve")
		}
		de := e - eold

		for i := 0; i < nspin; i++ {
			fsuper[i] = superCube(c.f[i])
			psuper[i] = superCube(c.p[i])
		}
		diiserr = acc.update(fsuper, psuper, e)
		c.Converged = diiserr < s.o.convthr && math.Abs(de) < s.o.ethr

		if err := acc.extrapolate(fsuper); err != nil {
			return 0, errDecorate(err, "Solve")
		}
		for i := 0; i < nspin; i++ {
			c.f[i] = miniMat(fsuper[i], s.lmax+1)
		}

		if diiserr > s.o.diisthr {
			for i, ch := range c.orbs {
				if s.o.dampov > 0 {
					err = ch.UpdateOrbitalsDamped(c.f[i], s.ints, s.o.dampov)
				} else {
					err = ch.UpdateOrbitalsShifted(c.f[i], s.ints, s.o.shift)
				}
				if err != nil {
					return 0, errDecorate(err, "Solve")
				}
			}
		} else {
			for i, ch := range c.orbs {
				if err := ch.UpdateOrbitals(c.f[i], s.ints); err != nil {
					return 0, errDecorate(err, "Solve")
				}
			}
		}

		c.trace = append(c.trace, IterStat{Iter: it, Energy: e, DeltaE: de, Err: diiserr})
		s.log.Debug("scf iteration", "iter", it, "energy", e, "dE", de, "residual", diiserr)
		if c.Converged {
			break
		}
	}
	c.Iterations = len(c.trace)
	if !c.Converged {
		s.log.Warn("scf did not converge", "residual", diiserr, "occupations", c.key())
	}
	return e, nil
}
