package xc

import "math"

//Energies here are per unit volume (the density times the energy per
//particle), potentials are the matching density derivatives, all in
//hartree atomic units.

//slater is the Dirac/Slater exchange of a spin-compensated density.
func slater(n float64) (e, v float64) {
	c := math.Cbrt(3.0 / math.Pi)
	v = -c * math.Cbrt(n)
	e = 0.75 * v * n
	return e, v
}

//slaterPolarized applies the exact spin scaling
//Ex[na,nb] = (Ex[2na]+Ex[2nb])/2.
func slaterPolarized(na, nb float64) (e, va, vb float64) {
	ea, va := slater(2 * na)
	eb, vb := slater(2 * nb)
	return 0.5 * (ea + eb), va, vb
}

//Fit parameters of the PW92 correlation energy, in the order
//A, alpha1, beta1..beta4, for the three channels: unpolarized,
//fully polarized, and the (negated) spin stiffness.
var pw92par = [3][6]float64{
	{0.031091, 0.21370, 7.5957, 3.5876, 1.6382, 0.49294},
	{0.015545, 0.20548, 14.1189, 6.1977, 3.3662, 0.62517},
	{0.016887, 0.11125, 10.357, 3.6231, 0.88026, 0.49671},
}

//pw92fit evaluates one fit channel and its rs derivative.
func pw92fit(rs float64, p *[6]float64) (g, dg float64) {
	a, a1 := p[0], p[1]
	sq := math.Sqrt(rs)
	q := 2 * a * (p[2]*sq + p[3]*rs + p[4]*rs*sq + p[5]*rs*rs)
	dq := a * (p[2]/sq + 2*p[3] + 3*p[4]*sq + 4*p[5]*rs)
	l := math.Log(1 + 1/q)
	g = -2 * a * (1 + a1*rs) * l
	dg = -2*a*a1*l + 2*a*(1+a1*rs)*dq/(q*(q+1))
	return g, dg
}

//pw92 is the Perdew-Wang 1992 parametrization of the LDA correlation
//energy with the full spin interpolation. n is the total density and zeta
//the spin polarization; the two returned potentials are the spin-up and
//spin-down functional derivatives (equal when zeta is 0).
func pw92(n, zeta float64) (e, va, vb float64) {
	rs := math.Cbrt(3.0 / (4.0 * math.Pi * n))
	e0, de0 := pw92fit(rs, &pw92par[0])
	e1, de1 := pw92fit(rs, &pw92par[1])
	ma, dma := pw92fit(rs, &pw92par[2]) //minus the spin stiffness
	ac, dac := -ma, -dma
	d2f0 := 8.0 / (9.0 * (math.Pow(2, 4.0/3.0) - 2.0))
	f := (math.Pow(1+zeta, 4.0/3.0) + math.Pow(1-zeta, 4.0/3.0) - 2) / (math.Pow(2, 4.0/3.0) - 2)
	df := (4.0 / 3.0) * (math.Cbrt(1+zeta) - math.Cbrt(1-zeta)) / (math.Pow(2, 4.0/3.0) - 2)
	z3 := zeta * zeta * zeta
	z4 := z3 * zeta
	ec := e0 + ac*(f/d2f0)*(1-z4) + (e1-e0)*f*z4
	dedrs := de0 + dac*(f/d2f0)*(1-z4) + (de1-de0)*f*z4
	dedz := ac/d2f0*(df*(1-z4)-4*z3*f) + (e1-e0)*(df*z4+4*z3*f)
	common := ec - (rs/3.0)*dedrs
	va = common + (1-zeta)*dedz
	vb = common - (1+zeta)*dedz
	return n * ec, va, vb
}
