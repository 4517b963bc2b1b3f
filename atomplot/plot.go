/*
 * plot.go, part of confinement.
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

//Package atomplot draws quick-look figures from solved atomic
//configurations: radial orbitals, SCF convergence histories and the
//screened nuclear charge. Each function writes a PNG file named after its
//plotname argument.
package atomplot

import (
	"fmt"
	"image/color"
	"math"

	atom "github.com/hugoastrom/confinement"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//logFloor keeps convergence data strictly positive so it survives a
//logarithmic axis. Anything below it is numerical noise anyway.
const logFloor = 1e-16

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

//Orbitals plots the radial amplitude u(r) of every orbital in orbs against
//the radius, one colored line per orbital, with the shell labels in the
//legend. The figure is saved as plotname.png.
func Orbitals(orbs *atom.RadialOrbitals, title, plotname string) error {
	if orbs == nil || orbs.Amp == nil {
		return fmt.Errorf("atomplot: nil orbital table")
	}
	npts, norb := orbs.Amp.Dims()
	if npts != len(orbs.R) || norb != len(orbs.Labels) {
		return fmt.Errorf("atomplot: orbital table with inconsistent dimensions")
	}
	p := basicPlot(title, "r (bohr)", "u(r)")
	for j := 0; j < norb; j++ {
		pts := make(plotter.XYs, npts)
		for q := 0; q < npts; q++ {
			pts[q].X = orbs.R[q]
			pts[q].Y = orbs.Amp.At(q, j)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		r, g, b := colors(j, norb)
		line.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		p.Add(line)
		p.Legend.Add(orbs.Labels[j], line)
	}
	p.Legend.Top = true
	filename := fmt.Sprintf("%s.png", plotname)
	return p.Save(15*vg.Centimeter, 10*vg.Centimeter, filename)
}

//Convergence plots the SCF history: the commutator residual and the
//absolute energy change per iteration, on a logarithmic scale. The figure
//is saved as plotname.png.
func Convergence(trace []atom.IterStat, title, plotname string) error {
	if len(trace) == 0 {
		return fmt.Errorf("atomplot: empty SCF trace")
	}
	p := basicPlot(title, "iteration", "error")
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	res := make(plotter.XYs, len(trace))
	des := make(plotter.XYs, len(trace))
	for i, st := range trace {
		res[i].X = float64(st.Iter)
		res[i].Y = math.Max(st.Err, logFloor)
		des[i].X = float64(st.Iter)
		des[i].Y = math.Max(math.Abs(st.DeltaE), logFloor)
	}
	rline, err := plotter.NewLine(res)
	if err != nil {
		return err
	}
	rline.Color = color.RGBA{R: 200, A: 255}
	dline, err := plotter.NewLine(des)
	if err != nil {
		return err
	}
	dline.Color = color.RGBA{B: 200, A: 255}
	dline.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(rline, dline)
	p.Legend.Add("residual", rline)
	p.Legend.Add("|dE|", dline)
	p.Legend.Top = true
	filename := fmt.Sprintf("%s.png", plotname)
	return p.Save(15*vg.Centimeter, 10*vg.Centimeter, filename)
}

//ScreenedCharge plots the effective charge Z(r) seen by an electron at
//radius r, taken from a potential table in the layout produced by
//Solver.EffectivePotential. The figure is saved as plotname.png.
func ScreenedCharge(table *mat.Dense, title, plotname string) error {
	if table == nil {
		return fmt.Errorf("atomplot: nil potential table")
	}
	npts, ncol := table.Dims()
	if ncol < 6 {
		return fmt.Errorf("atomplot: potential table with %d columns, want at least 6", ncol)
	}
	p := basicPlot(title, "r (bohr)", "Z(r)")
	pts := make(plotter.XYs, npts)
	for q := 0; q < npts; q++ {
		pts[q].X = table.At(q, 0)
		pts[q].Y = table.At(q, 5)
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 20, G: 120, B: 60, A: 255}
	p.Add(line)
	filename := fmt.Sprintf("%s.png", plotname)
	return p.Save(15*vg.Centimeter, 10*vg.Centimeter, filename)
}

//colors spreads norb hues over most of the visible range, skipping the
//yellows that read poorly on white.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	var h float64
	if hp < 55 {
		h = hp - 20.0
	} else {
		h = hp + 20.0
	}
	return hvs2rgb(h, 1.0, 1.0)
}

//hvs2rgb takes a hue in degrees (0-360) plus value and saturation (0-1)
//and returns the corresponding RGB bytes.
func hvs2rgb(h, v, s float64) (uint8, uint8, uint8) {
	maxcolor := 255.0
	if s == 0.0 {
		c := uint8(maxcolor * v)
		return c, c, c
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	pp := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, pp
	case 1:
		r, g, b = q, v, pp
	case 2:
		r, g, b = pp, v, t
	case 3:
		r, g, b = pp, q, v
	case 4:
		r, g, b = t, pp, v
	default: //case 5
		r, g, b = v, pp, q
	}
	return uint8(r * maxcolor), uint8(g * maxcolor), uint8(b * maxcolor)
}
