/*
 * config.go, part of confinement.
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

package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	atom "github.com/hugoastrom/confinement"
	"github.com/hugoastrom/confinement/basis"
	"github.com/hugoastrom/confinement/xc"
)

//Config holds the parameters read from the YAML configuration file. It can
//also be filled by hand; in that case call Check before using it.
type Config struct {
	//Z is the nuclear charge.
	Z float64 `yaml:"z"`

	//Charge is the net charge of the atom. The number of electrons is
	//round(Z)-Charge.
	Charge int `yaml:"charge"`

	//Lmax is the largest angular momentum with electrons in it.
	Lmax int `yaml:"lmax"`

	//Polarized requests a spin-polarized (unrestricted) calculation.
	Polarized bool `yaml:"polarized"`

	//Search requests a search over occupation patterns instead of a
	//single solve.
	Search bool `yaml:"search"`

	//Occupations fixes the electrons per angular channel, one list per
	//spin. If Search is also set they seed the search; if absent the
	//channels are filled by energy order.
	Occupations [][]int `yaml:"occupations"`

	//Rmax is the radius, in bohr, at which the atom is confined.
	Rmax float64 `yaml:"rmax"`

	//Elements is the number of radial finite elements.
	Elements int `yaml:"elements"`

	//Nodes is the number of interpolation nodes per element.
	Nodes int `yaml:"nodes"`

	//Quadrature is the number of quadrature points per element.
	Quadrature int `yaml:"quadrature"`

	//GridExponent controls how strongly the element boundaries cluster
	//toward the nucleus.
	GridExponent float64 `yaml:"gridExponent"`

	//XFunctional and CFunctional name the exchange and correlation
	//functionals, e.g. "lda_x" and "lda_c_pw". Empty means none.
	XFunctional string `yaml:"xFunctional"`
	CFunctional string `yaml:"cFunctional"`

	//ExactExchange is the fraction of exact exchange. If absent it
	//defaults to 1 without functionals and 0 with them.
	ExactExchange *float64 `yaml:"exactExchange"`

	//Maxit is the iteration limit for one SCF solve.
	Maxit int `yaml:"maxit"`

	//ConvThr is the convergence threshold on the orbital gradient
	//residual, and EnergyThr the one on the energy change.
	ConvThr   float64 `yaml:"convThr"`
	EnergyThr float64 `yaml:"energyThr"`

	//Shift is the level shift on virtual orbitals far from convergence.
	//Zero disables shifting.
	Shift *float64 `yaml:"shift"`

	//Damp scales the occupied-virtual Fock blocks far from convergence.
	//Non-zero damping replaces level shifting.
	Damp float64 `yaml:"damp"`

	//DIISOrder is the depth of the extrapolation history.
	DIISOrder int `yaml:"diisOrder"`

	//Cpus is the number of configurations solved concurrently during a
	//search.
	Cpus int `yaml:"cpus"`

	//Orbitals is the file the occupied orbitals are written to. A .gz or
	//.zst suffix selects compression. Empty writes nothing.
	Orbitals string `yaml:"orbitals"`

	//Potential is the file the radial potential table is written to.
	//Empty writes nothing.
	Potential string `yaml:"potential"`

	//Plots is the prefix for the PNG figures. Empty draws nothing.
	Plots string `yaml:"plots"`

	//Verbosity is one of debug, info, warn or error. Empty means warn.
	Verbosity string `yaml:"verbosity"`
}

//ReadConfig opens and decodes the given YAML configuration file, then
//checks it for consistency.
func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var c Config
	dec := yaml.NewDecoder(bufio.NewReader(f))
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	if err := c.Check(); err != nil {
		return nil, fmt.Errorf("Check: %w", err)
	}
	return &c, nil
}

//Check returns an error if a field does not meet the requirements of the
//solver.
func (c *Config) Check() error {
	if c.Z <= 0 {
		return fmt.Errorf("the nuclear charge must be positive")
	}
	if c.Nel() <= 0 {
		return fmt.Errorf("charge %d leaves no electrons on a Z=%.1f atom", c.Charge, c.Z)
	}
	if c.Lmax < 0 {
		return fmt.Errorf("lmax cannot be negative")
	}
	if c.Occupations != nil {
		if len(c.Occupations) != c.nspin() {
			return fmt.Errorf("got occupations for %d spin channels, want %d", len(c.Occupations), c.nspin())
		}
		tot := 0
		for _, oc := range c.Occupations {
			if len(oc) != c.Lmax+1 {
				return fmt.Errorf("got occupations for %d angular channels, want %d", len(oc), c.Lmax+1)
			}
			for _, n := range oc {
				if n < 0 {
					return fmt.Errorf("occupations cannot be negative")
				}
				tot += n
			}
		}
		if tot != c.Nel() {
			return fmt.Errorf("occupations place %d electrons but Z and charge give %d", tot, c.Nel())
		}
	}
	if _, _, err := c.functionals(); err != nil {
		return err
	}
	switch c.Verbosity {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown verbosity %q", c.Verbosity)
	}
	return nil
}

//Nel returns the number of electrons implied by the nuclear charge and the
//net charge.
func (c *Config) Nel() int {
	return int(math.Round(c.Z)) - c.Charge
}

func (c *Config) nspin() int {
	if c.Polarized {
		return 2
	}
	return 1
}

func (c *Config) functionals() (xid, cid int, err error) {
	xid, err = xc.Parse(c.XFunctional)
	if err != nil {
		return 0, 0, err
	}
	cid, err = xc.Parse(c.CFunctional)
	if err != nil {
		return 0, 0, err
	}
	return xid, cid, nil
}

func (c *Config) level() slog.Level {
	switch c.Verbosity {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

//basisOptions translates the basis fields into solver options. Absent
//fields are zero and keep the defaults.
func (c *Config) basisOptions() *basis.Options {
	o := basis.DefaultOptions()
	o.Rmax(c.Rmax)
	o.Elements(c.Elements)
	o.Nodes(c.Nodes)
	o.Quadrature(c.Quadrature)
	o.GridExponent(c.GridExponent)
	return o
}

//solverOptions translates the SCF fields into solver options.
func (c *Config) solverOptions(log *slog.Logger) (*atom.Options, error) {
	xid, cid, err := c.functionals()
	if err != nil {
		return nil, err
	}
	o := atom.DefaultOptions()
	o.Logger(log)
	o.Maxit(c.Maxit)
	o.ConvThr(c.ConvThr)
	o.EnergyThr(c.EnergyThr)
	o.Damp(c.Damp)
	o.DIISOrder(c.DIISOrder)
	o.Cpus(c.Cpus)
	if c.Shift != nil {
		o.Shift(*c.Shift)
	}
	o.XFunc(xid)
	o.CFunc(cid)
	if c.ExactExchange != nil {
		o.KFrac(*c.ExactExchange)
	} else if xid != xc.None || cid != xc.None {
		o.KFrac(0)
	}
	return o, nil
}
