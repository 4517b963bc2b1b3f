/*
 * main.go, part of confinement.
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

/*Confatom solves the electronic structure of a spherically averaged atom
confined to a finite radius. It reads a YAML configuration file and runs
either one self-consistent solve or a search over occupation patterns,
then reports the shell structure and energy components and optionally
writes orbitals, a radial potential table and quick-look plots.

	confatom config.yaml

A minimal file only names the atom:

	z: 8
	lmax: 1
	polarized: true
	search: true

which searches for the lowest spin-polarized arrangement of the 8 electrons
of oxygen over s and p shells. The remaining keys, all optional:

	charge: 0          # ionic charge, electrons = round(z) - charge
	occupations:       # fixed electron counts per spin channel and l;
	  - [2, 3]         # alpha: two s electrons, three p electrons
	  - [2, 1]         # omit the key to fill by orbital energy instead
	rmax: 40           # cage radius in bohr
	elements: 8        # radial elements
	nodes: 15          # Lobatto nodes per element
	quadrature: 20     # quadrature points per element
	gridExponent: 2    # element spacing, r_i ~ (i/n)^exp
	xFunctional: LDA_X # or Slater; empty for Hartree-Fock
	cFunctional: LDA_C_PW
	exactExchange: 0.2 # hybrid mixing; defaults to 1 without functionals
	maxit: 128
	convThr: 1.0e-7    # orbital gradient threshold
	energyThr: 1.0e-8
	shift: 1.0         # level shift applied far from convergence
	damp: 0            # set in (0,1) to damp instead of shift
	diisOrder: 10
	cpus: 0            # solver workers during a search; 0 picks all cores
	orbitals: o2.dat.zst   # orbital table, .gz/.zst compress
	potential: o2_pot.dat  # effective potential table
	plots: o2          # prefix for PNG figures
	verbosity: info    # debug, info, warn or error
*/
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"gonum.org/v1/gonum/mat"

	atom "github.com/hugoastrom/confinement"
	"github.com/hugoastrom/confinement/atomplot"
	"github.com/hugoastrom/confinement/basis"
	"github.com/hugoastrom/confinement/xc"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: confatom config.yaml")
		os.Exit(1)
	}
	conf, err := ReadConfig(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "confatom:", err)
		os.Exit(1)
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      conf.level(),
		TimeFormat: "15:04:05",
	}))

	b, err := basis.New(conf.Z, conf.basisOptions())
	if err != nil {
		fatal(log, "basis construction", err)
	}
	o, err := conf.solverOptions(log)
	if err != nil {
		fatal(log, "option translation", err)
	}
	s, err := atom.NewSolver(b, xc.NewGrid(b), conf.Lmax, o)
	if err != nil {
		fatal(log, "solver construction", err)
	}
	log.Info("solver ready", "z", conf.Z, "nel", conf.Nel(),
		"lmax", conf.Lmax, "nbf", b.Nbf(), "rmax", b.Rmax())

	c, err := run(s, conf)
	if err != nil {
		fatal(log, "solve", err)
	}
	report(c)
	artifacts(s, c, conf, log)
}

//run picks the workflow the configuration asks for: a plain solve or a
//pattern search, each starting either from fixed occupations or from
//energy-ordered filling.
func run(s *atom.Solver, conf *Config) (*atom.Configuration, error) {
	if conf.Occupations == nil && conf.Search {
		return s.GroundState(conf.Nel(), !conf.Polarized)
	}
	var c *atom.Configuration
	if conf.Polarized {
		c = atom.NewUnrestricted(conf.Lmax)
	} else {
		c = atom.NewRestricted(conf.Lmax)
	}
	if err := s.Initialize(c); err != nil {
		return nil, err
	}
	if conf.Occupations != nil {
		occs := make([]atom.OccupationVector, len(conf.Occupations))
		for i, oc := range conf.Occupations {
			occs[i] = atom.OccupationVector(oc)
		}
		if err := c.SetOccupations(occs...); err != nil {
			return nil, err
		}
	} else if err := aufbau(c, conf.Nel()); err != nil {
		return nil, err
	}
	if conf.Search {
		return s.OptimalConfiguration(c)
	}
	_, err := s.Solve(c)
	return c, err
}

//aufbau fills the channels of a fresh configuration by orbital energy,
//splitting the electrons as evenly as spin allows.
func aufbau(c *atom.Configuration, nel int) error {
	if c.Restricted() {
		return c.Channel(0).AufbauOccupations(nel)
	}
	nb := nel / 2
	if err := c.Channel(0).AufbauOccupations(nel - nb); err != nil {
		return err
	}
	return c.Channel(1).AufbauOccupations(nb)
}

func report(c *atom.Configuration) {
	status := "converged"
	if !c.Converged {
		status = "NOT converged"
	}
	fmt.Printf("Configuration: %s (%s after %d iterations)\n\n",
		c.Characterize(), status, c.Iterations)
	for i := 0; i < c.Nspin(); i++ {
		ch := c.Channel(i)
		if !c.Restricted() {
			fmt.Printf("Spin channel %s:\n", [2]string{"alpha", "beta"}[i])
		}
		fmt.Printf("  %-5s %4s %16s\n", "shell", "occ", "energy")
		for _, sh := range ch.Occupied() {
			label := fmt.Sprintf("%d%s", sh.N, atom.ShellLabel(sh.L))
			fmt.Printf("  %-5s %4d % 16.8f\n", label, sh.Nocc, sh.E)
		}
		fmt.Println()
	}
	e := c.Energy
	fmt.Printf("  %-22s % .10f\n", "Kinetic energy", e.Kinetic)
	fmt.Printf("  %-22s % .10f\n", "Nuclear attraction", e.Nuclear)
	fmt.Printf("  %-22s % .10f\n", "Coulomb repulsion", e.Coulomb)
	fmt.Printf("  %-22s % .10f\n", "Exchange-correlation", e.XC)
	fmt.Printf("  %-22s % .10f\n", "Total energy", e.Total)
}

//artifacts writes whatever output files the configuration asks for. The
//orbital table and the potential table are built once and shared between
//the files and the plots.
func artifacts(s *atom.Solver, c *atom.Configuration, conf *Config, log *slog.Logger) {
	var orbs *atom.RadialOrbitals
	var table *mat.Dense
	var err error
	if conf.Orbitals != "" || conf.Plots != "" {
		orbs, err = s.Orbitals(c)
		if err != nil {
			fatal(log, "orbital table", err)
		}
	}
	if conf.Potential != "" || conf.Plots != "" {
		table, err = s.EffectivePotential(c)
		if err != nil {
			fatal(log, "potential table", err)
		}
	}
	if conf.Orbitals != "" {
		if err := orbs.WriteFile(conf.Orbitals); err != nil {
			fatal(log, "orbital file", err)
		}
		log.Info("wrote orbitals", "file", conf.Orbitals)
	}
	if conf.Potential != "" {
		if err := writeTable(conf.Potential, table); err != nil {
			fatal(log, "potential file", err)
		}
		log.Info("wrote potential", "file", conf.Potential)
	}
	if conf.Plots != "" {
		title := fmt.Sprintf("Z=%v %s", conf.Z, c.Characterize())
		if err := atomplot.Orbitals(orbs, title, conf.Plots+"_orbitals"); err != nil {
			fatal(log, "orbital plot", err)
		}
		if err := atomplot.Convergence(c.Trace(), title, conf.Plots+"_convergence"); err != nil {
			fatal(log, "convergence plot", err)
		}
		if err := atomplot.ScreenedCharge(table, title, conf.Plots+"_zeff"); err != nil {
			fatal(log, "screened charge plot", err)
		}
		log.Info("wrote plots", "prefix", conf.Plots)
	}
}

func writeTable(name string, table *mat.Dense) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# r n(r) vcoul vxc w zeff")
	rows, cols := table.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if j > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "% .16e", table.At(i, j))
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fatal(log *slog.Logger, stage string, err error) {
	log.Error(stage+" failed", "err", err)
	os.Exit(1)
}
