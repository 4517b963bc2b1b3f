/*
 * search.go, part of confinement.
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

import "sort"

//rankConfigurations orders candidates in place: converged before
//unconverged, lower total energy first within the same convergence status.
func rankConfigurations(confs []*Configuration) {
	sort.SliceStable(confs, func(i, j int) bool {
		if confs[i].Converged != confs[j].Converged {
			return confs[i].Converged
		}
		return confs[i].Energy.Total < confs[j].Energy.Total
	})
}

type solveOut struct {
	conf *Configuration
	err  error
}

//solveAll runs an independent SCF solve per candidate on a pool of
//goroutines. Candidates whose solve fails its preconditions are dropped
//with a warning; the survivors are returned in completion order. The
//candidates share nothing but the read-only solver, so the only
//coordination needed is the job and result channels.
func (s *Solver) solveAll(confs []*Configuration) []*Configuration {
	if len(confs) == 0 {
		return nil
	}
	nworkers := s.o.cpus
	if nworkers > len(confs) {
		nworkers = len(confs)
	}
	jobs := make(chan *Configuration, len(confs))
	results := make(chan solveOut, len(confs))
	for w := 0; w < nworkers; w++ {
		go func() {
			for c := range jobs {
				_, err := s.Solve(c)
				results <- solveOut{conf: c, err: err}
			}
		}()
	}
	for _, c := range confs {
		jobs <- c
	}
	close(jobs)
	var solved []*Configuration
	for range confs {
		out := <-results
		if out.err != nil {
			s.log.Warn("candidate dropped", "occupations", out.conf.key(), "error", out.err)
			continue
		}
		solved = append(solved, out.conf)
	}
	return solved
}

//OptimalConfiguration hill-climbs the occupation landscape starting from
//the given configuration: solve the seed, solve every not-yet-visited
//neighbor, adopt the best-ranked candidate, and stop when no neighbor
//outranks the current one. The visited set spans the whole search, so
//near-degenerate neighbors cannot cycle the climb forever. The result is a
//local optimum, there is no guarantee a better occupation pattern does not
//exist further away.
func (s *Solver) OptimalConfiguration(c *Configuration) (*Configuration, error) {
	if err := s.check(c); err != nil {
		return nil, errDecorate(err, "OptimalConfiguration")
	}
	cur := c
	if _, err := s.Solve(cur); err != nil {
		return nil, errDecorate(err, "OptimalConfiguration")
	}
	visited := map[string]bool{cur.key(): true}
	for step := 1; ; step++ {
		var cand []*Configuration
		for _, n := range cur.Neighbors() {
			k := n.key()
			if visited[k] {
				continue
			}
			visited[k] = true
			cand = append(cand, n)
		}
		all := append(s.solveAll(cand), cur)
		rankConfigurations(all)
		best := all[0]
		s.log.Info("search step", "step", step, "tried", len(cand),
			"best", best.Characterize(), "energy", best.Energy.Total, "converged", best.Converged)
		if best.Equal(cur) {
			return cur, nil
		}
		cur = best
	}
}

//GroundState finds the lowest-energy electron arrangement of nel electrons
//on the solver's basis. The seed comes from Aufbau filling of the core
//guess, refined to its own fixed point (occupations refilled from each
//solved iterate until they repeat), and the result of the hill climb over
//electron moves is returned. For a spin-unrestricted search the seed puts
//the excess electron of an odd count in the alpha channel; moves between
//the spin channels take care of the rest.
func (s *Solver) GroundState(nel int, restricted bool) (*Configuration, error) {
	if nel <= 0 {
		return nil, paramError(ErrElectrons)
	}
	var c *Configuration
	if restricted {
		c = NewRestricted(s.lmax)
	} else {
		c = NewUnrestricted(s.lmax)
	}
	if err := s.Initialize(c); err != nil {
		return nil, errDecorate(err, "GroundState")
	}
	if restricted {
		if err := c.orbs[0].AufbauOccupations(nel); err != nil {
			return nil, errDecorate(err, "GroundState")
		}
	} else {
		nbeta := nel / 2
		if err := c.orbs[0].AufbauOccupations(nel - nbeta); err != nil {
			return nil, errDecorate(err, "GroundState")
		}
		if err := c.orbs[1].AufbauOccupations(nbeta); err != nil {
			return nil, errDecorate(err, "GroundState")
		}
	}

	//iterate the Aufbau filling to its own fixed point before climbing
	visited := map[string]bool{}
	for {
		visited[c.key()] = true
		if _, err := s.Solve(c); err != nil {
			return nil, errDecorate(err, "GroundState")
		}
		next := c.spawn()
		for i := range next.orbs {
			if err := next.orbs[i].AufbauOccupations(c.orbs[i].Nel()); err != nil {
				return nil, errDecorate(err, "GroundState")
			}
		}
		if next.Equal(c) || visited[next.key()] {
			break
		}
		c = next
	}
	return s.OptimalConfiguration(c)
}
