/*
 * errors.go, part of confinement.
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

//ErrorKind classifies the errors raised by this package. Precondition
//errors mean a solver or configuration was used before it was properly set
//up, parameter errors mean an option value outside its legal range, and
//numerical errors mean a linear-algebra step failed on otherwise legal
//input. Failure to converge is NOT an error of any kind; it is reported in
//the Result.
type ErrorKind int

const (
	ErrPrecondition ErrorKind = iota + 1
	ErrParameter
	ErrNumerical
)

//Error messages for the errors raised by this package.
const (
	ErrNilBasis      = "scf: nil integral service"
	ErrNilConf       = "scf: nil configuration"
	ErrNoChannels    = "scf: negative lmax"
	ErrLmaxMismatch  = "scf: configuration and solver disagree on lmax"
	ErrOccLength     = "scf: occupation vector length does not match lmax"
	ErrOccRange      = "scf: negative occupation"
	ErrSpinMismatch  = "scf: restricted/unrestricted mismatch"
	ErrNoOrbitals    = "scf: orbitals not initialized"
	ErrNoOccupations = "scf: occupations not initialized"
	ErrBasisMismatch = "scf: orbital dimension does not match the basis"
	ErrNoGrid        = "scf: density functional requested without a grid service"
	ErrMaxit         = "scf: maximum iteration count must be positive"
	ErrThreshold     = "scf: convergence thresholds must be positive"
	ErrShift         = "scf: level shift must be non-negative"
	ErrDamp          = "scf: damping factor must be in [0,1)"
	ErrKfrac         = "scf: exchange fraction must be in [0,1]"
	ErrOrder         = "scf: acceleration history length must be positive"
	ErrDiisRange     = "scf: acceleration thresholds must satisfy 0 < thr < eps"
	ErrElectrons     = "scf: electron count must be positive"
	ErrElectronsCap  = "scf: electron count exceeds the basis capacity"
	ErrEmptyHistory  = "scf: extrapolation from an empty history"
	ErrNoResults     = "scf: no candidate configurations"
	ErrWriteOrbitals = "scf: orbital table dimensions disagree"
	ErrOrbitalsParse = "scf: malformed orbital table"
)

//SCFError is the concrete error type raised by this package. It implements
//the Error interface and carries an ErrorKind so callers can tell a misuse
//from a bad option without parsing the message.
type SCFError struct {
	message string
	kind    ErrorKind
	deco    []string
}

func (err *SCFError) Error() string {
	return err.message
}

func (err *SCFError) Kind() ErrorKind {
	return err.kind
}

//Decorate adds the given string to the decoration trail of the error and
//returns the trail. If the string is empty, it only returns the trail.
func (err *SCFError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func stateError(message string) *SCFError {
	return &SCFError{message: message, kind: ErrPrecondition}
}

func paramError(message string) *SCFError {
	return &SCFError{message: message, kind: ErrParameter}
}

func numError(message string) *SCFError {
	return &SCFError{message: message, kind: ErrNumerical}
}

//Kind returns the classification of an error raised by this package, or
//zero for any other error.
func Kind(err error) ErrorKind {
	kinder, ok := err.(interface{ Kind() ErrorKind })
	if !ok {
		return 0
	}
	return kinder.Kind()
}

//errDecorate adds the caller to the decoration trail when the error
//supports it, and returns the error unchanged otherwise.
func errDecorate(err error, caller string) error {
	errd, ok := err.(Error)
	if !ok {
		return err
	}
	errd.Decorate(caller)
	return errd
}
