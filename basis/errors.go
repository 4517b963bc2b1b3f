package basis

//Error is the error type for basis construction and integral evaluation.
//Everything that can go wrong here is a bad parameter or a matrix that lost
//positive-definiteness, both known before any SCF iteration starts.
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

//Messages for the errors raised on construction.
const (
	ErrLobattoOrder   = "basis: a Gauss-Lobatto rule needs at least 2 points"
	ErrElements       = "basis: at least one radial element is needed"
	ErrQuadOrder      = "basis: quadrature order must be at least the node count"
	ErrRmax           = "basis: the radial cutoff must be positive"
	ErrCharge         = "basis: the nuclear charge must be positive"
	ErrGridExp        = "basis: the grid exponent must be at least 1"
	ErrBasisSize      = "basis: the element and node counts leave no radial functions"
	ErrOverlapNotPD   = "basis: overlap matrix is not positive definite"
	ErrStiffnessNotPD = "basis: Poisson stiffness matrix is not positive definite"
	ErrNoChannels     = "basis: exchange needs at least one channel density"
	ErrEigFailed      = "basis: symmetric eigendecomposition failed"
)
