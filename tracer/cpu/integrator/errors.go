package integrator

import "errors"

var (
	ErrMissingRayGen           = errors.New("integrator: shader binding table has no ray generation record")
	ErrEmptyMissRegion         = errors.New("integrator: shader binding table has no miss records")
	ErrEmptyHitRegion          = errors.New("integrator: shader binding table has no hit group records")
	ErrNilProgram              = errors.New("integrator: shader binding table record has no program")
	ErrUnsupportedRecursion    = errors.New("integrator: requested recursion depth exceeds the supported maximum")
	ErrRecursionLimitExceeded  = errors.New("integrator: trace call exceeded the pipeline recursion depth")
	ErrInvalidSBTIndex         = errors.New("integrator: ray selects a shader binding table record that does not exist")
	ErrNoScene                 = errors.New("integrator: no scene to trace")
	ErrInvalidLaunchDimensions = errors.New("integrator: launch block lies outside the frame")
)
