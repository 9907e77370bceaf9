package renderer

import "errors"

var (
	ErrNoTracers        = errors.New("renderer: no tracers attached")
	ErrTooManyTracers   = errors.New("renderer: more tracers than frame rows")
	ErrInvalidFrameSize = errors.New("renderer: invalid frame size")
	ErrInvalidFOV       = errors.New("renderer: camera fov must be in (0, 180) degrees")
	ErrSceneNotDefined  = errors.New("renderer: no scene defined")
	ErrCameraNotDefined = errors.New("renderer: no camera defined")
	ErrClosed           = errors.New("renderer: renderer has been closed")
)
