package cpu

import "errors"

var (
	ErrNoSceneData       = errors.New("cpu tracer: no scene data uploaded")
	ErrNoUniforms        = errors.New("cpu tracer: no frame uniforms uploaded")
	ErrUnsupportedUpdate = errors.New("cpu tracer: unsupported update type")
	ErrInvalidUpdateData = errors.New("cpu tracer: update payload does not match its type")
	ErrTracerBusy        = errors.New("cpu tracer: tracer is busy with another block")
	ErrNotInitialized    = errors.New("cpu tracer: tracer has not been initialized")
)
