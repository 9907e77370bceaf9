package compiler

import "errors"

var (
	ErrNoMeshes             = errors.New("compiler: scene defines no meshes")
	ErrNoInstances          = errors.New("compiler: scene defines no mesh instances")
	ErrEmptyMesh            = errors.New("compiler: mesh has no vertices or triangles")
	ErrIndexOutOfRange      = errors.New("compiler: triangle index out of range")
	ErrInvalidMeshRef       = errors.New("compiler: mesh instance references unknown mesh")
	ErrInvalidMaterialIndex = errors.New("compiler: mesh instance references unknown material")
	ErrCustomIndexOverflow  = errors.New("compiler: material index does not fit in 24 bits")
	ErrSingularTransform    = errors.New("compiler: mesh instance transform is not invertible")
	ErrInvalidMaterial      = errors.New("compiler: invalid material definition")
)
