package reader

import (
	"fmt"
	"strings"

	"github.com/achilleasa/prism/asset"
	"github.com/achilleasa/prism/asset/compiler"
	"github.com/achilleasa/prism/asset/compiler/input"
	"github.com/achilleasa/prism/asset/scene"
)

// The name that selects the built-in demo scene.
const DemoScene = "demo"

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file. Wavefront (.obj) scenes are parsed and compiled,
// compiled (.zip) scenes are loaded as-is and the special name "demo"
// compiles the built-in demo scene.
func ReadScene(filename string) (*scene.Scene, error) {
	if filename == DemoScene {
		return compiler.Compile(input.NewDemoScene())
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	if strings.HasSuffix(filename, ".obj") {
		reader = newWavefrontReader()
	} else if strings.HasSuffix(filename, ".zip") {
		reader = newZipSceneReader()
	} else {
		return nil, fmt.Errorf("readScene: unsupported file format")
	}
	return reader.Read(res)
}
