// Package shaders embeds the WGSL sources of the moonlit render passes.
package shaders

import (
	"embed"
	"fmt"
)

//go:embed *.wgsl
var files embed.FS

// Scene pass sources. Each is prefixed with the frame-wide bindings at group 0.
const (
	Lit       = "lit"
	Sky       = "sky"
	Mist      = "mist"
	Fireflies = "fireflies"
)

// Shadow is the depth-only source of the shadow pass.
const Shadow = "shadow"

// Post-processing sources. Each is prefixed with the full-screen triangle and the source
// texture bindings at group 0.
const (
	Bright    = "bright"
	Blur      = "blur"
	Composite = "composite"
	Output    = "output"
)

var preludes = map[string]string{
	Lit:       "scene_prelude",
	Sky:       "scene_prelude",
	Mist:      "scene_prelude",
	Fireflies: "scene_prelude",
	Shadow:    "",
	Bright:    "fullscreen_prelude",
	Blur:      "fullscreen_prelude",
	Composite: "fullscreen_prelude",
	Output:    "fullscreen_prelude",
}

// Names lists every source in registration order.
var Names = []string{Shadow, Sky, Lit, Mist, Fireflies, Bright, Blur, Composite, Output}

// Source returns the complete WGSL of a named source with its prelude prepended.
//
// Parameters:
//   - name: one of the source names declared in this package
//
// Returns:
//   - string: the WGSL source
//   - error: if the name is unknown
func Source(name string) (string, error) {
	prelude, ok := preludes[name]
	if !ok {
		return "", fmt.Errorf("unknown shader %q", name)
	}
	body, err := files.ReadFile(name + ".wgsl")
	if err != nil {
		return "", err
	}
	if prelude == "" {
		return string(body), nil
	}
	head, err := files.ReadFile(prelude + ".wgsl")
	if err != nil {
		return "", err
	}
	return string(head) + "\n" + string(body), nil
}
