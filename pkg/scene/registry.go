package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownScene is returned by Lookup for names that are not registered
var ErrUnknownScene = errors.New("unknown scene")

// Builder constructs a scene from options
type Builder func(opts Options) *Scene

// SceneInfo describes a registered scene
type SceneInfo struct {
	ID          string  `json:"id"`          // Unique identifier
	DisplayName string  `json:"displayName"` // UI display name
	Description string  `json:"description"` // Short description
	Build       Builder `json:"-"`
}

var builtInScenes = []SceneInfo{
	{
		ID:          "random",
		Description: "Cover scene with hundreds of random diffuse, metal and glass spheres",
		Build:       NewRandomScene,
	},
	{
		ID:          "materials",
		Description: "Diffuse, hollow glass and polished metal spheres",
		Build:       NewMaterialsScene,
	},
	{
		ID:          "diffuse",
		Description: "A single grey diffuse sphere on the ground",
		Build:       NewDiffuseScene,
	},
	{
		ID:          "normals",
		Description: "The diffuse scene shaded by surface normal",
		Build:       NewNormalsScene,
	},
	{
		ID:          "gradient",
		Description: "Red/green gradient test pattern, no tracing",
		Build:       NewGradientScene,
	},
}

// List returns every registered scene sorted by ID
func List() []SceneInfo {
	scenes := make([]SceneInfo, len(builtInScenes))
	copy(scenes, builtInScenes)
	for i := range scenes {
		scenes[i].DisplayName = titleCase(scenes[i].ID)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].ID < scenes[j].ID
	})
	return scenes
}

// Lookup finds a registered scene by ID, ignoring case
func Lookup(id string) (SceneInfo, error) {
	for _, info := range List() {
		if strings.EqualFold(info.ID, strings.TrimSpace(id)) {
			return info, nil
		}
	}
	return SceneInfo{}, fmt.Errorf("%w: %q", ErrUnknownScene, id)
}

// Build looks up a scene by ID and constructs it
func Build(id string, opts Options) (*Scene, error) {
	info, err := Lookup(id)
	if err != nil {
		return nil, err
	}
	return info.Build(opts), nil
}

// titleCase converts an identifier to title case
// e.g., "sphere-grid" -> "Sphere Grid"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
