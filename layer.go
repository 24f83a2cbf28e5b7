package rowan

import (
	"fmt"
	"sort"
)

// Layer indexes into the layer configuration list passed to NewScene.
// Layer values are dense and 0-based: the first LayerConfig is layer 0.
type Layer uint8

// MaxLayers is the maximum number of layers a scene may declare. Camera layer
// masks are 64-bit, so the layer set must fit a single mask word.
const MaxLayers = 64

// Space selects the coordinate space a layer's visuals live in.
type Space uint8

const (
	// SpaceScreen renders in raw screen coordinates: no camera transform,
	// no parallax, no spatial indexing.
	SpaceScreen Space = iota
	// SpaceWorld renders through the camera transform with the layer's
	// parallax factors applied, and world-space visuals are spatially
	// indexed for viewport culling.
	SpaceWorld
)

// LayerConfig declares one layer. The layer set is fixed at scene
// construction and validated once; it cannot change afterwards.
type LayerConfig struct {
	// Name identifies the layer in diagnostics. Must be unique and non-empty.
	Name string
	// Space is the coordinate space (screen-fixed or camera-transformed).
	Space Space
	// Order is the render order; lower renders first. Layers sharing an
	// Order render in declaration order.
	Order int
	// ParallaxX and ParallaxY scale the camera position for this layer.
	// 0 is treated as 1 (no parallax). Only meaningful for SpaceWorld.
	ParallaxX, ParallaxY float64
	// Hidden starts the layer invisible. Visibility can be toggled at
	// runtime with Scene.SetLayerVisible.
	Hidden bool
}

// effectiveParallax returns the parallax factors with the zero-means-one
// default applied.
func (c *LayerConfig) effectiveParallax() (px, py float64) {
	px, py = c.ParallaxX, c.ParallaxY
	if px == 0 {
		px = 1
	}
	if py == 0 {
		py = 1
	}
	return
}

// validateLayers checks a layer declaration list: non-empty, at most
// MaxLayers entries, unique non-empty names.
func validateLayers(configs []LayerConfig) error {
	if len(configs) == 0 {
		return fmt.Errorf("rowan: at least one layer must be declared")
	}
	if len(configs) > MaxLayers {
		return fmt.Errorf("rowan: %d layers declared, maximum is %d", len(configs), MaxLayers)
	}
	names := make(map[string]struct{}, len(configs))
	for i, cfg := range configs {
		if cfg.Name == "" {
			return fmt.Errorf("rowan: layer %d has an empty name", i)
		}
		if _, dup := names[cfg.Name]; dup {
			return fmt.Errorf("rowan: duplicate layer name %q", cfg.Name)
		}
		names[cfg.Name] = struct{}{}
	}
	return nil
}

// sortLayersByOrder returns the layer values ascending by Order, stable for
// ties (declaration order wins).
func sortLayersByOrder(configs []LayerConfig) []Layer {
	order := make([]Layer, len(configs))
	for i := range order {
		order[i] = Layer(i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return configs[order[a]].Order < configs[order[b]].Order
	})
	return order
}

// LayerMask selects a subset of layers for a camera. Bit i corresponds to
// layer i.
type LayerMask uint64

// AllLayers renders every declared layer.
const AllLayers = LayerMask(^uint64(0))

// MaskOf builds a mask from individual layers.
func MaskOf(layers ...Layer) LayerMask {
	var m LayerMask
	for _, l := range layers {
		m |= 1 << uint(l)
	}
	return m
}

// Has reports whether layer l is in the mask.
func (m LayerMask) Has(l Layer) bool {
	return m&(1<<uint(l)) != 0
}

// layerState is the per-layer runtime state: one z-order index and one
// spatial grid, plus the runtime visibility flag.
type layerState struct {
	cfg     LayerConfig
	visible bool
	z       zOrderIndex
	grid    *spatialGrid
}
