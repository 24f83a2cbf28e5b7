// Package rowan is a retained-mode 2D scene manager for [Ebitengine].
//
// Rowan stores sprite, shape, and text visuals against caller-supplied
// entity ids, keeps them ordered for rendering, and walks them once per
// frame through a narrow backend contract. Mutations are O(1) amortized and
// a frame's cost tracks what is visible, not the scene size: depth ordering
// comes from 256 z-buckets per layer (no sorting), and viewport culling from
// a uniform spatial grid per world-space layer.
//
// # Quick start
//
// Declare the layer set once, build a backend, and drive the scene from an
// [ebiten.Game]:
//
//	backend := rowan.NewEbitenBackend(atlas, fontSource)
//	scene, err := rowan.NewScene(backend, []rowan.LayerConfig{
//		{Name: "world", Space: rowan.SpaceWorld},
//		{Name: "ui", Space: rowan.SpaceScreen, Order: 1},
//	})
//	...
//	scene.CreateSprite(1, rowan.Sprite{Name: "hero_idle"}, rowan.Vec2{X: 100, Y: 50})
//
//	func (g *Game) Update() error { g.scene.Update(1.0 / float32(ebiten.TPS())); return nil }
//	func (g *Game) Draw(screen *ebiten.Image) {
//		g.backend.SetTarget(screen)
//		g.scene.Render()
//	}
//
// # Entities
//
// Entity ids are opaque 32-bit handles owned by the caller. Rowan never
// generates ids, and ids must be unique across the whole scene (not just
// within one visual kind): the spatial index keys on the id alone.
// Creating a visual under an existing id replaces it.
//
// # Layers and cameras
//
// The layer set is fixed at scene construction: each layer has a coordinate
// space (screen-fixed or world), a render order, and parallax factors.
// Without explicit cameras the scene renders through one implicit
// full-screen camera; [Scene.NewCamera] and [Camera.Layers] support
// split-screen with per-viewport layer sets. Cameras can follow a position,
// scroll with tweens (via [gween]), and clamp to world bounds.
//
// # Concurrency
//
// A Scene is single-threaded: all mutation and rendering must happen on one
// goroutine. Callers needing concurrency serialize externally, with the
// frame boundary as the synchronization point.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package rowan
