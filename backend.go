package rowan

import "github.com/hajimehoshi/ebiten/v2"

// SpriteInfo describes a resolved sprite: the sub-rectangle holding its
// pixels and its untrimmed natural size. For atlases packed with trimming,
// Src is smaller than the natural size and OffsetX/OffsetY place it within
// the untrimmed quad.
type SpriteInfo struct {
	Src              Rect    // pixel sub-rectangle within the texture
	Width, Height    float64 // untrimmed natural size as authored
	OffsetX, OffsetY float64 // placement of Src within the natural quad
}

// Backend is the narrow contract the render pipeline draws through. The
// windowing/graphics library side implements it; EbitenBackend is the
// implementation shipped with rowan. A Backend instance is exclusively owned
// by one Scene and is never called concurrently.
type Backend interface {
	// DrawTexture blits the src sub-rectangle of tex into the dst rectangle,
	// rotated about origin (a point in dst space), optionally mirrored,
	// tinted and blended.
	DrawTexture(tex *ebiten.Image, src, dst Rect, origin Vec2, rotation float64, flipX, flipY bool, tint Color, blend BlendMode)

	// DrawShape draws the shape's tagged geometry at pos.
	DrawShape(shape *Shape, pos Vec2)

	// DrawText draws str at pos with the given point size and color.
	DrawText(str string, pos Vec2, size float64, clr Color)

	// FindSprite resolves an atlas region by name. A miss is reported via
	// ok=false, never an error; callers treat it as a silent no-draw.
	FindSprite(name string) (tex *ebiten.Image, info SpriteInfo, ok bool)

	// ScreenSize returns the current output dimensions in pixels.
	ScreenSize() (width, height int)

	// BeginCamera applies a view transform to subsequent draws, restricted
	// to the given screen-space viewport. Calls do not nest; EndCamera
	// restores raw screen coordinates.
	BeginCamera(view [6]float64, viewport Rect)
	EndCamera()

	// BeginClip restricts subsequent draws to rect (in the current draw
	// space). Calls do not nest; EndClip removes the restriction.
	BeginClip(rect Rect)
	EndClip()
}
