package rowan

import "math"

// VisualKind distinguishes the three descriptor kinds.
type VisualKind uint8

const (
	KindSprite VisualKind = iota // atlas-resolved textured quad
	KindShape                    // vector shape (circle, rect, line, ...)
	KindText                     // text string
)

// SizeMode selects how a sprite's natural size is fitted into a container
// rectangle. SizeModeNone draws at the descriptor's explicit scale.
type SizeMode uint8

const (
	SizeModeNone      SizeMode = iota // no container fitting; use ScaleX/ScaleY
	SizeModeStretch                   // fill the container exactly (aspect distortion allowed)
	SizeModeCover                     // uniform scale by max ratio; overflow cropped about the pivot
	SizeModeContain                   // uniform scale by min ratio; letterboxed, offset by pivot
	SizeModeScaleDown                 // contain, but never upscale (factor clamped to <= 1)
	SizeModeRepeat                    // tile at explicit scale, clipped to the container
)

// Sprite describes a textured visual. The zero value is a visible,
// unrotated, untinted sprite at scale 1 on layer 0, z 0.
//
// Pivot is normalized: (0,0) anchors the top-left corner at the position,
// (0.5,0.5) centers the sprite, (1,1) anchors the bottom-right corner.
type Sprite struct {
	// Name is the atlas region name resolved through Backend.FindSprite.
	Name string

	ScaleX, ScaleY float64 // 0 is treated as 1
	Rotation       float64 // radians, clockwise, about the pivot
	FlipX, FlipY   bool
	Tint           Color // zero value is treated as ColorWhite
	PivotX, PivotY float64
	Blend          BlendMode

	Layer  Layer
	ZIndex int
	Hidden bool

	// Container and Mode enable responsive sizing. A zero Container resolves
	// to the camera viewport for world layers and the screen for screen
	// layers.
	Container Rect
	Mode      SizeMode
}

func (s Sprite) placement() (Layer, int) { return s.Layer, s.ZIndex }
func (s Sprite) hidden() bool            { return s.Hidden }

// effectiveScale returns ScaleX/ScaleY with the zero-means-one default
// applied.
func (s *Sprite) effectiveScale() (sx, sy float64) {
	sx, sy = s.ScaleX, s.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return
}

// ShapeKind is the tagged-variant selector for Shape geometry.
type ShapeKind uint8

const (
	ShapeCircle   ShapeKind = iota // Radius
	ShapeRect                      // Width, Height
	ShapeLine                      // End (offset from position)
	ShapeTriangle                  // Points[0..2] (offsets from position)
	ShapePolygon                   // Points (offsets from position)
	ShapeArrow                     // End + HeadSize
	ShapeRay                       // End as direction; extends rayLength units
)

// rayLength is the world-space extent a ray shape is drawn and indexed at.
const rayLength = 10000.0

// Shape describes a vector-drawn visual. Only the geometry fields named for
// its Kind are meaningful; the rest are ignored.
type Shape struct {
	Kind        ShapeKind
	Fill        bool
	StrokeWidth float64 // 0 is treated as 1; ignored when Fill is true
	Color       Color   // zero value is treated as ColorWhite
	Rotation    float64 // radians, about the position

	Radius        float64 // ShapeCircle
	Width, Height float64 // ShapeRect (position is the top-left corner)
	End           Vec2    // ShapeLine/ShapeArrow endpoint, ShapeRay direction
	Points        []Vec2  // ShapeTriangle (3), ShapePolygon (>= 3)
	HeadSize      float64 // ShapeArrow head edge length; 0 picks a default

	Layer  Layer
	ZIndex int
	Hidden bool
}

func (s Shape) placement() (Layer, int) { return s.Layer, s.ZIndex }
func (s Shape) hidden() bool            { return s.Hidden }

// Text describes a text visual. Text is never spatially indexed; it always
// renders when its layer does.
type Text struct {
	Text  string
	Size  float64 // point size; 0 picks the backend default
	Color Color   // zero value is treated as ColorWhite

	Layer  Layer
	ZIndex int
	Hidden bool
}

func (t Text) placement() (Layer, int) { return t.Layer, t.ZIndex }
func (t Text) hidden() bool            { return t.Hidden }

// descriptor is implemented by Sprite, Shape, and Text.
type descriptor interface {
	placement() (Layer, int)
	hidden() bool
}

// normalizeTint maps the zero-value Color to white so that an unset tint
// renders rather than multiplying everything to transparent black.
func normalizeTint(c Color) Color {
	if c == (Color{}) {
		return ColorWhite
	}
	return c
}

// --- World-space bounds ---

// spriteBounds returns the world-space AABB of a sprite with natural size
// (natW, natH) placed at pos. A natural size of zero (unknown region) falls
// back to a 1x1 quad, matching the solid-color-box idiom where scale is the
// size.
func spriteBounds(s *Sprite, pos Vec2, natW, natH float64) Rect {
	if natW <= 0 {
		natW = 1
	}
	if natH <= 0 {
		natH = 1
	}
	sx, sy := s.effectiveScale()
	w := natW * math.Abs(sx)
	h := natH * math.Abs(sy)
	x := pos.X - s.PivotX*w
	y := pos.Y - s.PivotY*h
	if s.Rotation == 0 {
		return Rect{X: x, Y: y, Width: w, Height: h}
	}
	return rotatedAABB(Rect{X: x, Y: y, Width: w, Height: h}, pos, s.Rotation)
}

// shapeBounds returns the world-space AABB of a shape at pos.
func shapeBounds(s *Shape, pos Vec2) Rect {
	var r Rect
	switch s.Kind {
	case ShapeCircle:
		r = Rect{X: pos.X - s.Radius, Y: pos.Y - s.Radius, Width: 2 * s.Radius, Height: 2 * s.Radius}
	case ShapeRect:
		r = Rect{X: pos.X, Y: pos.Y, Width: s.Width, Height: s.Height}
	case ShapeLine, ShapeArrow:
		r = segmentAABB(pos, Vec2{X: pos.X + s.End.X, Y: pos.Y + s.End.Y})
	case ShapeRay:
		end := rayEndpoint(pos, s.End)
		r = segmentAABB(pos, end)
	case ShapeTriangle, ShapePolygon:
		if len(s.Points) == 0 {
			return Rect{X: pos.X, Y: pos.Y}
		}
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range s.Points {
			minX = math.Min(minX, pos.X+p.X)
			minY = math.Min(minY, pos.Y+p.Y)
			maxX = math.Max(maxX, pos.X+p.X)
			maxY = math.Max(maxY, pos.Y+p.Y)
		}
		r = Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	}
	if s.Rotation != 0 {
		r = rotatedAABB(r, pos, s.Rotation)
	}
	return r
}

// rayEndpoint extends dir from origin to rayLength. A zero direction yields
// the origin itself.
func rayEndpoint(origin, dir Vec2) Vec2 {
	length := math.Hypot(dir.X, dir.Y)
	if length == 0 {
		return origin
	}
	k := rayLength / length
	return Vec2{X: origin.X + dir.X*k, Y: origin.Y + dir.Y*k}
}

// segmentAABB returns the AABB of the segment from a to b.
func segmentAABB(a, b Vec2) Rect {
	x0, x1 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y0, y1 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// rotatedAABB rotates rect's corners about pivot and returns the enclosing
// AABB.
func rotatedAABB(r Rect, pivot Vec2, rotation float64) Rect {
	sin, cos := math.Sincos(rotation)
	rot := func(x, y float64) (float64, float64) {
		dx, dy := x-pivot.X, y-pivot.Y
		return pivot.X + dx*cos - dy*sin, pivot.Y + dx*sin + dy*cos
	}
	x0, y0 := rot(r.X, r.Y)
	x1, y1 := rot(r.X+r.Width, r.Y)
	x2, y2 := rot(r.X+r.Width, r.Y+r.Height)
	x3, y3 := rot(r.X, r.Y+r.Height)
	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
