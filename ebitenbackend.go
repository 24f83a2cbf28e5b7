package rowan

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	etext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// defaultTextSize is used when a Text descriptor leaves Size at zero.
const defaultTextSize = 16.0

// EbitenBackend implements Backend on top of Ebitengine. Sprites resolve
// through a TexturePacker Atlas, shapes tessellate through vector.Path into
// DrawTriangles, and text draws through text/v2.
//
// Call SetTarget with the frame's screen image before Scene.Render.
type EbitenBackend struct {
	atlas *Atlas
	font  *etext.GoTextFaceSource

	target    *ebiten.Image // current draw target (screen, viewport, or clip sub-image)
	screen    *ebiten.Image
	view      [6]float64
	viewOn    bool
	savedCam  *ebiten.Image // target before BeginCamera
	savedClip *ebiten.Image // target before BeginClip

	// Scratch buffers reused across shape draws.
	verts []ebiten.Vertex
	inds  []uint16
}

// NewEbitenBackend creates a backend drawing through ebiten. atlas may be nil
// (every FindSprite misses); font may be nil (DrawText is a no-op).
func NewEbitenBackend(atlas *Atlas, font *etext.GoTextFaceSource) *EbitenBackend {
	return &EbitenBackend{atlas: atlas, font: font, view: identityTransform}
}

// SetTarget sets the frame's output image. Call once per frame before
// Scene.Render.
func (b *EbitenBackend) SetTarget(screen *ebiten.Image) {
	b.screen = screen
	b.target = screen
}

// ScreenSize returns the current output dimensions in pixels.
func (b *EbitenBackend) ScreenSize() (int, int) {
	if b.screen == nil {
		return 0, 0
	}
	bounds := b.screen.Bounds()
	return bounds.Dx(), bounds.Dy()
}

// missingSprite is the debug-mode placeholder for unresolved sprite names.
// Lazily created; magenta so misses are impossible to overlook.
var missingSprite *ebiten.Image

func missingPlaceholder() *ebiten.Image {
	if missingSprite == nil {
		missingSprite = ebiten.NewImage(8, 8)
		missingSprite.Fill(color.RGBA{R: 0xff, B: 0xff, A: 0xff})
	}
	return missingSprite
}

// FindSprite resolves an atlas region by name. Trimmed regions report their
// untrimmed natural size with the trim offset, so callers lay out against
// the authored quad. In debug mode a miss resolves to a magenta placeholder
// instead of a silent no-draw.
func (b *EbitenBackend) FindSprite(name string) (*ebiten.Image, SpriteInfo, bool) {
	r, ok := TextureRegion{}, false
	if b.atlas != nil {
		r, ok = b.atlas.Lookup(name)
	}
	var page *ebiten.Image
	if ok && int(r.Page) < len(b.atlas.Pages) {
		page = b.atlas.Pages[r.Page]
	}
	if !ok || page == nil {
		if debugEnabled {
			p := missingPlaceholder()
			return p, SpriteInfo{Src: Rect{Width: 8, Height: 8}, Width: 8, Height: 8}, true
		}
		return nil, SpriteInfo{}, false
	}
	info := SpriteInfo{
		Src:     Rect{X: float64(r.X), Y: float64(r.Y), Width: float64(r.Width), Height: float64(r.Height)},
		Width:   float64(r.OriginalW),
		Height:  float64(r.OriginalH),
		OffsetX: float64(r.OffsetX),
		OffsetY: float64(r.OffsetY),
	}
	if info.Width <= 0 {
		info.Width = info.Src.Width
	}
	if info.Height <= 0 {
		info.Height = info.Src.Height
	}
	return page, info, true
}

// BeginCamera applies a view transform and restricts drawing to the viewport.
func (b *EbitenBackend) BeginCamera(view [6]float64, viewport Rect) {
	b.view = view
	b.viewOn = true
	b.savedCam = b.target
	if b.target != nil {
		b.target = b.target.SubImage(image.Rect(
			int(viewport.X), int(viewport.Y),
			int(viewport.X+viewport.Width), int(viewport.Y+viewport.Height),
		)).(*ebiten.Image)
	}
}

// EndCamera restores raw screen coordinates.
func (b *EbitenBackend) EndCamera() {
	b.view = identityTransform
	b.viewOn = false
	if b.savedCam != nil {
		b.target = b.savedCam
		b.savedCam = nil
	}
}

// BeginClip restricts drawing to rect in the current draw space.
func (b *EbitenBackend) BeginClip(rect Rect) {
	if b.target == nil {
		return
	}
	screenRect := rect
	if b.viewOn {
		screenRect = transformRectAABB(b.view, rect)
	}
	b.savedClip = b.target
	b.target = b.target.SubImage(image.Rect(
		int(math.Floor(screenRect.X)), int(math.Floor(screenRect.Y)),
		int(math.Ceil(screenRect.X+screenRect.Width)), int(math.Ceil(screenRect.Y+screenRect.Height)),
	)).(*ebiten.Image)
}

// EndClip removes the clip restriction.
func (b *EbitenBackend) EndClip() {
	if b.savedClip != nil {
		b.target = b.savedClip
		b.savedClip = nil
	}
}

// DrawTexture blits the src sub-rectangle of tex into dst, rotated about
// origin, tinted, blended, and transformed by the active camera view.
func (b *EbitenBackend) DrawTexture(tex *ebiten.Image, src, dst Rect, origin Vec2, rotation float64, flipX, flipY bool, tint Color, blend BlendMode) {
	if b.target == nil || tex == nil || src.Empty() || dst.Empty() {
		return
	}
	sub := tex.SubImage(image.Rect(
		int(src.X), int(src.Y),
		int(src.X+src.Width), int(src.Y+src.Height),
	)).(*ebiten.Image)

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(dst.Width/src.Width, dst.Height/src.Height)
	if flipX {
		op.GeoM.Scale(-1, 1)
		op.GeoM.Translate(dst.Width, 0)
	}
	if flipY {
		op.GeoM.Scale(1, -1)
		op.GeoM.Translate(0, dst.Height)
	}
	if rotation != 0 {
		op.GeoM.Translate(-origin.X, -origin.Y)
		op.GeoM.Rotate(rotation)
		op.GeoM.Translate(origin.X, origin.Y)
	}
	op.GeoM.Translate(dst.X, dst.Y)
	if b.viewOn {
		op.GeoM.Concat(affineGeoM(b.view))
	}

	// Premultiplied color scale, zero-tint treated as white.
	tint = normalizeTint(tint)
	a := float32(tint.A)
	op.ColorScale.Scale(float32(tint.R)*a, float32(tint.G)*a, float32(tint.B)*a, a)
	op.Blend = blend.EbitenBlend()

	b.target.DrawImage(sub, &op)
}

// DrawShape tessellates the shape through vector.Path and submits it with
// DrawTriangles against WhitePixel.
func (b *EbitenBackend) DrawShape(shape *Shape, pos Vec2) {
	if b.target == nil {
		return
	}
	var path vector.Path
	fill := shape.Fill

	switch shape.Kind {
	case ShapeCircle:
		path.Arc(float32(pos.X), float32(pos.Y), float32(shape.Radius), 0, 2*math.Pi, vector.Clockwise)
		path.Close()
	case ShapeRect:
		path.MoveTo(float32(pos.X), float32(pos.Y))
		path.LineTo(float32(pos.X+shape.Width), float32(pos.Y))
		path.LineTo(float32(pos.X+shape.Width), float32(pos.Y+shape.Height))
		path.LineTo(float32(pos.X), float32(pos.Y+shape.Height))
		path.Close()
	case ShapeLine:
		path.MoveTo(float32(pos.X), float32(pos.Y))
		path.LineTo(float32(pos.X+shape.End.X), float32(pos.Y+shape.End.Y))
		fill = false
	case ShapeRay:
		end := rayEndpoint(pos, shape.End)
		path.MoveTo(float32(pos.X), float32(pos.Y))
		path.LineTo(float32(end.X), float32(end.Y))
		fill = false
	case ShapeTriangle, ShapePolygon:
		if len(shape.Points) < 3 {
			return
		}
		path.MoveTo(float32(pos.X+shape.Points[0].X), float32(pos.Y+shape.Points[0].Y))
		for _, p := range shape.Points[1:] {
			path.LineTo(float32(pos.X+p.X), float32(pos.Y+p.Y))
		}
		path.Close()
	case ShapeArrow:
		b.drawArrow(shape, pos)
		return
	default:
		return
	}

	b.submitPath(&path, shape, pos, fill)
}

// drawArrow draws a stroked shaft plus a filled triangular head at the tip.
func (b *EbitenBackend) drawArrow(shape *Shape, pos Vec2) {
	tip := Vec2{X: pos.X + shape.End.X, Y: pos.Y + shape.End.Y}
	length := math.Hypot(shape.End.X, shape.End.Y)
	if length == 0 {
		return
	}
	head := shape.HeadSize
	if head <= 0 {
		head = math.Max(8, length*0.2)
	}
	dx, dy := shape.End.X/length, shape.End.Y/length

	// Shaft stops where the head begins.
	shaftEnd := Vec2{X: tip.X - dx*head, Y: tip.Y - dy*head}
	var shaft vector.Path
	shaft.MoveTo(float32(pos.X), float32(pos.Y))
	shaft.LineTo(float32(shaftEnd.X), float32(shaftEnd.Y))
	b.submitPath(&shaft, shape, pos, false)

	// Head: isoceles triangle pointing at the tip.
	px, py := -dy, dx
	halfW := head / 2
	var headPath vector.Path
	headPath.MoveTo(float32(tip.X), float32(tip.Y))
	headPath.LineTo(float32(shaftEnd.X+px*halfW), float32(shaftEnd.Y+py*halfW))
	headPath.LineTo(float32(shaftEnd.X-px*halfW), float32(shaftEnd.Y-py*halfW))
	headPath.Close()
	b.submitPath(&headPath, shape, pos, true)
}

// submitPath turns a path into vertices, applies rotation about pos and the
// camera view, and draws the triangles.
func (b *EbitenBackend) submitPath(path *vector.Path, shape *Shape, pos Vec2, fill bool) {
	b.verts = b.verts[:0]
	b.inds = b.inds[:0]
	if fill {
		b.verts, b.inds = path.AppendVerticesAndIndicesForFilling(b.verts, b.inds)
	} else {
		width := shape.StrokeWidth
		if width <= 0 {
			width = 1
		}
		op := &vector.StrokeOptions{Width: float32(width)}
		b.verts, b.inds = path.AppendVerticesAndIndicesForStroke(b.verts, b.inds, op)
	}

	m := identityTransform
	if shape.Rotation != 0 {
		sin, cos := math.Sincos(shape.Rotation)
		// Rotate about the shape position.
		m = multiplyAffine(
			[6]float64{1, 0, 0, 1, pos.X, pos.Y},
			multiplyAffine(
				[6]float64{cos, sin, -sin, cos, 0, 0},
				[6]float64{1, 0, 0, 1, -pos.X, -pos.Y},
			),
		)
	}
	if b.viewOn {
		m = multiplyAffine(b.view, m)
	}

	clr := normalizeTint(shape.Color)
	for i := range b.verts {
		x, y := transformPoint(m, float64(b.verts[i].DstX), float64(b.verts[i].DstY))
		b.verts[i].DstX = float32(x)
		b.verts[i].DstY = float32(y)
		b.verts[i].SrcX = 0.5
		b.verts[i].SrcY = 0.5
		b.verts[i].ColorR = float32(clr.R)
		b.verts[i].ColorG = float32(clr.G)
		b.verts[i].ColorB = float32(clr.B)
		b.verts[i].ColorA = float32(clr.A)
	}

	var triOp ebiten.DrawTrianglesOptions
	triOp.FillRule = ebiten.FillRuleNonZero
	b.target.DrawTriangles(b.verts, b.inds, WhitePixel, &triOp)
}

// DrawText draws str at pos through text/v2. A nil font source is a silent
// no-draw.
func (b *EbitenBackend) DrawText(str string, pos Vec2, size float64, clr Color) {
	if b.target == nil || b.font == nil || str == "" {
		return
	}
	if size <= 0 {
		size = defaultTextSize
	}
	face := &etext.GoTextFace{Source: b.font, Size: size}
	op := &etext.DrawOptions{}
	op.GeoM.Translate(pos.X, pos.Y)
	if b.viewOn {
		op.GeoM.Concat(affineGeoM(b.view))
	}
	op.ColorScale.ScaleWithColor(normalizeTint(clr).toRGBA())
	etext.Draw(b.target, str, face, op)
}

// affineGeoM converts a [6]float64 affine matrix into an ebiten.GeoM.
func affineGeoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}
