package rowan

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Render walks the scene once: for each active camera, each visible masked
// layer in order, resolve the visible items and dispatch draw calls through
// the backend. World layers go through the camera transform with the layer's
// parallax applied; screen layers draw in raw screen coordinates.
func (s *Scene) Render() {
	var stats frameStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	cams := s.cameras
	if len(cams) == 0 {
		cams = s.implicitCamera()
	}

	for _, cam := range cams {
		if !cam.Active {
			continue
		}
		for _, layer := range s.sorted {
			st := &s.layers[layer]
			if !st.visible || !cam.Layers.Has(layer) || st.z.Len() == 0 {
				continue
			}
			if st.cfg.Space == SpaceWorld {
				px, py := st.cfg.effectiveParallax()
				ex, ey := cam.X*px, cam.Y*py
				vis := cam.visibleBoundsAt(ex, ey)
				s.backend.BeginCamera(cam.viewMatrixAt(ex, ey), cam.Viewport)
				s.renderWorldLayer(st, vis, &stats)
				s.backend.EndCamera()
			} else {
				s.renderScreenLayer(st, cam.Viewport, &stats)
			}
		}
	}

	if s.debug {
		stats.submitTime = time.Since(t0)
		logStats(stats)
	}
}

// implicitCamera returns the single-camera-mode camera: full screen, no
// zoom, positioned so world coordinates equal screen coordinates.
func (s *Scene) implicitCamera() []*Camera {
	w, h := s.backend.ScreenSize()
	vp := Rect{Width: float64(w), Height: float64(h)}
	if s.implicit == nil {
		s.implicit = newCamera(vp)
	}
	if s.implicit.Viewport != vp {
		s.implicit.Viewport = vp
		s.implicit.MarkDirty()
	}
	s.implicit.X = vp.Width / 2
	s.implicit.Y = vp.Height / 2
	return []*Camera{s.implicit}
}

// renderWorldLayer draws one world-space layer. When the layer's grid has
// occupied cells, the camera's visible bounds are queried and intersected
// with z-bucket order; text items bypass the visible set since they are
// never spatially indexed. An empty grid falls back to a full z-bucket walk
// with a per-item bounding-box test.
func (s *Scene) renderWorldLayer(st *layerState, vis Rect, stats *frameStats) {
	if st.grid.occupiedCellCount() > 0 {
		s.queryBuf = st.grid.query(vis, s.queryBuf[:0])
		s.visGen++
		for _, id := range s.queryBuf {
			s.visSet[id] = s.visGen
		}
		st.z.each(func(item zItem) bool {
			stats.visitedItems++
			if item.Kind != KindText && s.visSet[item.ID] != s.visGen {
				stats.culledItems++
				return true
			}
			s.drawItem(item, vis, vis, false, stats)
			return true
		})
		return
	}

	stats.fullScans++
	st.z.each(func(item zItem) bool {
		stats.visitedItems++
		s.drawItem(item, vis, vis, true, stats)
		return true
	})
}

// renderScreenLayer draws one screen-space layer: full z-bucket walk in raw
// screen coordinates, no culling.
func (s *Scene) renderScreenLayer(st *layerState, viewport Rect, stats *frameStats) {
	st.z.each(func(item zItem) bool {
		stats.visitedItems++
		s.drawItem(item, viewport, viewport, false, stats)
		return true
	})
}

// drawItem dispatches one z-bucket item. container is the fallback sizing
// container (camera visible bounds for world layers, camera viewport for
// screen layers); viewport bounds repeat-mode tiling; boundsTest enables the
// per-item AABB cull of the grid-empty fallback path.
func (s *Scene) drawItem(item zItem, container, viewport Rect, boundsTest bool, stats *frameStats) {
	switch item.Kind {
	case KindSprite:
		s.drawSprite(item.ID, container, viewport, boundsTest, stats)
	case KindShape:
		s.drawShape(item.ID, viewport, boundsTest, stats)
	case KindText:
		s.drawText(item.ID, stats)
	}
}

func (s *Scene) drawSprite(id EntityID, container, viewport Rect, boundsTest bool, stats *frameStats) {
	e := s.sprites.getEntry(id)
	if e == nil {
		warnf("render: sprite %d placed in a bucket but absent from its table", id)
		return
	}
	d := &e.Desc
	if d.Hidden {
		return
	}
	tex, info, ok := s.backend.FindSprite(d.Name)
	if !ok {
		// Unknown sprites are a silent no-draw, not an error.
		return
	}
	natW, natH := info.Width, info.Height
	if boundsTest && !spriteBounds(d, e.Pos, natW, natH).Intersects(viewport) {
		stats.culledItems++
		return
	}

	tint := normalizeTint(d.Tint)
	sx, sy := d.effectiveScale()

	switch d.Mode {
	case SizeModeNone:
		w := natW * math.Abs(sx)
		h := natH * math.Abs(sy)
		quad := Rect{X: e.Pos.X - d.PivotX*w, Y: e.Pos.Y - d.PivotY*h, Width: w, Height: h}
		flipX := d.FlipX != (sx < 0)
		flipY := d.FlipY != (sy < 0)
		dst := trimDst(info, quad, flipX, flipY)
		// Rotation stays about the pivot point, expressed in dst space.
		origin := Vec2{X: e.Pos.X - dst.X, Y: e.Pos.Y - dst.Y}
		s.backend.DrawTexture(tex, info.Src, dst, origin, d.Rotation, flipX, flipY, tint, d.Blend)
		stats.drawCalls++

	case SizeModeRepeat:
		s.drawRepeatSprite(d, tex, info, container, viewport, tint, stats)

	case SizeModeStretch, SizeModeCover, SizeModeContain, SizeModeScaleDown:
		cont := d.Container
		if cont.Empty() {
			cont = container
		}
		quad := resolveSizing(d.Mode, natW, natH, cont, d.PivotX, d.PivotY)
		if quad.Empty() {
			return
		}
		clip := d.Mode == SizeModeCover && (quad.Width > cont.Width || quad.Height > cont.Height)
		if clip {
			s.backend.BeginClip(cont)
		}
		s.backend.DrawTexture(tex, info.Src, trimDst(info, quad, d.FlipX, d.FlipY), Vec2{}, 0, d.FlipX, d.FlipY, tint, d.Blend)
		if clip {
			s.backend.EndClip()
		}
		stats.drawCalls++
	}
}

// trimDst maps the trimmed pixel rectangle into the untrimmed quad the
// sprite is laid out as, scaling the atlas trim offset with the quad and
// mirroring it under flips. Untrimmed sprites pass through unchanged.
func trimDst(info SpriteInfo, quad Rect, flipX, flipY bool) Rect {
	if info.Width <= 0 || info.Height <= 0 {
		return quad
	}
	offX, offY := info.OffsetX, info.OffsetY
	if flipX {
		offX = info.Width - info.OffsetX - info.Src.Width
	}
	if flipY {
		offY = info.Height - info.OffsetY - info.Src.Height
	}
	kx := quad.Width / info.Width
	ky := quad.Height / info.Height
	return Rect{
		X:      quad.X + offX*kx,
		Y:      quad.Y + offY*ky,
		Width:  info.Src.Width * kx,
		Height: info.Src.Height * ky,
	}
}

// drawRepeatSprite tiles the sprite at its explicit scale across the
// container, clipped to it, with the tile range narrowed to the visible
// intersection. A range past the tile cap skips the draw entirely.
func (s *Scene) drawRepeatSprite(d *Sprite, tex *ebiten.Image, info SpriteInfo, container, viewport Rect, tint Color, stats *frameStats) {
	cont := d.Container
	if cont.Empty() {
		cont = container
	}
	sx, sy := d.effectiveScale()
	tileW := info.Width * math.Abs(sx)
	tileH := info.Height * math.Abs(sy)

	firstX, firstY, countX, countY, ok := tileRange(cont, viewport, tileW, tileH)
	if !ok {
		return
	}

	s.backend.BeginClip(cont.Intersect(viewport))
	for ty := 0; ty < countY; ty++ {
		for tx := 0; tx < countX; tx++ {
			quad := Rect{
				X:      cont.X + float64(firstX+tx)*tileW,
				Y:      cont.Y + float64(firstY+ty)*tileH,
				Width:  tileW,
				Height: tileH,
			}
			s.backend.DrawTexture(tex, info.Src, trimDst(info, quad, d.FlipX, d.FlipY), Vec2{}, 0, d.FlipX, d.FlipY, tint, d.Blend)
			stats.drawCalls++
		}
	}
	s.backend.EndClip()
}

func (s *Scene) drawShape(id EntityID, viewport Rect, boundsTest bool, stats *frameStats) {
	e := s.shapes.getEntry(id)
	if e == nil {
		warnf("render: shape %d placed in a bucket but absent from its table", id)
		return
	}
	if e.Desc.Hidden {
		return
	}
	if boundsTest && !shapeBounds(&e.Desc, e.Pos).Intersects(viewport) {
		stats.culledItems++
		return
	}
	s.backend.DrawShape(&e.Desc, e.Pos)
	stats.drawCalls++
}

func (s *Scene) drawText(id EntityID, stats *frameStats) {
	e := s.texts.getEntry(id)
	if e == nil {
		warnf("render: text %d placed in a bucket but absent from its table", id)
		return
	}
	if e.Desc.Hidden {
		return
	}
	s.backend.DrawText(e.Desc.Text, e.Pos, e.Desc.Size, e.Desc.Color)
	stats.drawCalls++
}
