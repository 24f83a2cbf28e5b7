package rowan

import (
	"fmt"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// fakeBackend records the draw calls the render pipeline issues, in order.
// Sprites are registered by name with a natural size; the returned textures
// are dummies that are never actually drawn to.
type fakeBackend struct {
	images map[string]*ebiten.Image
	infos  map[string]SpriteInfo
	names  map[*ebiten.Image]string

	w, h  int
	calls []string
	views [][6]float64
	dsts  []Rect
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		images: make(map[string]*ebiten.Image),
		infos:  make(map[string]SpriteInfo),
		names:  make(map[*ebiten.Image]string),
		w:      800,
		h:      600,
	}
}

func (b *fakeBackend) addSprite(name string, w, h float64) {
	b.addTrimmedSprite(name, w, h, Rect{Width: w, Height: h}, 0, 0)
}

func (b *fakeBackend) addTrimmedSprite(name string, natW, natH float64, src Rect, offX, offY float64) {
	img := &ebiten.Image{}
	b.images[name] = img
	b.infos[name] = SpriteInfo{Src: src, Width: natW, Height: natH, OffsetX: offX, OffsetY: offY}
	b.names[img] = name
}

func (b *fakeBackend) DrawTexture(tex *ebiten.Image, src, dst Rect, origin Vec2, rotation float64, flipX, flipY bool, tint Color, blend BlendMode) {
	b.calls = append(b.calls, "drawTexture:"+b.names[tex])
	b.dsts = append(b.dsts, dst)
}

func (b *fakeBackend) DrawShape(shape *Shape, pos Vec2) {
	b.calls = append(b.calls, "drawShape")
}

func (b *fakeBackend) DrawText(str string, pos Vec2, size float64, clr Color) {
	b.calls = append(b.calls, "drawText:"+str)
}

func (b *fakeBackend) FindSprite(name string) (*ebiten.Image, SpriteInfo, bool) {
	img, ok := b.images[name]
	if !ok {
		return nil, SpriteInfo{}, false
	}
	return img, b.infos[name], true
}

func (b *fakeBackend) ScreenSize() (int, int) { return b.w, b.h }

func (b *fakeBackend) BeginCamera(view [6]float64, viewport Rect) {
	b.calls = append(b.calls, "beginCamera")
	b.views = append(b.views, view)
}

func (b *fakeBackend) EndCamera() { b.calls = append(b.calls, "endCamera") }

func (b *fakeBackend) BeginClip(rect Rect) { b.calls = append(b.calls, "beginClip") }

func (b *fakeBackend) EndClip() { b.calls = append(b.calls, "endClip") }

func (b *fakeBackend) reset() {
	b.calls = b.calls[:0]
	b.views = b.views[:0]
	b.dsts = b.dsts[:0]
}

func expectCalls(t *testing.T, got, want []string) {
	t.Helper()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("call sequence = %v, want %v", got, want)
	}
}

func worldUILayers() []LayerConfig {
	return []LayerConfig{
		{Name: "world", Space: SpaceWorld},
		{Name: "ui", Space: SpaceScreen, Order: 1},
	}
}

func TestRenderWorldAndScreenLayers(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("hero", 30, 40)
	b.addSprite("icon", 16, 16)
	s, err := NewScene(b, worldUILayers())
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	if err := s.CreateSprite(1, Sprite{Name: "hero", ZIndex: 5}, Vec2{X: 10, Y: 10}); err != nil {
		t.Fatalf("CreateSprite: %v", err)
	}
	if err := s.CreateSprite(2, Sprite{Name: "icon", Layer: 1}, Vec2{X: 5, Y: 5}); err != nil {
		t.Fatalf("CreateSprite: %v", err)
	}
	cam := s.NewCamera(Rect{Width: 800, Height: 600})
	cam.X, cam.Y = 10, 10

	s.Render()
	expectCalls(t, b.calls, []string{
		"beginCamera", "drawTexture:hero", "endCamera",
		"drawTexture:icon",
	})
}

func TestRenderCullsOffscreenSprites(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("hero", 30, 40)
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{Name: "hero"}, Vec2{X: 10, Y: 10})
	s.CreateSprite(2, Sprite{Name: "hero"}, Vec2{X: 100000, Y: 100000})
	cam := s.NewCamera(Rect{Width: 800, Height: 600})
	cam.X, cam.Y = 10, 10

	s.Render()
	expectCalls(t, b.calls, []string{"beginCamera", "drawTexture:hero", "endCamera"})
}

func TestRenderImplicitCamera(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("hero", 30, 40)
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{Name: "hero"}, Vec2{X: 100, Y: 100})

	s.Render()
	expectCalls(t, b.calls, []string{"beginCamera", "drawTexture:hero", "endCamera"})
	// With no explicit cameras, world coordinates equal screen coordinates.
	if !affineApproxEqual(b.views[0], identityTransform) {
		t.Errorf("implicit camera view = %v, want identity", b.views[0])
	}
}

func TestRenderSkipsHidden(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("hero", 30, 40)
	s, _ := NewScene(b, worldUILayers())
	cam := s.NewCamera(Rect{Width: 800, Height: 600})
	cam.X, cam.Y = 0, 0

	s.CreateSprite(1, Sprite{Name: "hero", Hidden: true}, Vec2{})
	s.Render()
	// The layer still has a bucket entry, so the camera pass runs, but no
	// texture is submitted.
	expectCalls(t, b.calls, []string{"beginCamera", "endCamera"})

	b.reset()
	s.UpdateSprite(1, Sprite{Name: "hero"})
	s.SetLayerVisible(0, false)
	s.Render()
	expectCalls(t, b.calls, nil)

	b.reset()
	s.SetLayerVisible(0, true)
	cam.Active = false
	s.Render()
	expectCalls(t, b.calls, nil)
}

func TestRenderUnknownSpriteIsSilent(t *testing.T) {
	b := newFakeBackend()
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{Name: "missing", Layer: 1}, Vec2{})
	s.Render()
	expectCalls(t, b.calls, nil)
}

func TestRenderCameraLayerMask(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("hero", 30, 40)
	b.addSprite("icon", 16, 16)
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{Name: "hero"}, Vec2{X: 10, Y: 10})
	s.CreateSprite(2, Sprite{Name: "icon", Layer: 1}, Vec2{})
	cam := s.NewCamera(Rect{Width: 800, Height: 600})
	cam.X, cam.Y = 10, 10
	if err := s.SetCameraLayers(0, MaskOf(1)); err != nil {
		t.Fatalf("SetCameraLayers: %v", err)
	}

	s.Render()
	expectCalls(t, b.calls, []string{"drawTexture:icon"})
}

func TestRenderZOrderAcrossKinds(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("icon", 16, 16)
	s, _ := NewScene(b, worldUILayers())
	s.CreateText(3, Text{Text: "hi", Layer: 1, ZIndex: 3}, Vec2{})
	s.CreateSprite(2, Sprite{Name: "icon", Layer: 1, ZIndex: 2}, Vec2{})
	s.CreateShape(1, Shape{Kind: ShapeCircle, Radius: 5, Layer: 1, ZIndex: 1}, Vec2{})

	s.Render()
	expectCalls(t, b.calls, []string{"drawShape", "drawTexture:icon", "drawText:hi"})
}

func TestRenderTextOnWorldLayerFullScan(t *testing.T) {
	b := newFakeBackend()
	s, _ := NewScene(b, worldUILayers())
	// Text is never spatially indexed; a text-only world layer has an empty
	// grid and must fall back to the full bucket walk.
	s.CreateText(1, Text{Text: "floating"}, Vec2{X: 50, Y: 50})
	cam := s.NewCamera(Rect{Width: 800, Height: 600})
	cam.X, cam.Y = 0, 0

	s.Render()
	expectCalls(t, b.calls, []string{"beginCamera", "drawText:floating", "endCamera"})
}

func TestRenderTextBypassesCulling(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("hero", 30, 40)
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{Name: "hero"}, Vec2{X: 10, Y: 10})
	// Far outside the viewport, but text always renders with its layer.
	s.CreateText(2, Text{Text: "far"}, Vec2{X: 100000, Y: 100000})
	cam := s.NewCamera(Rect{Width: 800, Height: 600})
	cam.X, cam.Y = 10, 10

	s.Render()
	expectCalls(t, b.calls, []string{"beginCamera", "drawTexture:hero", "drawText:far", "endCamera"})
}

func TestRenderParallaxAdjustsView(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("bg", 64, 64)
	b.addSprite("fg", 64, 64)
	s, _ := NewScene(b, []LayerConfig{
		{Name: "back", Space: SpaceWorld, ParallaxX: 0.5, ParallaxY: 0.5},
		{Name: "front", Space: SpaceWorld, Order: 1},
	})
	s.CreateSprite(1, Sprite{Name: "bg"}, Vec2{X: 500, Y: 0})
	s.CreateSprite(2, Sprite{Name: "fg", Layer: 1}, Vec2{X: 1000, Y: 0})
	cam := s.NewCamera(Rect{Width: 800, Height: 600})
	cam.X, cam.Y = 1000, 0

	s.Render()
	if len(b.views) != 2 {
		t.Fatalf("views recorded = %d, want 2", len(b.views))
	}
	// Half parallax translates by half the camera offset.
	if b.views[0][4] != 400-500.0 {
		t.Errorf("parallax view tx = %v, want %v", b.views[0][4], 400-500.0)
	}
	if b.views[1][4] != 400-1000.0 {
		t.Errorf("full view tx = %v, want %v", b.views[1][4], 400-1000.0)
	}
	// The half-speed layer's sprite at x=500 is centered for this camera.
	expectCalls(t, b.calls, []string{
		"beginCamera", "drawTexture:bg", "endCamera",
		"beginCamera", "drawTexture:fg", "endCamera",
	})
}

func TestRenderRepeatClipsToContainer(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("tile", 16, 16)
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{
		Name:      "tile",
		Layer:     1,
		Mode:      SizeModeRepeat,
		Container: Rect{Width: 32, Height: 32},
	}, Vec2{})

	s.Render()
	expectCalls(t, b.calls, []string{
		"beginClip",
		"drawTexture:tile", "drawTexture:tile", "drawTexture:tile", "drawTexture:tile",
		"endClip",
	})
}

func TestRenderRepeatTileCapSkipsDraw(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("tile", 1, 1)
	s, _ := NewScene(b, worldUILayers())
	// 800x600 one-pixel tiles is far past the cap; the draw is skipped
	// outright, clip included.
	s.CreateSprite(1, Sprite{Name: "tile", Layer: 1, Mode: SizeModeRepeat}, Vec2{})

	s.Render()
	expectCalls(t, b.calls, nil)
}

func TestRenderCoverClips(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("photo", 100, 50)
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{
		Name:      "photo",
		Layer:     1,
		Mode:      SizeModeCover,
		Container: Rect{Width: 200, Height: 200},
		PivotX:    0.5,
		PivotY:    0.5,
	}, Vec2{})

	s.Render()
	expectCalls(t, b.calls, []string{"beginClip", "drawTexture:photo", "endClip"})
}

func TestRenderContainNoClip(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("photo", 100, 50)
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{
		Name:      "photo",
		Layer:     1,
		Mode:      SizeModeContain,
		Container: Rect{Width: 200, Height: 200},
	}, Vec2{})

	s.Render()
	expectCalls(t, b.calls, []string{"drawTexture:photo"})
}

func TestRenderMultipleCameras(t *testing.T) {
	b := newFakeBackend()
	b.addSprite("hero", 30, 40)
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{Name: "hero"}, Vec2{X: 0, Y: 0})

	left := s.NewCamera(Rect{Width: 400, Height: 600})
	left.X, left.Y = 0, 0
	right := s.NewCamera(Rect{X: 400, Width: 400, Height: 600})
	right.X, right.Y = 0, 0

	s.Render()
	expectCalls(t, b.calls, []string{
		"beginCamera", "drawTexture:hero", "endCamera",
		"beginCamera", "drawTexture:hero", "endCamera",
	})
}

func TestRenderTrimmedSpriteOffset(t *testing.T) {
	b := newFakeBackend()
	// 40x40 as authored, packed down to 20x20 pixels at offset (4, 6).
	b.addTrimmedSprite("leaf", 40, 40, Rect{X: 100, Y: 50, Width: 20, Height: 20}, 4, 6)
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{Name: "leaf", Layer: 1}, Vec2{})

	s.Render()
	expectCalls(t, b.calls, []string{"drawTexture:leaf"})
	want := Rect{X: 4, Y: 6, Width: 20, Height: 20}
	if !rectApproxEqual(b.dsts[0], want) {
		t.Errorf("dst = %+v, want %+v", b.dsts[0], want)
	}

	// Scaling the sprite scales the trim offset with it.
	b.reset()
	s.UpdateSprite(1, Sprite{Name: "leaf", Layer: 1, ScaleX: 2, ScaleY: 2})
	s.Render()
	want = Rect{X: 8, Y: 12, Width: 40, Height: 40}
	if !rectApproxEqual(b.dsts[0], want) {
		t.Errorf("scaled dst = %+v, want %+v", b.dsts[0], want)
	}
}

func TestRenderTrimmedSpriteFlip(t *testing.T) {
	b := newFakeBackend()
	b.addTrimmedSprite("leaf", 40, 40, Rect{X: 100, Y: 50, Width: 20, Height: 20}, 4, 6)
	s, _ := NewScene(b, worldUILayers())
	// Mirroring reflects the trim placement within the authored quad.
	s.CreateSprite(1, Sprite{Name: "leaf", Layer: 1, FlipX: true}, Vec2{})

	s.Render()
	want := Rect{X: 40 - 4 - 20, Y: 6, Width: 20, Height: 20}
	if !rectApproxEqual(b.dsts[0], want) {
		t.Errorf("flipped dst = %+v, want %+v", b.dsts[0], want)
	}
}

func TestRenderTrimmedSpriteStretch(t *testing.T) {
	b := newFakeBackend()
	b.addTrimmedSprite("leaf", 40, 40, Rect{X: 100, Y: 50, Width: 20, Height: 20}, 4, 6)
	s, _ := NewScene(b, worldUILayers())
	s.CreateSprite(1, Sprite{
		Name:      "leaf",
		Layer:     1,
		Mode:      SizeModeStretch,
		Container: Rect{Width: 80, Height: 80},
	}, Vec2{})

	s.Render()
	// The authored quad fills the container; the pixels land scaled inside it.
	want := Rect{X: 8, Y: 12, Width: 40, Height: 40}
	if !rectApproxEqual(b.dsts[0], want) {
		t.Errorf("stretched dst = %+v, want %+v", b.dsts[0], want)
	}
}

func TestRenderTrimmedSpriteRepeat(t *testing.T) {
	b := newFakeBackend()
	b.addTrimmedSprite("leaf", 40, 40, Rect{X: 100, Y: 50, Width: 20, Height: 20}, 4, 6)
	s, _ := NewScene(b, worldUILayers())
	// Tiles step by the authored size, each blit trimmed within its tile.
	s.CreateSprite(1, Sprite{
		Name:      "leaf",
		Layer:     1,
		Mode:      SizeModeRepeat,
		Container: Rect{Width: 80, Height: 40},
	}, Vec2{})

	s.Render()
	expectCalls(t, b.calls, []string{"beginClip", "drawTexture:leaf", "drawTexture:leaf", "endClip"})
	if !rectApproxEqual(b.dsts[0], Rect{X: 4, Y: 6, Width: 20, Height: 20}) {
		t.Errorf("tile 0 dst = %+v", b.dsts[0])
	}
	if !rectApproxEqual(b.dsts[1], Rect{X: 44, Y: 6, Width: 20, Height: 20}) {
		t.Errorf("tile 1 dst = %+v", b.dsts[1])
	}
}
