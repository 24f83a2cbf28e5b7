package rowan

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func testCamera() *Camera {
	return newCamera(Rect{Width: 800, Height: 600})
}

func TestCameraIdentityAtViewportCenter(t *testing.T) {
	cam := testCamera()
	cam.X, cam.Y = 400, 300
	m := cam.computeViewMatrix()
	if !affineApproxEqual(m, identityTransform) {
		t.Errorf("view matrix = %v, want identity", m)
	}
}

func TestCameraWorldToScreen(t *testing.T) {
	cam := testCamera()
	cam.X, cam.Y = 100, 50
	cam.Zoom = 2

	// The camera position always maps to the viewport center.
	sx, sy := cam.WorldToScreen(100, 50)
	if sx != 400 || sy != 300 {
		t.Errorf("center = (%v, %v), want (400, 300)", sx, sy)
	}
	// One world unit right of center moves Zoom pixels.
	sx, sy = cam.WorldToScreen(101, 50)
	if math.Abs(sx-402) > 1e-9 || math.Abs(sy-300) > 1e-9 {
		t.Errorf("offset point = (%v, %v), want (402, 300)", sx, sy)
	}
}

func TestCameraScreenToWorldRoundTrip(t *testing.T) {
	cam := testCamera()
	cam.X, cam.Y = 250, -80
	cam.Zoom = 1.5
	cam.Rotation = 0.4
	cam.MarkDirty()

	wx, wy := 37.0, 91.0
	sx, sy := cam.WorldToScreen(wx, wy)
	bx, by := cam.ScreenToWorld(sx, sy)
	if math.Abs(bx-wx) > 1e-6 || math.Abs(by-wy) > 1e-6 {
		t.Errorf("round trip = (%v, %v), want (%v, %v)", bx, by, wx, wy)
	}
}

func TestCameraVisibleBounds(t *testing.T) {
	cam := testCamera()
	cam.X, cam.Y = 0, 0
	got := cam.VisibleBounds()
	want := Rect{X: -400, Y: -300, Width: 800, Height: 600}
	if !rectApproxEqual(got, want) {
		t.Errorf("visible bounds = %+v, want %+v", got, want)
	}

	// Zooming in halves the visible area.
	cam.Zoom = 2
	cam.MarkDirty()
	got = cam.VisibleBounds()
	want = Rect{X: -200, Y: -150, Width: 400, Height: 300}
	if !rectApproxEqual(got, want) {
		t.Errorf("zoomed bounds = %+v, want %+v", got, want)
	}
}

func TestCameraParallaxView(t *testing.T) {
	cam := testCamera()
	cam.X, cam.Y = 1000, 0

	// A half-parallax layer sees the camera at half its position, so its
	// visible window sits closer to the world origin.
	full := cam.visibleBoundsAt(cam.X, cam.Y)
	half := cam.visibleBoundsAt(cam.X*0.5, cam.Y)
	if full.X != 600 {
		t.Errorf("full parallax bounds X = %v, want 600", full.X)
	}
	if half.X != 100 {
		t.Errorf("half parallax bounds X = %v, want 100", half.X)
	}
}

func TestCameraClampToBounds(t *testing.T) {
	cam := testCamera()
	cam.SetBounds(Rect{X: 0, Y: 0, Width: 2000, Height: 2000})

	cam.X, cam.Y = 0, 0
	cam.ClampToBounds()
	if cam.X != 400 || cam.Y != 300 {
		t.Errorf("clamped = (%v, %v), want (400, 300)", cam.X, cam.Y)
	}

	cam.X, cam.Y = 5000, 5000
	cam.ClampToBounds()
	if cam.X != 1600 || cam.Y != 1700 {
		t.Errorf("clamped = (%v, %v), want (1600, 1700)", cam.X, cam.Y)
	}

	// Bounds smaller than the visible area center the camera.
	cam.SetBounds(Rect{X: 0, Y: 0, Width: 100, Height: 100})
	cam.ClampToBounds()
	if cam.X != 50 || cam.Y != 50 {
		t.Errorf("undersized bounds = (%v, %v), want (50, 50)", cam.X, cam.Y)
	}
}

func TestCameraFollowSnap(t *testing.T) {
	cam := testCamera()
	target := Vec2{X: 500, Y: 250}
	cam.Follow(&target, 0, 0, 1.0)
	cam.Update(1.0 / 60)
	if cam.X != 500 || cam.Y != 250 {
		t.Errorf("camera = (%v, %v), want target (500, 250)", cam.X, cam.Y)
	}

	// The target pointer is live: moving it moves the camera next frame.
	target.X = 600
	cam.Update(1.0 / 60)
	if cam.X != 600 {
		t.Errorf("camera X = %v, want 600 after target moved", cam.X)
	}

	cam.Unfollow()
	target.X = 900
	cam.Update(1.0 / 60)
	if cam.X != 600 {
		t.Errorf("camera X = %v, should not track after Unfollow", cam.X)
	}
}

func TestCameraFollowLerp(t *testing.T) {
	cam := testCamera()
	cam.X = 0
	target := Vec2{X: 100}
	cam.Follow(&target, 0, 0, 0.5)
	cam.Update(1.0 / 60)
	if cam.X != 50 {
		t.Errorf("camera X = %v, want 50 after one half-lerp step", cam.X)
	}
	cam.Update(1.0 / 60)
	if cam.X != 75 {
		t.Errorf("camera X = %v, want 75 after two steps", cam.X)
	}
}

func TestCameraScrollTo(t *testing.T) {
	cam := testCamera()
	cam.X, cam.Y = 0, 0
	cam.ScrollTo(100, 200, 1.0, ease.Linear)

	cam.Update(0.5)
	if math.Abs(cam.X-50) > 1e-3 || math.Abs(cam.Y-100) > 1e-3 {
		t.Errorf("midpoint = (%v, %v), want (50, 100)", cam.X, cam.Y)
	}

	cam.Update(0.5)
	if math.Abs(cam.X-100) > 1e-3 || math.Abs(cam.Y-200) > 1e-3 {
		t.Errorf("end = (%v, %v), want (100, 200)", cam.X, cam.Y)
	}
	if cam.scrollTween != nil {
		t.Error("finished scroll should clear the tween")
	}
}

func TestCameraScrollToCell(t *testing.T) {
	cam := testCamera()
	cam.ScrollToCell(2, 1, 100, 80, 0.5, ease.Linear)
	cam.Update(0.5)
	if math.Abs(cam.X-250) > 1e-3 || math.Abs(cam.Y-120) > 1e-3 {
		t.Errorf("camera = (%v, %v), want cell center (250, 120)", cam.X, cam.Y)
	}
}

func TestCameraViewMatrixCached(t *testing.T) {
	cam := testCamera()
	cam.X = 10
	m1 := cam.computeViewMatrix()
	m2 := cam.computeViewMatrix()
	if m1 != m2 {
		t.Error("cached matrix differs between calls")
	}
	cam.X = 20
	cam.MarkDirty()
	m3 := cam.computeViewMatrix()
	if m3 == m1 {
		t.Error("matrix unchanged after camera moved")
	}
}
