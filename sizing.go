package rowan

import "math"

// maxRepeatTiles caps the number of tiles a single repeat-mode draw may emit.
// Exceeding the cap skips the draw entirely rather than stalling the frame.
const maxRepeatTiles = 10000

// resolveSizing computes the destination rectangle for fitting a sprite of
// natural size (natW, natH) into container under the given mode. Pivot is
// normalized and splits the letterbox (contain/scale_down) or the cropped
// overflow (cover) between the two sides.
//
// SizeModeRepeat is not handled here; see tileRange.
func resolveSizing(mode SizeMode, natW, natH float64, container Rect, pivotX, pivotY float64) Rect {
	if natW <= 0 || natH <= 0 || container.Empty() {
		return Rect{}
	}
	switch mode {
	case SizeModeStretch:
		return container
	case SizeModeCover:
		k := math.Max(container.Width/natW, container.Height/natH)
		return fitRect(natW*k, natH*k, container, pivotX, pivotY)
	case SizeModeContain:
		k := math.Min(container.Width/natW, container.Height/natH)
		return fitRect(natW*k, natH*k, container, pivotX, pivotY)
	case SizeModeScaleDown:
		k := math.Min(container.Width/natW, container.Height/natH)
		if k > 1 {
			k = 1
		}
		return fitRect(natW*k, natH*k, container, pivotX, pivotY)
	default:
		return Rect{}
	}
}

// fitRect places a w×h rectangle inside (or over) container, distributing the
// slack per the normalized pivot. Negative slack (cover) shifts the rect so
// the overflow is cropped about the pivot.
func fitRect(w, h float64, container Rect, pivotX, pivotY float64) Rect {
	return Rect{
		X:      container.X + (container.Width-w)*pivotX,
		Y:      container.Y + (container.Height-h)*pivotY,
		Width:  w,
		Height: h,
	}
}

// tileRange computes the tile grid for repeat mode: tiles of size
// (tileW, tileH) anchored at the container origin, narrowed to the
// intersection of container and viewport. ok is false when the tile count
// would exceed maxRepeatTiles or the visible area is empty.
func tileRange(container, viewport Rect, tileW, tileH float64) (firstX, firstY, countX, countY int, ok bool) {
	if tileW <= 0 || tileH <= 0 {
		return 0, 0, 0, 0, false
	}
	visible := container.Intersect(viewport)
	if visible.Empty() {
		return 0, 0, 0, 0, false
	}
	firstX = int(math.Floor((visible.X - container.X) / tileW))
	firstY = int(math.Floor((visible.Y - container.Y) / tileH))
	lastX := int(math.Ceil((visible.X + visible.Width - container.X) / tileW))
	lastY := int(math.Ceil((visible.Y + visible.Height - container.Y) / tileH))
	countX = lastX - firstX
	countY = lastY - firstY
	if countX <= 0 || countY <= 0 {
		return 0, 0, 0, 0, false
	}
	if countX*countY > maxRepeatTiles {
		return 0, 0, 0, 0, false
	}
	return firstX, firstY, countX, countY, true
}
