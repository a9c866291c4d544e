package image

import (
	"bytes"
	"image"

	"github.com/rwcarlsen/goexif/exif"
)

// exifOrientation читает тег Orientation (1..8). Фото с телефона часто сохранены «на боку».
// Нет EXIF или тега — 1.
func exifOrientation(raw []byte) int {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// applyOrientation поворачивает/отражает картинку так, чтобы она выглядела как на экране телефона.
func applyOrientation(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	for y := range h {
		for x := range w {
			var dx, dy int
			switch orientation {
			case 2: // зеркально по горизонтали
				dx, dy = w-1-x, y
			case 3: // 180°
				dx, dy = w-1-x, h-1-y
			case 4: // зеркально по вертикали
				dx, dy = x, h-1-y
			case 5: // транспонирование
				dx, dy = y, x
			case 6: // 90° по часовой
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8: // 90° против часовой
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
