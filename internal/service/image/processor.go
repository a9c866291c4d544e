package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	defaultMaxWidth     = 1280
	defaultMaxSizeBytes = 1 * 1024 * 1024
	defaultQuality      = 80
	minWidth            = 320
	// 40 Мп: больше любой камеры телефона, но RGBA такого размера ещё помещается в память
	defaultMaxPixels = 40_000_000
)

// DecodeError — присланные байты не являются корректной картинкой.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode image: %s: %v", e.Reason, e.Err)
	}
	return "decode image: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrInvalidDataURL — строка не похожа на data URL вида "data:<mime>;base64,<payload>".
var ErrInvalidDataURL = errors.New("invalid image data URL")

// ErrTooManyPixels — заголовок картинки заявляет размер больше допустимого.
var ErrTooManyPixels = errors.New("image has too many pixels")

type ProcessedImage struct {
	Width        int
	Height       int
	SourceFormat string
	SizeBytes    int
	MimeType     string
	Data         []byte
}

// DataURL возвращает картинку в виде data URL для отправки в модель.
func (p ProcessedImage) DataURL() string {
	contentType := p.MimeType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(p.Data))
}

type Processor struct {
	maxWidth    int
	maxSizeByte int
	maxPixels   int
	quality     int
}

// NewProcessor создаёт обработчик. Нулевые значения заменяются дефолтами.
// maxPixels ограничивает ширину*высоту исходной картинки по заголовку, до декодирования пикселей.
func NewProcessor(maxWidth, maxSizeBytes, maxPixels int) *Processor {
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	if maxSizeBytes <= 0 {
		maxSizeBytes = defaultMaxSizeBytes
	}
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}
	return &Processor{
		maxWidth:    maxWidth,
		maxSizeByte: maxSizeBytes,
		maxPixels:   maxPixels,
		quality:     defaultQuality,
	}
}

// SplitDataURL отделяет заголовок "data:<mime>;base64" от полезной нагрузки.
func SplitDataURL(dataURL string) (string, error) {
	_, encoded, ok := strings.Cut(dataURL, ",")
	if !ok {
		return "", ErrInvalidDataURL
	}
	return encoded, nil
}

// ProcessBase64 декодирует base64, проверяет что это картинка, уменьшает и перекодирует в JPEG.
func (p *Processor) ProcessBase64(encoded string) (ProcessedImage, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return ProcessedImage{}, &DecodeError{Reason: "invalid base64", Err: err}
	}
	return p.Process(raw)
}

// Process проверяет байты картинки и готовит её к отправке: ширина не больше maxWidth, размер не больше maxSizeByte.
func (p *Processor) Process(raw []byte) (ProcessedImage, error) {
	if len(raw) == 0 {
		return ProcessedImage{}, &DecodeError{Reason: "empty payload"}
	}

	// размеры из заголовка: декодер выделяет буфер под все пиксели ещё до чтения данных
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return ProcessedImage{}, &DecodeError{Reason: "unsupported or corrupted image", Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ProcessedImage{}, &DecodeError{Reason: fmt.Sprintf("invalid image size: %dx%d", cfg.Width, cfg.Height)}
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		return ProcessedImage{}, &DecodeError{
			Reason: fmt.Sprintf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, p.maxPixels),
			Err:    ErrTooManyPixels,
		}
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return ProcessedImage{}, &DecodeError{Reason: "unsupported or corrupted image", Err: err}
	}
	if format == "jpeg" {
		img = applyOrientation(img, exifOrientation(raw))
	}

	origBounds := img.Bounds()
	origWidth := origBounds.Dx()
	origHeight := origBounds.Dy()
	if origWidth == 0 || origHeight == 0 {
		return ProcessedImage{}, &DecodeError{Reason: fmt.Sprintf("invalid image size: %dx%d", origWidth, origHeight)}
	}

	quality := min(max(p.quality, defaultQuality), 100)

	resizedWidth := min(origWidth, p.maxWidth)
	resizedHeight := max(1, origHeight*resizedWidth/origWidth)

	var encoded []byte
	for {
		resized := img
		if resizedWidth != origWidth {
			resized = resize(img, resizedWidth, resizedHeight)
		}
		encoded, err = encodeJPEG(resized, quality)
		if err != nil {
			return ProcessedImage{}, err
		}

		if len(encoded) <= p.maxSizeByte {
			break
		}

		if resizedWidth <= minWidth {
			return ProcessedImage{}, fmt.Errorf("image exceeds max size %d bytes even after downscale", p.maxSizeByte)
		}

		resizedWidth = max(1, int(float64(resizedWidth)*0.9))
		resizedHeight = max(1, origHeight*resizedWidth/origWidth)
	}

	return ProcessedImage{
		Width:        resizedWidth,
		Height:       resizedHeight,
		SourceFormat: format,
		SizeBytes:    len(encoded),
		MimeType:     "image/jpeg",
		Data:         encoded,
	}, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resize(src image.Image, width int, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(1, width), max(1, height)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
