package asset

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/mx-space/migrator/internal/config"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const variantContentType = "image/jpeg"

// Variant is one encoded rendition of a source image.
type Variant struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
}

// Transcoder produces the primary and thumbnail renditions of an image.
type Transcoder struct {
	maxWidth     int
	quality      int
	thumbWidth   int
	thumbHeight  int
	thumbQuality int
}

func NewTranscoder(cfg config.AssetsConfig) *Transcoder {
	return &Transcoder{
		maxWidth:     cfg.MaxWidth,
		quality:      cfg.Quality,
		thumbWidth:   cfg.ThumbnailWidth,
		thumbHeight:  cfg.ThumbnailHeight,
		thumbQuality: cfg.ThumbnailQuality,
	}
}

// Transcode decodes JPEG, PNG, GIF or WebP input and returns both renditions.
func (t *Transcoder) Transcode(data []byte) (Variant, Variant, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Variant{}, Variant{}, fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Variant{}, Variant{}, fmt.Errorf("decode image: empty %s", format)
	}

	primary, err := encodeJPEG(t.scaleToWidth(src), t.quality)
	if err != nil {
		return Variant{}, Variant{}, fmt.Errorf("encode primary: %w", err)
	}
	thumb, err := encodeJPEG(t.cropThumbnail(src), t.thumbQuality)
	if err != nil {
		return Variant{}, Variant{}, fmt.Errorf("encode thumbnail: %w", err)
	}
	return primary, thumb, nil
}

// scaleToWidth never upscales.
func (t *Transcoder) scaleToWidth(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if t.maxWidth > 0 && w > t.maxWidth {
		h = h * t.maxWidth / w
		if h < 1 {
			h = 1
		}
		w = t.maxWidth
	}
	return render(src, b, w, h)
}

func (t *Transcoder) cropThumbnail(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	crop := b
	// Compare aspect ratios as w/h against thumbWidth/thumbHeight without floats.
	if w*t.thumbHeight > h*t.thumbWidth {
		cw := h * t.thumbWidth / t.thumbHeight
		if cw < 1 {
			cw = 1
		}
		x0 := b.Min.X + (w-cw)/2
		crop = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	} else {
		ch := w * t.thumbHeight / t.thumbWidth
		if ch < 1 {
			ch = 1
		}
		y0 := b.Min.Y + (h-ch)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}
	return render(src, crop, t.thumbWidth, t.thumbHeight)
}

// render scales the src region onto a white canvas so transparent pixels survive JPEG.
func render(src image.Image, region image.Rectangle, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, region, draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) (Variant, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return Variant{}, err
	}
	b := img.Bounds()
	return Variant{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy(), ContentType: variantContentType}, nil
}
