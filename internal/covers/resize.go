package covers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Resize scales image data so its longest edge is at most maxSize, keeping
// the aspect ratio. Images that already fit are returned unchanged. PNG
// sources stay PNG, everything else becomes JPEG.
func Resize(data []byte, maxSize int) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("error decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return data, "image/" + format, nil
	}

	toW, toH := maxSize, maxSize
	if w > h {
		toH = max(1, h*maxSize/w)
	} else if h > w {
		toW = max(1, w*maxSize/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, toW, toH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var out bytes.Buffer
	if format == "png" {
		if err := png.Encode(&out, dst); err != nil {
			return nil, "", fmt.Errorf("encoding image: %w", err)
		}
		return out.Bytes(), "image/png", nil
	}
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, "", fmt.Errorf("encoding image: %w", err)
	}
	return out.Bytes(), "image/jpeg", nil
}
