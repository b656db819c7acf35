package browser

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const screenshotQuality = 80

// downscaleScreenshot re-encodes a screenshot as JPEG, shrinking it to at most
// maxWidth pixels wide while keeping the aspect ratio.
func downscaleScreenshot(data []byte, maxWidth int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(screenshotQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
