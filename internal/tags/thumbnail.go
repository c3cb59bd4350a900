package tags

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder for artwork

	"github.com/nfnt/resize"
)

// DefaultThumbnailSize is the bounding box, in pixels, of generated thumbnails.
const DefaultThumbnailSize = 256

// Thumbnail scales artwork down to fit in a size×size box, preserving the
// aspect ratio, and encodes it as JPEG. Smaller images are not enlarged.
func Thumbnail(data []byte, size uint) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode artwork: %w", err)
	}

	thumb := resize.Thumbnail(size, size, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
