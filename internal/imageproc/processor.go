package imageproc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// DetectFormat inspects the raw bytes and returns the image format:
// "jpeg", "png", "gif", or "" for anything the gallery does not accept.
func DetectFormat(data []byte) string {
	// JPEG: starts with FF D8 FF
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "jpeg"
	}
	// PNG: starts with 89 50 4E 47 0D 0A 1A 0A
	if len(data) >= 8 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 &&
		data[4] == 0x0D && data[5] == 0x0A && data[6] == 0x1A && data[7] == 0x0A {
		return "png"
	}
	// GIF: starts with GIF87a or GIF89a
	if len(data) >= 6 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F' {
		return "gif"
	}
	return ""
}

// ContentType maps a DetectFormat result to its MIME type.
func ContentType(format string) string {
	switch format {
	case "jpeg", "png", "gif":
		return "image/" + format
	default:
		return "application/octet-stream"
	}
}

// Thumbnail decodes data and scales it down to fit within maxSide x maxSide,
// never enlarging. GIFs are flattened to their first frame and re-encoded
// as PNG. It returns the encoded bytes and their format.
func Thumbnail(data []byte, maxSide int) ([]byte, string, error) {
	format := DetectFormat(data)
	switch format {
	case "jpeg", "png", "gif":
	default:
		return nil, "", fmt.Errorf("unsupported or unrecognized image format")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > maxSide || b.Dy() > maxSide {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	if format == "gif" {
		format = "png"
	}
	out, err := encodeImage(img, format)
	if err != nil {
		return nil, "", fmt.Errorf("encoding image: %w", err)
	}
	return out, format, nil
}

// PreviewDataURL renders a small inline preview of data as a data: URL.
func PreviewDataURL(data []byte, maxSide int) (string, error) {
	thumb, format, err := Thumbnail(data, maxSide)
	if err != nil {
		return "", err
	}
	return "data:" + ContentType(format) + ";base64," + base64.StdEncoding.EncodeToString(thumb), nil
}

// encodeImage encodes an image to the specified format and returns the bytes.
func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
		if err != nil {
			return nil, err
		}
	case "png":
		err := png.Encode(&buf, img)
		if err != nil {
			return nil, err
		}
	case "gif":
		err := gif.Encode(&buf, img, nil)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return buf.Bytes(), nil
}
