package reader

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/ledongthuc/pdf"
	"golang.org/x/image/draw"
)

// maxOCRDimension bounds the longer side of images handed to OCR. Scans
// above this are downsampled; recognition quality plateaus while runtime
// does not.
const maxOCRDimension = 3000

// extractImages pulls the raster XObject images from a page as PNG data.
// Images whose stream filters the parser cannot realize are skipped; a page
// with no recoverable images simply gets no OCR input.
func extractImages(p pdf.Page) [][]byte {
	resources := p.Resources()
	if resources.IsNull() {
		return nil
	}
	xobjects := resources.Key("XObject")
	if xobjects.IsNull() {
		return nil
	}

	var images [][]byte
	for _, name := range xobjects.Keys() {
		if data, ok := decodeImage(xobjects.Key(name)); ok {
			images = append(images, data)
		}
	}
	return images
}

// decodeImage converts one image XObject to PNG. The underlying parser
// panics on malformed objects and unsupported stream filters, so the whole
// conversion runs under recover.
func decodeImage(obj pdf.Value) (data []byte, ok bool) {
	defer func() {
		if recover() != nil {
			data, ok = nil, false
		}
	}()

	if obj.Key("Subtype").Name() != "Image" {
		return nil, false
	}

	width := int(obj.Key("Width").Int64())
	height := int(obj.Key("Height").Int64())
	if width <= 0 || height <= 0 {
		return nil, false
	}

	bpc := int(obj.Key("BitsPerComponent").Int64())
	if bpc == 0 {
		bpc = 8
	}
	colorSpace := obj.Key("ColorSpace").Name()

	rc := obj.Reader()
	defer rc.Close()
	samples, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}

	img, err := sampleImage(samples, width, height, bpc, colorSpace)
	if err != nil {
		return nil, false
	}
	img = clampForOCR(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// sampleImage builds an image from raw PDF component samples.
func sampleImage(samples []byte, width, height, bpc int, colorSpace string) (image.Image, error) {
	switch colorSpace {
	case "DeviceRGB", "CalRGB":
		return rgbImage(samples, width, height, bpc)
	case "DeviceCMYK":
		return cmykImage(samples, width, height, bpc)
	default:
		// DeviceGray, CalGray and anything unrecognized. Grayscale is the
		// common case for scanned disclosures.
		return grayImage(samples, width, height, bpc)
	}
}

// grayImage handles 1, 4 and 8 bit grayscale samples. 1-bit rows are packed
// MSB first and padded to a byte boundary, per the PDF imaging model.
func grayImage(samples []byte, width, height, bpc int) (*image.Gray, error) {
	img := image.NewGray(image.Rect(0, 0, width, height))

	switch bpc {
	case 1:
		rowBytes := (width + 7) / 8
		if len(samples) < rowBytes*height {
			return nil, fmt.Errorf("short 1-bit image data: %d bytes", len(samples))
		}
		for y := 0; y < height; y++ {
			row := samples[y*rowBytes:]
			for x := 0; x < width; x++ {
				if row[x/8]>>(7-x%8)&1 == 1 {
					img.Pix[y*width+x] = 255
				}
			}
		}
	case 4:
		rowBytes := (width + 1) / 2
		if len(samples) < rowBytes*height {
			return nil, fmt.Errorf("short 4-bit image data: %d bytes", len(samples))
		}
		for y := 0; y < height; y++ {
			row := samples[y*rowBytes:]
			for x := 0; x < width; x++ {
				nibble := row[x/2] >> 4
				if x%2 == 1 {
					nibble = row[x/2] & 0x0F
				}
				img.Pix[y*width+x] = nibble * 17
			}
		}
	case 8:
		if len(samples) < width*height {
			return nil, fmt.Errorf("short 8-bit image data: %d bytes", len(samples))
		}
		copy(img.Pix, samples[:width*height])
	default:
		return nil, fmt.Errorf("unsupported gray depth: %d", bpc)
	}

	return img, nil
}

func rgbImage(samples []byte, width, height, bpc int) (*image.RGBA, error) {
	if bpc != 8 {
		return nil, fmt.Errorf("unsupported rgb depth: %d", bpc)
	}
	if len(samples) < width*height*3 {
		return nil, fmt.Errorf("short rgb image data: %d bytes", len(samples))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4+0] = samples[i*3+0]
		img.Pix[i*4+1] = samples[i*3+1]
		img.Pix[i*4+2] = samples[i*3+2]
		img.Pix[i*4+3] = 255
	}
	return img, nil
}

func cmykImage(samples []byte, width, height, bpc int) (*image.RGBA, error) {
	if bpc != 8 {
		return nil, fmt.Errorf("unsupported cmyk depth: %d", bpc)
	}
	if len(samples) < width*height*4 {
		return nil, fmt.Errorf("short cmyk image data: %d bytes", len(samples))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		r, g, b := color.CMYKToRGB(samples[i*4+0], samples[i*4+1], samples[i*4+2], samples[i*4+3])
		img.Pix[i*4+0] = r
		img.Pix[i*4+1] = g
		img.Pix[i*4+2] = b
		img.Pix[i*4+3] = 255
	}
	return img, nil
}

// clampForOCR downsamples oversized scans to keep OCR runtime bounded.
func clampForOCR(img image.Image) image.Image {
	b := img.Bounds()
	long := b.Dx()
	if b.Dy() > long {
		long = b.Dy()
	}
	if long <= maxOCRDimension {
		return img
	}

	scale := float64(maxOCRDimension) / float64(long)
	dst := image.NewGray(image.Rect(0, 0, int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
