package scan

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"golang.org/x/image/draw"
)

// previewMax bounds the preview edge length. Terminal cells are coarse,
// anything larger is wasted work.
const previewMax = 64

// Asset is one scan attachment: the bytes uploaded to the service plus
// a locally generated preview. At most one asset is attached to a
// pending submission; replacing it releases the previous one.
type Asset struct {
	Path     string
	Filename string
	Data     []byte
	Preview  image.Image

	released bool
}

// LoadAsset reads a scan from disk. PNG and JPEG files are used as-is;
// a .dcm file has its first frame extracted and re-encoded as PNG so
// the service always receives a plain raster image.
func LoadAsset(path string) (*Asset, error) {
	var (
		img  image.Image
		data []byte
		name = filepath.Base(path)
		err  error
	)

	if strings.EqualFold(filepath.Ext(path), ".dcm") {
		img, err = decodeDICOM(path)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		data = buf.Bytes()
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading scan: %w", err)
		}
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
	}

	return &Asset{
		Path:     path,
		Filename: name,
		Data:     data,
		Preview:  thumbnail(img, previewMax),
	}, nil
}

// decodeDICOM extracts the first frame of a DICOM file as an image.
func decodeDICOM(path string) (image.Image, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing DICOM file: %w", err)
	}
	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("DICOM file has no pixel data: %w", err)
	}
	info := dicom.MustGetPixelDataInfo(elem.Value)
	if len(info.Frames) == 0 {
		return nil, fmt.Errorf("DICOM file has no frames")
	}
	img, err := info.Frames[0].GetImage()
	if err != nil {
		return nil, fmt.Errorf("extracting DICOM frame: %w", err)
	}
	return img, nil
}

// thumbnail scales img down to fit in a max×max box, preserving the
// aspect ratio. Images already small enough are returned unchanged.
func thumbnail(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}

	scale := float64(max) / float64(w)
	if h > w {
		scale = float64(max) / float64(h)
	}
	dw, dh := int(float64(w)*scale), int(float64(h)*scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Release invalidates the asset: the preview and upload bytes are
// dropped so a superseded attachment cannot be submitted by accident.
func (a *Asset) Release() {
	if a == nil {
		return
	}
	a.Data = nil
	a.Preview = nil
	a.released = true
}

// Released reports whether the asset has been invalidated.
func (a *Asset) Released() bool { return a != nil && a.released }
