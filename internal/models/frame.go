package models

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
)

// Value is a pixel value. Grayscale frames only use the first element.
type Value [3]uint8

// Gray returns the Value for a grayscale intensity.
func Gray(v uint8) Value {
	return Value{v, v, v}
}

// RGB returns the Value for a color triple.
func RGB(r, g, b uint8) Value {
	return Value{r, g, b}
}

// Point is a pointer position in frame pixel coordinates.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Frame is one 2D raster being edited: a volume slice or a document page.
type Frame struct {
	// Width and Height are the frame dimensions in pixels
	Width  int
	Height int

	// Channels is 1 for grayscale frames and 3 for RGB frames
	Channels int

	// Pix holds the pixel data in row-major order, Channels bytes per pixel
	Pix []uint8
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height, channels int) *Frame {
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// InBounds reports whether (x, y) lies inside the frame.
func (f *Frame) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// At returns the value at (x, y). Out of bounds reads return the zero value.
func (f *Frame) At(x, y int) Value {
	var v Value
	if !f.InBounds(x, y) {
		return v
	}
	i := (y*f.Width + x) * f.Channels
	if f.Channels == 1 {
		return Gray(f.Pix[i])
	}
	copy(v[:], f.Pix[i:i+3])
	return v
}

// Set writes v at (x, y). Out of bounds writes are ignored.
func (f *Frame) Set(x, y int, v Value) {
	if !f.InBounds(x, y) {
		return
	}
	i := (y*f.Width + x) * f.Channels
	copy(f.Pix[i:i+f.Channels], v[:f.Channels])
}

// FillSpan sets pixels x0 <= x < x1 on row y, clipped to the frame.
func (f *Frame) FillSpan(x0, x1, y int, v Value) {
	if y < 0 || y >= f.Height {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > f.Width {
		x1 = f.Width
	}
	for x := x0; x < x1; x++ {
		i := (y*f.Width + x) * f.Channels
		copy(f.Pix[i:i+f.Channels], v[:f.Channels])
	}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Width:    f.Width,
		Height:   f.Height,
		Channels: f.Channels,
		Pix:      make([]uint8, len(f.Pix)),
	}
	copy(out.Pix, f.Pix)
	return out
}

// CopyFrom overwrites f's pixels with src's. Both frames must share a shape.
func (f *Frame) CopyFrom(src *Frame) error {
	if !f.SameShape(src) {
		return fmt.Errorf("frame shape mismatch: %s vs %s", f.Shape(), src.Shape())
	}
	copy(f.Pix, src.Pix)
	return nil
}

// SameShape reports whether both frames have identical dimensions and depth.
func (f *Frame) SameShape(o *Frame) bool {
	return o != nil && f.Width == o.Width && f.Height == o.Height && f.Channels == o.Channels
}

// Shape formats the frame dimensions as WxHxC.
func (f *Frame) Shape() string {
	return fmt.Sprintf("%dx%dx%d", f.Width, f.Height, f.Channels)
}

// Equal reports whether two frames are bit-for-bit identical.
func (f *Frame) Equal(o *Frame) bool {
	return f.SameShape(o) && bytes.Equal(f.Pix, o.Pix)
}

// Image returns a copy of the frame as an *image.Gray or *image.RGBA.
func (f *Frame) Image() image.Image {
	rect := image.Rect(0, 0, f.Width, f.Height)
	if f.Channels == 1 {
		img := image.NewGray(rect)
		for y := 0; y < f.Height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+f.Width], f.Pix[y*f.Width:(y+1)*f.Width])
		}
		return img
	}

	img := image.NewRGBA(rect)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			v := f.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: v[0], G: v[1], B: v[2], A: 255})
		}
	}
	return img
}

// FrameFromImage converts any image into a frame with the requested channel
// count. Grayscale conversion uses the standard luminance model.
func FrameFromImage(img image.Image, channels int) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy(), channels)

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if channels == 1 {
				g := color.GrayModel.Convert(c).(color.Gray)
				f.Pix[y*f.Width+x] = g.Y
				continue
			}
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			f.Set(x, y, Value{n.R, n.G, n.B})
		}
	}

	return f
}
