package raster

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// BytesPerPixel is the size of one packed BGRA pixel.
const BytesPerPixel = 4

// ErrBufferAlloc indicates a frame buffer of the requested geometry
// could not be allocated.
var ErrBufferAlloc = errors.New("raster: cannot allocate frame buffer")

// maxDimension bounds a single buffer axis. 8K is far beyond any
// output this pipeline produces; anything larger is a caller bug.
const maxDimension = 8192

// FrameBuffer is an encoder-ready pixel buffer: packed 32-bit BGRA,
// bottom-up row order, stride = 4*width. A buffer is locked for
// exclusive writing while being filled and must be unlocked before
// its bytes are read.
type FrameBuffer struct {
	pix    []byte
	width  int
	height int
	stride int

	mu     sync.Mutex
	locked bool
}

// NewFrameBuffer allocates a zeroed buffer for the given geometry.
func NewFrameBuffer(width, height int) (*FrameBuffer, error) {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("%w: geometry %dx%d", ErrBufferAlloc, width, height)
	}
	return &FrameBuffer{
		pix:    make([]byte, width*height*BytesPerPixel),
		width:  width,
		height: height,
		stride: width * BytesPerPixel,
	}, nil
}

// Width returns the buffer width in pixels.
func (b *FrameBuffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *FrameBuffer) Height() int { return b.height }

// Stride returns the row stride in bytes.
func (b *FrameBuffer) Stride() int { return b.stride }

// Lock takes the exclusive write lock.
func (b *FrameBuffer) Lock() {
	b.mu.Lock()
	b.locked = true
}

// Unlock releases the exclusive write lock.
func (b *FrameBuffer) Unlock() {
	b.locked = false
	b.mu.Unlock()
}

// Bytes returns the packed pixel data. It fails while the buffer is
// write-locked; concurrent readers and writers of the same buffer are
// never valid.
func (b *FrameBuffer) Bytes() ([]byte, error) {
	if b.locked {
		return nil, errors.New("raster: buffer is locked for writing")
	}
	return b.pix, nil
}

// Producer rasterizes composited frames into encoder-ready buffers of
// a fixed output geometry.
type Producer struct {
	width  int
	height int
}

// NewProducer creates a producer for the given output geometry.
func NewProducer(width, height int) (*Producer, error) {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("%w: geometry %dx%d", ErrBufferAlloc, width, height)
	}
	return &Producer{width: width, height: height}, nil
}

// Width returns the producer's output width.
func (p *Producer) Width() int { return p.width }

// Height returns the producer's output height.
func (p *Producer) Height() int { return p.height }

// Fit returns img aspect-filled and center-cropped to the producer's
// geometry. Frames already at the right size are cloned, not
// resampled.
func (p *Producer) Fit(img image.Image) *image.NRGBA {
	return FitFrame(img, p.width, p.height)
}

// FitFrame aspect-fills and center-crops an image to exactly
// width x height.
func FitFrame(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img)
	}
	return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
}

// Rasterize converts a frame to a packed BGRA bottom-up buffer of the
// producer's geometry. The buffer is write-locked for the duration of
// the copy and unlocked before return.
func (p *Producer) Rasterize(img image.Image) (*FrameBuffer, error) {
	frame := p.Fit(img)

	buf, err := NewFrameBuffer(p.width, p.height)
	if err != nil {
		return nil, err
	}

	buf.Lock()
	defer buf.Unlock()

	for y := 0; y < p.height; y++ {
		src := frame.PixOffset(frame.Bounds().Min.X, frame.Bounds().Min.Y+y)
		// Bottom-up: source row y lands at output row height-1-y.
		dst := (p.height - 1 - y) * buf.stride
		for x := 0; x < p.width; x++ {
			s := src + x*4
			d := dst + x*4
			buf.pix[d] = frame.Pix[s+2]   // B
			buf.pix[d+1] = frame.Pix[s+1] // G
			buf.pix[d+2] = frame.Pix[s]   // R
			buf.pix[d+3] = frame.Pix[s+3] // A
		}
	}

	return buf, nil
}
