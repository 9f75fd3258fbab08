package transition

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// Style names a transition effect.
type Style string

const (
	// StyleNone is a hard cut at the transition midpoint.
	StyleNone Style = "none"
	// StyleCrossFade is a linear alpha blend between the two frames.
	StyleCrossFade Style = "crossfade"
	// StyleDissolve is kept as a distinct named style but renders
	// identically to crossfade. The historical dissolve never gained a
	// noise mask, so the two are visually indistinguishable on purpose.
	StyleDissolve Style = "dissolve"
	// StyleSlide pushes the outgoing frame left while the incoming
	// frame follows from the right.
	StyleSlide Style = "slide"
	// StyleZoom shrinks the outgoing frame, then grows the incoming one.
	StyleZoom Style = "zoom"
	// StyleWipeRight reveals the incoming frame left to right.
	StyleWipeRight Style = "wiperight"
	// StyleWipeLeft reveals the incoming frame right to left.
	StyleWipeLeft Style = "wipeleft"
	// StyleWipeUp reveals the incoming frame bottom to top.
	StyleWipeUp Style = "wipeup"
	// StyleWipeDown reveals the incoming frame top to bottom.
	StyleWipeDown Style = "wipedown"
	// StylePageCurl peels the outgoing frame away toward the
	// bottom-right corner.
	StylePageCurl Style = "pagecurl"
	// StyleRipple overlays expanding concentric rings over a hard cut.
	StyleRipple Style = "ripple"
)

var styles = map[Style]Func{
	StyleNone:      hardCut,
	StyleCrossFade: crossFade,
	StyleDissolve:  crossFade,
	StyleSlide:     slide,
	StyleZoom:      zoom,
	StyleWipeRight: wipe(StyleWipeRight),
	StyleWipeLeft:  wipe(StyleWipeLeft),
	StyleWipeUp:    wipe(StyleWipeUp),
	StyleWipeDown:  wipe(StyleWipeDown),
	StylePageCurl:  pageCurl,
	StyleRipple:    ripple,
}

// Styles returns all known styles in stable order.
func Styles() []Style {
	out := make([]Style, 0, len(styles))
	for s := range styles {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseStyle converts a user-supplied name to a Style.
func ParseStyle(s string) (Style, error) {
	style := Style(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := styles[style]; !ok {
		return "", fmt.Errorf("unknown transition style %q (known: %v)", s, Styles())
	}
	return style, nil
}

// Func composites two equally sized frames at the given progress and
// returns a new frame. Implementations never mutate their inputs and
// are deterministic: the same inputs always produce byte-identical
// output. They hold no shared state, so concurrent invocation is safe.
type Func func(a, b *image.NRGBA, progress float64) *image.NRGBA

// Effect returns the compositing function for a style. Progress is
// clamped to [0, 1] and the incoming frame is fitted to the outgoing
// frame's geometry before the effect runs. Unknown styles fall back to
// crossfade; ParseStyle is the validation gate for user input.
func Effect(style Style) Func {
	fn, ok := styles[style]
	if !ok {
		fn = crossFade
	}
	return func(a, b *image.NRGBA, progress float64) *image.NRGBA {
		if b.Bounds().Dx() != a.Bounds().Dx() || b.Bounds().Dy() != a.Bounds().Dy() {
			b = imaging.Fill(b, a.Bounds().Dx(), a.Bounds().Dy(), imaging.Center, imaging.Lanczos)
		}
		return fn(a, b, clamp01(progress))
	}
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// hardCut shows the outgoing frame through the first half of the
// window and the incoming frame after.
func hardCut(a, b *image.NRGBA, progress float64) *image.NRGBA {
	if progress < 0.5 {
		return imaging.Clone(a)
	}
	return imaging.Clone(b)
}

// crossFade blends the two frames linearly. The weight is quantized to
// 8 bits so that progress 0 and 1 reproduce the inputs byte for byte.
func crossFade(a, b *image.NRGBA, progress float64) *image.NRGBA {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	alpha := uint32(math.Round(progress * 255))
	inv := 255 - alpha

	for y := 0; y < h; y++ {
		ao := a.PixOffset(a.Bounds().Min.X, a.Bounds().Min.Y+y)
		bo := b.PixOffset(b.Bounds().Min.X, b.Bounds().Min.Y+y)
		oo := out.PixOffset(0, y)
		for x := 0; x < w*4; x++ {
			av := uint32(a.Pix[ao+x])
			bv := uint32(b.Pix[bo+x])
			out.Pix[oo+x] = uint8((av*inv + bv*alpha + 127) / 255)
		}
	}
	return out
}

// slide pushes frame A off to the left while frame B follows it in
// from the right, B drawn on top.
func slide(a, b *image.NRGBA, progress float64) *image.NRGBA {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	dx := int(math.Round(progress * float64(w)))

	out := imaging.New(w, h, color.NRGBA{0, 0, 0, 255})
	out = imaging.Paste(out, a, image.Pt(-dx, 0))
	out = imaging.Paste(out, b, image.Pt(w-dx, 0))
	return out
}

// zoom shrinks A toward the center for the first half, then grows B
// from half size to full for the second half.
func zoom(a, b *image.NRGBA, progress float64) *image.NRGBA {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()

	var src *image.NRGBA
	var factor float64
	if progress < 0.5 {
		src = a
		factor = 1 - progress*0.5
	} else {
		src = b
		factor = progress
	}

	sw := int(math.Round(float64(w) * factor))
	sh := int(math.Round(float64(h) * factor))
	if sw >= w && sh >= h {
		return imaging.Clone(src)
	}
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}

	scaled := imaging.Resize(src, sw, sh, imaging.Lanczos)
	out := imaging.New(w, h, color.NRGBA{0, 0, 0, 255})
	return imaging.Paste(out, scaled, image.Pt((w-sw)/2, (h-sh)/2))
}

// wipe reveals frame B inside a rectangle growing from the named edge,
// drawn over frame A.
func wipe(style Style) Func {
	return func(a, b *image.NRGBA, progress float64) *image.NRGBA {
		w, h := a.Bounds().Dx(), a.Bounds().Dy()
		dw := int(math.Round(progress * float64(w)))
		dh := int(math.Round(progress * float64(h)))

		var rect image.Rectangle
		switch style {
		case StyleWipeRight:
			rect = image.Rect(0, 0, dw, h)
		case StyleWipeLeft:
			rect = image.Rect(w-dw, 0, w, h)
		case StyleWipeDown:
			rect = image.Rect(0, 0, w, dh)
		case StyleWipeUp:
			rect = image.Rect(0, h-dh, w, h)
		}

		out := imaging.Clone(a)
		if rect.Empty() {
			return out
		}
		revealed := imaging.Crop(b, rect)
		return imaging.Paste(out, revealed, rect.Min)
	}
}

// pageCurl peels frame A away along a cubic curve sweeping from the
// top edge toward the bottom-right corner, with a darkened band on the
// revealed side approximating the curl's drop shadow.
func pageCurl(a, b *image.NRGBA, progress float64) *image.NRGBA {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	out := imaging.Clone(b)

	if progress >= 1 {
		return out
	}

	shadowW := float64(w) * 0.04
	denom := float64(h - 1)
	if denom <= 0 {
		denom = 1
	}

	for y := 0; y < h; y++ {
		t := float64(y) / denom
		// Curl boundary: full width at progress 0, collapsing to the
		// bottom-right corner as progress approaches 1. The cubic term
		// bows the edge so the bottom of the page trails the top.
		edge := float64(w) * (1 - progress) * (1 - progress*t*t*t)

		ao := a.PixOffset(a.Bounds().Min.X, a.Bounds().Min.Y+y)
		oo := out.PixOffset(0, y)
		for x := 0; x < w; x++ {
			fx := float64(x)
			switch {
			case fx < edge:
				copy(out.Pix[oo+x*4:oo+x*4+4], a.Pix[ao+x*4:ao+x*4+4])
			case fx < edge+shadowW:
				// Shadow falls off linearly with distance from the edge.
				strength := 1 - (fx-edge)/shadowW
				scale := 1 - 0.5*strength
				o := oo + x*4
				out.Pix[o] = uint8(float64(out.Pix[o]) * scale)
				out.Pix[o+1] = uint8(float64(out.Pix[o+1]) * scale)
				out.Pix[o+2] = uint8(float64(out.Pix[o+2]) * scale)
			}
		}
	}
	return out
}

// ripple cuts between the frames at the midpoint and overlays up to
// three expanding concentric ring strokes centered on the image, outer
// rings brighter than inner ones.
func ripple(a, b *image.NRGBA, progress float64) *image.NRGBA {
	var out *image.NRGBA
	if progress < 0.5 {
		out = imaging.Clone(a)
	} else {
		out = imaging.Clone(b)
	}

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	cx, cy := float64(w)/2, float64(h)/2
	maxRadius := math.Hypot(cx, cy)
	ringWidth := maxRadius / 8
	halfStroke := ringWidth / 4

	const ringCount = 3
	var radii [ringCount]float64
	var opacity [ringCount]float64
	for i := 0; i < ringCount; i++ {
		radii[i] = progress*maxRadius - float64(i)*ringWidth
		opacity[i] = 0.45 * (1 - float64(i)/ringCount)
	}

	for y := 0; y < h; y++ {
		oo := out.PixOffset(0, y)
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			var alpha float64
			for i := 0; i < ringCount; i++ {
				if radii[i] <= 0 {
					continue
				}
				if math.Abs(d-radii[i]) <= halfStroke && opacity[i] > alpha {
					alpha = opacity[i]
				}
			}
			if alpha == 0 {
				continue
			}
			o := oo + x*4
			for c := 0; c < 3; c++ {
				v := float64(out.Pix[o+c])
				out.Pix[o+c] = uint8(math.Round(v + (255-v)*alpha))
			}
		}
	}
	return out
}
