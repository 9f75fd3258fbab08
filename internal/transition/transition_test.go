package transition

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func solidFrame(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

var (
	red  = color.NRGBA{R: 200, G: 10, B: 30, A: 255}
	blue = color.NRGBA{R: 20, G: 40, B: 220, A: 255}
)

func samePixels(t *testing.T, got, want *image.NRGBA, context string) {
	t.Helper()
	if !got.Bounds().Eq(want.Bounds()) {
		t.Fatalf("%s: bounds %v != %v", context, got.Bounds(), want.Bounds())
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Errorf("%s: pixel data differs", context)
	}
}

func TestCrossFadeBoundaries(t *testing.T) {
	a := solidFrame(16, 12, red)
	b := solidFrame(16, 12, blue)
	fade := Effect(StyleCrossFade)

	samePixels(t, fade(a, b, 0.0), a, "crossfade at 0")
	samePixels(t, fade(a, b, 1.0), b, "crossfade at 1")
}

func TestCrossFadeMidpoint(t *testing.T) {
	a := solidFrame(4, 4, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	b := solidFrame(4, 4, color.NRGBA{R: 200, G: 200, B: 200, A: 255})

	out := Effect(StyleCrossFade)(a, b, 0.5)
	got := out.NRGBAAt(1, 1)
	// 8-bit weight 128/255 of the way from 100 to 200.
	if got.R < 148 || got.R > 152 {
		t.Errorf("midpoint R = %d, want ~150", got.R)
	}
}

func TestHardCutThreshold(t *testing.T) {
	a := solidFrame(8, 8, red)
	b := solidFrame(8, 8, blue)
	cut := Effect(StyleNone)

	tests := []struct {
		progress float64
		want     *image.NRGBA
	}{
		{0.0, a},
		{0.25, a},
		{0.49, a},
		{0.5, b},
		{0.75, b},
		{1.0, b},
	}
	for _, tt := range tests {
		samePixels(t, cut(a, b, tt.progress), tt.want, "hard cut")
	}
}

func TestDissolveMatchesCrossFade(t *testing.T) {
	a := solidFrame(10, 10, red)
	b := solidFrame(10, 10, blue)

	for _, p := range []float64{0, 0.2, 0.5, 0.8, 1} {
		samePixels(t, Effect(StyleDissolve)(a, b, p), Effect(StyleCrossFade)(a, b, p), "dissolve vs crossfade")
	}
}

func TestSlideBoundaries(t *testing.T) {
	a := solidFrame(20, 10, red)
	b := solidFrame(20, 10, blue)
	push := Effect(StyleSlide)

	samePixels(t, push(a, b, 0.0), a, "slide at 0")
	samePixels(t, push(a, b, 1.0), b, "slide at 1")

	// Halfway: left half shows the right half of A's push, right half B.
	out := push(a, b, 0.5)
	if got := out.NRGBAAt(2, 5); got != red {
		t.Errorf("slide 0.5 left side = %v, want %v", got, red)
	}
	if got := out.NRGBAAt(15, 5); got != blue {
		t.Errorf("slide 0.5 right side = %v, want %v", got, blue)
	}
}

func TestWipeGeometry(t *testing.T) {
	a := solidFrame(20, 20, red)
	b := solidFrame(20, 20, blue)

	tests := []struct {
		style   Style
		inside  image.Point // revealed (B) at progress 0.5
		outside image.Point // still A at progress 0.5
	}{
		{StyleWipeRight, image.Pt(2, 10), image.Pt(17, 10)},
		{StyleWipeLeft, image.Pt(17, 10), image.Pt(2, 10)},
		{StyleWipeDown, image.Pt(10, 2), image.Pt(10, 17)},
		{StyleWipeUp, image.Pt(10, 17), image.Pt(10, 2)},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			out := Effect(tt.style)(a, b, 0.5)
			if got := out.NRGBAAt(tt.inside.X, tt.inside.Y); got != blue {
				t.Errorf("revealed pixel %v = %v, want %v", tt.inside, got, blue)
			}
			if got := out.NRGBAAt(tt.outside.X, tt.outside.Y); got != red {
				t.Errorf("background pixel %v = %v, want %v", tt.outside, got, red)
			}
			samePixels(t, Effect(tt.style)(a, b, 0), a, "wipe at 0")
			samePixels(t, Effect(tt.style)(a, b, 1), b, "wipe at 1")
		})
	}
}

func TestZoomBoundaries(t *testing.T) {
	a := solidFrame(16, 16, red)
	b := solidFrame(16, 16, blue)
	z := Effect(StyleZoom)

	samePixels(t, z(a, b, 0.0), a, "zoom at 0")
	samePixels(t, z(a, b, 1.0), b, "zoom at 1")

	// Shrinking phase: corners fall to the black background.
	out := z(a, b, 0.4)
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("zoom 0.4 corner = %v, want black", got)
	}
	if got := out.NRGBAAt(8, 8); got != red {
		t.Errorf("zoom 0.4 center = %v, want %v", got, red)
	}
}

func TestPageCurlBoundaries(t *testing.T) {
	a := solidFrame(24, 18, red)
	b := solidFrame(24, 18, blue)
	curl := Effect(StylePageCurl)

	samePixels(t, curl(a, b, 0.0), a, "pagecurl at 0")
	samePixels(t, curl(a, b, 1.0), b, "pagecurl at 1")

	// Mid-curl: left side (not yet peeled) is A, top-right is revealed B.
	out := curl(a, b, 0.5)
	if got := out.NRGBAAt(1, 9); got != red {
		t.Errorf("pagecurl 0.5 left edge = %v, want %v", got, red)
	}
	if got := out.NRGBAAt(23, 0); got != blue {
		t.Errorf("pagecurl 0.5 top-right = %v, want %v", got, blue)
	}
}

func TestRippleBase(t *testing.T) {
	a := solidFrame(32, 32, red)
	b := solidFrame(32, 32, blue)
	r := Effect(StyleRipple)

	// Corners are beyond the outermost ring early and late in the window.
	out := r(a, b, 0.1)
	if got := out.NRGBAAt(0, 0); got != red {
		t.Errorf("ripple 0.1 corner = %v, want %v (frame A base)", got, red)
	}
	out = r(a, b, 0.9)
	if got := out.NRGBAAt(0, 0); got != blue {
		t.Errorf("ripple 0.9 corner = %v, want %v (frame B base)", got, blue)
	}
}

func TestEffectsDoNotMutateInputs(t *testing.T) {
	for _, style := range Styles() {
		t.Run(string(style), func(t *testing.T) {
			a := solidFrame(12, 12, red)
			b := solidFrame(12, 12, blue)
			aBefore := append([]byte(nil), a.Pix...)
			bBefore := append([]byte(nil), b.Pix...)

			for _, p := range []float64{0, 0.3, 0.5, 0.7, 1} {
				Effect(style)(a, b, p)
			}

			if !bytes.Equal(a.Pix, aBefore) {
				t.Error("frame A was mutated")
			}
			if !bytes.Equal(b.Pix, bBefore) {
				t.Error("frame B was mutated")
			}
		})
	}
}

func TestEffectsDeterministic(t *testing.T) {
	a := solidFrame(15, 11, red)
	b := solidFrame(15, 11, blue)

	for _, style := range Styles() {
		t.Run(string(style), func(t *testing.T) {
			for _, p := range []float64{0.2, 0.5, 0.9} {
				first := Effect(style)(a, b, p)
				second := Effect(style)(a, b, p)
				samePixels(t, second, first, "repeat invocation")
			}
		})
	}
}

func TestEffectClampsProgress(t *testing.T) {
	a := solidFrame(8, 8, red)
	b := solidFrame(8, 8, blue)
	fade := Effect(StyleCrossFade)

	samePixels(t, fade(a, b, -0.5), fade(a, b, 0), "clamped below")
	samePixels(t, fade(a, b, 1.5), fade(a, b, 1), "clamped above")
}

func TestEffectFitsMismatchedFrames(t *testing.T) {
	a := solidFrame(16, 16, red)
	b := solidFrame(64, 32, blue) // wrong geometry, must be fitted

	out := Effect(StyleCrossFade)(a, b, 1.0)
	if !out.Bounds().Eq(a.Bounds()) {
		t.Errorf("output bounds = %v, want %v", out.Bounds(), a.Bounds())
	}
	if got := out.NRGBAAt(8, 8); got != blue {
		t.Errorf("fitted frame pixel = %v, want %v", got, blue)
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"crossfade", StyleCrossFade, false},
		{"CrossFade", StyleCrossFade, false},
		{" ripple ", StyleRipple, false},
		{"wiperight", StyleWipeRight, false},
		{"sparkle", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStyle(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStyle(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStyle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStylesStable(t *testing.T) {
	first := Styles()
	second := Styles()
	if len(first) != len(second) {
		t.Fatal("Styles() length unstable")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Styles()[%d] unstable: %q vs %q", i, first[i], second[i])
		}
	}
}
