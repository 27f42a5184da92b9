package accum

import (
	"image/color"
	"math"

	"raystats/pkg/core"
)

// Color laws map accumulated cell values to display colors. They are pure
// functions used only for diagnostic visualization and never feed back into
// rendering.

// hueSpan is the hue range swept by the scalar laws: 240 degrees covers
// blue through green and yellow to red without wrapping back to magenta.
const hueSpan = 240.0

// hueColor converts a hue in degrees (s = v = 1) to an opaque RGBA color.
func hueColor(deg float64) color.RGBA {
	h := math.Mod(deg, 360) / 60
	if h < 0 {
		h += 6
	}
	f := h - math.Floor(h)
	q := uint8(255 * (1 - f))
	t := uint8(255 * f)

	switch int(h) {
	case 0:
		return color.RGBA{255, t, 0, 255}
	case 1:
		return color.RGBA{q, 255, 0, 255}
	case 2:
		return color.RGBA{0, 255, t, 255}
	case 3:
		return color.RGBA{0, q, 255, 255}
	case 4:
		return color.RGBA{t, 0, 255, 255}
	default:
		return color.RGBA{255, 0, q, 255}
	}
}

// LinearHue maps value within [min, max] onto a linear hue gradient running
// from blue (low) through green and yellow to red (high). A degenerate or
// empty range renders the low-end color.
func LinearHue(value, minVal, maxVal float64) color.RGBA {
	frac := (value - minVal) / (maxVal - minVal)
	if math.IsNaN(frac) || math.IsInf(frac, 0) || frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	return hueColor(hueSpan * (1 - frac))
}

// LogHue maps value within [min, max] onto a logarithmic hue gradient,
// reversed with respect to LinearHue: low values render red, high values
// blue. The fraction is log base (max-min+1) of (value-min+1), so small
// differences near the minimum spread over more of the gradient. A
// non-finite fraction is clamped to the low end.
func LogHue(value, minVal, maxVal float64) color.RGBA {
	frac := math.Log(value-minVal+1) / math.Log(maxVal-minVal+1)
	if math.IsNaN(frac) || math.IsInf(frac, 0) || frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	return hueColor(hueSpan * frac)
}

// VectorColor encodes a direction-like vector directly into RGB channels:
// red and green carry x and y as trunc((c+1)*127.5), blue carries z
// inverted as 255-trunc((z+1)*127.5) to keep the palette visually balanced.
// Components are expected in [-1, 1]; the zero vector maps to (127,127,128).
func VectorColor(v core.Vec3) color.RGBA {
	return color.RGBA{
		R: channelByte(v.X),
		G: channelByte(v.Y),
		B: 255 - channelByte(v.Z),
		A: 255,
	}
}

func channelByte(c float64) uint8 {
	s := (c + 1) * 127.5
	if s < 0 {
		return 0
	}
	if s > 255 {
		return 255
	}
	return uint8(s)
}
