// Package export renders stored runs to standalone files.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/pidctrl/internal/dynamo"
)

var ErrTooFewSamples = errors.New("export: need at least two samples")

type series struct {
	values []float64
	color  string
	dash   bool
}

type bounds struct{ minX, maxX, minY, maxY float64 }

// ResponseSVG draws the measurement and setpoint in the upper two thirds
// and the controller output in the lower third.
func ResponseSVG(w io.Writer, samples []dynamo.Sample, width, height int) error {
	if len(samples) < 2 {
		return ErrTooFewSamples
	}

	times := make([]float64, len(samples))
	sp := make([]float64, len(samples))
	meas := make([]float64, len(samples))
	out := make([]float64, len(samples))
	for i, s := range samples {
		times[i], sp[i], meas[i], out[i] = s.Time, s.Setpoint, s.Measurement, s.Output
	}

	upper := float64(height) * 2 / 3
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	panel(&sb, times, []series{
		{values: sp, color: "#ffd700", dash: true},
		{values: meas, color: "#00ffff"},
	}, 0, float64(width), upper)
	panel(&sb, times, []series{
		{values: out, color: "#ff00ff"},
	}, upper, float64(width), float64(height)-upper)

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func panel(sb *strings.Builder, times []float64, ss []series, top, width, height float64) {
	b := bounds{minX: times[0], maxX: times[len(times)-1], minY: math.Inf(1), maxY: math.Inf(-1)}
	for _, s := range ss {
		for _, v := range s.values {
			b.minY, b.maxY = math.Min(b.minY, v), math.Max(b.maxY, v)
		}
	}

	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minY -= rangeY * 0.1
	rangeY *= 1.2

	for _, s := range ss {
		dash := ""
		if s.dash {
			dash = ` stroke-dasharray="6,4"`
		}
		fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, s.color, dash)
		for i, v := range s.values {
			x := (times[i] - b.minX) / rangeX * width
			y := top + height - (v-b.minY)/rangeY*height
			if i == 0 {
				fmt.Fprintf(sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}
}
