package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/nikkhilaaryan/gps-modulator/internal/correct"
)

const (
	trackImageSize   = 512
	trackImageMargin = 24
)

var (
	trackBackground = color.RGBA{255, 255, 255, 255}
	trackLineColor  = color.RGBA{0, 90, 200, 255}
	spoofMarkColor  = color.RGBA{210, 40, 40, 255}
	trackTextColor  = color.RGBA{30, 30, 30, 255}
)

// renderTrack draws the corrected track onto a square canvas. Spoofed
// points are marked with a cross; the label reports the point count and
// the latest position.
func renderTrack(points []correct.CorrectedPoint) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, trackImageSize, trackImageSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{trackBackground}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{trackTextColor},
		Face: basicfont.Face7x13,
	}

	if len(points) == 0 {
		drawer.Dot = fixed.P(trackImageMargin, trackImageSize/2)
		drawer.DrawBytes([]byte("Waiting for track data..."))
		return img
	}

	minLat, maxLat := points[0].Latitude, points[0].Latitude
	minLon, maxLon := points[0].Longitude, points[0].Longitude
	for _, p := range points {
		minLat = math.Min(minLat, p.Latitude)
		maxLat = math.Max(maxLat, p.Latitude)
		minLon = math.Min(minLon, p.Longitude)
		maxLon = math.Max(maxLon, p.Longitude)
	}

	// Degenerate extents (single point, stationary track) still need a
	// nonzero scale.
	latSpan := maxLat - minLat
	lonSpan := maxLon - minLon
	if latSpan < 1e-9 {
		latSpan = 1e-9
	}
	if lonSpan < 1e-9 {
		lonSpan = 1e-9
	}

	span := trackImageSize - 2*trackImageMargin
	project := func(p correct.CorrectedPoint) (int, int) {
		x := trackImageMargin + int(float64(span)*(p.Longitude-minLon)/lonSpan)
		// Image Y grows downward, latitude grows upward.
		y := trackImageMargin + int(float64(span)*(maxLat-p.Latitude)/latSpan)
		return x, y
	}

	for i := 1; i < len(points); i++ {
		x0, y0 := project(points[i-1])
		x1, y1 := project(points[i])
		drawLine(img, x0, y0, x1, y1, trackLineColor)
	}
	for _, p := range points {
		if p.Spoofed {
			x, y := project(p)
			drawCross(img, x, y, spoofMarkColor)
		}
	}

	last := points[len(points)-1]
	drawer.Dot = fixed.P(trackImageMargin, 13)
	drawer.DrawBytes([]byte(fmt.Sprintf("points: %d", len(points))))
	drawer.Dot = fixed.P(trackImageMargin, trackImageSize-8)
	drawer.DrawBytes([]byte(fmt.Sprintf("%.5f, %.5f (%s)", last.Latitude, last.Longitude, last.Method)))

	return img
}

// drawLine plots a line segment by stepping along the longer axis.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := x1 - x0
	dy := y1 - y0
	steps := abs(dx)
	if abs(dy) > steps {
		steps = abs(dy)
	}
	if steps == 0 {
		img.SetRGBA(x0, y0, c)
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		img.SetRGBA(x, y, c)
	}
}

func drawCross(img *image.RGBA, x, y int, c color.RGBA) {
	for d := -3; d <= 3; d++ {
		img.SetRGBA(x+d, y+d, c)
		img.SetRGBA(x+d, y-d, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
