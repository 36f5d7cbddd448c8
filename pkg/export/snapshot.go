// Package export renders grid and network layouts to static SVG and PNG
// snapshots, and drives the interactive export wizard.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/commitspread/pkg/force"
	"github.com/vanderheijden86/commitspread/pkg/grid"
	"github.com/vanderheijden86/commitspread/pkg/metrics"
	"github.com/vanderheijden86/commitspread/pkg/model"
	"github.com/vanderheijden86/commitspread/pkg/scale"
)

// Format is a snapshot file format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ErrUnsupportedFormat is returned for anything but svg and png.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// DefaultBackground is the canvas color when a scene names none.
const DefaultBackground = "#1e1e2e"

const (
	pad          = 16.0
	headerHeight = 44.0
	legendRow    = 16.0
	legendCols   = 3
	legendColW   = 120.0
	minWidth     = 3 * legendColW
)

var (
	colorText   = color.RGBA{0xe6, 0xe6, 0xef, 0xff}
	colorSubtle = color.RGBA{0x9a, 0x9a, 0xae, 0xff}
	colorStroke = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// LegendEntry is one swatch of the legend.
type LegendEntry struct {
	Label string
	Color string
}

// Scene is everything a snapshot draws. Coordinates of Rects, Nodes and
// Highlight are in layout space; the renderer adds the header and padding.
type Scene struct {
	Title      string
	Caption    string
	Width      float64
	Height     float64
	Background string
	Rects      []model.Rect
	Highlight  *model.Rect
	Nodes      []model.NodeDescriptor
	Legend     []LegendEntry
}

// GridScene captures a grid layout. When focus is non-nil and a cell is
// focused, the enlarged cell is drawn on top and its label becomes the
// caption.
func GridScene(res grid.Result, focus *grid.Focus, palette *scale.Palette, title string) Scene {
	s := Scene{
		Title:   title,
		Width:   res.Width,
		Height:  res.Height,
		Rects:   res.Rects,
		Caption: fmt.Sprintf("%d days, %d without activity", len(res.Cells), res.Skipped),
	}
	if res.Empty() {
		s.Caption = "no data"
	}
	if focus != nil {
		if label := focus.Label(); label != "" {
			s.Caption = label
		}
		if hl, ok := focus.Highlight(); ok {
			s.Highlight = &hl
		}
	}
	seen := make(map[string]bool)
	for _, c := range res.Cells {
		if seen[c.DominantCategory] {
			continue
		}
		seen[c.DominantCategory] = true
		s.Legend = append(s.Legend, LegendEntry{Label: c.DominantCategory, Color: palette.ColorOf(c.DominantCategory)})
	}
	return s
}

// NetworkScene captures one frame of the force layout.
func NetworkScene(frame force.Frame, opts force.Options, title string) Scene {
	s := Scene{
		Title:   title,
		Width:   opts.Width,
		Height:  opts.Height,
		Nodes:   frame.Nodes,
		Caption: fmt.Sprintf("%d categories, tick %d, alpha %.3f", len(frame.Nodes), frame.Tick, frame.Alpha),
	}
	if len(frame.Nodes) == 0 {
		s.Caption = "no data"
	}
	for _, n := range frame.Nodes {
		s.Legend = append(s.Legend, LegendEntry{Label: n.ID, Color: n.Color})
	}
	return s
}

// canvasSize returns the pixel size of the rendered snapshot.
func (s Scene) canvasSize() (int, int) {
	w := math.Max(s.Width+2*pad, minWidth+2*pad)
	rows := (len(s.Legend) + legendCols - 1) / legendCols
	h := headerHeight + s.Height + pad + float64(rows)*legendRow + pad
	return int(math.Ceil(w)), int(math.Ceil(h))
}

func (s Scene) background() string {
	if s.Background == "" {
		return DefaultBackground
	}
	return s.Background
}

// ParseFormat resolves a format name, or infers it from a file extension
// when name is empty.
func ParseFormat(name, path string) (Format, error) {
	f := strings.ToLower(strings.TrimPrefix(name, "."))
	if f == "" {
		f = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	}
	switch Format(f) {
	case FormatSVG, FormatPNG:
		return Format(f), nil
	case "":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("%w %q (want svg or png)", ErrUnsupportedFormat, f)
}

// Save renders the scene to path. The format is inferred from the extension
// when format is empty; a path without extension gets one.
func Save(path string, format Format, s Scene) error {
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	f, err := ParseFormat(string(format), path)
	if err != nil {
		return err
	}
	if filepath.Ext(path) == "" {
		path += "." + string(f)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, f, s); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Write renders the scene in the given format.
func Write(w io.Writer, f Format, s Scene) error {
	start := time.Now()
	defer func() { metrics.Export.Record(time.Since(start)) }()

	switch f {
	case FormatSVG:
		return WriteSVG(w, s)
	case FormatPNG:
		return WritePNG(w, s)
	}
	return fmt.Errorf("%w %q", ErrUnsupportedFormat, f)
}

// WriteSVG renders the scene as SVG. Opacity is kept as fill-opacity.
func WriteSVG(w io.Writer, s Scene) error {
	width, height := s.canvasSize()
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+s.background())

	title := s.Title
	if strings.TrimSpace(title) == "" {
		title = "commit spread"
	}
	canvas.Title(title)
	canvas.Text(int(pad), 22, title, fmt.Sprintf("fill:%s;font-size:15px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(int(pad), 38, s.Caption, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", int(pad), int(headerHeight)))
	for _, r := range s.Rects {
		canvas.Rect(px(r.X), px(r.Y), px(r.Width), px(r.Height),
			fmt.Sprintf("fill:%s;fill-opacity:%.3f", r.Fill, r.Opacity))
	}
	if hl := s.Highlight; hl != nil {
		canvas.Rect(px(hl.X), px(hl.Y), px(hl.Width), px(hl.Height),
			fmt.Sprintf("fill:%s;fill-opacity:%.3f;stroke:%s;stroke-width:1", hl.Fill, hl.Opacity, css(colorStroke)))
	}
	for _, n := range s.Nodes {
		style := fmt.Sprintf("fill:%s;fill-opacity:%.3f", n.Color, n.Opacity)
		if n.Fixed {
			style += ";stroke:" + css(colorStroke) + ";stroke-width:1.5"
		}
		canvas.Circle(px(n.X), px(n.Y), px(n.Radius), style)
	}
	canvas.Gend()

	lx, ly := s.legendOrigin()
	for i, e := range s.Legend {
		x := int(lx + float64(i%legendCols)*legendColW)
		y := int(ly + float64(i/legendCols)*legendRow)
		canvas.Rect(x, y-9, 10, 10, "fill:"+e.Color)
		canvas.Text(x+14, y, truncate(e.Label, 14), fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

// WritePNG renders the scene as PNG. Translucent fills are blended over the
// background so the output is opaque.
func WritePNG(w io.Writer, s Scene) error {
	width, height := s.canvasSize()
	bg := s.background()

	dc := gg.NewContext(width, height)
	dc.SetHexColor(bg)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	title := s.Title
	if strings.TrimSpace(title) == "" {
		title = "commit spread"
	}
	dc.SetColor(colorText)
	dc.DrawStringAnchored(title, pad, 16, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(s.Caption, pad, 32, 0, 0.5)

	ox, oy := pad, headerHeight
	for _, r := range s.Rects {
		dc.SetHexColor(scale.Blend(r.Fill, bg, r.Opacity))
		dc.DrawRectangle(ox+r.X, oy+r.Y, r.Width, r.Height)
		dc.Fill()
	}
	if hl := s.Highlight; hl != nil {
		dc.SetHexColor(scale.Blend(hl.Fill, bg, hl.Opacity))
		dc.DrawRectangle(ox+hl.X, oy+hl.Y, hl.Width, hl.Height)
		dc.FillPreserve()
		dc.SetColor(colorStroke)
		dc.SetLineWidth(1)
		dc.Stroke()
	}
	for _, n := range s.Nodes {
		dc.SetHexColor(scale.Blend(n.Color, bg, n.Opacity))
		dc.DrawCircle(ox+n.X, oy+n.Y, n.Radius)
		if n.Fixed {
			dc.FillPreserve()
			dc.SetColor(colorStroke)
			dc.SetLineWidth(1.5)
			dc.Stroke()
			continue
		}
		dc.Fill()
	}

	lx, ly := s.legendOrigin()
	for i, e := range s.Legend {
		x := lx + float64(i%legendCols)*legendColW
		y := ly + float64(i/legendCols)*legendRow
		dc.SetHexColor(e.Color)
		dc.DrawRectangle(x, y-9, 10, 10)
		dc.Fill()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(truncate(e.Label, 14), x+14, y-4, 0, 0.5)
	}

	return dc.EncodePNG(w)
}

func (s Scene) legendOrigin() (float64, float64) {
	return pad, headerHeight + s.Height + pad + legendRow/2
}

func px(v float64) int { return int(math.Round(v)) }

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
