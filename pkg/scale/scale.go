// Package scale maps counts and categories to visual attributes: radius,
// palette color and opacity. Every function here is pure.
package scale

import (
	"hash/fnv"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Range is a closed output interval.
type Range struct {
	Min float64 `yaml:"min" toml:"min" json:"min"`
	Max float64 `yaml:"max" toml:"max" json:"max"`
}

// Mid returns the midpoint of the range.
func (r Range) Mid() float64 { return (r.Min + r.Max) / 2 }

func (r Range) clamp(v float64) float64 {
	lo, hi := r.Min, r.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// DefaultRadius is the radius range of the network view.
var DefaultRadius = Range{Min: 3, Max: 20}

// DefaultOpacityFloor keeps zero-activity days visible as a faint mark.
const DefaultOpacityFloor = 0.4

// RadiusOf maps a count onto r with a square-root curve so that circle area,
// not radius, grows linearly with the count.
//
// Counts at or below zero map to r.Min. A degenerate domain (minCount equal
// to maxCount) maps positive counts to the midpoint of r.
func RadiusOf(count, minCount, maxCount int, r Range) float64 {
	if count <= 0 {
		return r.Min
	}
	if minCount < 0 {
		minCount = 0
	}
	lo := math.Sqrt(float64(minCount))
	hi := math.Sqrt(float64(maxCount))
	if hi <= lo {
		return r.clamp(r.Mid())
	}
	t := (math.Sqrt(float64(count)) - lo) / (hi - lo)
	t = math.Max(0, math.Min(1, t))
	return r.clamp(r.Min + t*(r.Max-r.Min))
}

// Radius is a sqrt scale bound to one dataset's count domain.
type Radius struct {
	minCount, maxCount int
	out                Range
}

// NewRadius returns a radius scale for the domain [minCount, maxCount].
func NewRadius(minCount, maxCount int, out Range) Radius {
	return Radius{minCount: minCount, maxCount: maxCount, out: out}
}

// Of maps a count to a radius.
func (s Radius) Of(count int) float64 {
	return RadiusOf(count, s.minCount, s.maxCount, s.out)
}

// OpacityOf interpolates linearly from floor at zero activity to 1.0 at
// maxTotal. A non-positive maxTotal yields floor.
func OpacityOf(total, maxTotal int, floor float64) float64 {
	floor = math.Max(0, math.Min(1, floor))
	if maxTotal <= 0 || total <= 0 {
		return floor
	}
	t := math.Min(1, float64(total)/float64(maxTotal))
	return math.Min(1, floor+t*(1-floor))
}

// Set3 is the 12-color qualitative scheme the views use by default.
var Set3 = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462",
	"#b3de69", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
}

// Palette is an ordinal color scale over an explicit category domain.
//
// Build it once per dataset load from the canonical first-seen order and pass
// it to every view; rebuilding it per frame from an unordered source would let
// colors drift between renders.
type Palette struct {
	colors []string
	index  map[string]int
	domain []string
}

// NewPalette binds domain[i] to colors[i mod len(colors)]. An empty color list
// falls back to Set3. Duplicate domain entries keep their first slot.
func NewPalette(domain []string, colors []string) *Palette {
	if len(colors) == 0 {
		colors = Set3
	}
	p := &Palette{
		colors: append([]string(nil), colors...),
		index:  make(map[string]int, len(domain)),
	}
	for _, c := range domain {
		if _, ok := p.index[c]; ok {
			continue
		}
		p.index[c] = len(p.domain)
		p.domain = append(p.domain, c)
	}
	return p
}

// ColorOf returns the color of a category. Categories outside the domain get
// a hash-derived slot so they stay stable without mutating the palette.
func (p *Palette) ColorOf(category string) string {
	if i, ok := p.index[category]; ok {
		return p.colors[i%len(p.colors)]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(category))
	return p.colors[int(h.Sum32()%uint32(len(p.colors)))]
}

// Domain returns the categories in slot order.
func (p *Palette) Domain() []string {
	return append([]string(nil), p.domain...)
}

// Size returns the number of distinct colors.
func (p *Palette) Size() int { return len(p.colors) }

// Blend composites color at the given opacity over background and returns
// the resulting opaque hex color. Unparseable input is returned unchanged.
func Blend(color, background string, opacity float64) string {
	fg, err := colorful.Hex(color)
	if err != nil {
		return color
	}
	bg, err := colorful.Hex(background)
	if err != nil {
		return color
	}
	opacity = math.Max(0, math.Min(1, opacity))
	return bg.BlendRgb(fg, opacity).Clamped().Hex()
}
