package force

import (
	"errors"
	"fmt"
	"math"

	"github.com/vanderheijden86/commitspread/pkg/scale"
)

// Options configures the canvas, the forces and the cooling schedule.
type Options struct {
	Width  float64 `yaml:"width" toml:"width" json:"width"`
	Height float64 `yaml:"height" toml:"height" json:"height"`
	Margin float64 `yaml:"margin" toml:"margin" json:"margin"`

	Radius scale.Range `yaml:"radius" toml:"radius" json:"radius"`

	Charge            float64 `yaml:"charge" toml:"charge" json:"charge"`
	DistanceMin       float64 `yaml:"distance_min" toml:"distance_min" json:"distance_min"`
	CenterStrength    float64 `yaml:"center_strength" toml:"center_strength" json:"center_strength"`
	CollidePadding    float64 `yaml:"collide_padding" toml:"collide_padding" json:"collide_padding"`
	CollideStrength   float64 `yaml:"collide_strength" toml:"collide_strength" json:"collide_strength"`
	CollideIterations int     `yaml:"collide_iterations" toml:"collide_iterations" json:"collide_iterations"`
	ParallelThreshold int     `yaml:"parallel_threshold" toml:"parallel_threshold" json:"parallel_threshold"`

	AlphaMin       float64 `yaml:"alpha_min" toml:"alpha_min" json:"alpha_min"`
	AlphaDecay     float64 `yaml:"alpha_decay" toml:"alpha_decay" json:"alpha_decay"`
	VelocityDecay  float64 `yaml:"velocity_decay" toml:"velocity_decay" json:"velocity_decay"`
	HotAlphaTarget float64 `yaml:"hot_alpha_target" toml:"hot_alpha_target" json:"hot_alpha_target"`

	// RelaxPasses bounds the overlap cleanup run once the layout settles.
	RelaxPasses int `yaml:"relax_passes" toml:"relax_passes" json:"relax_passes"`

	NodeOpacity float64           `yaml:"node_opacity" toml:"node_opacity" json:"node_opacity"`
	Icons       map[string]string `yaml:"icons,omitempty" toml:"icons,omitempty" json:"icons,omitempty"`
}

// DefaultOptions cools from alpha 1 to AlphaMin in roughly 300 ticks.
func DefaultOptions() Options {
	return Options{
		Width:             400,
		Height:            320,
		Margin:            1,
		Radius:            scale.DefaultRadius,
		Charge:            -5,
		DistanceMin:       1,
		CenterStrength:    1,
		CollidePadding:    1,
		CollideStrength:   0.7,
		CollideIterations: 2,
		ParallelThreshold: 256,
		AlphaMin:          0.001,
		AlphaDecay:        1 - math.Pow(0.001, 1.0/300),
		VelocityDecay:     0.4,
		HotAlphaTarget:    0.3,
		RelaxPasses:       200,
		NodeOpacity:       1,
	}
}

// ErrInvalidOptions is wrapped by Validate.
var ErrInvalidOptions = errors.New("invalid force options")

// Validate checks ranges that would make the simulation diverge or never
// settle.
func (o Options) Validate() error {
	switch {
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("%w: canvas must be positive, got %vx%v", ErrInvalidOptions, o.Width, o.Height)
	case o.Margin < 0:
		return fmt.Errorf("%w: margin must not be negative", ErrInvalidOptions)
	case o.Radius.Min <= 0 || o.Radius.Max < o.Radius.Min:
		return fmt.Errorf("%w: radius range %v-%v", ErrInvalidOptions, o.Radius.Min, o.Radius.Max)
	case o.DistanceMin <= 0:
		return fmt.Errorf("%w: distance_min must be positive", ErrInvalidOptions)
	case o.CollideStrength <= 0 || o.CollideStrength > 1:
		return fmt.Errorf("%w: collide_strength must be in (0, 1], got %v", ErrInvalidOptions, o.CollideStrength)
	case o.AlphaMin <= 0:
		return fmt.Errorf("%w: alpha_min must be positive", ErrInvalidOptions)
	case o.AlphaDecay <= 0 || o.AlphaDecay >= 1:
		return fmt.Errorf("%w: alpha_decay must be in (0, 1), got %v", ErrInvalidOptions, o.AlphaDecay)
	case o.VelocityDecay < 0 || o.VelocityDecay > 1:
		return fmt.Errorf("%w: velocity_decay must be in [0, 1], got %v", ErrInvalidOptions, o.VelocityDecay)
	case o.HotAlphaTarget < 0 || o.HotAlphaTarget > 1:
		return fmt.Errorf("%w: hot_alpha_target must be in [0, 1]", ErrInvalidOptions)
	case o.NodeOpacity < 0 || o.NodeOpacity > 1:
		return fmt.Errorf("%w: node_opacity must be in [0, 1]", ErrInvalidOptions)
	}
	return nil
}

func (o Options) forces() []Force {
	return []Force{
		ManyBody{Strength: o.Charge, DistanceMin: o.DistanceMin, ParallelThreshold: o.ParallelThreshold},
		Center{X: o.Width / 2, Y: o.Height / 2, Strength: o.CenterStrength},
		Collide{Padding: o.CollidePadding, Strength: o.CollideStrength, Iterations: o.CollideIterations},
	}
}
