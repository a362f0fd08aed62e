// Package config loads the tunables the solver and e-SSA builder accept,
// the way staticcheck's own config package loads staticcheck.conf: a
// TOML file per directory, walked upward from the package under analysis
// and merged with toml.MetaData.IsDefined so an unset field in an inner
// config never shadows an outer one's explicit setting.
package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"golang.org/x/xerrors"
)

// Config holds the knobs the solver and e-SSA builder accept. One knob is
// load-bearing for precision: EnableNarrowing, default true. Widen and
// Limits are conveniences that don't change what the analysis proves,
// only how it gets there: the widening jump-to set (beyond the constants
// package vrp collects automatically), and an iteration ceiling that
// guards against a pathological input never reaching a fixed point.
type Config struct {
	// EnableNarrowing toggles the narrowing pass. Disabling it leaves
	// every SCC at its post-widening fixed point, trading precision for
	// one fewer worklist pass.
	EnableNarrowing bool `toml:"enable_narrowing"`

	Widen  WidenConfig  `toml:"widen"`
	Limits LimitsConfig `toml:"limits"`
}

// WidenConfig controls the widening operator ∇.
type WidenConfig struct {
	// ExtraBounds are jump-to targets added on top of the constants
	// package vrp already collects from the function being analyzed.
	ExtraBounds []int64 `toml:"extra_bounds"`
}

// LimitsConfig bounds the cost of a single analysis run.
type LimitsConfig struct {
	// MaxWidenSteps stops widening a single SCC after this many growth
	// steps, in case the jump-to set is too sparse to converge quickly;
	// 0 means unbounded — no fuel or iteration cap by default.
	MaxWidenSteps int `toml:"max_widen_steps"`
}

var defaultConfig = Config{
	EnableNarrowing: true,
	Widen:           WidenConfig{ExtraBounds: nil},
	Limits:          LimitsConfig{MaxWidenSteps: 0},
}

type layer struct {
	cfg  Config
	meta toml.MetaData
}

func (l layer) merge(outer layer) layer {
	if outer.meta.IsDefined("enable_narrowing") {
		l.cfg.EnableNarrowing = outer.cfg.EnableNarrowing
	}
	if outer.meta.IsDefined("widen", "extra_bounds") {
		l.cfg.Widen.ExtraBounds = mergeInts(l.cfg.Widen.ExtraBounds, outer.cfg.Widen.ExtraBounds)
	}
	if outer.meta.IsDefined("limits", "max_widen_steps") {
		l.cfg.Limits.MaxWidenSteps = outer.cfg.Limits.MaxWidenSteps
	}
	return l
}

func mergeInts(a, b []int64) []int64 {
	out := append([]int64{}, a...)
	out = append(out, b...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	deduped := out[:0]
	var prev int64
	for i, v := range out {
		if i == 0 || v != prev {
			deduped = append(deduped, v)
		}
		prev = v
	}
	return deduped
}

const configName = "rangeanalysis.conf"

// Load walks upward from dir looking for rangeanalysis.conf files,
// merging any it finds with the default configuration (innermost wins
// for any field it sets explicitly, except widen.extra_bounds, whose
// lists from every layer are combined, sorted and deduplicated).
func Load(dir string) (Config, error) {
	var layers []layer
	for d := dir; ; {
		f, err := os.Open(filepath.Join(d, configName))
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Config{}, xerrors.Errorf("opening %s: %w", configName, err)
		default:
			var cfg Config
			meta, err := toml.DecodeReader(f, &cfg)
			f.Close()
			if err != nil {
				return Config{}, xerrors.Errorf("decoding %s: %w", filepath.Join(d, configName), err)
			}
			layers = append(layers, layer{cfg: cfg, meta: meta})
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}

	result := layer{cfg: defaultConfig}
	for i := len(layers) - 1; i >= 0; i-- {
		result = result.merge(layers[i])
	}
	return result.cfg, nil
}
