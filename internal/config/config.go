// Package config loads the driver's run configuration via viper, the
// format and field set: init_algo, replan_algo, init_destroy,
// neighbor_size, time_limit, screen.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Algorithm is the initial/replan solver selection. Only PP ("priority
// planning", the one actually implemented by internal/lns) is wired today;
// GCBS and PBS are recognized as valid config values but
// rejected at load time as not-yet-implemented, which keeps
// ErrUnknownAlgorithm reserved for genuinely unknown names.
type Algorithm string

const (
	AlgoPP   Algorithm = "PP"
	AlgoGCBS Algorithm = "GCBS"
	AlgoPBS  Algorithm = "PBS"
)

// InitDestroy is the destroy-heuristic selection for the initial LNS run.
type InitDestroy string

const (
	DestroyTarget    InitDestroy = "target"
	DestroyCollision InitDestroy = "collision"
	DestroyAdaptive  InitDestroy = "adaptive"
)

// ErrUnknownAlgorithm is returned by Load when init_algo or replan_algo
// names something other than PP, GCBS, or PBS — a fatal configuration
// error.
var ErrUnknownAlgorithm = errors.New("config: unknown algorithm")

// ErrUnimplementedAlgorithm is returned by Load when init_algo or
// replan_algo names a recognized but unimplemented algorithm (GCBS, PBS).
var ErrUnimplementedAlgorithm = errors.New("config: algorithm recognized but not implemented")

// ErrUnknownDestroy is returned by Load when init_destroy names something
// other than target, collision, or adaptive.
var ErrUnknownDestroy = errors.New("config: unknown destroy heuristic")

// Config is the fully validated run configuration.
type Config struct {
	InitAlgo    Algorithm
	ReplanAlgo  Algorithm
	InitDestroy InitDestroy
	NeighborSize int
	TimeLimit   time.Duration
	Screen      int
	Seed        int64
}

func validateAlgorithm(field string, v string) (Algorithm, error) {
	switch Algorithm(v) {
	case AlgoPP:
		return AlgoPP, nil
	case AlgoGCBS, AlgoPBS:
		return Algorithm(v), fmt.Errorf("%s=%s: %w", field, v, ErrUnimplementedAlgorithm)
	default:
		return "", fmt.Errorf("%s=%s: %w", field, v, ErrUnknownAlgorithm)
	}
}

// Load reads configuration from path (if non-empty) plus environment
// variables prefixed MAPFSIPP_, falling back to defaults, and validates
// every field, returning a wrapped sentinel error on the first problem
// found.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MAPFSIPP")
	v.AutomaticEnv()

	v.SetDefault("init_algo", string(AlgoPP))
	v.SetDefault("replan_algo", string(AlgoPP))
	v.SetDefault("init_destroy", string(DestroyCollision))
	v.SetDefault("neighbor_size", 8)
	v.SetDefault("time_limit", "60s")
	v.SetDefault("screen", 1)
	v.SetDefault("seed", int64(1))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	initAlgo, err := validateAlgorithm("init_algo", v.GetString("init_algo"))
	if err != nil {
		return nil, err
	}
	replanAlgo, err := validateAlgorithm("replan_algo", v.GetString("replan_algo"))
	if err != nil {
		return nil, err
	}

	destroy := InitDestroy(v.GetString("init_destroy"))
	switch destroy {
	case DestroyTarget, DestroyCollision, DestroyAdaptive:
	default:
		return nil, fmt.Errorf("init_destroy=%s: %w", destroy, ErrUnknownDestroy)
	}

	timeLimit, err := time.ParseDuration(v.GetString("time_limit"))
	if err != nil {
		return nil, fmt.Errorf("config: time_limit: %w", err)
	}

	return &Config{
		InitAlgo:     initAlgo,
		ReplanAlgo:   replanAlgo,
		InitDestroy:  destroy,
		NeighborSize: v.GetInt("neighbor_size"),
		TimeLimit:    timeLimit,
		Screen:       v.GetInt("screen"),
		Seed:         v.GetInt64("seed"),
	}, nil
}
