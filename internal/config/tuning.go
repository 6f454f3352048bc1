package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/drivestyle/internal/units"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// Clustering method names accepted by InitialMethod and SplitMethod.
const (
	MethodIterative     = "iterative"
	MethodKMeans        = "kmeans"
	MethodAgglomerative = "agglomerative"
	MethodDBSCAN        = "dbscan"
)

// Linkage names accepted by Linkage.
const (
	LinkageWard     = "ward"
	LinkageComplete = "complete"
	LinkageAverage  = "average"
	LinkageSingle   = "single"
)

// DefaultBandNames are the road-type bands, fastest first.
var DefaultBandNames = []string{"Highway", "Peri-urban", "Urban"}

// TuningConfig holds the clustering and feature-extraction parameters.
// Every field is optional; the Get* accessors supply defaults for fields the
// file leaves out, so partial configs are safe.
type TuningConfig struct {
	// Iterative neighbours
	K           *int `json:"k,omitempty" yaml:"k,omitempty"`
	MaxClusters *int `json:"max_clusters,omitempty" yaml:"max_clusters,omitempty"`

	// Pipeline
	BandNames     []string `json:"band_names,omitempty" yaml:"band_names,omitempty"`
	InitialMethod *string  `json:"initial_method,omitempty" yaml:"initial_method,omitempty"`
	SplitMethod   *string  `json:"split_method,omitempty" yaml:"split_method,omitempty"`

	// Standard clusterers
	NClusters        *int     `json:"n_clusters,omitempty" yaml:"n_clusters,omitempty"`
	Linkage          *string  `json:"linkage,omitempty" yaml:"linkage,omitempty"`
	DBSCANEps        *float64 `json:"dbscan_eps,omitempty" yaml:"dbscan_eps,omitempty"`
	DBSCANMinSamples *int     `json:"dbscan_min_samples,omitempty" yaml:"dbscan_min_samples,omitempty"`
	KMeansMaxIter    *int     `json:"kmeans_max_iter,omitempty" yaml:"kmeans_max_iter,omitempty"`
	KMeansNInit      *int     `json:"kmeans_n_init,omitempty" yaml:"kmeans_n_init,omitempty"`
	Seed             *uint64  `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Feature extraction
	WindowSamples      *int     `json:"window_samples,omitempty" yaml:"window_samples,omitempty"`
	SmoothingWindow    *int     `json:"smoothing_window,omitempty" yaml:"smoothing_window,omitempty"`
	SmoothingPolyOrder *int     `json:"smoothing_polyorder,omitempty" yaml:"smoothing_polyorder,omitempty"`
	SpeedVariationLag  *int     `json:"speed_variation_lag,omitempty" yaml:"speed_variation_lag,omitempty"`
	StopSpeedKMH       *float64 `json:"stop_speed_kmh,omitempty" yaml:"stop_speed_kmh,omitempty"`
	SpeedUnit          *string  `json:"speed_unit,omitempty" yaml:"speed_unit,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	return EmptyTuningConfig().Effective()
}

// Effective returns a copy of c with every unset field filled in with its
// default, i.e. the values the Get* accessors report.
func (c *TuningConfig) Effective() *TuningConfig {
	return &TuningConfig{
		K:                  ptrInt(c.GetK()),
		MaxClusters:        ptrInt(c.GetMaxClusters()),
		BandNames:          c.GetBandNames(),
		InitialMethod:      ptrString(c.GetInitialMethod()),
		SplitMethod:        ptrString(c.GetSplitMethod()),
		NClusters:          ptrInt(c.GetNClusters()),
		Linkage:            ptrString(c.GetLinkage()),
		DBSCANEps:          ptrFloat64(c.GetDBSCANEps()),
		DBSCANMinSamples:   ptrInt(c.GetDBSCANMinSamples()),
		KMeansMaxIter:      ptrInt(c.GetKMeansMaxIter()),
		KMeansNInit:        ptrInt(c.GetKMeansNInit()),
		Seed:               ptrUint64(c.GetSeed()),
		WindowSamples:      ptrInt(c.GetWindowSamples()),
		SmoothingWindow:    ptrInt(c.GetSmoothingWindow()),
		SmoothingPolyOrder: ptrInt(c.GetSmoothingPolyOrder()),
		SpeedVariationLag:  ptrInt(c.GetSpeedVariationLag()),
		StopSpeedKMH:       ptrFloat64(c.GetStopSpeedKMH()),
		SpeedUnit:          ptrString(c.GetSpeedUnit()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON or YAML file.
// The extension selects the decoder (.json, .yaml, .yml) and the file must be
// under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.K != nil && *c.K <= 0 {
		return fmt.Errorf("k must be positive, got %d", *c.K)
	}
	if c.MaxClusters != nil && *c.MaxClusters <= 0 {
		return fmt.Errorf("max_clusters must be positive, got %d", *c.MaxClusters)
	}
	for i, name := range c.BandNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("band_names[%d] is empty", i)
		}
	}
	if c.InitialMethod != nil {
		switch *c.InitialMethod {
		case MethodIterative, MethodKMeans, MethodAgglomerative, MethodDBSCAN:
		default:
			return fmt.Errorf("unknown initial_method %q", *c.InitialMethod)
		}
	}
	if c.SplitMethod != nil {
		switch *c.SplitMethod {
		case MethodKMeans, MethodAgglomerative:
		default:
			return fmt.Errorf("split_method must be %q or %q, got %q", MethodKMeans, MethodAgglomerative, *c.SplitMethod)
		}
	}
	if c.NClusters != nil && *c.NClusters <= 0 {
		return fmt.Errorf("n_clusters must be positive, got %d", *c.NClusters)
	}
	if c.Linkage != nil {
		switch *c.Linkage {
		case LinkageWard, LinkageComplete, LinkageAverage, LinkageSingle:
		default:
			return fmt.Errorf("unknown linkage %q", *c.Linkage)
		}
	}
	if c.DBSCANEps != nil && *c.DBSCANEps <= 0 {
		return fmt.Errorf("dbscan_eps must be positive, got %f", *c.DBSCANEps)
	}
	if c.DBSCANMinSamples != nil && *c.DBSCANMinSamples <= 0 {
		return fmt.Errorf("dbscan_min_samples must be positive, got %d", *c.DBSCANMinSamples)
	}
	if c.KMeansMaxIter != nil && *c.KMeansMaxIter <= 0 {
		return fmt.Errorf("kmeans_max_iter must be positive, got %d", *c.KMeansMaxIter)
	}
	if c.KMeansNInit != nil && *c.KMeansNInit <= 0 {
		return fmt.Errorf("kmeans_n_init must be positive, got %d", *c.KMeansNInit)
	}
	if c.WindowSamples != nil && *c.WindowSamples <= 0 {
		return fmt.Errorf("window_samples must be positive, got %d", *c.WindowSamples)
	}
	if c.SmoothingWindow != nil && (*c.SmoothingWindow <= 0 || *c.SmoothingWindow%2 == 0) {
		return fmt.Errorf("smoothing_window must be a positive odd number, got %d", *c.SmoothingWindow)
	}
	if c.SmoothingPolyOrder != nil && *c.SmoothingPolyOrder < 0 {
		return fmt.Errorf("smoothing_polyorder must be non-negative, got %d", *c.SmoothingPolyOrder)
	}
	if c.GetSmoothingPolyOrder() >= c.GetSmoothingWindow() {
		return fmt.Errorf("smoothing_polyorder (%d) must be less than smoothing_window (%d)",
			c.GetSmoothingPolyOrder(), c.GetSmoothingWindow())
	}
	if c.SpeedVariationLag != nil && *c.SpeedVariationLag <= 0 {
		return fmt.Errorf("speed_variation_lag must be positive, got %d", *c.SpeedVariationLag)
	}
	if c.StopSpeedKMH != nil && *c.StopSpeedKMH < 0 {
		return fmt.Errorf("stop_speed_kmh must be non-negative, got %f", *c.StopSpeedKMH)
	}
	if c.SpeedUnit != nil {
		if _, err := units.Parse(*c.SpeedUnit); err != nil {
			return fmt.Errorf("speed_unit: %w", err)
		}
	}

	return nil
}

// GetK returns the chain length for iterative neighbours or the default.
func (c *TuningConfig) GetK() int {
	if c.K == nil {
		return 5
	}
	return *c.K
}

// GetMaxClusters returns the greedy cluster cap or the default.
func (c *TuningConfig) GetMaxClusters() int {
	if c.MaxClusters == nil {
		return 3
	}
	return *c.MaxClusters
}

// GetBandNames returns a copy of the band names or the defaults.
func (c *TuningConfig) GetBandNames() []string {
	if len(c.BandNames) == 0 {
		return append([]string(nil), DefaultBandNames...)
	}
	return append([]string(nil), c.BandNames...)
}

// GetInitialMethod returns the initial clustering method or the default.
func (c *TuningConfig) GetInitialMethod() string {
	if c.InitialMethod == nil {
		return MethodIterative
	}
	return *c.InitialMethod
}

// GetSplitMethod returns the recluster splitter or the default.
func (c *TuningConfig) GetSplitMethod() string {
	if c.SplitMethod == nil {
		return MethodKMeans
	}
	return *c.SplitMethod
}

// GetNClusters returns the cluster count for k-means and agglomerative.
func (c *TuningConfig) GetNClusters() int {
	if c.NClusters == nil {
		return 3
	}
	return *c.NClusters
}

// GetLinkage returns the agglomerative linkage or the default.
func (c *TuningConfig) GetLinkage() string {
	if c.Linkage == nil {
		return LinkageWard
	}
	return *c.Linkage
}

// GetDBSCANEps returns the DBSCAN neighbourhood radius or the default.
func (c *TuningConfig) GetDBSCANEps() float64 {
	if c.DBSCANEps == nil {
		return 1.0
	}
	return *c.DBSCANEps
}

// GetDBSCANMinSamples returns the DBSCAN core-point threshold or the default.
func (c *TuningConfig) GetDBSCANMinSamples() int {
	if c.DBSCANMinSamples == nil {
		return 5
	}
	return *c.DBSCANMinSamples
}

// GetKMeansMaxIter returns the Lloyd iteration cap or the default.
func (c *TuningConfig) GetKMeansMaxIter() int {
	if c.KMeansMaxIter == nil {
		return 300
	}
	return *c.KMeansMaxIter
}

// GetKMeansNInit returns the number of k-means restarts or the default.
func (c *TuningConfig) GetKMeansNInit() int {
	if c.KMeansNInit == nil {
		return 10
	}
	return *c.KMeansNInit
}

// GetSeed returns the RNG seed or the default.
func (c *TuningConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 42
	}
	return *c.Seed
}

// GetWindowSamples returns the number of samples per feature window.
func (c *TuningConfig) GetWindowSamples() int {
	if c.WindowSamples == nil {
		return 180 // 3 minutes at 1 Hz
	}
	return *c.WindowSamples
}

// GetSmoothingWindow returns the Savitzky-Golay window length or the default.
func (c *TuningConfig) GetSmoothingWindow() int {
	if c.SmoothingWindow == nil {
		return 15
	}
	return *c.SmoothingWindow
}

// GetSmoothingPolyOrder returns the Savitzky-Golay polynomial order or the default.
func (c *TuningConfig) GetSmoothingPolyOrder() int {
	if c.SmoothingPolyOrder == nil {
		return 2
	}
	return *c.SmoothingPolyOrder
}

// GetSpeedVariationLag returns the sample lag used for speed variation.
func (c *TuningConfig) GetSpeedVariationLag() int {
	if c.SpeedVariationLag == nil {
		return 5
	}
	return *c.SpeedVariationLag
}

// GetStopSpeedKMH returns the speed at or below which a sample counts as stopped.
func (c *TuningConfig) GetStopSpeedKMH() float64 {
	if c.StopSpeedKMH == nil {
		return 0
	}
	return *c.StopSpeedKMH
}

// GetSpeedUnit returns the unit of the raw telemetry speed column, normalised.
// Raw trips record m/s by default.
func (c *TuningConfig) GetSpeedUnit() string {
	if c.SpeedUnit == nil {
		return units.MPS
	}
	u, err := units.Parse(*c.SpeedUnit)
	if err != nil {
		return units.MPS
	}
	return u
}
