package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for a tracking session.
// Every field is optional; the Get* methods supply defaults for omitted
// fields so partial files are safe.
type TuningConfig struct {
	// History params
	HistoryMaxLen *int     `json:"history_max_len,omitempty"`
	TrackedPoints []string `json:"tracked_points,omitempty"`
	FrameRate     *float64 `json:"frame_rate,omitempty"` // frames per second, for timestamps only

	// Kalman params
	ProcessVariance     *float64 `json:"process_variance,omitempty"`
	MeasurementVariance *float64 `json:"measurement_variance,omitempty"`

	// Extrapolation params
	ExtrapolationEnabled    *bool `json:"extrapolation_enabled,omitempty"`
	ExtrapolationWindow     *int  `json:"extrapolation_window,omitempty"`
	ExtrapolationMinSamples *int  `json:"extrapolation_min_samples,omitempty"`

	// Event counter params
	PeakMinWindow       *int     `json:"peak_min_window,omitempty"`
	PeakProminence      *float64 `json:"peak_prominence,omitempty"`
	CounterMode         *string  `json:"counter_mode,omitempty"` // "hysteresis" or "single"
	CounterPoint        *string  `json:"counter_point,omitempty"`
	CounterAxis         *string  `json:"counter_axis,omitempty"` // "x" or "y"
	CounterNegate       *bool    `json:"counter_negate,omitempty"`
	ResetScope          *string  `json:"reset_scope,omitempty"` // "all" or "point"
	ResetFiltersOnEvent *bool    `json:"reset_filters_on_event,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		HistoryMaxLen:           ptrInt(empty.GetHistoryMaxLen()),
		TrackedPoints:           empty.GetTrackedPoints(),
		FrameRate:               ptrFloat64(empty.GetFrameRate()),
		ProcessVariance:         ptrFloat64(empty.GetProcessVariance()),
		MeasurementVariance:     ptrFloat64(empty.GetMeasurementVariance()),
		ExtrapolationEnabled:    ptrBool(empty.GetExtrapolationEnabled()),
		ExtrapolationWindow:     ptrInt(empty.GetExtrapolationWindow()),
		ExtrapolationMinSamples: ptrInt(empty.GetExtrapolationMinSamples()),
		PeakMinWindow:           ptrInt(empty.GetPeakMinWindow()),
		PeakProminence:          ptrFloat64(empty.GetPeakProminence()),
		CounterMode:             ptrString(empty.GetCounterMode()),
		CounterPoint:            ptrString(empty.GetCounterPoint()),
		CounterAxis:             ptrString(empty.GetCounterAxis()),
		CounterNegate:           ptrBool(empty.GetCounterNegate()),
		ResetScope:              ptrString(empty.GetResetScope()),
		ResetFiltersOnEvent:     ptrBool(empty.GetResetFiltersOnEvent()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/
		"../../" + DefaultConfigPath,    // from internal/config/ or cmd/juggle/
		"../../../" + DefaultConfigPath, // from internal/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable. Only fields that
// are set are checked; defaults are always valid.
func (c *TuningConfig) Validate() error {
	if c.HistoryMaxLen != nil && *c.HistoryMaxLen < 1 {
		return fmt.Errorf("history_max_len must be at least 1, got %d", *c.HistoryMaxLen)
	}
	if c.FrameRate != nil && *c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %f", *c.FrameRate)
	}
	if c.ProcessVariance != nil && *c.ProcessVariance < 0 {
		return fmt.Errorf("process_variance must be non-negative, got %f", *c.ProcessVariance)
	}
	if c.MeasurementVariance != nil && *c.MeasurementVariance <= 0 {
		return fmt.Errorf("measurement_variance must be positive, got %f", *c.MeasurementVariance)
	}

	if c.GetExtrapolationMinSamples() < 3 {
		return fmt.Errorf("extrapolation_min_samples must be at least 3, got %d", c.GetExtrapolationMinSamples())
	}
	if c.GetExtrapolationWindow() < c.GetExtrapolationMinSamples() {
		return fmt.Errorf("extrapolation_window (%d) must be at least extrapolation_min_samples (%d)",
			c.GetExtrapolationWindow(), c.GetExtrapolationMinSamples())
	}

	if c.PeakMinWindow != nil && *c.PeakMinWindow < 2 {
		return fmt.Errorf("peak_min_window must be at least 2, got %d", *c.PeakMinWindow)
	}
	if c.PeakProminence != nil && *c.PeakProminence < 0 {
		return fmt.Errorf("peak_prominence must be non-negative, got %f", *c.PeakProminence)
	}
	if c.CounterMode != nil && *c.CounterMode != "hysteresis" && *c.CounterMode != "single" {
		return fmt.Errorf("counter_mode must be \"hysteresis\" or \"single\", got %q", *c.CounterMode)
	}
	if c.CounterAxis != nil && *c.CounterAxis != "x" && *c.CounterAxis != "y" {
		return fmt.Errorf("counter_axis must be \"x\" or \"y\", got %q", *c.CounterAxis)
	}
	if c.ResetScope != nil && *c.ResetScope != "all" && *c.ResetScope != "point" {
		return fmt.Errorf("reset_scope must be \"all\" or \"point\", got %q", *c.ResetScope)
	}

	seen := make(map[string]bool)
	for _, id := range c.GetTrackedPoints() {
		if id == "" {
			return fmt.Errorf("tracked_points must not contain empty ids")
		}
		if seen[id] {
			return fmt.Errorf("tracked_points contains duplicate id %q", id)
		}
		seen[id] = true
	}
	if !seen[c.GetCounterPoint()] {
		return fmt.Errorf("counter_point %q is not in tracked_points", c.GetCounterPoint())
	}

	return nil
}

// GetHistoryMaxLen returns the history_max_len value or the default.
func (c *TuningConfig) GetHistoryMaxLen() int {
	if c.HistoryMaxLen == nil {
		return 100
	}
	return *c.HistoryMaxLen
}

// GetTrackedPoints returns tracked_points or the default ["Ball"].
func (c *TuningConfig) GetTrackedPoints() []string {
	if len(c.TrackedPoints) == 0 {
		return []string{"Ball"}
	}
	return append([]string(nil), c.TrackedPoints...)
}

// GetFrameRate returns the frame_rate value or the default.
func (c *TuningConfig) GetFrameRate() float64 {
	if c.FrameRate == nil {
		return 30
	}
	return *c.FrameRate
}

// GetProcessVariance returns the process_variance value or the default.
func (c *TuningConfig) GetProcessVariance() float64 {
	if c.ProcessVariance == nil {
		return 0.01
	}
	return *c.ProcessVariance
}

// GetMeasurementVariance returns the measurement_variance value or the default.
func (c *TuningConfig) GetMeasurementVariance() float64 {
	if c.MeasurementVariance == nil {
		return 0.1
	}
	return *c.MeasurementVariance
}

// GetExtrapolationEnabled returns the extrapolation_enabled value or the default.
func (c *TuningConfig) GetExtrapolationEnabled() bool {
	if c.ExtrapolationEnabled == nil {
		return true
	}
	return *c.ExtrapolationEnabled
}

// GetExtrapolationWindow returns the extrapolation_window value or the default.
func (c *TuningConfig) GetExtrapolationWindow() int {
	if c.ExtrapolationWindow == nil {
		return 5
	}
	return *c.ExtrapolationWindow
}

// GetExtrapolationMinSamples returns the extrapolation_min_samples value or the default.
func (c *TuningConfig) GetExtrapolationMinSamples() int {
	if c.ExtrapolationMinSamples == nil {
		return 3
	}
	return *c.ExtrapolationMinSamples
}

// GetPeakMinWindow returns the peak_min_window value or the default.
func (c *TuningConfig) GetPeakMinWindow() int {
	if c.PeakMinWindow == nil {
		return 10
	}
	return *c.PeakMinWindow
}

// GetPeakProminence returns the peak_prominence value or the default (disabled).
func (c *TuningConfig) GetPeakProminence() float64 {
	if c.PeakProminence == nil {
		return 0
	}
	return *c.PeakProminence
}

// GetCounterMode returns the counter_mode value or the default.
func (c *TuningConfig) GetCounterMode() string {
	if c.CounterMode == nil {
		return "hysteresis"
	}
	return *c.CounterMode
}

// GetCounterPoint returns the counter_point value or the default.
func (c *TuningConfig) GetCounterPoint() string {
	if c.CounterPoint == nil || *c.CounterPoint == "" {
		return "Ball"
	}
	return *c.CounterPoint
}

// GetCounterAxis returns the counter_axis value or the default.
func (c *TuningConfig) GetCounterAxis() string {
	if c.CounterAxis == nil {
		return "y"
	}
	return *c.CounterAxis
}

// GetCounterNegate returns counter_negate, defaulting to true for the y
// axis (image Y grows downward) and false otherwise.
func (c *TuningConfig) GetCounterNegate() bool {
	if c.CounterNegate == nil {
		return c.GetCounterAxis() == "y"
	}
	return *c.CounterNegate
}

// GetResetScope returns the reset_scope value or the default.
func (c *TuningConfig) GetResetScope() string {
	if c.ResetScope == nil {
		return "all"
	}
	return *c.ResetScope
}

// GetResetFiltersOnEvent returns the reset_filters_on_event value or the default.
func (c *TuningConfig) GetResetFiltersOnEvent() bool {
	if c.ResetFiltersOnEvent == nil {
		return false
	}
	return *c.ResetFiltersOnEvent
}
