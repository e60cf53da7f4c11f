// Package trajectory owns per-point trajectory estimation.
//
// Responsibilities: bounded measurement and prediction histories, the
// per-axis constant-velocity Kalman filter bank, and the quadratic
// extrapolation fallback for short detection gaps.
// Key types: Coord, Observation, Histories, MeasurementBuffer, Predictor.
//
// Dependency rule: trajectory never depends on events, session or any
// storage/report package. It consumes and produces numeric data only.
package trajectory
