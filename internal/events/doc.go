// Package events counts repeated motion cycles (ball bounces, strokes) from
// a designated point's predicted trajectory.
//
// The counter only reads the rolling prediction history kept by
// internal/trajectory and clears it when a cycle is confirmed, so each
// cycle is counted once.
package events
