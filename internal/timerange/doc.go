// Package timerange parses and validates the start/end window of a clip.
//
// Each end of the window is given as three optional numeric strings (hours,
// minutes, seconds). Overflowing components are carried upward before the
// window is compared, so "0:0:90" and "0:1:30" are the same position.
// Each field is limited to MaxFieldValue so totals cannot overflow.
package timerange
