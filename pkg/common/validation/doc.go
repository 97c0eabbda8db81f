// Package validation provides common validation utilities for configuration
// parameters across the jobflow library.
//
// Constructors use these helpers so that rejected values produce consistent
// ValidationError messages.
package validation
