// Package errors provides standardized error handling patterns for StreamKit components.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input, non-retryable), and
// Fatal (unrecoverable, stop processing).
//
// This classification enables intelligent error handling strategies throughout
// StreamKit, allowing components to make informed decisions about retries,
// graceful degradation, and failure recovery without hardcoded error string
// matching. Decode failures reported by pipeline stages are classified Invalid:
// the offending unit is skipped and processing continues with the next one.
//
// # Error Classification
//
//   - Transient: shutdown races, closed buffers, cancelled contexts (retry recommended)
//   - Invalid: malformed input, decode failures, validation failures (do not retry)
//   - Fatal: bad configuration, resource exhaustion (stop processing)
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if len(parts) != 6 {
//	    return errors.ErrMalformedInput
//	}
//
// Wrap errors with context for debugging:
//
//	if err := payload.Validate(); err != nil {
//	    return errors.WrapInvalid(err, "Decoder", "decode", "payload validation")
//	}
//
// Check classification for handling decisions:
//
//	if errors.IsInvalid(err) {
//	    // skip the unit, keep the pipeline running
//	}
package errors
