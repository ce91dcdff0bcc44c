// Package trakt implements the OAuth device-authorization flow against the
// configured Trakt service and owns the persisted token state.
//
// Polling is a single-shot operation: Poll performs one network round trip
// and reports the outcome, leaving retry cadence to the caller. This keeps
// the flow usable from independent short-lived invocations that cannot hold
// an in-process timer.
package trakt
