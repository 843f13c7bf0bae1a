// Package trace records what a fingerprinting run does: spans for the run
// and each target, point events for individual fields.
//
// Levels:
//
//	off     nothing
//	error   only KindError events
//	phase   driver spans
//	detail  driver and target spans
//	debug   everything, including per-field events
//
// Storage modes are "stream" (write each event immediately, text or NDJSON),
// "ring" (keep the last N events in memory, dump on failure) and "both".
// Tracers travel through context.Context; FromContext never returns nil.
package trace
