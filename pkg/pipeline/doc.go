// Package pipeline provides a typed, cancellable channel pipeline.
//
// A pipeline is built from sources, transform steps, splitters, mergers and
// sinks. Each step runs in its own goroutine and passes elements to the next
// step over a channel, so independent steps execute concurrently without any
// explicit synchronisation in the caller. Transform steps can additionally be
// fanned out over a bounded number of workers.
//
// The pipeline stops on the first error: every step reports into a dedicated
// error channel, the channels are merged, and the shared context is cancelled
// as soon as Wait observes a failure.
//
// Optional features record the step graph and per-step timings, and can dump
// the annotated graph in DOT format once the run finishes.
package pipeline
