// Package agent runs the settings registry as a long-lived process.
//
// The registry is not safe for concurrent use, so the agent confines it to
// the goroutine running Run. Other goroutines reach it through Do. The
// loop drives the deferred-save scheduler and publishes a state snapshot
// for the metrics endpoint after every step.
package agent
