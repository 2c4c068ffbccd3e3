// Package shutdown coordinates an orderly stop of the agent.
//
// On SIGINT or SIGTERM the registered hooks run in reverse order of
// registration, sharing one deadline. The agent registers the metrics
// server, then the final settings flush, then media unmount, so a pending
// deferred save reaches storage before the media go away.
package shutdown
