// Package poller drives the fetch-decode-persist pipeline on a fixed
// interval.
//
// Every failure after store initialization is cycle-scoped: the cycle is
// abandoned, the condition is logged, and the next tick runs at the normal
// interval. There is deliberately no backoff; a sustained outage shows up
// as one failure line per interval instead of being silently suppressed.
package poller
