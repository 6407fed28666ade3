// Package gtfsrt handles fetching and decoding the GTFS-Realtime
// VehiclePositions feed.
//
// Client performs a single timed HTTP fetch per call and classifies
// transport failures. Decoder turns raw protobuf bytes into the ordered
// list of observations for the tracked route plus a per-cycle PollOutcome.
// Both are stateless between calls; retry policy belongs to the poller.
package gtfsrt
