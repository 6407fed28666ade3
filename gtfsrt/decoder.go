package gtfsrt

import (
	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
)

// Decoder extracts observations for a single tracked route from a raw
// VehiclePositions feed. Decoding is pure: the same bytes always produce
// the same observations and outcome.
type Decoder struct {
	routeID string
}

// NewDecoder creates a decoder filtering on the given route id.
func NewDecoder(routeID string) *Decoder {
	return &Decoder{routeID: routeID}
}

// Decode unmarshals the feed and walks every entity. Entities without a
// position sub-message are skipped entirely and do not count toward the
// outcome. Of the position-bearing entities, only those whose trip
// descriptor names the tracked route become observations.
//
// observed_at prefers the entity's own timestamp and falls back to the
// feed header's generation timestamp. Any unmarshal failure discards the
// whole cycle; the wire format has no safe resynchronization point.
func (d *Decoder) Decode(data []byte) ([]Observation, PollOutcome, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(data, &fm); err != nil {
		return nil, PollOutcome{}, &FeedError{Cond: DecodeError, Err: err}
	}

	var headerTS int64
	if fm.Header != nil && fm.Header.Timestamp != nil {
		headerTS = int64(*fm.Header.Timestamp)
	}

	outcome := PollOutcome{Timestamp: headerTS}
	var observations []Observation

	for _, e := range fm.Entity {
		vp := e.Vehicle
		if vp == nil || vp.Position == nil {
			continue
		}
		pos := vp.Position
		if pos.Latitude == nil || pos.Longitude == nil {
			continue
		}
		outcome.TotalEntities++

		if vp.Trip == nil || vp.Trip.RouteId == nil || *vp.Trip.RouteId != d.routeID {
			continue
		}
		outcome.Matched++

		obs := Observation{
			ObservedAt: headerTS,
			VehicleID:  "unknown",
			RouteID:    *vp.Trip.RouteId,
			Latitude:   float64(*pos.Latitude),
			Longitude:  float64(*pos.Longitude),
		}
		if vp.Timestamp != nil {
			obs.ObservedAt = int64(*vp.Timestamp)
		}
		if vp.Vehicle != nil && vp.Vehicle.Id != nil && *vp.Vehicle.Id != "" {
			obs.VehicleID = *vp.Vehicle.Id
		}
		if vp.Trip.TripId != nil {
			tripID := *vp.Trip.TripId
			obs.TripID = &tripID
		}
		if vp.Trip.DirectionId != nil {
			dir := int32(*vp.Trip.DirectionId)
			obs.DirectionID = &dir
		}
		if vp.CurrentStopSequence != nil {
			seq := int32(*vp.CurrentStopSequence)
			obs.CurrentStopSequence = &seq
		}
		if pos.Speed != nil {
			speed := *pos.Speed
			obs.Speed = &speed
		}
		if pos.Bearing != nil {
			bearing := *pos.Bearing
			obs.Bearing = &bearing
		}
		observations = append(observations, obs)
	}

	log.WithFields(log.Fields{
		"entities": outcome.TotalEntities,
		"matched":  outcome.Matched,
	}).Debug("decoded feed")
	return observations, outcome, nil
}
