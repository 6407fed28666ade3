package gtfsrt

// Observation is one vehicle's position at one instant, decoded from a
// VehiclePositions entity. Optional wire fields stay pointers so that
// "not reported" survives into the stored row as NULL instead of a
// sentinel value.
type Observation struct {
	ObservedAt          int64    `db:"timestamp"`
	VehicleID           string   `db:"vehicle_id"`
	RouteID             string   `db:"route_id"`
	TripID              *string  `db:"trip_id"`
	DirectionID         *int32   `db:"direction_id"`
	Latitude            float64  `db:"latitude"`
	Longitude           float64  `db:"longitude"`
	CurrentStopSequence *int32   `db:"current_stop_sequence"`
	Speed               *float32 `db:"speed"`
	Bearing             *float32 `db:"bearing"`
}

// PollOutcome summarizes one decode pass: how many entities carried a
// position sub-message, how many of those matched the tracked route, and
// the feed header timestamp. It is logged once and never persisted.
type PollOutcome struct {
	TotalEntities int
	Matched       int
	Timestamp     int64
}
