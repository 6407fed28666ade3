package poller

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/transitlog/busrecorder/gtfsrt"
	"github.com/transitlog/busrecorder/metrics"
	"github.com/transitlog/busrecorder/store"
)

// Stage names used in failure logs.
const (
	stageFetch   = "fetch"
	stageDecode  = "decode"
	stagePersist = "persist"
)

// Supervisor runs one fetch-decode-persist cycle per tick. Cycles never
// overlap; the only state carried between cycles is the tick schedule.
type Supervisor struct {
	client   *gtfsrt.Client
	decoder  *gtfsrt.Decoder
	store    *store.Store
	routeID  string
	interval time.Duration
	metrics  *metrics.Collector

	polls int64
}

// New creates a supervisor. The metrics collector may be nil.
func New(client *gtfsrt.Client, decoder *gtfsrt.Decoder, st *store.Store, routeID string, interval time.Duration, m *metrics.Collector) *Supervisor {
	return &Supervisor{
		client:   client,
		decoder:  decoder,
		store:    st,
		routeID:  routeID,
		interval: interval,
		metrics:  m,
	}
}

// Run executes cycles until ctx is cancelled. The first cycle starts
// immediately; later cycles start one interval apart, measured from tick to
// tick. A cycle that outlives the interval makes the next tick fire as soon
// as it finishes, never concurrently.
func (s *Supervisor) Run(ctx context.Context) {
	log.WithField("interval", s.interval).Info("starting polling loop")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("polling loop stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Supervisor) cycle(ctx context.Context) {
	s.polls++
	started := time.Now()
	log.WithField("poll_number", s.polls).Info("starting poll")

	data, err := s.client.Fetch(ctx)
	if err != nil {
		s.fail(ctx, stageFetch, err)
		return
	}

	observations, outcome, err := s.decoder.Decode(data)
	if err != nil {
		s.fail(ctx, stageDecode, err)
		return
	}

	log.WithFields(log.Fields{
		"total_vehicles": outcome.TotalEntities,
		"route_vehicles": outcome.Matched,
	}).Info("poll complete")

	for _, obs := range observations {
		log.WithFields(log.Fields{
			"vehicle_id": obs.VehicleID,
			"route_id":   obs.RouteID,
			"lat":        obs.Latitude,
			"lon":        obs.Longitude,
		}).Info("bus position")
	}

	written := 0
	if len(observations) == 0 {
		log.Info("no buses currently active")
	} else {
		written, err = s.store.InsertBatch(ctx, observations)
		if err != nil {
			s.fail(ctx, stagePersist, err)
			return
		}
		log.WithField("saved_count", written).Info("saved observations")
	}

	s.logTotals(ctx)

	if s.metrics != nil {
		s.metrics.Polls.WithLabelValues("success").Inc()
		s.metrics.FeedEntities.Set(float64(outcome.TotalEntities))
		s.metrics.MatchedVehicles.Set(float64(outcome.Matched))
		s.metrics.RowsWritten.Add(float64(written))
		s.metrics.CycleDuration.Observe(time.Since(started).Seconds())
		s.metrics.RecordSuccessEpoch(outcome.Timestamp)
	}
}

// fail records a cycle-scoped failure. The supervisor does not branch on
// the condition; every transient failure is handled the same way.
func (s *Supervisor) fail(ctx context.Context, stage string, err error) {
	if ctx.Err() != nil {
		return // shutting down, not a feed problem
	}

	cond := condition(stage, err)
	log.WithFields(log.Fields{
		"stage":     stage,
		"condition": cond,
		"error":     err.Error(),
	}).Error("poll failed")
	log.Warn("will retry on next interval")

	if s.metrics != nil {
		s.metrics.Polls.WithLabelValues("failure").Inc()
		s.metrics.Failures.WithLabelValues(cond).Inc()
	}
}

func (s *Supervisor) logTotals(ctx context.Context) {
	total, err := s.store.CountTotal(ctx)
	if err != nil {
		log.WithError(err).Warn("could not read store totals")
		return
	}
	routeTotal, err := s.store.CountForRoute(ctx, s.routeID)
	if err != nil {
		log.WithError(err).Warn("could not read store totals")
		return
	}
	log.WithFields(log.Fields{
		"total_observations": total,
		"route_observations": routeTotal,
	}).Info("database stats")
}

func condition(stage string, err error) string {
	var fe *gtfsrt.FeedError
	if errors.As(err, &fe) {
		return string(fe.Cond)
	}
	if stage == stagePersist {
		return "write_failed"
	}
	return "unknown"
}
