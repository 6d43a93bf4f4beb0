package services

import (
	"fmt"
	"net/http"
	"strconv"

	"mission-backend/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MissionCollector - 미션 이벤트를 Prometheus 메트릭으로 집계 (MissionObserver)
type MissionCollector struct {
	gatherer prometheus.Gatherer

	Transitions      *prometheus.CounterVec
	MoveCommands     *prometheus.CounterVec
	Arrivals         *prometheus.CounterVec
	PlanningFailures *prometheus.CounterVec
	FinalizeErrors   prometheus.Counter

	State          prometheus.Gauge
	TraveledPoints prometheus.Gauge
}

// NewMissionCollector - reg에 메트릭 등록 (nil이면 기본 레지스트리)
//
// 같은 레지스트리에 두 번 등록하면 기존 collector를 재사용한다.
func NewMissionCollector(reg prometheus.Registerer) (*MissionCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	transitions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_transitions_total",
		Help: "Mission state transitions, labeled by source and destination state.",
	}, []string{"from", "to"}), "mission_transitions_total")
	if err != nil {
		return nil, err
	}
	moves, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_move_commands_total",
		Help: "Move commands issued to the vehicle, labeled by target kind and acceptance.",
	}, []string{"kind", "accepted"}), "mission_move_commands_total")
	if err != nil {
		return nil, err
	}
	arrivals, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_arrivals_total",
		Help: "Confirmed waypoint arrivals, labeled by target kind.",
	}, []string{"kind"}), "mission_arrivals_total")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_planning_failures_total",
		Help: "Rejected planner results, labeled by route kind.",
	}, []string{"kind"}), "mission_planning_failures_total")
	if err != nil {
		return nil, err
	}
	finalizeErrors, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mission_finalize_errors_total",
		Help: "Traveled path persistence failures at mission end.",
	}), "mission_finalize_errors_total")
	if err != nil {
		return nil, err
	}
	state, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mission_state",
		Help: "Current mission state as its numeric value.",
	}), "mission_state")
	if err != nil {
		return nil, err
	}
	points, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mission_traveled_points",
		Help: "Number of points recorded in the traveled path.",
	}), "mission_traveled_points")
	if err != nil {
		return nil, err
	}

	return &MissionCollector{
		gatherer:         gatherer,
		Transitions:      transitions,
		MoveCommands:     moves,
		Arrivals:         arrivals,
		PlanningFailures: failures,
		FinalizeErrors:   finalizeErrors,
		State:            state,
		TraveledPoints:   points,
	}, nil
}

// ObserveMission - 이벤트 타입별 메트릭 갱신
func (c *MissionCollector) ObserveMission(evt models.MissionEvent) {
	if c == nil {
		return
	}
	switch evt.Type {
	case models.EventTransition:
		c.Transitions.WithLabelValues(evt.From.String(), evt.To.String()).Inc()
		c.State.Set(float64(evt.To))
	case models.EventMoveCommand:
		c.MoveCommands.WithLabelValues(string(evt.Kind), strconv.FormatBool(evt.Accepted)).Inc()
	case models.EventArrival:
		c.Arrivals.WithLabelValues(string(evt.Kind)).Inc()
		c.TraveledPoints.Set(float64(evt.Count))
	case models.EventPlanningFailure:
		c.PlanningFailures.WithLabelValues(string(evt.Kind)).Inc()
	case models.EventFinalized:
		if evt.Err != "" {
			c.FinalizeErrors.Inc()
		}
	}
}

// Handler - /metrics 핸들러
func (c *MissionCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
