package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tictactoe"

const (
	MoverHuman = "human"
	MoverBot   = "bot"
)

// Metrics holds the room server collectors.
type Metrics struct {
	roomsActive       prometheus.Gauge
	roomsCreated      prometheus.Counter
	joinsTotal        *prometheus.CounterVec
	joinsRefused      *prometheus.CounterVec
	movesApplied      *prometheus.CounterVec
	movesIgnored      prometheus.Counter
	botMovesAborted   prometheus.Counter
	broadcastsTotal   prometheus.Counter
	sendFailuresTotal prometheus.Counter
}

// New registers the collectors on registry.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		roomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Number of live rooms",
		}),
		roomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Total number of rooms created",
		}),
		joinsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joins_total",
			Help:      "Total number of accepted joins",
		}, []string{"role"}),
		joinsRefused: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joins_refused_total",
			Help:      "Total number of refused joins",
		}, []string{"reason"}),
		movesApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_applied_total",
			Help:      "Total number of applied moves",
		}, []string{"mover"}),
		movesIgnored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_ignored_total",
			Help:      "Total number of silently ignored moves",
		}),
		botMovesAborted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_moves_aborted_total",
			Help:      "Total number of automated moves dropped by the wake-time guard",
		}),
		broadcastsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Total number of snapshots fanned out",
		}),
		sendFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Total number of failed snapshot sends",
		}),
	}
}

func (that *Metrics) RoomCreated() {
	that.roomsCreated.Inc()
	that.roomsActive.Inc()
}

func (that *Metrics) RoomRemoved() {
	that.roomsActive.Dec()
}

func (that *Metrics) Joined(role string) {
	that.joinsTotal.WithLabelValues(role).Inc()
}

func (that *Metrics) JoinRefused(reason string) {
	that.joinsRefused.WithLabelValues(reason).Inc()
}

func (that *Metrics) MoveApplied(mover string) {
	that.movesApplied.WithLabelValues(mover).Inc()
}

func (that *Metrics) MoveIgnored() {
	that.movesIgnored.Inc()
}

func (that *Metrics) BotMoveAborted() {
	that.botMovesAborted.Inc()
}

func (that *Metrics) Broadcast(failures int) {
	that.broadcastsTotal.Inc()
	that.sendFailuresTotal.Add(float64(failures))
}
