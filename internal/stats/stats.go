package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"
)

// Counter names published by the realtime layer. The hub registers
// them at construction and feeds deltas as connections, subscriptions
// and events come and go.
const (
	MetricActiveConnections   = "ActiveConnections"
	MetricActiveSubscriptions = "ActiveSubscriptions"
	MetricBroadcastEvents     = "BroadcastEvents"
	MetricDroppedEvents       = "DroppedEvents"
)

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
	Run()
}

// StatsUpdater publishes counters under the teamchat-stats expvar map.
// Deltas are applied on a single goroutine so hot paths never contend
// on the map.
type StatsUpdater struct {
	vars      *expvar.Map
	deltaChan chan *metricDelta
}

type metricDelta struct {
	name  string
	value int
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	expvarData := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		expvarData[kv.Key] = value
	})

	json.NewEncoder(w).Encode(expvarData)
}

// NewStatsUpdater creates a stats updater serving GET /debug/vars.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		deltaChan: make(chan *metricDelta, 512),
	}
	mux.Handle("GET /debug/vars", http.HandlerFunc(su.expvarHandler))
	su.vars = expvar.NewMap("teamchat-stats")
	su.initializeMetrics()

	return su
}

func (su *StatsUpdater) initializeMetrics() {
	startTime := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))
}

func (su *StatsUpdater) applyDeltas() {
	for delta := range su.deltaChan {
		metric := su.vars.Get(delta.name)
		if metric == nil {
			panic("metric not found: " + delta.name)
		}

		metric.(*expvar.Int).Add(int64(delta.value))
	}
}

func (su *StatsUpdater) Incr(name string) {
	su.deltaChan <- &metricDelta{name: name, value: 1}
}

func (su *StatsUpdater) Decr(name string) {
	su.deltaChan <- &metricDelta{name: name, value: -1}
}

func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, expvar.NewInt(name))
}

func (su *StatsUpdater) Run() {
	go su.applyDeltas()
}

func (su *StatsUpdater) Stop() {
	close(su.deltaChan)
}
