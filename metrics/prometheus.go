package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	gometrics "github.com/rcrowley/go-metrics"
)

// PrometheusCollector adapts the rcrowley/go-metrics DefaultRegistry into a
// prometheus.Collector so an embedder can expose every counter registered
// via NewRegisteredMeter/Counter/Gauge on a /metrics endpoint without
// duplicating each one by hand.
type PrometheusCollector struct {
	namespace string
}

// NewPrometheusCollector builds a collector over the default registry.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{namespace: namespace}
}

func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	// Dynamic set of metrics; descriptions are generated on Collect.
}

func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	DefaultRegistry().Each(func(name string, i interface{}) {
		desc := prometheus.NewDesc(c.namespace+"_"+sanitize(name), name, nil, nil)
		switch m := i.(type) {
		case gometrics.Meter:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(m.Count()))
		case gometrics.Counter:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(m.Count()))
		case gometrics.Gauge:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(m.Value()))
		}
	})
}

func sanitize(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out[i] = c
		} else {
			out[i] = '_'
		}
	}
	return string(out)
}
