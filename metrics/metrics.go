// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics re-exports the rcrowley/go-metrics registry under the
// names the rest of this module calls, mirroring storage/database and
// miner usage in the teacher node.
package metrics

import (
	gometrics "github.com/rcrowley/go-metrics"
)

// Enabled controls whether meters/counters actually record; disabled
// metrics are replaced with no-op implementations at registration time.
var Enabled = true

type Meter = gometrics.Meter
type Counter = gometrics.Counter
type Gauge = gometrics.Gauge

// NewRegisteredMeter mirrors gometrics.NewRegisteredMeter, falling back to
// a nil meter when metrics are disabled.
func NewRegisteredMeter(name string, r gometrics.Registry) Meter {
	if !Enabled {
		return gometrics.NilMeter{}
	}
	if r == nil {
		r = gometrics.DefaultRegistry
	}
	return gometrics.GetOrRegisterMeter(name, r)
}

// NewRegisteredCounter mirrors gometrics.NewRegisteredCounter.
func NewRegisteredCounter(name string, r gometrics.Registry) Counter {
	if !Enabled {
		return gometrics.NilCounter{}
	}
	if r == nil {
		r = gometrics.DefaultRegistry
	}
	return gometrics.GetOrRegisterCounter(name, r)
}

// NewRegisteredGauge mirrors gometrics.NewRegisteredGauge.
func NewRegisteredGauge(name string, r gometrics.Registry) Gauge {
	if !Enabled {
		return gometrics.NilGauge{}
	}
	if r == nil {
		r = gometrics.DefaultRegistry
	}
	return gometrics.GetOrRegisterGauge(name, r)
}

// DefaultRegistry is the registry the Prometheus exporter scrapes.
func DefaultRegistry() gometrics.Registry {
	return gometrics.DefaultRegistry
}
