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

package core

import "github.com/ground-x/ledgerstate/metrics"

// Package-level counters, mirroring the teacher's practice of registering
// a handful of meters/counters against the default metrics registry rather
// than threading a metrics client through every call. A PrometheusCollector
// built over metrics.DefaultRegistry() picks these up automatically.
var (
	txExecutedCounter   = metrics.NewRegisteredCounter("core/tx/executed", nil)
	txRejectedCounter   = metrics.NewRegisteredCounter("core/tx/rejected", nil)
	blocksPlayedMeter   = metrics.NewRegisteredMeter("core/block/played", nil)
	miningAttemptsMeter = metrics.NewRegisteredMeter("core/mining/attempts", nil)
	blocksMinedCounter  = metrics.NewRegisteredCounter("core/mining/sealed", nil)
)
