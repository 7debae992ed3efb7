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

// Command ledgerstate is a small demonstrator that drives the state engine
// end to end outside of any test harness: build a genesis, seal a candidate
// block on top of it, search for a satisfying nonce, and optionally expose
// the resulting counters on a Prometheus endpoint.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"

	"github.com/ground-x/ledgerstate/core"
	"github.com/ground-x/ledgerstate/core/state"
	"github.com/ground-x/ledgerstate/log"
	"github.com/ground-x/ledgerstate/metrics"
	"github.com/ground-x/ledgerstate/storage/database"
)

var logger = log.NewModuleLogger(log.Core)

func main() {
	app := cli.NewApp()
	app.Name = "ledgerstate"
	app.Usage = "genesis, single-block mining and metrics demonstrator for the ledger state engine"
	app.Commands = []cli.Command{
		genesisCommand,
		mineCommand,
		metricsCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var dbFlag = cli.StringFlag{
	Name:  "db",
	Usage: "overlay backend: memory, leveldb or badger",
	Value: "memory",
}

var dataDirFlag = cli.StringFlag{
	Name:  "datadir",
	Usage: "directory for the leveldb/badger backend (ignored for memory)",
	Value: "ledgerstate-data",
}

func openOverlay(ctx *cli.Context) (*database.Overlay, error) {
	switch ctx.String(dbFlag.Name) {
	case "leveldb":
		return database.OpenDB(database.LevelDBBackend, ctx.String(dataDirFlag.Name), false)
	case "badger":
		return database.OpenDB(database.BadgerBackend, ctx.String(dataDirFlag.Name), false)
	default:
		return database.OpenDB(database.MemoryBackend, "", false)
	}
}

var genesisCommand = cli.Command{
	Name:  "genesis",
	Usage: "build the default genesis block and print its header as JSON",
	Flags: []cli.Flag{dbFlag, dataDirFlag},
	Action: func(ctx *cli.Context) error {
		ov, err := openOverlay(ctx)
		if err != nil {
			return err
		}
		defer ov.Close()

		sdb := state.NewDatabase(ov)
		header, err := core.DefaultGenesis().ToBlock(sdb)
		if err != nil {
			return err
		}
		enc, err := json.MarshalIndent(header, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
		return nil
	},
}

var mineCommand = cli.Command{
	Name:  "mine",
	Usage: "seal an empty candidate block on top of genesis and search for a nonce",
	Flags: []cli.Flag{
		dbFlag,
		dataDirFlag,
		cli.Int64Flag{Name: "timeout", Usage: "search budget in milliseconds", Value: 5000},
	},
	Action: func(ctx *cli.Context) error {
		ov, err := openOverlay(ctx)
		if err != nil {
			return err
		}
		defer ov.Close()

		sdb := state.NewDatabase(ov)
		genesis := core.DefaultGenesis()
		genesisHeader, err := genesis.ToBlock(sdb)
		if err != nil {
			return err
		}

		s, err := core.NewState(genesis.Config, sdb, nil, nil, genesisHeader)
		if err != nil {
			return err
		}
		if err := s.CommitToMine(nil); err != nil {
			return err
		}

		start := time.Now()
		info, err := s.Mine(ctx.Int64("timeout"))
		if err != nil {
			return err
		}
		logger.Info("mining attempt finished", "completed", info.Completed, "elapsed", time.Since(start))
		if !info.Completed {
			fmt.Printf("no nonce found within %dms; best %s, target %s\n", ctx.Int64("timeout"), info.BestSoFar, info.RequiredEffort)
			return nil
		}
		fmt.Printf("sealed block, %d raw bytes\n", len(info.CurrentBytes))
		return nil
	},
}

var metricsCommand = cli.Command{
	Name:  "metrics",
	Usage: "serve the rcrowley/go-metrics default registry on /metrics",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "addr", Usage: "listen address", Value: ":6060"},
	},
	Action: func(ctx *cli.Context) error {
		reg := prometheus.NewRegistry()
		if err := reg.Register(metrics.NewPrometheusCollector("ledgerstate")); err != nil {
			return err
		}
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

		addr := ctx.String("addr")
		logger.Info("serving metrics", "addr", addr)
		return http.ListenAndServe(addr, nil)
	},
}
