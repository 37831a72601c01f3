// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gitlab.com/accumulatenetwork/nearbatch/config"
	"gitlab.com/accumulatenetwork/nearbatch/internal/logging"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/api"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/api/jsonrpc"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/batch"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/build"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/client/signing"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/nonce"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

var cmdRun = &cobra.Command{
	Use:   "run",
	Short: "Sign and broadcast the configured batch",
	Args:  cobra.NoArgs,
	Run:   runBatch,
}

var flagRun struct {
	JSON bool
}

func init() {
	cmdMain.AddCommand(cmdRun)
	cmdRun.Flags().BoolVar(&flagRun.JSON, "json", false, "Print the outcomes as JSON")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(flagMain.Config)
	checkf(err, "load %s", flagMain.Config)
	return cfg
}

func runBatch(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()

	logger, err := logging.NewLogger(cfg.Logging.Format, cfg.Logging.Level, os.Stderr, cfg.Logging.Color)
	checkf(err, "logging")

	pipeline, err := newPipeline(cfg, logger)
	check(err)

	key, err := signing.ParsePrivateKey(cfg.Account.PrivateKey)
	checkf(err, "private key")

	requests, err := requestsFor(cfg)
	check(err)

	if cfg.Metrics.Listen != "" {
		serveMetrics(cfg.Metrics.Listen, logger)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	result, err := pipeline.Run(ctx, protocol.AccountID(cfg.Account.ID), key, requests)
	check(err)

	if flagRun.JSON {
		check(printJSON(cmd.OutOrStdout(), result))
	} else {
		printTable(cmd.OutOrStdout(), result)
	}

	if batch.Counts(result.Outcomes)[batch.StatusAccepted] != len(result.Outcomes) {
		cancel()
		os.Exit(2)
	}
}

func newPipeline(cfg *config.Config, logger *slog.Logger) (*batch.Pipeline, error) {
	client := jsonrpc.NewClient(cfg.Network.RPCURL)
	client.Client.Timeout = cfg.Network.Timeout
	client.Finality = jsonrpc.Finality(cfg.Network.Finality)
	client.Logger = logger

	mode, ok := api.SubmitModeByName(cfg.Batch.Mode)
	if !ok {
		return nil, errors.BadRequest.WithFormat("invalid submit mode %q", cfg.Batch.Mode)
	}

	policy, err := batch.PolicyByName(cfg.Batch.Permission)
	if err != nil {
		return nil, err
	}

	return &batch.Pipeline{
		Resolver: client,
		Broadcaster: &batch.Broadcaster{
			Submitter:     client,
			Mode:          mode,
			MaxInFlight:   cfg.Batch.MaxInFlight,
			SubmitTimeout: cfg.Batch.SubmitTimeout,
			Logger:        logger,
		},
		Sequencer: nonce.NewSequencer(),
		Policy:    policy,
		Logger:    logger,
	}, nil
}

// defaultGas is attached to function calls that do not specify gas.
const defaultGas = 30 * protocol.TeraGas

// requestsFor converts the configured transactions. Deposits are decimal
// NEAR amounts.
func requestsFor(cfg *config.Config) ([]*batch.Request, error) {
	var requests []*batch.Request
	for i, txn := range cfg.Batch.Transactions {
		req := &batch.Request{Receiver: protocol.AccountID(txn.Receiver)}
		for _, action := range txn.Actions {
			deposit := action.Deposit
			if deposit == "" {
				deposit = "0"
			}

			gas := action.Gas
			if gas == 0 {
				gas = defaultGas
			}

			var a protocol.Action
			var err error
			switch action.Type {
			case "", "function-call":
				a, err = build.FunctionCall(action.Method, action.Args, gas, deposit)
			case "transfer":
				a, err = build.Transfer(deposit)
			default:
				err = errors.BadRequest.WithFormat("unknown action type %q", action.Type)
			}
			if err != nil {
				return nil, errors.UnknownError.WithFormat("transaction %d: %w", i, err)
			}
			req.Actions = append(req.Actions, a)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func serveMetrics(listen string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{},
		),
	))

	srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", "module", "metrics", "error", err)
		}
	}()
}

type outcomeJSON struct {
	Index      int    `json:"index"`
	Nonce      uint64 `json:"nonce"`
	Receiver   string `json:"receiver"`
	Hash       string `json:"hash"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

func outcomesFor(result *batch.Result) []outcomeJSON {
	out := make([]outcomeJSON, len(result.Outcomes))
	for i, o := range result.Outcomes {
		txn := result.Transactions[i].Transaction
		out[i] = outcomeJSON{
			Index:      o.Index,
			Nonce:      txn.Nonce,
			Receiver:   txn.ReceiverID.String(),
			Hash:       o.TxHash.String(),
			Status:     o.Status.String(),
			Detail:     o.Detail,
			DurationMS: o.Duration.Milliseconds(),
		}
	}
	return out
}

func printJSON(w io.Writer, result *batch.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcomesFor(result))
}
