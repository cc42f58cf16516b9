// Command codecomet-collector runs a local capture collector: it ingests
// records from agents the way the hosted service does and keeps the latest
// ones available over HTTP for inspection.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"

	"github.com/codecomet-io/codecomet-go/collector"
	"github.com/codecomet-io/codecomet-go/common/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("codecomet-collector", pflag.ContinueOnError)
	addr := flags.String("addr", ":9321", "listen address")
	apiKey := flags.String("api-key", os.Getenv("CODECOMET_API_KEY"), "api key agents must present; empty accepts all")
	keep := flags.Int("keep", 256, "number of records to keep in memory")
	service := flags.String("service", "", "service name for tracing; empty disables tracing")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	log := logger.Instance().Named("codecomet-collector")

	srv := collector.New(collector.Config{
		APIKey:      *apiKey,
		KeepRecords: *keep,
		ServiceName: *service,
	}, log)

	log.Info("collector listening",
		logger.String("addr", *addr),
		logger.Bool("auth_required", *apiKey != ""),
	)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return errors.Wrap(httpServer.ListenAndServe(), "collector server")
}
