package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/modelplane/modelplane/internal/llm"
	"github.com/modelplane/modelplane/internal/promproxy"
	"github.com/modelplane/modelplane/internal/registry"
	"github.com/modelplane/modelplane/internal/sandbox"
	"github.com/modelplane/modelplane/internal/server"
	"github.com/modelplane/modelplane/internal/workspace"
)

const shutdownGrace = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the model control plane HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Flags())
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("web.listen-address", ":8080",
		"Address to listen on for API requests and metrics.")
	flags.String("llm.base-url", envOr("LLM_BASE_URL", "http://localhost:8000"),
		"Base URL of the OpenAI-compatible provider.")
	flags.String("llm.api-key", envOr("LLM_API_KEY", ""),
		"API key sent as a bearer token to the provider.")
	flags.String("llm.models", envOr("LLM_MODELS", "gpt-3.5-turbo"),
		"Comma-separated provider model names to register with chat and completion capabilities.")
	flags.Duration("llm.timeout", 30*time.Second,
		"Timeout for one provider call.")
	flags.String("prometheus.url", envOr("PROMETHEUS_URL", "http://localhost:9090"),
		"Base URL of the Prometheus server to proxy.")
	flags.Duration("prometheus.timeout", 30*time.Second,
		"Timeout for one Prometheus call.")
	flags.String("fs.allowed-directories", envOr("ALLOWED_DIRECTORIES", ""),
		"Comma-separated roots the filesystem gateway may touch. Defaults to the working directory.")
	flags.Int("git.workers", runtime.NumCPU(),
		"Maximum concurrent repository analyses.")
	flags.Duration("git.timeout", server.DefaultGitTimeout,
		"Timeout for one repository analysis, clone included.")
	flags.String("git.ssh-identity", envOr("GIT_SSH_IDENTITY", ""),
		"Path to an SSH private key for cloning private repositories.")
}

func serve(flags *pflag.FlagSet) error {
	listenAddress, _ := flags.GetString("web.listen-address")
	llmBaseURL, _ := flags.GetString("llm.base-url")
	llmAPIKey, _ := flags.GetString("llm.api-key")
	llmModels, _ := flags.GetString("llm.models")
	llmTimeout, _ := flags.GetDuration("llm.timeout")
	promURL, _ := flags.GetString("prometheus.url")
	promTimeout, _ := flags.GetDuration("prometheus.timeout")
	allowedDirs, _ := flags.GetString("fs.allowed-directories")
	gitWorkers, _ := flags.GetInt("git.workers")
	gitTimeout, _ := flags.GetDuration("git.timeout")
	sshIdentity, _ := flags.GetString("git.ssh-identity")

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	catalog, err := registry.Seed(strings.Split(llmModels, ","))
	if err != nil {
		return errors.Wrap(err, "seeding model catalog")
	}

	roots := splitList(allowedDirs)
	if len(roots) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "determining working directory")
		}
		roots = []string{cwd}
	}
	box, err := sandbox.New(roots)
	if err != nil {
		return errors.Wrap(err, "configuring filesystem sandbox")
	}

	prom, err := promproxy.New(promURL, promTimeout)
	if err != nil {
		return errors.Wrap(err, "configuring Prometheus proxy")
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := server.New(server.Config{
		Logger:     logger,
		Registry:   catalog,
		Sandbox:    box,
		Prometheus: prom,
		LLM:        llm.New(llmBaseURL, llmAPIKey, llmTimeout),
		Workspace:  workspace.Options{SSHIdentity: sshIdentity},
		GitTimeout: gitTimeout,
		GitWorkers: gitWorkers,
		Gatherer:   metrics,
		Registerer: metrics,
	})

	httpServer := &http.Server{
		Addr:    listenAddress,
		Handler: srv.Router(),
	}

	var group run.Group
	{
		term := make(chan os.Signal, 1)
		cancel := make(chan struct{})
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)
		group.Add(
			func() error {
				select {
				case <-term:
					level.Info(logger).Log("msg", "received termination signal, shutting down")
				case <-cancel:
				}
				return nil
			},
			func(error) {
				close(cancel)
			},
		)
	}
	{
		group.Add(
			func() error {
				level.Info(logger).Log("msg", "listening",
					"address", listenAddress,
					"models", llmModels,
					"allowed_directories", strings.Join(box.Roots(), ","))
				return httpServer.ListenAndServe()
			},
			func(error) {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				if err := httpServer.Shutdown(ctx); err != nil {
					level.Warn(logger).Log("msg", "graceful shutdown failed", "err", err)
				}
				srv.Close()
			},
		)
	}
	if err := group.Run(); err != nil && err != http.ErrServerClosed {
		return err
	}
	level.Info(logger).Log("msg", "stopped")
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
