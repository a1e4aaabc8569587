package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"terrarium"
	"terrarium/bus"
	"terrarium/chatlog"
	"terrarium/config"
	"terrarium/logging"
	"terrarium/memory"
	sqlitemem "terrarium/memory/sqlite"
	"terrarium/model"
	anthropicmodel "terrarium/model/anthropic"
	openaimodel "terrarium/model/openai"
	"terrarium/obs"
)

func newRunCmd() *cobra.Command {
	var (
		cfgPath string
		ticks   int
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, ticks, verbose)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config")
	cmd.Flags().IntVarP(&ticks, "ticks", "t", 0, "tick budget (0 = run forever)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(parent context.Context, cfg config.Config, ticks int, verbose bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level := logging.LogLevelInfo
	if verbose {
		level = logging.LogLevelDebug
	}
	log := logging.NewSlogLogger(level, "text")

	mdl, err := buildModel(cfg.Model)
	if err != nil {
		return err
	}

	mem, err := buildMemory(cfg.MemoryPath)
	if err != nil {
		return err
	}
	defer mem.Close()

	var sinkFns []func(o *chatlog.Options)
	if cfg.Log.Compress {
		sinkFns = append(sinkFns, chatlog.WithZstd())
	}
	sink, err := chatlog.Open(cfg.Log.Path, sinkFns...)
	if err != nil {
		return err
	}

	sb, err := terrarium.New(func(o *terrarium.Options) {
		o.Config = cfg
		o.Model = mdl
		o.Memory = mem
		o.Sink = sink
		o.Logger = log.WithComponent("scheduler")
	})
	if err != nil {
		return err
	}

	if cfg.Listen != "" {
		startObserver(sb, cfg.Listen, log)
	}

	log.Info("sandbox starting",
		"tick", sb.World.Tick,
		"agents", sb.Scheduler.Agents(),
		"model", mdl.Info().Provider,
		"ticks", ticks,
	)
	err = sb.Run(ctx, ticks)
	if errors.Is(err, context.Canceled) {
		log.Info("sandbox interrupted", "tick", sb.World.Tick)
		return nil
	}
	return err
}

// startObserver wires the websocket observer into the loop's task scope so
// it is cancelled with everything else at shutdown.
func startObserver(sb *terrarium.Sandbox, addr string, log *logging.SandboxLogger) {
	server := obs.NewServer(sb.Bus, []string{bus.TopicChat, bus.TopicBreed}, log.WithComponent("obs"))
	httpSrv := &http.Server{Addr: addr, Handler: server.Handler()}

	sb.Scheduler.Spawn(server.Run)
	sb.Scheduler.Spawn(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = httpSrv.Close()
		}()
		log.Info("observer listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func buildModel(spec config.ModelSpec) (model.Model, error) {
	switch spec.Provider {
	case "mock", "":
		return model.NewMockModel("mock"), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if spec.Name != "" {
				o.Model = anthropic.Model(spec.Name)
			}
			if spec.Temperature > 0 {
				o.Temperature = spec.Temperature
			}
			if spec.MaxTokens > 0 {
				o.MaxTokens = spec.MaxTokens
			}
			o.APIKey = spec.APIKey
		}), nil
	case "openai":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			if spec.Name != "" {
				o.Model = spec.Name
			}
			if spec.Temperature > 0 {
				o.Temperature = spec.Temperature
			}
			if spec.MaxTokens > 0 {
				o.MaxCompletionTokens = spec.MaxTokens
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", spec.Provider)
	}
}

func buildMemory(path string) (memory.Store, error) {
	if path == "" {
		return memory.NewInMemoryStore(), nil
	}
	return sqlitemem.Open(path)
}
