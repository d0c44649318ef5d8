package fitmesh

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msequeira/fitmesh/pkg/a2a"
	"github.com/msequeira/fitmesh/pkg/agent"
	"github.com/msequeira/fitmesh/pkg/agent/planner"
	"github.com/msequeira/fitmesh/pkg/agent/validator"
	"github.com/msequeira/fitmesh/pkg/audit"
	"github.com/msequeira/fitmesh/pkg/coach"
	"github.com/msequeira/fitmesh/pkg/config"
	"github.com/msequeira/fitmesh/pkg/inventory"
	"github.com/msequeira/fitmesh/pkg/server"
	"github.com/msequeira/fitmesh/pkg/store"
	"github.com/msequeira/fitmesh/pkg/telemetry"
)

var serveCmd = &cobra.Command{
	Use:       "serve <role>",
	Short:     "Start an agent process (coach, planner, or validator)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"coach", "planner", "validator"},
	RunE:      runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default: per-role)")
}

func runServe(cmd *cobra.Command, args []string) error {
	role := args[0]

	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	port := cfg.Server.Port
	if port == 0 {
		port = config.DefaultPort(role)
	}
	if servePort != 0 {
		port = servePort
	}

	logger := telemetry.SetupLogger(role, cfg.Log.Level, cfg.Log.Format, nil)
	logger.Info("starting fitmesh agent",
		slog.String("version", version),
		slog.Int("port", port),
		slog.String("bind", cfg.Server.Bind),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = telemetry.WithLogger(ctx, logger)

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: "fitmesh-" + role,
		Version:     version,
		Role:        role,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := store.New(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = db.Close() }()

	auditLog, err := audit.New(db.DB())
	if err != nil {
		return fmt.Errorf("initializing audit log: %w", err)
	}

	capability, err := buildCapability(ctx, role, cfg, db, auditLog)
	if err != nil {
		return err
	}

	handler := a2a.NewHandler(a2a.HandlerConfig{
		Card:       agentCard(role, cfg, port),
		Capability: capability,
		AuditLog:   auditLog,
		Logger:     logger,
		AuthToken:  cfg.Server.AuthToken,
	})

	srv := server.New(server.Config{
		Bind:    cfg.Server.Bind,
		Port:    port,
		Handler: handler,
		Logger:  logger,
	})
	return srv.Start(ctx)
}

func buildCapability(ctx context.Context, role string, cfg *config.Config, db *store.Store, auditLog *audit.Logger) (agent.Capability, error) {
	switch role {
	case "planner":
		return planner.New(), nil

	case "validator":
		inv, err := inventory.New(db.DB())
		if err != nil {
			return nil, fmt.Errorf("initializing inventory: %w", err)
		}
		return validator.New(inv, cfg.Inventory.Location), nil

	case "coach":
		opts := []a2a.ClientOption{a2a.WithAuditLog(auditLog)}
		if cfg.Peers.AuthToken != "" {
			opts = append(opts, a2a.WithAuthToken(cfg.Peers.AuthToken))
		}
		if a2a.DetectTransport(cfg.Peers.Planner) == a2a.TransportRuntime ||
			a2a.DetectTransport(cfg.Peers.Validator) == a2a.TransportRuntime {
			invoker, err := a2a.NewRuntimeClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("initializing runtime client: %w", err)
			}
			opts = append(opts, a2a.WithRuntimeInvoker(invoker))
		}
		plannerClient := a2a.NewClient("biolab", cfg.Peers.Planner, opts...)
		validatorClient := a2a.NewClient("lifesync", cfg.Peers.Validator, opts...)
		return coach.New(plannerClient, validatorClient, coach.WithAudit(auditLog)), nil

	default:
		return nil, fmt.Errorf("unknown role %q (want coach, planner, or validator)", role)
	}
}

func agentCard(role string, cfg *config.Config, port int) *a2a.AgentCard {
	url := cfg.Agent.ExternalURL
	if url == "" {
		url = fmt.Sprintf("http://localhost:%d", port)
	}

	switch role {
	case "planner":
		return &a2a.AgentCard{
			Name:         "biolab",
			Description:  "Biomechanics lab: builds structured workout plans from fitness goals and constraints.",
			URL:          url,
			Version:      version,
			Capabilities: a2a.Capabilities{Streaming: true},
			Skills: []a2a.Skill{
				{ID: "plan-workout", Name: "Plan Workout", Description: "Create a workout plan for a goal, duration, and equipment set."},
				{ID: "compromise-workout", Name: "Compromise Workout", Description: "Adjust a plan to fit tighter time or equipment constraints."},
			},
		}
	case "validator":
		return &a2a.AgentCard{
			Name:         "lifesync",
			Description:  "Logistics coordinator: validates workout plans against calendar and equipment availability.",
			URL:          url,
			Version:      version,
			Capabilities: a2a.Capabilities{Streaming: true},
			Skills: []a2a.Skill{
				{ID: "validate-workout", Name: "Validate Workout", Description: "Check a plan against schedule and equipment, reporting conflicts."},
			},
		}
	default:
		return &a2a.AgentCard{
			Name:         "coach",
			Description:  "Fitness coach: orchestrates planning and validation into one feasible workout.",
			URL:          url,
			Version:      version,
			Capabilities: a2a.Capabilities{Streaming: true},
			Skills: []a2a.Skill{
				{ID: "coach-workout", Name: "Coach Workout", Description: "Produce a validated workout plan, compromising once when conflicts arise."},
			},
		}
	}
}
