package main

import (
	"context"
	"fmt"
	"os"
	"time"

	applicationconfigsync "github.com/flowforge/streamline/internal/application/configsync"
	"github.com/flowforge/streamline/internal/application/orchestrator"
	"github.com/flowforge/streamline/internal/infrastructure/checkpoint"
	infraconfigsync "github.com/flowforge/streamline/internal/infrastructure/configsync"
	"github.com/flowforge/streamline/internal/infrastructure/dag"
	"github.com/flowforge/streamline/internal/infrastructure/entitystore"
	"github.com/flowforge/streamline/internal/infrastructure/events"
	"github.com/flowforge/streamline/internal/infrastructure/executor"
	"github.com/flowforge/streamline/internal/infrastructure/extractors"
	extractorfile "github.com/flowforge/streamline/internal/infrastructure/extractors/file"
	extractorgit "github.com/flowforge/streamline/internal/infrastructure/extractors/git"
	extractorhttp "github.com/flowforge/streamline/internal/infrastructure/extractors/http"
	extractorsql "github.com/flowforge/streamline/internal/infrastructure/extractors/sql"
	"github.com/flowforge/streamline/internal/infrastructure/loaders"
	"github.com/flowforge/streamline/internal/infrastructure/logging"
	"github.com/flowforge/streamline/internal/infrastructure/rollback"
	"github.com/flowforge/streamline/internal/infrastructure/transforms"
	"github.com/flowforge/streamline/internal/ports"
)

func main() {
	logLevel := "info"
	for _, a := range os.Args {
		if a == "-v" || a == "--verbose" {
			logLevel = "debug"
		}
	}

	appLogger, err := logging.New(logging.Options{
		Level:     logLevel,
		Component: "cli",
		Layer:     "infrastructure",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create application logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	app := buildApp(appLogger)

	rootCmd := newRootCmd(app)
	appLogger.Info(ctx, "starting streamline command", "pid", os.Getpid())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRunFailed)
	}
}

// buildApp wires every concrete infrastructure adapter into the ports
// the application-layer use cases and the executor depend on, the
// counterpart to the teacher's main.go composition root generalized
// from one reconciliation engine to this runtime's extract/transform/
// load executor.
func buildApp(appLogger ports.Logger) *AppContext {
	eventPublisher := events.NewLoggingPublisher(appLogger.With("component", "event_publisher"))

	pipelineStore := infraconfigsync.NewStore()
	configLoader := infraconfigsync.NewFileLoader(appLogger.With("component", "config_loader"))
	configSyncer := infraconfigsync.NewSyncer(configLoader, pipelineStore, appLogger.With("component", "config_syncer"))

	entities := entitystore.New()

	extractorRegistry := extractors.NewRegistry()
	extractorRegistry.Register(extractorhttp.AdapterCode, extractorhttp.New())
	extractorRegistry.Register(extractorgit.AdapterCode, extractorgit.New())
	extractorRegistry.Register(extractorfile.AdapterCode, extractorfile.New())
	extractorRegistry.Register(extractorsql.AdapterCode, extractorsql.New(extractorsql.NewConnectionDBResolver(pipelineStore.Connections())))

	transformRegistry := transforms.NewDefaultRegistry(entities)
	transformEngine := transforms.NewEngine(transformRegistry, appLogger.With("component", "transform_engine"))

	loaderRegistry := loaders.NewRegistry()
	registerLoaderSpecs(loaderRegistry, entities)

	rollbackJournal := rollback.NewService(entities, 24*time.Hour)
	loaderEngineFactory := loaders.NewEngineFactory(rollbackJournal)

	checkpointStore := checkpoint.NewStore()
	errorJournal := checkpoint.NewErrorJournal()
	retryAudit := checkpoint.NewRetryAudit()

	exec := executor.NewExecutor()
	exec.DAGBuilder = dag.NewBuilder()
	exec.Planner = dag.NewPlanner()
	exec.Extractors = extractorRegistry
	exec.Transforms = transformEngine
	exec.Loaders = loaderRegistry
	exec.LoaderEngine = loaderEngineFactory
	exec.Checkpoints = checkpointStore
	exec.Errors = errorJournal
	exec.Rollbacks = rollbackJournal
	exec.Events = eventPublisher
	exec.Logger = appLogger.With("component", "executor")
	exec.StepLogger = logging.NewStepLogger(appLogger.With("component", "executor"), logLevelFromEnv())
	exec.Secrets = pipelineStore.Secrets()
	exec.Connections = pipelineStore.Connections()

	// replayOrchestrate resolves the pipeline owning stepKey by scanning
	// every upserted definition, since a journaled error carries only the
	// step key. This assumes step keys are unique enough across the
	// store's pipelines to disambiguate; see the replay design note for
	// the tradeoff.
	replayOrchestrate := func(ctx context.Context, stepKey string, payloads []map[string]any) (int, int, error) {
		defs, err := pipelineStore.ListPipelines(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("listing pipelines to resolve step %q: %w", stepKey, err)
		}
		for _, def := range defs {
			if _, ok := def.StepByKey(stepKey); !ok {
				continue
			}
			summary, err := exec.ReplayFromStep(ctx, def, stepKey, payloads)
			if err != nil {
				return 0, 0, err
			}
			return summary.Processed, summary.Failed, nil
		}
		return 0, 0, fmt.Errorf("no pipeline found owning step %q", stepKey)
	}
	replayService := checkpoint.NewReplayService(errorJournal, retryAudit, replayOrchestrate)

	executeUseCase := orchestrator.NewExecuteUseCase(pipelineStore, exec, appLogger.With("component", "execute_usecase"), eventPublisher)
	replayUseCase := orchestrator.NewReplayUseCase(replayService, appLogger.With("component", "replay_usecase"), eventPublisher)
	syncUseCase := applicationconfigsync.NewSyncUseCase(configSyncer, configLoader, appLogger.With("component", "sync_usecase"))

	return &AppContext{
		Logger:  appLogger,
		Events:  eventPublisher,
		Execute: executeUseCase,
		Replay:  replayUseCase,
		Sync:    syncUseCase,
	}
}

func logLevelFromEnv() string {
	if v := os.Getenv("STREAMLINE_STEP_LOG_LEVEL"); v != "" {
		return v
	}
	return "STEP"
}
