package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"zonevpcsync/catalog"
	"zonevpcsync/config"
	"zonevpcsync/logger"
	"zonevpcsync/metrics"
	"zonevpcsync/reconcile"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Env)

	m := metrics.New()

	// Set up HTTP server for metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: mux,
	}

	// Start http server in background
	go func() {
		slog.Info("Starting metrics server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Member.Region))
	if err != nil {
		slog.Error("Failed to load AWS config", "error", err)
		os.Exit(1)
	}

	owner := route53.NewFromConfig(awsCfg)
	stsClient := sts.NewFromConfig(awsCfg)
	loader := catalog.NewLoader(owner, m)

	engine := reconcile.NewEngine(loader, owner, stsClient, memberFactory(awsCfg), m, cfg)
	input := reconcile.Input{
		RoleArn: cfg.Member.RoleArn,
		Region:  cfg.Member.Region,
	}

	slog.Info("Starting zone-vpc-sync service")

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go runSyncLoop(ctx, wg, engine, input, m, cfg.SyncInterval)

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("Shutdown signal received")
	cancel()

	serverShutdownCtx, cancelServer := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelServer()
	if err := server.Shutdown(serverShutdownCtx); err != nil {
		slog.Error("Metrics server shutdown error", "error", err)
	}

	wg.Wait()
	slog.Info("Service shutdown complete")
}

// memberFactory builds member-account clients from assumed-role credentials,
// layered over the owner process config.
func memberFactory(base aws.Config) reconcile.MemberFactory {
	return func(ctx context.Context, cr aws.Credentials, region string) (reconcile.Members, error) {
		memberCfg := base.Copy()
		memberCfg.Region = region
		memberCfg.Credentials = credentials.NewStaticCredentialsProvider(cr.AccessKeyID, cr.SecretAccessKey, cr.SessionToken)
		return reconcile.Members{
			Zones: route53.NewFromConfig(memberCfg),
			VPCs:  ec2.NewFromConfig(memberCfg),
		}, nil
	}
}

func runSyncLoop(ctx context.Context, wg *sync.WaitGroup, engine *reconcile.Engine, input reconcile.Input, m *metrics.Metrics, interval time.Duration) {
	defer wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := performSync(ctx, engine, input, m); err != nil {
			slog.Error("Sync operation failed", "error", err)
		}

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			slog.Info("Stopping sync loop")
			return
		}
	}
}

func performSync(ctx context.Context, engine *reconcile.Engine, input reconcile.Input, m *metrics.Metrics) error {
	slog.Info("Starting sync operation")
	start := time.Now()
	defer func() {
		m.SetSyncDuration(time.Since(start))
	}()

	report, err := engine.Run(ctx, input)
	if err != nil {
		m.IncSyncRun(false)
		return err
	}

	var failed int
	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			failed++
		}
	}
	slog.Info("Sync completed",
		"zones", len(report.Zones),
		"vpcs", len(report.Outcomes),
		"failed_vpcs", failed)
	m.IncSyncRun(true)

	return nil
}
