// Command sinp-server runs a SINP server with an echo and a help
// capability registered, for local testing against sinp-client.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sinp-protocol/sinp/core"
	"github.com/sinp-protocol/sinp/server"
	"github.com/sinp-protocol/sinp/telemetry"
)

func main() {
	bindAddr := "127.0.0.1:9000"
	if len(os.Args) > 1 {
		bindAddr = os.Args[1]
	}

	appConfig, err := core.NewConfig(
		core.WithName("sinp-server"),
		core.WithDevelopmentMode(os.Getenv("SINP_DEV_MODE") == "true"),
	)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := appConfig.Logger()

	// Lower thresholds than the RFC default so a local demo without a
	// trained interpreter still reaches EXECUTE/CLARIFY.
	cfg := server.DefaultConfig().
		WithAddr(bindAddr).
		WithThresholds(core.Thresholds{TauExec: 0.20, TauClarify: 0.10, TauAccept: 0.10})

	registry := newDemoRegistry()

	cache, err := core.NewInterpretationCacheFromConfig(appConfig.Memory, logger)
	if err != nil {
		log.Fatalf("failed to set up interpretation cache: %v", err)
	}
	registry.WithCache(cache)

	provider, err := telemetry.NewStdoutProvider("sinp-server")
	if err != nil {
		log.Fatalf("failed to start telemetry: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown error", map[string]interface{}{"error": err.Error()})
		}
	}()

	srv, err := server.New(cfg, registry, logger)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	srv.WithTelemetry(provider)

	logger.Info("starting sinp server", map[string]interface{}{
		"bind_addr":    bindAddr,
		"capabilities": registry.CapabilityIDs(),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down", nil)
		if err := srv.Stop(); err != nil {
			logger.Error("error during shutdown", map[string]interface{}{"error": err.Error()})
		}
	}()

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func newDemoRegistry() *core.CapabilityRegistry {
	registry := core.NewCapabilityRegistry()

	registry.Register(core.Capability{
		ID:           "echo:v1",
		Description:  "Echo back repeat say print message text hello hi",
		Inputs:       []string{"message", "text"},
		PrivacyLevel: "public",
		CostUnits:    0.1,
	}, func(req *core.Request) (interface{}, error) {
		return map[string]string{
			"echo":      req.Intent,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, nil
	}, 0.95)

	registry.Register(core.Capability{
		ID:           "help:v1",
		Description:  "Get help and list available capabilities",
		PrivacyLevel: "public",
		CostUnits:    0.1,
	}, func(_ *core.Request) (interface{}, error) {
		return map[string]string{
			"message": "available capabilities: echo, help",
			"version": core.ProtocolVersion,
		}, nil
	}, 0.99)

	return registry
}
