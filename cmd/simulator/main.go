package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OldStager01/fleet-health/internal/logger"
	"github.com/OldStager01/fleet-health/internal/simulator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	target := flag.String("target", "http://localhost:8080", "monitor base URL")
	servers := flag.Int("servers", 5, "number of simulated servers")
	interval := flag.Duration("interval", 15*time.Second, "push interval")
	pattern := flag.String("pattern", "daily", "load pattern: steady, daily, weekly, random, gradual_rise, sine")
	baseCPU := flag.Float64("base-cpu", 50, "base CPU percent")
	baseMem := flag.Float64("base-mem", 60, "base memory percent")
	variance := flag.Float64("variance", 10, "random variance applied per sample")
	spikeAfter := flag.Duration("spike-after", 0, "inject a CPU spike on one server after this delay (0 disables)")
	spikeCPU := flag.Float64("spike-cpu", 96, "spike target CPU percent")
	spikeFor := flag.Duration("spike-for", 10*time.Minute, "spike duration")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.Setup(*logLevel, "development")

	fleet := simulator.NewFleet(simulator.FleetConfig{
		Servers:  *servers,
		BaseCPU:  *baseCPU,
		BaseMem:  *baseMem,
		Variance: *variance,
		Pattern:  simulator.ParsePattern(*pattern),
	})
	sender := simulator.NewSender(*target)

	logger.Infof("Simulating %d servers against %s every %s (pattern %s)",
		*servers, *target, *interval, *pattern)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *spikeAfter > 0 {
		go func() {
			select {
			case <-ctx.Done():
			case <-time.After(*spikeAfter):
				victims := fleet.Servers()
				if len(victims) == 0 {
					return
				}
				victim := victims[0]
				victim.InjectSpike(*spikeCPU, *spikeFor, 30*time.Second)
				logger.Infof("Injected spike on %s: target=%.1f%% for %s", victim.ID(), *spikeCPU, *spikeFor)
			}
		}()
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdownChan
		logger.Infof("Received signal %v, stopping", sig)
		cancel()
	}()

	simulator.Run(ctx, fleet, sender, *interval)

	logger.Info("Simulator stopped")
	return nil
}
