package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wolfpit/internal/config"
	"wolfpit/internal/debugapi"
	"wolfpit/internal/netcode/reconcile"
	"wolfpit/internal/sim"
	"wolfpit/internal/sim/eventlog"
	"wolfpit/internal/sim/fixedpoint"
	"wolfpit/internal/sim/player"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	log.Println("================================")
	log.Println(" WOLFPIT - SIMULATION CORE")
	log.Println("================================")

	appConfig := config.Load()
	log.Printf("run: seed=%d tick_rate=%d start_weapon=%d", appConfig.Run.Seed, appConfig.Run.TickRate, appConfig.Run.StartWeapon)
	log.Printf("limits: players=%d wolves=%d packs=%d hazards=%d obstacles=%d",
		appConfig.Limits.MaxPlayers, appConfig.Limits.MaxWolves, appConfig.Limits.MaxPacks,
		appConfig.Limits.MaxHazards, appConfig.Limits.MaxObstacles)
	log.Printf("reconcile: strategy=%s threshold=%.2f vote_duration_ms=%d",
		appConfig.Reconcile.Strategy, appConfig.Reconcile.ConsensusThreshold, appConfig.Reconcile.VoteDurationMillis)

	events := eventlog.New()
	eventLogPath := getEnvWithDefault("EVENT_LOG_PATH", "events.jsonl")
	if err := events.Start(eventLogPath); err != nil {
		log.Printf("event log disabled: %v", err)
	} else {
		log.Printf("event log: %s", eventLogPath)
	}
	defer events.Stop()

	core := sim.NewCore()
	core.AttachEventLog(events)
	core.InitRun(appConfig.Run.Seed, appConfig.Run.StartWeapon)
	core.AddPlayer(1, player.Warden, fixedpoint.Vec2{X: fixedpoint.FromFloat(0.5), Y: fixedpoint.FromFloat(0.5)})

	reconciler := reconcile.New(core, appConfig.Reconcile, events)
	_ = reconciler // wired into the transport read-loop by the rollback host, not driven standalone here

	debugSrv := debugapi.NewServer(core, events)
	debugAddr := ":" + strconv.Itoa(appConfig.Server.DebugPort)
	go func() {
		log.Printf("debug surface on http://localhost%s", debugAddr)
		if err := debugSrv.Start(debugAddr); err != nil {
			log.Printf("debug surface stopped: %v", err)
		}
	}()

	tickInterval := time.Second / time.Duration(appConfig.Run.TickRate)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	dt := sim.TickDt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("simulation running, press Ctrl+C to stop")
	for {
		select {
		case <-ticker.C:
			core.Update(dt)
		case <-quit:
			log.Println("shutting down...")
			return
		}
	}
}

func getEnvWithDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
