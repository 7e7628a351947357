package main

import (
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"trafficsim/sim"
)

func main() {
	configPathPtr := flag.String("config", "", "Path to the config file")
	portPtr := flag.String("port", "", "Port to run the server on (overrides config)")
	seedPtr := flag.Int64("seed", 0, "Random seed (overrides config)")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	configPath := *configPathPtr
	if configPath == "" {
		configPath = GetDefaultConfigPath()
		if err := SaveDefaultConfig(configPath); err != nil {
			log.Warnf("Could not write default config: %v", err)
		}
	}

	config := LoadConfig(configPath)
	if *portPtr != "" {
		config.Port = *portPtr
	}
	if *seedPtr != 0 {
		config.Seed = *seedPtr
	}

	rng := rand.New(rand.NewSource(config.Seed))
	engine, err := sim.NewEngine(config.SimulationConfig(), rng)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	server := NewServer(engine)
	engine.Start()

	http.HandleFunc("/ws", server.HandleWebSocket)
	http.HandleFunc("/health", server.HealthCheck)
	http.HandleFunc("/status", server.Status)
	http.HandleFunc("/start", server.HandleStart)
	http.HandleFunc("/stop", server.HandleStop)
	http.HandleFunc("/reset", server.HandleReset)
	http.HandleFunc("/emergency", server.HandleEmergency)
	http.HandleFunc("/weather", server.HandleWeather)
	http.HandleFunc("/timescale", server.HandleTimeScale)
	http.HandleFunc("/density", server.HandleDensity)

	// Fixed tick: every tick advances the simulation by the same dt, so a
	// run is reproducible for a given seed regardless of scheduling jitter.
	tick := time.Duration(config.TickMillis) * time.Millisecond
	dt := tick.Seconds()
	stopChan := make(chan struct{})
	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-stopChan:
				return
			case <-ticker.C:
				server.Tick(dt)
			}
		}
	}()

	go func() {
		log.Infof("Simulation server listening on port %s", config.Port)
		log.Fatal(http.ListenAndServe(":"+config.Port, nil))
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down simulation server...")
	close(stopChan)
	server.Shutdown()
}
