package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/httpagent/httpagent"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockWeatherServer(":9999")
	time.Sleep(100 * time.Millisecond)

	ep, err := httpagent.NewEndpoint("http://localhost:9999/weather?station={{.Vars.station}}",
		httpagent.WithVars(map[string]string{"station": "KSEA"}),
		httpagent.WithInterval(5*time.Second),
		httpagent.WithTimeout(2*time.Second),
	)
	if err != nil {
		slog.Error("failed to create endpoint", "error", err)
		os.Exit(1)
	}

	temp, _ := httpagent.NewSensor("Outside Temperature", "current.temp_c",
		httpagent.WithSensorKind(httpagent.KindNumber),
		httpagent.WithUnit("°C"),
		httpagent.WithDeviceClass("temperature"),
	)
	humidity, _ := httpagent.NewSensor("Outside Humidity", "current.humidity",
		httpagent.WithSensorKind(httpagent.KindNumber),
		httpagent.WithUnit("%"),
		httpagent.WithDeviceClass("humidity"),
	)
	raining, _ := httpagent.NewSensor("Raining", "current.raining",
		httpagent.WithSensorKind(httpagent.KindBinarySensor),
		httpagent.WithIcon("weather-rainy"),
	)

	entry, err := httpagent.NewEntry("weather", ep, []httpagent.Sensor{temp, humidity, raining})
	if err != nil {
		slog.Error("failed to create entry", "error", err)
		os.Exit(1)
	}

	agent, err := httpagent.New(
		httpagent.WithEntry(entry),
		httpagent.WithAPIPort(8844),
	)
	if err != nil {
		slog.Error("failed to create agent", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  httpagent demo")
	fmt.Println()
	fmt.Println("  Polling the mock weather API every 5s and logging updates.")
	fmt.Println("  Entity states: http://localhost:8844/api/entities")
	fmt.Println("  Live events:   http://localhost:8844/api/events")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := agent.Start(ctx); err != nil {
		slog.Error("agent error", "error", err)
		os.Exit(1)
	}
}
