package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// StartMockWeatherServer runs a mock weather API with slowly drifting
// readings. Call this in a goroutine before creating the agent.
func StartMockWeatherServer(addr string) {
	temp := 18.5
	humidity := 55.0

	http.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		station := r.URL.Query().Get("station")

		// simulate small latency variance
		time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)

		// random walk so consecutive polls show movement
		temp += rand.Float64() - 0.5
		humidity += rand.Float64()*2 - 1

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"station": station,
			"current": map[string]interface{}{
				"temp_c":   float64(int(temp*10)) / 10,
				"humidity": float64(int(humidity*10)) / 10,
				"raining":  humidity > 60,
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
