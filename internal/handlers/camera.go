package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"roadwatch/internal/logger"
	"roadwatch/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveFrameRate caps how many live frames per second enter the pipeline;
// surplus frames are dropped at admission.
const liveFrameRate = 2

// LiveCameraHandler accepts a websocket stream of base64-encoded frames
// from a field camera and runs each admitted frame through the camera
// pipeline, replying with the run outcome.
func LiveCameraHandler(runner Runner, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		location := r.URL.Query().Get("location")
		if location == "" {
			location = "Unknown"
		}

		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		defer connection.Close()

		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		logger.Info("📹 Live camera connected: %s (%s)", r.RemoteAddr, location)

		limiter := rate.NewLimiter(rate.Limit(liveFrameRate), 1)
		for {
			_, msg, err := connection.ReadMessage()
			if err != nil {
				logger.Info("Live camera disconnected: %v", err)
				break
			}
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))

			if !limiter.Allow() {
				continue
			}

			summary, err := runner.RunCameraDetection(models.DefaultUserID, string(msg), location)
			if err != nil {
				logger.Error("Live camera frame failed: %v", err)
				continue
			}

			reply, _ := json.Marshal(map[string]interface{}{
				"run_id": summary.RunID,
				"count":  summary.TotalCount,
			})
			if err := connection.WriteMessage(websocket.TextMessage, reply); err != nil {
				logger.Error("Error sending result to camera: %v", err)
				break
			}
		}
	}
}
