// VoiceGuard server
//
// Serves the deepfake-voice detection API and browser UI.
//
// Usage:
//
//	export VOICEGUARD_MODEL=models/voiceguard_antispoof.onnx
//	go run -tags onnx ./cmd
//	open http://localhost:8080
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/voiceguard-ai/voiceguard/pkg/classifier"
	"github.com/voiceguard-ai/voiceguard/pkg/detector"
	"github.com/voiceguard-ai/voiceguard/pkg/server"
	"github.com/voiceguard-ai/voiceguard/pkg/speech"
	"github.com/voiceguard-ai/voiceguard/pkg/trace"
)

func main() {
	godotenv.Load()

	modelPath := os.Getenv("VOICEGUARD_MODEL")
	if modelPath == "" {
		log.Fatal("VOICEGUARD_MODEL is required (path to the anti-spoofing ONNX model)")
	}

	addr := getEnv("VOICEGUARD_ADDR", ":8080")
	threshold := getEnvFloat("VOICEGUARD_THRESHOLD", 0.5)
	vadModelPath := getEnv("VOICEGUARD_VAD_MODEL", "")

	ctx := context.Background()

	// Tracing (exporter selected via TRACE_EXPORTER; defaults to none)
	if err := trace.Initialize(ctx, trace.DefaultConfig()); err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		trace.Shutdown(shutdownCtx)
	}()

	// Classifier model
	if err := classifier.InitRuntime(""); err != nil {
		log.Fatalf("Failed to initialize ONNX runtime: %v", err)
	}
	defer classifier.DestroyRuntime()

	model, err := classifier.NewONNXModel(classifier.Config{ModelPath: modelPath})
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}
	defer model.Close()

	// Speech gate (optional)
	var gate speech.Gate
	if vadModelPath != "" {
		gate, err = speech.NewGate(speech.DefaultGateConfig(vadModelPath))
		if err != nil {
			log.Printf("Warning: speech gate unavailable, continuing without: %v", err)
			gate = nil
		} else {
			defer gate.Close()
		}
	}

	// Detector
	detectorConfig := detector.DefaultConfig()
	detectorConfig.Threshold = float32(threshold)
	det, err := detector.New(detectorConfig, model, gate)
	if err != nil {
		log.Fatalf("Failed to create detector: %v", err)
	}

	// Server
	serverConfig := server.DefaultConfig()
	serverConfig.Addr = addr
	srv := server.New(serverConfig, det)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("===========================================")
	log.Println("  VoiceGuard")
	log.Println("===========================================")
	log.Printf("  HTTP:      http://localhost%s", addr)
	log.Printf("  Model:     %s", modelPath)
	log.Printf("  Threshold: %.2f", threshold)
	log.Printf("  VAD:       %v", gate != nil)
	log.Println("===========================================")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat returns environment variable as float64 or default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Warning: invalid %s=%q, using %.2f", key, value, defaultValue)
	}
	return defaultValue
}
