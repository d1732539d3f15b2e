package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/slidewalk/autopilot/pkg/actuator"
	"github.com/slidewalk/autopilot/pkg/matcher"
	"github.com/slidewalk/autopilot/pkg/pipeline"
	"github.com/slidewalk/autopilot/pkg/script"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: no .env file found, using system environment variables")
	}

	transcriptFile := mustEnv("AUTOPILOT_TRANSCRIPT_FILE")
	chunksFile := mustEnv("AUTOPILOT_CHUNKS_FILE")
	asrModelDir := mustEnv("AUTOPILOT_ASR_MODEL_DIR")
	embeddingModelDir := os.Getenv("AUTOPILOT_EMBEDDING_MODEL_DIR")
	onnxLibPath := os.Getenv("AUTOPILOT_ONNX_LIB_PATH")

	transcripts, err := script.LoadTranscripts(transcriptFile)
	if err != nil {
		log.Fatalf("loading transcripts: %v", err)
	}
	chunks, err := script.LoadChunks(chunksFile)
	if err != nil {
		log.Fatalf("loading chunks: %v", err)
	}
	corpus, err := script.NewCorpus(transcripts, chunks)
	if err != nil {
		log.Fatalf("validating presentation script: %v", err)
	}

	logger := pipeline.NewStdLogger()

	var embedder matcher.Embedder
	if embeddingModelDir != "" {
		onnxEmbedder, err := matcher.NewOnnxEmbedder(embeddingModelDir, onnxLibPath)
		if err != nil {
			logger.Warn("falling back to phonetic-only matching", "error", fmt.Errorf("%w: %v", pipeline.ErrEmbedderUnavailable, err))
		} else {
			defer onnxEmbedder.Close()
			embedder = onnxEmbedder
		}
	} else {
		logger.Info("no embedding model configured, running phonetic-only matching")
	}

	act := actuator.NewCounting(actuator.NewLogging(logger))

	config := pipeline.DefaultConfig()
	config.ASRModelDir = asrModelDir

	p, err := pipeline.New(corpus, embedder, act, config, logger)
	if err != nil {
		log.Fatalf("building pipeline: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		log.Fatalf("starting pipeline: %v", err)
	}
	defer p.Stop()

	fmt.Println("autopilot listening; press Ctrl+C to exit")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	stats := p.Stats()
	fmt.Printf("\nshutting down — frames captured: %d, dropped: %d, superseded: %d, advances: %d\n",
		stats.FramesCaptured, stats.AudioFramesDropped, stats.SpeechSuperseded, stats.Advances)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("required environment variable %s is not set", key)
	}
	return v
}
