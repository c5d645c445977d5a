// Command sndenhance-server is a secondary HTTP front end for the
// enhancement engine: it accepts a WAV upload, runs it through the chosen
// enhancer/noise-estimator pair, and streams the enhanced WAV back, while
// exposing engine metrics on /metrics for Prometheus to scrape.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vzahradnik/sndenhance/internal/audio"
	"github.com/vzahradnik/sndenhance/internal/enhance"
	"github.com/vzahradnik/sndenhance/internal/metrics"
	"github.com/vzahradnik/sndenhance/internal/noiseest"
	"github.com/vzahradnik/sndenhance/internal/stft"
	"github.com/vzahradnik/sndenhance/internal/window"
)

const maxUploadBytes = 64 << 20 // 64 MiB

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/enhance", withCORS(handleEnhance(m)))
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("sndenhance-server: listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

// withCORS allows browser-based clients to call /enhance from any origin,
// mirroring the teacher's upload-widget front end.
func withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func handleEnhance(m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, fmt.Sprintf("invalid upload: %v", err), http.StatusBadRequest)
			return
		}

		file, _, err := r.FormFile("audio")
		if err != nil {
			http.Error(w, "missing \"audio\" form field", http.StatusBadRequest)
			return
		}
		defer file.Close()

		tmpIn, err := os.CreateTemp("", "sndenhance-in-*.wav")
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		defer os.Remove(tmpIn.Name())
		if _, err := io.Copy(tmpIn, file); err != nil {
			tmpIn.Close()
			http.Error(w, "failed to buffer upload", http.StatusInternalServerError)
			return
		}
		tmpIn.Close()

		outPath := tmpIn.Name() + ".out.wav"
		defer os.Remove(outPath)

		if err := enhanceRequest(r, tmpIn.Name(), outPath, m); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			m.RecordStreamError("request")
			return
		}

		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("Content-Disposition", "attachment; filename=\"enhanced.wav\"")
		http.ServeFile(w, r, outPath)
		m.RecordStreamCompleted()
	}
}

func enhanceRequest(r *http.Request, inPath, outPath string, m *metrics.Metrics) error {
	start := time.Now()

	in, err := audio.Open(inPath)
	if err != nil {
		return err
	}

	if r.URL.Query().Get("downmix") == "1" {
		in.Downmix()
	}

	engCfg := stft.EngineConfig{
		FrameDurationMS: 20,
		OverlapPct:      50,
		Window:          window.Parse(queryOr(r, "window", "hamming")),
		NoiseEst:        noiseest.Parse(queryOr(r, "noise_est", "vad")),
		Enhancer:        enhance.Parse(queryOr(r, "enhancer", "specsub")),
	}
	if err := engCfg.Validate(); err != nil {
		return err
	}

	params, err := stft.DeriveStreamParams(engCfg, in.SampleRate, in.Channels)
	if err != nil {
		return err
	}

	engine, err := stft.NewEngine(engCfg, params)
	if err != nil {
		return err
	}
	engine.Metrics = m

	out, err := audio.Create(outPath, params.SampleRate, params.ChannelCount, audio.Tags{
		Title:    "enhanced.wav",
		Comment:  "Enhanced audio signal",
		Software: "sndenhance-server",
	})
	if err != nil {
		return err
	}

	if err := engine.Run(audio.NewReader(in), out); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if n := engine.FramesProcessed; n > 0 {
		perFrame := time.Since(start).Seconds() / float64(n)
		for i := 0; i < n; i++ {
			m.RecordFrame(queryOr(r, "enhancer", "specsub"), queryOr(r, "noise_est", "vad"), perFrame)
		}
	}
	return nil
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}
