// scribe-sim is a development stand-in for the transcription backend:
// it accepts connections on /ws/audio, counts the audio it receives
// and periodically pushes canned update messages, so the client can be
// exercised end to end without the real service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/lmittmann/tint"

	scribe "github.com/meetscribe/scribe-go"
	"github.com/meetscribe/scribe-go/audio"
	"github.com/meetscribe/scribe-go/proto"
	"github.com/meetscribe/scribe-go/transport/ws"
)

var fragments = []string{
	"Good morning everyone.",
	" Let's review the deployment plan.",
	" The rollout starts on Tuesday,",
	" staging first, then production.",
	" Dana owns the database migration.",
}

var diagrams = []string{
	"graph TD; Plan-->Staging; Staging-->Production",
	"graph TD; Plan-->Staging; Staging-->Production; Production-->Rollback",
}

var actionItems = [][]string{
	{"Confirm rollout window"},
	{"Confirm rollout window", "Dana: prepare database migration"},
}

func main() {
	addr := flag.String("addr", "localhost:8000", "listen address")
	interval := flag.Duration("interval", 2*time.Second, "delay between pushed updates")
	flag.Parse()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug})))
	log := slog.Default().With(slog.String("component", "sim"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := ws.NewServer(ws.ServerConfig{
		Addr: *addr,
		Path: "/ws/audio",
	})
	if err := srv.Run(ctx); err != nil {
		log.Error("listen failed", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("simulator listening", slog.String("addr", *addr), slog.String("path", "/ws/audio"))

	go func() {
		for t := range srv.Transports() {
			go serve(ctx, t, *interval, log)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func serve(ctx context.Context, t scribe.Transport, interval time.Duration, log *slog.Logger) {
	log.Info("session started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		samplesReceived int
		step            int
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Closed():
			log.Info("session ended", slog.Int("samples_received", samplesReceived))
			return

		case frame := <-t.Frames():
			samples, err := audio.DecodeFrame(frame)
			if err != nil {
				log.Warn("bad frame", slog.Any("err", err))
				continue
			}
			samplesReceived += len(samples)
			log.Debug("audio received", slog.Int("samples", len(samples)))

		case <-ticker.C:
			u := proto.Update{
				Type: proto.TypeUpdate,
				Data: &proto.UpdateData{
					Transcript:  fragments[step%len(fragments)],
					Diagram:     diagrams[step%len(diagrams)],
					ActionItems: actionItems[step%len(actionItems)],
				},
			}
			data, err := json.Marshal(&u)
			if err != nil {
				log.Error("marshal update failed", slog.Any("err", err))
				continue
			}
			if err := t.SendMessage(data); err != nil {
				log.Info("push failed, session gone", slog.Any("err", err))
				return
			}
			log.Debug("pushed update", slog.Int("step", step))
			step++
		}
	}
}
