package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"

	scribe "github.com/meetscribe/scribe-go"
	"github.com/meetscribe/scribe-go/audio"
	"github.com/meetscribe/scribe-go/audio/mic"
	"github.com/meetscribe/scribe-go/config"
	"github.com/meetscribe/scribe-go/transport/ws"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", cfg.LogLevel, err)
		os.Exit(2)
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: lvl})))

	meetingID := uuid.NewString()
	log := slog.Default().With(slog.String("meeting_id", meetingID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := scribe.NewClient(
		ws.Client(ws.ClientConfig{
			Dial: ws.DialConfig{
				URL:            cfg.ServerURL,
				ConnectTimeout: cfg.ConnectTimeout,
			},
		}),
		scribe.WithLogger(log),
		scribe.WithRetryPolicy(scribe.RetryPolicy{
			Delay:       cfg.ReconnectDelay,
			MaxAttempts: cfg.MaxReconnectAttempts,
		}),
	)

	capture := audio.NewSession(
		audio.Config{
			SampleRate:       cfg.SampleRate,
			WindowSize:       cfg.WindowSize,
			EchoCancellation: cfg.EchoCancellation,
			NoiseSuppression: cfg.NoiseSuppression,
		},
		client,
		mic.PortAudio(),
		log,
	)

	view := newView(os.Stdout, client.State())
	client.OnUpdate(view.onUpdate)

	client.OnConnect(func() {
		view.notice("connected to " + cfg.ServerURL)

		if capture.Recording() {
			return
		}
		if err := capture.Start(); err != nil {
			view.notice("cannot record: " + err.Error())
			client.State().SetRecording(false)
			return
		}
		client.State().SetRecording(true)
		view.notice("recording")
	})

	client.OnDisconnect(func(err error) {
		view.notice("disconnected")
		capture.Stop()
		client.State().SetRecording(false)
	})

	log.Info("starting client", slog.String("url", cfg.ServerURL))

	if err := client.Connect(ctx); err != nil {
		// the retry schedule is already running; a notice is enough
		view.notice("connection failed, retrying: " + err.Error())
	}

	<-ctx.Done()

	capture.Stop()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Close(closeCtx); err != nil {
		log.Error("close failed", slog.Any("err", err))
	}

	view.summary()
	log.Info("terminated")
}
