package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bz888/pubgqna/internal/assistant"
	"github.com/bz888/pubgqna/internal/cognitive"
	"github.com/bz888/pubgqna/internal/config"
	"github.com/bz888/pubgqna/internal/logger"
	"github.com/bz888/pubgqna/internal/speech"
	"github.com/bz888/pubgqna/internal/speech/device"
	"github.com/bz888/pubgqna/internal/ui"
)

func init() {
	config.Init()
}

func Execute() {
	var screen *ui.Screen
	var debugConsole io.Writer
	if config.FullScreen {
		screen = ui.NewScreen(config.Dev)
		debugConsole = screen.DebugConsole()
	}

	logger.InitLogger(config.Dev, config.LogPath, debugConsole)
	localLogger := logger.NewLogger("main")
	defer localLogger.Close()

	fatal := func(msg string, err error) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", msg, err)
		localLogger.Fatal(msg, ": ", err)
	}

	settings, err := config.LoadSettings(config.SettingsPath)
	if err != nil {
		fatal("Failed to load settings", err)
	}

	qa, err := cognitive.NewQuestionAnsweringClient(settings.LanguageEndpoint, settings.LanguageKey, config.ProjectName, config.DeploymentName)
	if err != nil {
		fatal("Failed to create question answering client", err)
	}
	sentiment, err := cognitive.NewTextAnalyticsClient(settings.TextAnalyticsEndpoint, settings.TextAnalyticsKey)
	if err != nil {
		fatal("Failed to create text analytics client", err)
	}

	var vad speech.VoiceDetector
	if config.VADModelPath != "" {
		detector, err := device.NewSileroDetector(config.VADModelPath)
		if err != nil {
			fatal("Failed to load voice activity model", err)
		}
		defer detector.Close()
		vad = detector
	}

	speechClient, err := speech.NewClient(speech.Config{
		Key:      settings.SpeechKey,
		Region:   settings.SpeechLocation,
		Language: settings.SpeechLanguage,
		Voice:    config.VoiceName,
	}, device.NewMicrophone(), device.NewSpeaker(), vad)
	if err != nil {
		fatal("Failed to configure speech service", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func(console ui.Console) {
		console.Println("Ready to use speech service in " + speechClient.Region())
		app := assistant.New(qa, sentiment, speechClient, console)
		if err := app.Run(ctx); err != nil {
			localLogger.Error("interaction loop failed: ", err)
		}
	}

	if screen != nil {
		if err := screen.Run(run); err != nil {
			localLogger.Error("screen failed: ", err)
		}
		return
	}
	run(ui.NewTerminal(os.Stdin, os.Stdout))
	localLogger.Info("Shutting down gracefully.")
}
