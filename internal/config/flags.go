package config

import "flag"

var (
	Dev          bool
	LogPath      string
	SettingsPath string
	FullScreen   bool
	VADModelPath string
)

func Init() {
	flag.BoolVar(&Dev, "dev", false, "Development mode")
	flag.StringVar(&LogPath, "logPath", "", "Path to save the log file")
	flag.StringVar(&SettingsPath, "settings", "appsettings.json", "Path to the service settings file")
	flag.BoolVar(&FullScreen, "tui", false, "Run in the full-screen console")
	flag.StringVar(&VADModelPath, "vad", "", "Path to a Silero VAD onnx model used to gate speech requests")
	flag.Parse()
}
