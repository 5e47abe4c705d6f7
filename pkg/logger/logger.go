package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It discards output until InitLogger runs, so
// packages can log from tests without setup.
var Log = zap.NewNop()

func InitLogger(mode string) {
	var config zap.Config

	if mode == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.OutputPaths = []string{"stdout"}

	l, err := config.Build()
	if err != nil {
		os.Exit(1)
	}
	Log = l
	zap.ReplaceGlobals(Log)
}

// Room returns a child logger tagged with the room id.
func Room(roomID string) *zap.Logger {
	return Log.With(zap.String("roomID", roomID))
}
