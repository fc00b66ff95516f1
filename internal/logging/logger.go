package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

func BootstrapLogger(level string) {
	Log = &logrus.Logger{
		Out:   os.Stdout,
		Hooks: make(logrus.LevelHooks),
		Formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
		ReportCaller: true,
		Level:        logrus.InfoLevel,
		ExitFunc:     os.Exit,
	}

	if lvl, err := logrus.ParseLevel(level); err == nil {
		Log.SetLevel(lvl)
	} else if level != "" {
		Log.Warnf("unknown log level %q, using info", level)
	}
}

// Silence routes the logger to io.Discard. Tests call it to keep output clean.
func Silence() {
	Log = logrus.New()
	Log.Out = io.Discard
}
