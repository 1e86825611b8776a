package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the shared logrus instance for the whole service.
var Logger = logrus.New()

var once sync.Once

// eventFormatter renders one log line per event with a generated event id.
type eventFormatter struct {
	SystemName string
}

func (f *eventFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	b.WriteString(fmt.Sprintf("time=%s ", entry.Time.Format("2006-01-02T15:04:05Z07:00")))
	b.WriteString(fmt.Sprintf("source=%s ", f.SystemName))
	b.WriteString(fmt.Sprintf("level=%s ", strings.ToUpper(entry.Level.String())))
	b.WriteString(fmt.Sprintf("event_id=%s ", uuid.New().String()))
	b.WriteString(fmt.Sprintf("msg=%q", entry.Message))
	b.WriteByte('\n')

	return b.Bytes(), nil
}

// InitLogger initializes the global logger with file rotation. Log lines also
// go to stdout so container logs stay useful.
func InitLogger(logDir string) {
	once.Do(func() {
		if logDir == "" {
			logDir = "logs"
		}
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			if err := os.MkdirAll(logDir, 0o700); err != nil {
				logrus.Fatalf("[logging][init][err] failed to create log directory: %v", err)
			}
		}

		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "taskhive.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}

		Logger.SetOutput(io.MultiWriter(os.Stdout, logFile))
		Logger.SetFormatter(&eventFormatter{SystemName: "taskhive"})
		Logger.SetLevel(logrus.InfoLevel)

		Logger.Infof("[logging][init] logger initialized, output to %s", logFile.Filename)
	})
}
