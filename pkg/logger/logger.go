package logger

import (
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	InfoLogger  *log.Logger
	ErrorLogger *log.Logger
	DebugLogger *log.Logger
	WarnLogger  *log.Logger

	mu          sync.Mutex
	debugOn     = os.Getenv("ENVIRONMENT") == "development"
	fileSink    *lumberjack.Logger
	stdoutWrite io.Writer = os.Stdout
	stderrWrite io.Writer = os.Stderr
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

func init() {
	build(stdoutWrite, stderrWrite)
}

func build(out, errOut io.Writer) {
	InfoLogger = log.New(out, "INFO: ", flags)
	ErrorLogger = log.New(errOut, "ERROR: ", flags)
	DebugLogger = log.New(out, "DEBUG: ", flags)
	WarnLogger = log.New(out, "WARN: ", flags)
	log.SetOutput(out)
}

// Setup enables debug output and, when path is set, mirrors every level into
// a rotating log file. The standard library logger follows the info output.
func Setup(environment, path string) {
	mu.Lock()
	defer mu.Unlock()

	debugOn = environment == "development"

	if fileSink != nil {
		fileSink.Close()
		fileSink = nil
	}

	if path == "" {
		build(stdoutWrite, stderrWrite)
		return
	}

	fileSink = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	build(io.MultiWriter(stdoutWrite, fileSink), io.MultiWriter(stderrWrite, fileSink))
}

// SetOutput redirects all levels to w. Used by tests and the console, which
// owns the terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdoutWrite, stderrWrite = w, w
	build(w, w)
}

func Info(format string, v ...interface{}) {
	InfoLogger.Printf(format, v...)
}

func Error(format string, v ...interface{}) {
	ErrorLogger.Printf(format, v...)
}

func Debug(format string, v ...interface{}) {
	if debugOn {
		DebugLogger.Printf(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	WarnLogger.Printf(format, v...)
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	if fileSink != nil {
		fileSink.Close()
		fileSink = nil
	}
	build(stdoutWrite, stderrWrite)
}
