package logger

import (
	"io"
	"log"
	"os"
)

var (
	Info    *log.Logger
	Warning *log.Logger
	Error   *log.Logger
	HTTP    *log.Logger
)

func init() {
	Setup()
}

// Setup initializes the leveled loggers.
func Setup() {
	Info = log.New(os.Stdout, "[INFO] ", log.Ldate|log.Ltime)
	Warning = log.New(os.Stdout, "[WARN] ", log.Ldate|log.Ltime)
	Error = log.New(os.Stderr, "[ERROR] ", log.Ldate|log.Ltime|log.Lshortfile)
	HTTP = log.New(os.Stdout, "[HTTP] ", log.Ldate|log.Ltime)
}

// SetOutput redirects every logger to w. Used by tests to silence output.
func SetOutput(w io.Writer) {
	if Info == nil {
		Setup()
	}
	Info.SetOutput(w)
	Warning.SetOutput(w)
	Error.SetOutput(w)
	HTTP.SetOutput(w)
}
