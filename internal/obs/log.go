// Package obs carries the logging and metrics plumbing shared by the HTTP
// layer and the audit trail.
package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide JSON line logger. Request logs and audit
// entries share this writer so tests can capture both through one seam.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits one JSON object per completed HTTP request. A marshal
// failure degrades to a fixed line naming the failure instead of dropping
// the event; entries must never carry values json.Marshal cannot encode.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Printf(`{"level":"error","msg":"request_log_dropped","error":%q}`, err.Error())
		return
	}
	Logger().Println(string(data))
}
