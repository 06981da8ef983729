package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// redactedFields never reach the output with their real value.
var redactedFields = map[string]bool{
	"password":          true,
	"new_password":      true,
	"current_password":  true,
	"token":             true,
	"authorization":     true,
	"verification_code": true,
	"code":              true,
}

// correlationFields lead the text format so a request or ride is easy to follow.
var correlationFields = []string{"request_id", "user_id", "ride_id"}

const redacted = "[REDACTED]"

type CustomJSONFormatter struct {
	TimestampFormat string
	AppName         string
	Version         string
}

type CustomTextFormatter struct {
	TimestampFormat string
	Colors          bool
	AppName         string
}

// fieldValue prepares a field for output. Errors are rendered as their
// message since encoding/json would otherwise print an empty object.
func fieldValue(key string, value interface{}) interface{} {
	if redactedFields[strings.ToLower(key)] {
		return redacted
	}
	if err, ok := value.(error); ok {
		return err.Error()
	}
	return value
}

func buffer(entry *logrus.Entry) *bytes.Buffer {
	if entry.Buffer != nil {
		return entry.Buffer
	}
	return &bytes.Buffer{}
}

func (f *CustomJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	layout := f.TimestampFormat
	if layout == "" {
		layout = time.RFC3339Nano
	}

	data := make(logrus.Fields, len(entry.Data)+6)
	for k, v := range entry.Data {
		data[k] = fieldValue(k, v)
	}
	data["timestamp"] = entry.Time.UTC().Format(layout)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if f.AppName != "" {
		data["app"] = f.AppName
	}
	if f.Version != "" {
		data["version"] = f.Version
	}
	if entry.HasCaller() {
		data["caller"] = fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
	}

	b := buffer(entry)
	if err := json.NewEncoder(b).Encode(data); err != nil {
		return nil, fmt.Errorf("failed to encode log entry: %w", err)
	}
	return b.Bytes(), nil
}

var levelColors = map[logrus.Level]string{
	logrus.PanicLevel: "\033[31m",
	logrus.FatalLevel: "\033[31m",
	logrus.ErrorLevel: "\033[31m",
	logrus.WarnLevel:  "\033[33m",
	logrus.InfoLevel:  "\033[36m",
	logrus.DebugLevel: "\033[37m",
}

func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	layout := f.TimestampFormat
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}

	level := strings.ToUpper(entry.Level.String())
	if color, ok := levelColors[entry.Level]; ok && f.Colors {
		level = color + level + "\033[0m"
	}

	b := buffer(entry)
	fmt.Fprintf(b, "%s [%s]", entry.Time.Format(layout), level)
	if f.AppName != "" {
		fmt.Fprintf(b, " [%s]", f.AppName)
	}
	if entry.HasCaller() {
		fmt.Fprintf(b, " [%s:%d]", entry.Caller.File, entry.Caller.Line)
	}
	b.WriteString(" " + entry.Message)

	seen := make(map[string]bool, len(correlationFields))
	for _, key := range correlationFields {
		if v, ok := entry.Data[key]; ok {
			fmt.Fprintf(b, " %s=%v", key, v)
			seen[key] = true
		}
	}

	rest := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		fmt.Fprintf(b, " %s=%v", k, fieldValue(k, entry.Data[k]))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}
