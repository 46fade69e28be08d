package log

import (
	"fmt"
	"reflect"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

var sentryLevels = map[logrus.Level]sentry.Level{
	logrus.TraceLevel: sentry.LevelDebug,
	logrus.DebugLevel: sentry.LevelDebug,
	logrus.InfoLevel:  sentry.LevelInfo,
	logrus.WarnLevel:  sentry.LevelWarning,
	logrus.ErrorLevel: sentry.LevelError,
	logrus.FatalLevel: sentry.LevelFatal,
	logrus.PanicLevel: sentry.LevelFatal,
}

// tags copied from the log entry into the sentry scope
var sentryTagFields = []string{"stepName", "category", "library"}

// SentryHook reports fatal log entries of a step run to sentry.
type SentryHook struct {
	Hub           *sentry.Hub
	Event         *sentry.Event
	levels        []logrus.Level
	tags          map[string]string
	correlationID string
}

// NewSentryHook initializes the sentry sdk with the given dsn. An invalid dsn
// only produces a warning, the hook then drops all events.
func NewSentryHook(sentryDsn, correlationID string) SentryHook {
	Entry().Debugf("Initializing Sentry with DSN %v", sentryDsn)
	if err := sentry.Init(sentry.ClientOptions{Dsn: sentryDsn, AttachStacktrace: true}); err != nil {
		Entry().Warnf("cannot initialize sentry: %v", err)
	}
	return SentryHook{
		Hub:           sentry.CurrentHub(),
		Event:         sentry.NewEvent(),
		levels:        []logrus.Level{logrus.PanicLevel, logrus.FatalLevel},
		tags:          map[string]string{},
		correlationID: correlationID,
	}
}

// Levels returns the log levels reported to sentry.
func (sentryHook *SentryHook) Levels() []logrus.Level {
	return sentryHook.levels
}

// Fire sends the entry as sentry event. The error of the entry, if any,
// becomes the exception of the event.
func (sentryHook *SentryHook) Fire(entry *logrus.Entry) error {
	event := sentryHook.Event
	event.Level = sentryLevels[entry.Level]
	event.Message = entry.Message

	sentryHook.tags["correlationId"] = sentryHook.correlationID
	sentryHook.tags["category"] = GetErrorCategory().String()
	for _, field := range sentryTagFields {
		if value, ok := entry.Data[field]; ok {
			sentryHook.tags[field] = fmt.Sprint(value)
		}
	}
	for k, v := range entry.Data {
		event.Extra[k] = v
	}
	sentryHook.Hub.Scope().SetTags(sentryHook.tags)

	exception := sentry.Exception{Type: entry.Message}
	switch value := entry.Data[logrus.ErrorKey].(type) {
	case error:
		exception.Value = value.Error()
		event.Message = reflect.TypeOf(value).String()
		if client := sentryHook.Hub.Client(); client != nil && client.Options().AttachStacktrace {
			exception.Stacktrace = sentry.ExtractStacktrace(value)
		}
	case nil:
	default:
		exception.Value = fmt.Sprint(value)
	}
	event.Exception = []sentry.Exception{exception}

	sentryHook.Hub.CaptureEvent(event)
	return nil
}
