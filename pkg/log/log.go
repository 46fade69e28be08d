package log

import (
	"net/url"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LibraryName is the name of the library as it appears in every log entry.
const LibraryName = "fossology-library"

// PiperLogFormatter is the log formatter of the fossy binary. It removes
// registered secrets from the message before the message is written.
type PiperLogFormatter struct {
	logrus.TextFormatter
	messageOnly bool
}

// Format formats the entry either as message only or as full text line.
func (formatter *PiperLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if formatter.messageOnly {
		return []byte(removeSecrets(entry.Message) + "\n"), nil
	}
	message, err := formatter.TextFormatter.Format(entry)
	if err != nil {
		return message, err
	}
	return []byte(removeSecrets(string(message))), nil
}

var (
	logger       *logrus.Entry
	secrets      []string
	secretsMutex sync.RWMutex
)

// the logger exists before any goroutine calls Entry
func init() {
	Entry()
}

// Entry returns the logger entry or creates one if none is present.
func Entry() *logrus.Entry {
	if logger == nil {
		logger = logrus.WithField("library", LibraryName)
		logger.Logger.SetFormatter(&PiperLogFormatter{TextFormatter: logrus.TextFormatter{DisableColors: true}})
	}
	return logger
}

// SetVerbose sets the log level with respect to verbose flag.
func SetVerbose(verbose bool) {
	if verbose {
		Entry().Logger.SetLevel(logrus.DebugLevel)
	}
}

// SetFormatter sets the formatter of the logger. When messageOnly is true only
// the message itself is printed.
func SetFormatter(messageOnly bool) {
	Entry().Logger.SetFormatter(&PiperLogFormatter{messageOnly: messageOnly, TextFormatter: logrus.TextFormatter{DisableColors: true}})
}

// SetStepName sets the stepName field.
func SetStepName(stepName string) {
	logger = Entry().WithField("stepName", stepName)
}

// DeferExitHandler registers a handler which is called before the process exits on Fatal.
func DeferExitHandler(handler func()) {
	logrus.DeferExitHandler(handler)
}

// RegisterHook registers a logrus hook.
func RegisterHook(hook logrus.Hook) {
	Entry().Logger.AddHook(hook)
}

// RegisterSecret registers a value which must not appear in any log output.
func RegisterSecret(secret string) {
	if len(secret) == 0 {
		return
	}
	secretsMutex.Lock()
	defer secretsMutex.Unlock()
	secrets = append(secrets, secret)
	encoded := url.QueryEscape(secret)
	if encoded != secret {
		secrets = append(secrets, encoded)
	}
}

func removeSecrets(message string) string {
	secretsMutex.RLock()
	defer secretsMutex.RUnlock()
	for _, secret := range secrets {
		message = strings.ReplaceAll(message, secret, "****")
	}
	return message
}
