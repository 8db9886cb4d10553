package logging

import (
	"regexp"

	"github.com/sirupsen/logrus"
)

// Payment keys, webhook secrets and bearer tokens show up in provider error
// messages; none of them may reach the log sink.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(sk|rk)_(live|test)_[0-9A-Za-z]+`),
	regexp.MustCompile(`\bwhsec_[0-9A-Za-z]+`),
	regexp.MustCompile(`(?i)\bbearer\s+[0-9A-Za-z\-_.=]+`),
	regexp.MustCompile(`\beyJ[0-9A-Za-z\-_]+\.[0-9A-Za-z\-_]+\.[0-9A-Za-z\-_]+`),
}

const redacted = "[REDACTED]"

// Redact masks secrets in s
func Redact(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, redacted)
	}
	return s
}

type redactHook struct{}

func (redactHook) Levels() []logrus.Level { return logrus.AllLevels }

func (redactHook) Fire(entry *logrus.Entry) error {
	entry.Message = Redact(entry.Message)
	for k, v := range entry.Data {
		switch val := v.(type) {
		case string:
			entry.Data[k] = Redact(val)
		case error:
			entry.Data[k] = Redact(val.Error())
		}
	}
	return nil
}
