package utils

import (
	"strings"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

// CollapseWhitespace squashes runs of spaces, tabs and newlines into a
// single space. Retailer pages love decorative whitespace.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsZipCode checks if a string looks like a US 5-digit ZIP code,
// optionally with a +4 extension.
func IsZipCode(s string) bool {
	s = strings.TrimSpace(s)
	main, ext, hasExt := strings.Cut(s, "-")
	if len(main) != 5 || !allDigits(main) {
		return false
	}
	if hasExt && (len(ext) != 4 || !allDigits(ext)) {
		return false
	}
	return true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
