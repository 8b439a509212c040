package logger

import "testing"

func TestNewFallsBackOnInvalidLevel(t *testing.T) {
	log := New(LoggingConfig{Level: "nonsense", Format: "json", Output: "stderr"})
	if log == nil {
		t.Fatal("New() returned nil")
	}
	log.Infof("logger alive with %s", "fallback level")
}

func TestWithFieldAndError(t *testing.T) {
	log := NewDefault("test")
	derived := log.WithField("request", "abc").WithError(nil)
	if derived == nil {
		t.Fatal("derived logger is nil")
	}
	if derived == log {
		t.Error("WithField must return a new logger, not mutate the receiver")
	}
}
