package actuator

import (
	"context"
	"errors"
	"testing"
)

type recordingLogger struct {
	calls int
}

func (r *recordingLogger) Info(msg string, args ...interface{}) {
	r.calls++
}

func TestNoOp_NeverErrors(t *testing.T) {
	var a NoOp
	if err := a.Advance(context.Background(), 3); err != nil {
		t.Errorf("NoOp.Advance() error = %v, want nil", err)
	}
}

func TestLogging_LogsAndSucceeds(t *testing.T) {
	logger := &recordingLogger{}
	a := NewLogging(logger)
	if err := a.Advance(context.Background(), 2); err != nil {
		t.Errorf("Logging.Advance() error = %v, want nil", err)
	}
	if logger.calls != 1 {
		t.Errorf("logger.calls = %d, want 1", logger.calls)
	}
}

func TestLogging_NilLoggerDoesNotPanic(t *testing.T) {
	a := NewLogging(nil)
	if err := a.Advance(context.Background(), 1); err != nil {
		t.Errorf("Logging.Advance() error = %v, want nil", err)
	}
}

type failingActuator struct{}

func (failingActuator) Advance(ctx context.Context, count uint32) error {
	return errors.New("advance failed")
}

func TestCounting_AccumulatesOnSuccess(t *testing.T) {
	c := NewCounting(NoOp{})
	if err := c.Advance(context.Background(), 2); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if err := c.Advance(context.Background(), 3); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if c.Total() != 5 {
		t.Errorf("Total() = %d, want 5", c.Total())
	}
}

func TestCounting_DoesNotAccumulateOnFailure(t *testing.T) {
	c := NewCounting(failingActuator{})
	if err := c.Advance(context.Background(), 2); err == nil {
		t.Fatal("expected error from wrapped actuator")
	}
	if c.Total() != 0 {
		t.Errorf("Total() = %d, want 0 after failed advance", c.Total())
	}
}
