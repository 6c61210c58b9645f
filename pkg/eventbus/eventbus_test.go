package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type runCompleted struct {
	sessionID string
}

func TestPublisher_Publish_NoSubscribers(t *testing.T) {
	type unrelated struct {
		sessionID string
	}
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.WarnLevel)
	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *runCompleted) {
		t.Error("should not be called")
	})
	publisher.Publish(&unrelated{sessionID: "s1"})

	if output := logBuffer.String(); output == "" {
		t.Error("should have logged")
	} else if !strings.Contains(output, "eventbus.Publish: no matching subscribers") {
		t.Errorf("should have contained no matching subscribers but got: %q", output)
	}
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logrus.New())
	called := false
	var got string
	publisher.Subscribe(func(e *runCompleted) {
		called = true
		got = e.sessionID
	})
	publisher.Publish(&runCompleted{sessionID: "s1"})
	if !called {
		t.Error("should be called")
	}
	if got != "s1" {
		t.Errorf("expected: %v, got: %v", "s1", got)
	}
}

func TestPublisher_Unsubscribe(t *testing.T) {
	publisher := NewEventPublisher(logrus.New())
	handler := func(e *runCompleted) {
		t.Error("should not be called after unsubscribe")
	}
	publisher.Subscribe(handler)
	if publisher.SubscribersCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", publisher.SubscribersCount())
	}
	publisher.Unsubscribe(handler)
	if publisher.SubscribersCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", publisher.SubscribersCount())
	}
	publisher.Publish(&runCompleted{sessionID: "s1"})
}
