package noticews

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/yamenzk/ptrainer/internal/services"
	"github.com/yamenzk/ptrainer/internal/wizard"
	"go.uber.org/goleak"
)

func receive(t *testing.T, client *Client) services.Event {
	t.Helper()
	select {
	case payload, ok := <-client.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var event services.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return services.Event{}
}

func TestHubDeliversOnlyToTargetClient(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	phone := NewClient(hub, nil, "CL-0001")
	laptop := NewClient(hub, nil, "CL-0001")
	other := NewClient(hub, nil, "CL-0002")
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)

	hub.Publish("CL-0001", services.Event{Type: services.EventNotice, Level: services.LevelSuccess, Message: "Profile updated successfully!"})

	for _, client := range []*Client{phone, laptop} {
		event := receive(t, client)
		if event.Type != services.EventNotice || event.Message != "Profile updated successfully!" {
			t.Fatalf("unexpected event %+v", event)
		}
	}
	select {
	case payload := <-other.send:
		t.Fatalf("other client received %s", payload)
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	<-done
	if _, ok := <-phone.send; ok {
		t.Fatal("send channel should be closed after shutdown")
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	client := NewClient(hub, nil, "CL-0001")
	hub.Register(client)
	hub.Unregister(client)

	if _, ok := <-client.send; ok {
		t.Fatal("expected closed send channel")
	}

	cancel()
	<-done
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < cap(hub.broadcast)+5; i++ {
		hub.Publish("CL-0001", services.Event{Type: services.EventNotice})
	}
	if len(hub.broadcast) != cap(hub.broadcast) {
		t.Fatalf("expected a full queue, got %d", len(hub.broadcast))
	}
}

func TestRepliesAfterShutdownDoNotPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	client := NewClient(hub, nil, "CL-0001")
	hub.Register(client)
	writeError(client, "still connected")
	if event := receive(t, client); event.Level != services.LevelError {
		t.Fatalf("unexpected reply %+v", event)
	}

	cancel()
	<-done

	writeError(client, "too late")
	hub.Unregister(client)
	late := NewClient(hub, nil, "CL-0002")
	hub.Register(late)
	if _, ok := <-late.send; ok {
		t.Fatal("registering after shutdown should close the send channel")
	}
}

type failingChecker struct{}

func (failingChecker) CheckNow(context.Context, string) (wizard.Requirements, error) {
	return wizard.Requirements{}, errors.New("backend down")
}

func TestCheckReportsFailureToClient(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	client := NewClient(hub, nil, "CL-0001")
	hub.Register(client)
	client.Check(failingChecker{})

	event := receive(t, client)
	if event.Type != "error" || event.Message != "failed to refresh profile" {
		t.Fatalf("unexpected event %+v", event)
	}

	cancel()
	<-done
}
