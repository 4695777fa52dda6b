package service_test

import (
	"testing"

	"github.com/msomdec/clip/internal/service"
)

func TestBroker_DeliversOnlyToOwner(t *testing.T) {
	b := service.NewBroker(nil)
	defer b.Close()

	mine, cancelMine := b.Subscribe("u1")
	defer cancelMine()
	theirs, cancelTheirs := b.Subscribe("u2")
	defer cancelTheirs()

	b.Publish(service.ChangeEvent{UserID: "u1", Kind: service.ChangeScraps, CategoryID: "cat-1"})

	select {
	case ev := <-mine:
		if ev.Kind != service.ChangeScraps || ev.CategoryID != "cat-1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected owner to receive event")
	}

	select {
	case ev := <-theirs:
		t.Fatalf("other user should not receive %+v", ev)
	default:
	}
}

func TestBroker_CancelClosesChannel(t *testing.T) {
	b := service.NewBroker(nil)
	defer b.Close()

	ch, cancel := b.Subscribe("u1")
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}
	b.Publish(service.ChangeEvent{UserID: "u1", Kind: service.ChangeCategories})
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := service.NewBroker(nil)
	defer b.Close()

	_, cancel := b.Subscribe("u1")
	defer cancel()

	for i := 0; i < 100; i++ {
		b.Publish(service.ChangeEvent{UserID: "u1", Kind: service.ChangeScraps})
	}
}

func TestBroker_CloseEndsSubscriptions(t *testing.T) {
	b := service.NewBroker(nil)
	ch, cancel := b.Subscribe("u1")
	b.Close()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after broker close")
	}

	late, _ := b.Subscribe("u1")
	if _, ok := <-late; ok {
		t.Fatal("expected subscriptions after close to be closed immediately")
	}
}

func TestBroker_NilPublishIsNoop(t *testing.T) {
	var b *service.Broker
	b.Publish(service.ChangeEvent{UserID: "u1"})
}
