package bus

import (
	"testing"

	"terrarium/core"
)

func TestPublish_FansOutToTopicSubscribers(t *testing.T) {
	b := New()
	chat1 := b.Subscribe(TopicChat, 4)
	chat2 := b.Subscribe(TopicChat, 4)
	breed := b.Subscribe(TopicBreed, 4)

	b.Publish(TopicChat, core.NewMessage("Eve", "hello"))

	for i, ch := range []<-chan Envelope{chat1, chat2} {
		select {
		case env := <-ch:
			if env.Topic != TopicChat || env.Message.Content != "hello" {
				t.Fatalf("subscriber %d got %+v", i, env)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
	select {
	case env := <-breed:
		t.Fatalf("breed subscriber received chat traffic: %+v", env)
	default:
	}
}

func TestPublish_DropsWhenBufferFull(t *testing.T) {
	b := New()
	ch := b.Subscribe(TopicChat, 1)
	b.Publish(TopicChat, core.NewMessage("Eve", "first"))
	b.Publish(TopicChat, core.NewMessage("Eve", "second"))

	env := <-ch
	if env.Message.Content != "first" {
		t.Fatalf("got %q, want first", env.Message.Content)
	}
	select {
	case env := <-ch:
		t.Fatalf("overflow message delivered: %+v", env)
	default:
	}
}

func TestClose_ClosesSubscriberChannels(t *testing.T) {
	b := New()
	ch := b.Subscribe(TopicChat, 1)
	b.Close()

	if _, ok := <-ch; ok {
		t.Fatal("channel still open after Close")
	}
	// Publishing and closing again must be harmless.
	b.Publish(TopicChat, core.NewMessage("Eve", "late"))
	b.Close()

	if _, ok := <-b.Subscribe(TopicChat, 1); ok {
		t.Fatal("Subscribe after Close returned an open channel")
	}
}
