package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type sendCall struct {
	data     []byte
	filename string
	caption  string
}

type fakeSender struct {
	texts      []string
	images     []sendCall
	animations []sendCall
	err        error
}

var _ ChatSender = (*fakeSender)(nil)

func (s *fakeSender) SendText(_ context.Context, text string) error {
	s.texts = append(s.texts, text)
	return s.err
}

func (s *fakeSender) SendImage(_ context.Context, data []byte, filename, caption string) error {
	s.images = append(s.images, sendCall{data: data, filename: filename, caption: caption})
	return s.err
}

func (s *fakeSender) SendAnimation(_ context.Context, data []byte, filename, caption string) error {
	s.animations = append(s.animations, sendCall{data: data, filename: filename, caption: caption})
	return s.err
}

type fakeFetcher struct {
	urls []string
	data []byte
	err  error
}

var _ Fetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func TestBrokerRelayText(t *testing.T) {
	sender := &fakeSender{}
	fetcher := &fakeFetcher{}
	relay := NewBrokerRelay(fetcher, sender, zerolog.Nop())

	relay.HandleMessage(context.Background(), "mt32/status", []byte("hello"))

	if len(sender.texts) != 1 {
		t.Fatalf("text sends = %d, want 1", len(sender.texts))
	}
	want := "Topic: mt32/status\nMessage: hello"
	if sender.texts[0] != want {
		t.Errorf("text = %q, want %q", sender.texts[0], want)
	}
	if len(fetcher.urls) != 0 {
		t.Errorf("fetches = %d, want 0 for a text payload", len(fetcher.urls))
	}
}

func TestBrokerRelayImage(t *testing.T) {
	sender := &fakeSender{}
	fetcher := &fakeFetcher{data: []byte("png-bytes")}
	relay := NewBrokerRelay(fetcher, sender, zerolog.Nop())

	relay.HandleMessage(context.Background(), "telegram/output/cam1", []byte("https://x.example/a.png"))

	if len(fetcher.urls) != 1 || fetcher.urls[0] != "https://x.example/a.png" {
		t.Fatalf("fetches = %v, want exactly the payload URL", fetcher.urls)
	}
	if len(sender.images) != 1 {
		t.Fatalf("image sends = %d, want 1", len(sender.images))
	}
	got := sender.images[0]
	if got.caption != "Topic: telegram/output/cam1" {
		t.Errorf("caption = %q", got.caption)
	}
	if got.filename != "snapshot.png" {
		t.Errorf("filename = %q, want snapshot.png", got.filename)
	}
	if string(got.data) != "png-bytes" {
		t.Errorf("data = %q, want fetched bytes", got.data)
	}
	if len(sender.texts) != 0 || len(sender.animations) != 0 {
		t.Errorf("unexpected extra sends: %d texts, %d animations", len(sender.texts), len(sender.animations))
	}
}

func TestBrokerRelayAnimation(t *testing.T) {
	sender := &fakeSender{}
	fetcher := &fakeFetcher{data: []byte("gif-bytes")}
	relay := NewBrokerRelay(fetcher, sender, zerolog.Nop())

	relay.HandleMessage(context.Background(), "telegram/output/cam1", []byte("https://x.example/loop.gif"))

	if len(sender.animations) != 1 {
		t.Fatalf("animation sends = %d, want 1", len(sender.animations))
	}
	if got := sender.animations[0].filename; got != "snapshot.gif" {
		t.Errorf("filename = %q, want snapshot.gif", got)
	}
	if len(sender.images) != 0 {
		t.Errorf("image sends = %d, want 0 for a gif", len(sender.images))
	}
}

func TestBrokerRelayFetchFailure(t *testing.T) {
	sender := &fakeSender{}
	fetcher := &fakeFetcher{err: &FetchError{URL: "https://x.example/a.png", Reason: FetchTimeout}}
	relay := NewBrokerRelay(fetcher, sender, zerolog.Nop())

	relay.HandleMessage(context.Background(), "telegram/output/cam1", []byte("https://x.example/a.png"))

	if len(sender.texts)+len(sender.images)+len(sender.animations) != 0 {
		t.Fatal("a failed fetch must produce zero chat sends")
	}

	// The loop keeps processing after a failure.
	fetcher.err = nil
	fetcher.data = []byte("ok")
	relay.HandleMessage(context.Background(), "mt32/status", []byte("hello"))
	if len(sender.texts) != 1 {
		t.Errorf("text sends after failure = %d, want 1", len(sender.texts))
	}
}

func TestBrokerRelaySendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	fetcher := &fakeFetcher{data: []byte("x")}
	relay := NewBrokerRelay(fetcher, sender, zerolog.Nop())

	// Must not panic or propagate; the error is logged and dropped.
	relay.HandleMessage(context.Background(), "mt32/status", []byte("hello"))
	relay.HandleMessage(context.Background(), "mt32/status", []byte("https://x.example/a.png"))
}
