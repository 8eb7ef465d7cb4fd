// Package bridge holds the message-routing core: payload classification,
// media fetching, the two relay loops, and the supervisor that keeps the
// chat side alive. Transport specifics live behind the interfaces below so
// the routing logic is testable with fakes.
package bridge

import "context"

// BrokerMessage is one delivery from the broker. Created per message,
// consumed synchronously by the routing step, never persisted.
type BrokerMessage struct {
	ID      string // correlation id for log lines
	Topic   string
	Payload []byte
}

// MediaKind tells the chat sender which upload primitive to use.
type MediaKind string

const (
	MediaImage     MediaKind = "image"
	MediaAnimation MediaKind = "animation"
)

// String implements fmt.Stringer.
func (mk MediaKind) String() string { return string(mk) }

// Payload is the classified form of a broker payload: exactly one of
// TextPayload or MediaPayload.
type Payload interface {
	isPayload()
}

// TextPayload is a plain text payload, already trimmed.
type TextPayload struct {
	Text string
}

// MediaPayload is a payload that is exactly one remote media URL.
type MediaPayload struct {
	URL  string
	Kind MediaKind
	Ext  string // lowercased file extension, drives the upload filename
}

func (TextPayload) isPayload()  {}
func (MediaPayload) isPayload() {}

// ChatMessage is one inbound message from the chat channel.
type ChatMessage struct {
	ChatID    int64
	MessageID int
	Text      string
}

// ConnStatus is the tracked health state of a transport connection.
type ConnStatus string

const (
	StatusDisconnected ConnStatus = "disconnected"
	StatusConnecting   ConnStatus = "connecting"
	StatusConnected    ConnStatus = "connected"
)

// String implements fmt.Stringer.
func (cs ConnStatus) String() string { return string(cs) }

// ChatSender delivers messages to the single configured destination chat.
// Implementations must be safe for concurrent use; both relay loops share
// one sender.
type ChatSender interface {
	SendText(ctx context.Context, text string) error
	SendImage(ctx context.Context, data []byte, filename, caption string) error
	SendAnimation(ctx context.Context, data []byte, filename, caption string) error
}

// Replier answers a specific inbound chat message.
type Replier interface {
	Reply(ctx context.Context, to ChatMessage, text string) error
}

// Publisher pushes a payload to a broker topic. Single attempt, no queue;
// the returned error is the transport's verdict.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Fetcher retrieves a remote media resource into memory.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
