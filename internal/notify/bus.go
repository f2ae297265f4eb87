package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/padcontrol/internal/logging"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

var log = logging.Component("notify")

const TopicNotifications = "pad.notifications"

type Kind string

const (
	KindConnectionLost     Kind = "connection_lost"
	KindConnectionRestored Kind = "connection_restored"
	KindSessionStarted     Kind = "session_started"
	KindSessionEnded       Kind = "session_ended"
	KindCommandFailed      Kind = "command_failed"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a user-facing message, e.g. rendered as a toast
type Notification struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Variant     Variant   `json:"variant"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bus publishes notifications on an in-process watermill pub/sub
type Bus struct {
	pubSub *gochannel.GoChannel
	topic  string
	now    func() time.Time
}

func NewBus(logger watermill.LoggerAdapter) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, logger),
		topic: TopicNotifications,
		now:   time.Now,
	}
}

func (b *Bus) Publish(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = watermill.NewUUID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = b.now()
	}
	if n.Variant == "" {
		n.Variant = VariantDefault
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	msg := message.NewMessage(n.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("kind", string(n.Kind))

	if err := b.pubSub.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, b.topic)
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}

func (b *Bus) ConnectionLost(ctx context.Context, err error) {
	log.Debugf("notify: connection lost: %s", err)
	b.publishOrLog(ctx, Notification{
		Kind:        KindConnectionLost,
		Title:       "Connection Lost",
		Description: "Attempting to reconnect to the walking pad...",
		Variant:     VariantDestructive,
	})
}

func (b *Bus) ConnectionRestored(ctx context.Context) {
	b.publishOrLog(ctx, Notification{
		Kind:        KindConnectionRestored,
		Title:       "Connection Restored",
		Description: "The walking pad is reachable again",
	})
}

// Announce publishes a plain notification for a finished command
func (b *Bus) Announce(ctx context.Context, kind Kind, title, description string) {
	variant := VariantDefault
	if kind == KindCommandFailed {
		variant = VariantDestructive
	}
	b.publishOrLog(ctx, Notification{
		Kind:        kind,
		Title:       title,
		Description: description,
		Variant:     variant,
	})
}

func (b *Bus) publishOrLog(ctx context.Context, n Notification) {
	if err := b.Publish(ctx, n); err != nil {
		log.Errorf("notify: %s", err)
	}
}

func Decode(msg *message.Message) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		return Notification{}, fmt.Errorf("decode notification %s: %w", msg.UUID, err)
	}
	return n, nil
}
