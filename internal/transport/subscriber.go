package transport

import (
	"WrplSpectra/internal/config"
	"log"

	"github.com/nats-io/nats.go"
)

// Message headers carried on replay subjects.
const (
	HeaderFileName  = "Wrpl-File-Name"
	HeaderSessionID = "Wrpl-Session-Id"
	HeaderError     = "Wrpl-Error"
)

// queueGroup lets several engines share the raw replay subject.
const queueGroup = "wrpl-engine"

// ReplayHandler processes one raw replay file. The returned bytes are sent
// back when the publisher asked for a reply.
type ReplayHandler func(name string, data []byte) ([]byte, error)

// Subscriber is responsible for subscribing to the raw replay subject and processing messages.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.NATSConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Subscriber{nc: nc, subject: cfg.RawSubject}, nil
}

// Start subscribes to the raw subject and processes messages with the provided handler.
func (s *Subscriber) Start(handler ReplayHandler) error {
	sub, err := s.nc.QueueSubscribe(s.subject, queueGroup, func(msg *nats.Msg) {
		name := "nats.wrpl"
		if msg.Header != nil {
			if h := msg.Header.Get(HeaderFileName); h != "" {
				name = h
			}
		}

		reply, err := handler(name, msg.Data)
		if msg.Reply == "" {
			return
		}

		resp := nats.NewMsg(msg.Reply)
		if err != nil {
			resp.Header.Set(HeaderError, err.Error())
		} else {
			resp.Data = reply
		}
		if err := msg.RespondMsg(resp); err != nil {
			log.Printf("Error replying to %s: %v", msg.Reply, err)
		}
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for replays...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
