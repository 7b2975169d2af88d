package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"lifeos-backend/internal/item/changefeed"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// EventItemsChanged is the SSE event name dashboards listen for
const EventItemsChanged = "items_changed"

const publishTimeout = 10 * time.Second

// Notifier pushes named events to connected clients. *sse.Manager satisfies it.
type Notifier interface {
	SendToUser(userID, event string, data interface{})
	Broadcast(event string, data interface{})
}

// Relay forwards locally produced changes to other instances
type Relay interface {
	Publish(ctx context.Context, c changefeed.Change) error
}

// Service bridges the in-process change feed to SSE clients and, when
// configured, to a Pub/Sub topic shared by every instance.
type Service struct {
	feed     *changefeed.Feed
	notifier Notifier
	relay    Relay

	pubsubClient *pubsub.Client
	topicName    string
	subName      string

	mu     sync.Mutex
	sub    *changefeed.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a bridge. Pub/Sub is off until EnablePubSub succeeds.
func NewService(feed *changefeed.Feed, notifier Notifier) *Service {
	return &Service{feed: feed, notifier: notifier}
}

// EnablePubSub connects to projectID and relays changes through topicName.
// Each instance reads from its own subscription so every instance sees every change.
func (s *Service) EnablePubSub(ctx context.Context, projectID, topicName, credentialsFile string) error {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return fmt.Errorf("failed to create pubsub client: %w", err)
	}

	s.pubsubClient = client
	s.topicName = topicName
	s.subName = topicName + "-" + s.feed.Origin()
	s.relay = &topicRelay{topic: client.Topic(topicName)}
	return nil
}

// SetRelay replaces the outbound relay
func (s *Service) SetRelay(r Relay) {
	s.relay = r
}

// Start subscribes to the change feed and, with Pub/Sub enabled, begins
// receiving remote changes in the background.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.sub = s.feed.Subscribe(func(c changefeed.Change) {
		s.notify(c)
		if s.relay != nil && c.Origin == s.feed.Origin() {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				pctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
				defer cancel()
				if err := s.relay.Publish(pctx, c); err != nil {
					log.Warn().Err(err).Str("item_id", c.ItemID).Msg("[PubSub] Failed to publish change")
				}
			}()
		}
	})

	if s.pubsubClient != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.receive(ctx)
		}()
	}
	log.Info().Bool("pubsub", s.pubsubClient != nil).Msg("[Notification] Change bridge started")
}

// Stop unsubscribes from the feed and waits for in-flight work
func (s *Service) Stop() {
	s.mu.Lock()
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if s.pubsubClient != nil {
		if err := s.pubsubClient.Close(); err != nil {
			log.Warn().Err(err).Msg("[PubSub] Error closing client")
		}
	}
}

func (s *Service) notify(c changefeed.Change) {
	if c.UserID == "" {
		s.notifier.Broadcast(EventItemsChanged, c)
		return
	}
	s.notifier.SendToUser(c.UserID, EventItemsChanged, c)
}

// HandleRemote processes one relayed payload. Changes that originated on
// this instance were already delivered and are skipped.
func (s *Service) HandleRemote(data []byte) error {
	var c changefeed.Change
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("invalid change payload: %w", err)
	}
	if c.Origin == s.feed.Origin() {
		return nil
	}
	log.Debug().Str("origin", c.Origin).Str("item_id", c.ItemID).Msg("[PubSub] Remote change")
	s.notify(c)
	return nil
}

func (s *Service) receive(ctx context.Context) {
	log.Info().Str("topic", s.topicName).Str("subscription", s.subName).Msg("[PubSub] Starting receiver")

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Error().Err(err).Msg("[PubSub] Error checking subscription existence")
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Error().Err(err).Msg("[PubSub] Error checking topic existence")
			return
		}
		if !topicExists {
			log.Error().Str("topic", s.topicName).Msg("[PubSub] Topic does not exist, cannot create subscription")
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:            topic,
			AckDeadline:      10 * time.Second,
			ExpirationPolicy: 24 * time.Hour,
		})
		if err != nil {
			log.Error().Err(err).Msg("[PubSub] Failed to create subscription")
			return
		}
		log.Info().Str("subscription", s.subName).Msg("[PubSub] Created subscription")
	}

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := s.HandleRemote(msg.Data); err != nil {
			log.Warn().Err(err).Msg("[PubSub] Dropping message")
		}
		msg.Ack()
	})
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("[PubSub] Error receiving messages")
	}
}

type topicRelay struct {
	topic *pubsub.Topic
}

func (r *topicRelay) Publish(ctx context.Context, c changefeed.Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = r.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"origin": c.Origin, "op": string(c.Op)},
	}).Get(ctx)
	return err
}
