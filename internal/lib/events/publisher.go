package events

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/deppfellow/appointment-service/internal/config"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	// Ping checks that the broker is reachable.
	Ping(ctx context.Context) error
	Close() error
	Name() string
}

// NewPublisher selects the broker from cfg. The redis broker reuses the
// shared client and does not close it.
func NewPublisher(cfg *config.EventsConfig, redisClient *redis.Client, logger *zerolog.Logger) (Publisher, error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		brokers := splitBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, errors.New("events.kafka_brokers is required for the kafka broker")
		}
		return NewKafkaPublisher(brokers, cfg.Topic, time.Duration(cfg.WriteTimeout)*time.Second), nil

	case config.BrokerRedis:
		if redisClient == nil {
			return nil, errors.New("redis client is required for the redis broker")
		}
		return NewRedisPublisher(redisClient), nil

	case config.BrokerNone, "":
		return NewNopPublisher(logger), nil

	default:
		return nil, errors.Errorf("unknown event broker %q", cfg.Broker)
	}
}

// splitBrokers accepts both list entries and comma-separated values, as a
// single env variable arrives as one element.
func splitBrokers(values []string) []string {
	var brokers []string
	for _, value := range values {
		for _, broker := range strings.Split(value, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				brokers = append(brokers, broker)
			}
		}
	}
	return brokers
}

// ------------------------------------------------------------

// KafkaPublisher writes events to a single topic keyed by appointment id,
// so all events of one appointment land on the same partition in order.
type KafkaPublisher struct {
	writer  *kafka.Writer
	brokers []string
}

func NewKafkaPublisher(brokers []string, topic string, writeTimeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			WriteTimeout:           writeTimeout,
			AllowAutoTopicCreation: true,
		},
		brokers: brokers,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafkaMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "failed to write %s to kafka", event.EventType)
	}

	return nil
}

func kafkaMessage(event Event) (kafka.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "failed to marshal event")
	}

	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.Data.AppointmentID, 10)),
		Value: body,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "routing_key", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "content_type", Value: []byte("application/json")},
		},
	}, nil
}

func (p *KafkaPublisher) Ping(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return errors.Wrap(lastErr, "no kafka broker reachable")
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) Name() string {
	return config.BrokerKafka
}

// ------------------------------------------------------------

// RedisPublisher publishes each event on the channel named by its routing key.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	if err := p.client.Publish(ctx, event.EventType, body).Err(); err != nil {
		return errors.Wrapf(err, "failed to publish %s to redis", event.EventType)
	}

	return nil
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error {
	return nil
}

func (p *RedisPublisher) Name() string {
	return config.BrokerRedis
}

// ------------------------------------------------------------

// NopPublisher only logs; used when no broker is configured.
type NopPublisher struct {
	logger *zerolog.Logger
}

func NewNopPublisher(logger *zerolog.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) Publish(_ context.Context, event Event) error {
	p.logger.Info().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Int64("appointment_id", event.Data.AppointmentID).
		Msg("event broker disabled, dropping event")
	return nil
}

func (p *NopPublisher) Ping(context.Context) error {
	return nil
}

func (p *NopPublisher) Close() error {
	return nil
}

func (p *NopPublisher) Name() string {
	return config.BrokerNone
}
