package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Shopify/sarama"
	"github.com/samuel/go-zookeeper/zk"
	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/events"
)

// EventTopic is the Kafka topic access events are published to.
const EventTopic = "tracker-access-event"

// AsyncProducer is an events.Publisher implementation for Kafka queues.
type AsyncProducer struct {
	producer       sarama.AsyncProducer
	logger         *zap.Logger
	topic          string
	reconnect      atomic.Bool
	successActions []string
	failureActions []string
}

// Publish implements the events.Publisher interface. Events pass through the
// configured action filters: allowed decisions against the success list,
// denials against the failure list, with "*" matching everything.
func (ap *AsyncProducer) Publish(e events.Event) {
	if !ap.shouldPublish(e) {
		return
	}
	msg := sarama.ProducerMessage{
		Topic: ap.topic,
		Value: sarama.ByteEncoder(e.Yield()),
	}
	ap.producer.Input() <- &msg
}

func (ap *AsyncProducer) shouldPublish(e events.Event) bool {
	actions := ap.failureActions
	if e.IsSuccessful() {
		actions = ap.successActions
	}
	return stringInSlice("*", actions) || stringInSlice(e.EventAction(), actions)
}

func stringInSlice(a string, list []string) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

// Reconnect implements the events.Publisher interface.
func (ap *AsyncProducer) Reconnect() bool {
	return ap.reconnect.Load()
}

// Opt sets an option on an AsyncProducer.
type Opt func(*AsyncProducer)

// WithLogger sets a custom logger on an AsyncProducer.
func WithLogger(logger *zap.Logger) Opt {
	return func(ap *AsyncProducer) {
		if logger != nil {
			ap.logger = logger
		}
	}
}

// WithPublishActions sets the success and failure actions that should be
// published on an AsyncProducer.
func WithPublishActions(successActions []string, failureActions []string) Opt {
	return func(ap *AsyncProducer) {
		ap.successActions = successActions
		ap.failureActions = failureActions
	}
}

// WithTopic overrides the topic events are published to.
func WithTopic(topic string) Opt {
	return func(ap *AsyncProducer) {
		if topic != "" {
			ap.topic = topic
		}
	}
}

// NewAsyncProducer constructs an AsyncProducer with internal defaults and
// supplied options.
func NewAsyncProducer(brokerList []string, opts ...Opt) (*AsyncProducer, error) {
	producer, err := sarama.NewAsyncProducer(brokerList, nil)
	if err != nil {
		return nil, err
	}
	ap := AsyncProducer{producer: producer, logger: zap.NewNop(), topic: EventTopic}
	for _, opt := range opts {
		opt(&ap)
	}
	ap.start()
	return &ap, nil
}

// DiscoverKafka keeps a connection to Kafka alive. A discovered instance is
// returned early, and a setter callback is invoked with a fresh instance when
// nodes in the cluster change.
func DiscoverKafka(conn *zk.Conn, path string, setter func(*AsyncProducer), opts ...Opt) (*AsyncProducer, error) {
	brokers := buildBrokers(conn, path)
	if len(brokers) < 1 {
		return nil, errors.New("no broker data found at Kafka path")
	}

	ap, err := NewAsyncProducer(brokers, opts...)
	if err != nil {
		return nil, fmt.Errorf("broker data found, but could not establish connection to Kafka")
	}

	_, _, watch, err := conn.ChildrenW(path)
	if err != nil {
		return nil, err
	}
	l := ap.logger

	go func() {
		for e := range watch {
			l.Info("zk event watching kafka path", zap.Any("event", e))
			if e.Type == zk.EventNodeChildrenChanged {
				brokers := buildBrokers(conn, path)
				if len(brokers) < 1 {
					l.Error("no kafka brokers found at zk path", zap.String("path", path))
					continue
				}
				p, err := NewAsyncProducer(brokers, opts...)
				if err != nil {
					l.Error("error re-creating kafka connection", zap.Error(err))
					continue
				}
				l.Info("found kafka brokers", zap.Strings("brokers", brokers))
				setter(p)
			}
		}
	}()

	return ap, nil
}

// buildBrokers queries a zookeeper path and returns a string slice of
// host:port pairs suitable for the kafka library's constructor. Errors are
// ignored, because the caller can decide what to do if a zero-length list of
// brokers is returned.
func buildBrokers(conn *zk.Conn, path string) []string {
	var brokers []string
	children, _, _ := conn.Children(path)
	for _, c := range children {
		data, _, err := conn.Get(path + "/" + c)
		if err != nil {
			break
		}
		var a addr
		if err := json.Unmarshal(data, &a); err != nil {
			break
		}
		brokers = append(brokers, fmt.Sprintf("%s:%v", a.Host, a.Port))
	}
	return brokers
}

func (ap *AsyncProducer) start() {
	go func() {
		defer ap.reconnect.Store(true)
		for err := range ap.producer.Errors() {
			ap.logger.Error("kafka producer error", zap.Error(err))
			if requiresReconnect(err) {
				ap.reconnect.Store(true)
			}
		}
	}()
}

func requiresReconnect(err error) bool {
	// ProducerError wraps the original message with the actual error value;
	// only broker-level conditions warrant tearing down the connection
	var pe *sarama.ProducerError
	if !errors.As(err, &pe) {
		return false
	}
	var kerr sarama.KError
	if !errors.As(pe.Err, &kerr) {
		return false
	}
	switch kerr {
	case sarama.ErrUnknown,
		sarama.ErrClosedClient,
		sarama.ErrOffsetOutOfRange,
		sarama.ErrInvalidMessage,
		sarama.ErrUnknownTopicOrPartition,
		sarama.ErrInvalidMessageSize,
		sarama.ErrLeaderNotAvailable,
		sarama.ErrNotLeaderForPartition,
		sarama.ErrBrokerNotAvailable,
		sarama.ErrMessageSizeTooLarge,
		sarama.ErrStaleControllerEpochCode,
		sarama.ErrOffsetMetadataTooLarge,
		sarama.ErrNetworkException,
		sarama.ErrInvalidTopic,
		sarama.ErrMessageSetSizeTooLarge,
		sarama.ErrNotEnoughReplicas,
		sarama.ErrNotEnoughReplicasAfterAppend,
		sarama.ErrInvalidRequiredAcks,
		sarama.ErrInconsistentGroupProtocol,
		sarama.ErrInvalidGroupId,
		sarama.ErrUnknownMemberId,
		sarama.ErrRebalanceInProgress,
		sarama.ErrInvalidCommitOffsetSize,
		sarama.ErrTopicAuthorizationFailed,
		sarama.ErrGroupAuthorizationFailed,
		sarama.ErrClusterAuthorizationFailed,
		sarama.ErrInvalidTimestamp,
		sarama.ErrUnsupportedSASLMechanism,
		sarama.ErrIllegalSASLState,
		sarama.ErrUnsupportedVersion:
		return true
	}
	return false
}

type addr struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}
