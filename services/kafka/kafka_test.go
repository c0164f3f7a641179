package kafka

import (
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"go.uber.org/zap"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/events"
)

func allowEvent(action string) events.AccessEvent {
	return events.AccessEvent{Action: action, Allowed: true}
}

func denyEvent(action string) events.AccessEvent {
	return events.AccessEvent{Action: action, Allowed: false}
}

func TestShouldPublishFilters(t *testing.T) {
	cases := []struct {
		name    string
		success []string
		failure []string
		event   events.Event
		want    bool
	}{
		{"wildcard success", []string{"*"}, nil, allowEvent("create_share"), true},
		{"named success", []string{"create_share"}, nil, allowEvent("create_share"), true},
		{"unlisted success", []string{"create_share"}, nil, allowEvent("read_entry"), false},
		{"denial against failure list", []string{"*"}, []string{"delete_entry"}, denyEvent("delete_entry"), true},
		{"denial not in failure list", []string{"*"}, []string{"delete_entry"}, denyEvent("read_entry"), false},
		{"wildcard failure", nil, []string{"*"}, denyEvent("anything"), true},
		{"nothing configured", nil, nil, allowEvent("read_entry"), false},
	}
	for _, c := range cases {
		ap := &AsyncProducer{successActions: c.success, failureActions: c.failure, logger: zap.NewNop()}
		if got := ap.shouldPublish(c.event); got != c.want {
			t.Errorf("%s: shouldPublish = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestPublishSendsFilteredEvents(t *testing.T) {
	config := mocks.NewTestConfig()
	config.Producer.Return.Successes = true
	mock := mocks.NewAsyncProducer(t, config)
	mock.ExpectInputAndSucceed()

	ap := &AsyncProducer{
		producer:       mock,
		logger:         zap.NewNop(),
		topic:          EventTopic,
		successActions: []string{"*"},
	}
	ap.start()

	ap.Publish(allowEvent("create_share"))
	// filtered out entirely, so the mock expects exactly one input
	ap.Publish(events.AccessEvent{Action: "read_entry", Allowed: false})

	if err := mock.Close(); err != nil {
		t.Errorf("unmet producer expectations: %v", err)
	}
}

func TestRequiresReconnect(t *testing.T) {
	leader := &sarama.ProducerError{Err: sarama.ErrLeaderNotAvailable}
	if !requiresReconnect(leader) {
		t.Error("leader loss should require reconnect")
	}
	timeout := &sarama.ProducerError{Err: sarama.ErrRequestTimedOut}
	if requiresReconnect(timeout) {
		t.Error("a timed out request should not require reconnect")
	}
	if requiresReconnect(sarama.ErrOutOfBrokers) {
		t.Error("non-producer errors should not require reconnect")
	}
}
