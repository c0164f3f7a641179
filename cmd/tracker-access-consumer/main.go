// Command tracker-access-consumer tails the access event stream. It is an
// operational tool for watching decisions as they happen and for verifying
// that a deployment publishes what compliance reporting expects.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/Shopify/sarama"
	"github.com/tidwall/gjson"
)

var (
	brokers    = flag.String("brokers", "localhost:9092", "comma separated kafka brokers")
	topic      = flag.String("topic", "tracker-access-event", "topic to consume")
	fromOldest = flag.Bool("from-oldest", false, "start from the oldest retained offset instead of new messages")
	deniedOnly = flag.Bool("denied-only", false, "only print denied decisions")
)

func main() {
	flag.Parse()

	consumer, err := sarama.NewConsumer(strings.Split(*brokers, ","), nil)
	if err != nil {
		log.Fatalf("could not connect to kafka: %v", err)
	}
	defer consumer.Close()

	partitions, err := consumer.Partitions(*topic)
	if err != nil {
		log.Fatalf("could not read partitions for %s: %v", *topic, err)
	}

	offset := sarama.OffsetNewest
	if *fromOldest {
		offset = sarama.OffsetOldest
	}

	var seen, denied atomic.Int64
	var wg sync.WaitGroup
	quit := make(chan struct{})

	for _, partition := range partitions {
		pc, err := consumer.ConsumePartition(*topic, partition, offset)
		if err != nil {
			log.Fatalf("could not consume partition %d: %v", partition, err)
		}
		wg.Add(1)
		go func(pc sarama.PartitionConsumer) {
			defer wg.Done()
			defer pc.Close()
			for {
				select {
				case msg, ok := <-pc.Messages():
					if !ok {
						return
					}
					seen.Add(1)
					line, allowed := formatEvent(msg.Value)
					if !allowed {
						denied.Add(1)
					}
					if *deniedOnly && allowed {
						continue
					}
					log.Println(line)
				case <-quit:
					return
				}
			}
		}(pc)
	}

	fmt.Printf("Consuming %s across %d partitions.\n", *topic, len(partitions))

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	close(quit)
	wg.Wait()
	fmt.Printf("Saw %d events, %d denied.\n", seen.Load(), denied.Load())
}

// formatEvent renders one stream event as a single line, reporting whether
// the decision it carries was allowed.
func formatEvent(raw []byte) (string, bool) {
	allowed := gjson.GetBytes(raw, "allowed").Bool()
	verdict := "ALLOW"
	if !allowed {
		verdict = "DENY"
		if reason := gjson.GetBytes(raw, "reason").String(); reason != "" {
			verdict += " " + reason
		}
	}
	line := fmt.Sprintf("%s %s principal=%s family=%s session=%s",
		verdict,
		gjson.GetBytes(raw, "action").String(),
		gjson.GetBytes(raw, "principal_id").String(),
		gjson.GetBytes(raw, "family_id").String(),
		gjson.GetBytes(raw, "session_id").String(),
	)
	return line, allowed
}
