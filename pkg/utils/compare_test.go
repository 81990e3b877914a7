package utils

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func leadStreamConfig() nats.StreamConfig {
	return nats.StreamConfig{
		Name:      "lead_events_stream",
		Subjects:  []string{"v1.leads.>"},
		Retention: nats.LimitsPolicy,
		MaxMsgs:   100000,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
}

func TestStreamConfigEqual(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*nats.StreamConfig)
		expected bool
	}{
		{
			name:     "identical configs",
			mutate:   func(*nats.StreamConfig) {},
			expected: true,
		},
		{
			name:     "server-populated fields are ignored",
			mutate:   func(c *nats.StreamConfig) { c.Description = "set by server"; c.Duplicates = time.Minute },
			expected: true,
		},
		{
			name:     "different name",
			mutate:   func(c *nats.StreamConfig) { c.Name = "inquiry_events_stream" },
			expected: false,
		},
		{
			name:     "different retention",
			mutate:   func(c *nats.StreamConfig) { c.Retention = nats.WorkQueuePolicy },
			expected: false,
		},
		{
			name:     "different max age",
			mutate:   func(c *nats.StreamConfig) { c.MaxAge = time.Hour },
			expected: false,
		},
		{
			name:     "different storage",
			mutate:   func(c *nats.StreamConfig) { c.Storage = nats.MemoryStorage },
			expected: false,
		},
		{
			name:     "extra subject",
			mutate:   func(c *nats.StreamConfig) { c.Subjects = append(c.Subjects, "v1.inquiries.>") },
			expected: false,
		},
		{
			name:     "different subject",
			mutate:   func(c *nats.StreamConfig) { c.Subjects = []string{"v1.inquiries.>"} },
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := leadStreamConfig()
			b := leadStreamConfig()
			tc.mutate(&b)
			assert.Equal(t, tc.expected, StreamConfigEqual(a, b))
		})
	}
}

func TestConsumerConfigEqual(t *testing.T) {
	base := nats.ConsumerConfig{
		Durable:       "crm_leadfeed_consumer",
		AckPolicy:     nats.AckExplicitPolicy,
		FilterSubject: "v1.leads.>",
		MaxDeliver:    5,
	}

	tests := []struct {
		name     string
		mutate   func(*nats.ConsumerConfig)
		expected bool
	}{
		{
			name:     "identical configs",
			mutate:   func(*nats.ConsumerConfig) {},
			expected: true,
		},
		{
			name:     "ack wait is ignored",
			mutate:   func(c *nats.ConsumerConfig) { c.AckWait = 30 * time.Second },
			expected: true,
		},
		{
			name:     "different durable name",
			mutate:   func(c *nats.ConsumerConfig) { c.Durable = "crm_inquiry_consumer" },
			expected: false,
		},
		{
			name:     "different ack policy",
			mutate:   func(c *nats.ConsumerConfig) { c.AckPolicy = nats.AckAllPolicy },
			expected: false,
		},
		{
			name:     "different filter subject",
			mutate:   func(c *nats.ConsumerConfig) { c.FilterSubject = "v1.leads.update" },
			expected: false,
		},
		{
			name:     "different max deliver",
			mutate:   func(c *nats.ConsumerConfig) { c.MaxDeliver = 3 },
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := base
			tc.mutate(&b)
			assert.Equal(t, tc.expected, ConsumerConfigEqual(base, b))
		})
	}
}
