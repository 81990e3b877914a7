package utils

import (
	"github.com/nats-io/nats.go"
)

// StreamConfigEqual reports whether two stream configs agree on the fields the
// changefeed setup cares about. Server-populated fields are ignored so a
// freshly built config can be compared against one read back from JetStream.
func StreamConfigEqual(a, b nats.StreamConfig) bool {
	if a.Name != b.Name ||
		a.Retention != b.Retention ||
		a.MaxMsgs != b.MaxMsgs ||
		a.MaxAge != b.MaxAge ||
		a.Storage != b.Storage {
		return false
	}
	return subjectsEqual(a.Subjects, b.Subjects)
}

// ConsumerConfigEqual reports whether two consumer configs agree on the fields
// the changefeed setup cares about.
func ConsumerConfigEqual(a, b nats.ConsumerConfig) bool {
	return a.Durable == b.Durable &&
		a.AckPolicy == b.AckPolicy &&
		a.FilterSubject == b.FilterSubject &&
		a.MaxDeliver == b.MaxDeliver
}

func subjectsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
