package model

import (
	"strings"
	"time"
)

// EventType represents different types of events on the NATS streams.
type EventType string

// Event type constants (with versioning).
const (
	// Lead changefeed events
	V1LeadsInsert EventType = "v1.leads.insert"
	V1LeadsUpdate EventType = "v1.leads.update"
	V1LeadsDelete EventType = "v1.leads.delete"

	// Inquiry intake events
	V1InquiryProperty EventType = "v1.inquiries.property"
	V1InquiryUser     EventType = "v1.inquiries.user"
	V1InquiryResearch EventType = "v1.inquiries.research"
	V1InquirySaved    EventType = "v1.inquiries.saved"
)

// MapToBaseEventType attempts to map an input subject (potentially carrying an
// extra trailing identifier) back to a known base EventType constant.
// It returns the mapped EventType and true, or "" and false when no mapping
// is found.
func MapToBaseEventType(input string) (EventType, bool) {
	switch EventType(input) {
	case V1LeadsInsert, V1LeadsUpdate, V1LeadsDelete,
		V1InquiryProperty, V1InquiryUser, V1InquiryResearch, V1InquirySaved:
		return EventType(input), true
	}

	// Strip the last component after the final dot and retry.
	lastDotIndex := strings.LastIndex(input, ".")
	if lastDotIndex <= 0 {
		return "", false
	}

	base := input[:lastDotIndex]
	switch EventType(base) {
	case V1LeadsInsert, V1LeadsUpdate, V1LeadsDelete,
		V1InquiryProperty, V1InquiryUser, V1InquiryResearch, V1InquirySaved:
		return EventType(base), true
	default:
		return "", false
	}
}

// GetVersion extracts the version from an event type.
// Returns the version string (e.g., "v1") or an empty string if no version specified.
func (e EventType) GetVersion() string {
	parts := strings.SplitN(string(e), ".", 2)
	if len(parts) < 2 {
		return ""
	}
	if len(parts[0]) >= 2 && parts[0][0] == 'v' {
		return parts[0]
	}
	return ""
}

// GetBaseType returns the event type without the version prefix.
// For example: "v1.leads.update" -> "leads.update"
func (e EventType) GetBaseType() EventType {
	version := e.GetVersion()
	if version == "" {
		return e
	}
	return EventType(strings.TrimPrefix(string(e), version+"."))
}

// WithVersion returns a new EventType with the specified version.
func (e EventType) WithVersion(version string) EventType {
	baseType := e.GetBaseType()
	return EventType(version + "." + string(baseType))
}

// MessageMetadata carries NATS delivery metadata alongside a consumed message.
type MessageMetadata struct {
	ConsumerSequence uint64
	StreamSequence   uint64
	NumDelivered     uint64
	NumPending       uint64
	Timestamp        time.Time
	Stream           string
	Consumer         string
	MessageID        string
	MessageSubject   string
}

// ToLastMetadata converts MessageMetadata to LastMetadata
func (e MessageMetadata) ToLastMetadata() *LastMetadata {
	return &LastMetadata{
		ConsumerSequence: int64(e.ConsumerSequence),
		StreamSequence:   int64(e.StreamSequence),
		Stream:           e.Stream,
		Consumer:         e.Consumer,
		MessageID:        e.MessageID,
		MessageSubject:   e.MessageSubject,
	}
}

// LastMetadata is the persisted trace of the last message that touched a row.
type LastMetadata struct {
	ConsumerSequence int64  `json:"consumer_sequence"`
	StreamSequence   int64  `json:"stream_sequence"`
	Stream           string `json:"stream"`
	Consumer         string `json:"consumer"`
	MessageID        string `json:"message_id"`
	MessageSubject   string `json:"message_subject"`
}
