package kafka

import (
	"sort"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	"github.com/segmentio/kafka-go"
)

// toKafkaHeaders merges envelope headers with plain string headers. Envelope
// headers win on a name clash. The result is sorted by key.
func toKafkaHeaders(envelopeHeaders envelope.Headers, extra map[string]string) []kafka.Header {
	merged := make(map[string][]byte, len(envelopeHeaders)+len(extra))
	for k, v := range extra {
		merged[k] = []byte(v)
	}
	for k, v := range envelopeHeaders {
		merged[k] = v
	}
	if len(merged) == 0 {
		return nil
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: k, Value: merged[k]})
	}
	return headers
}

// fromKafkaHeaders returns the headers as an envelope.Headers map. When a key
// repeats the last value wins.
func fromKafkaHeaders(headers []kafka.Header) envelope.Headers {
	out := make(envelope.Headers, len(headers))
	for _, h := range headers {
		out[h.Key] = h.Value
	}
	return out
}

// plainHeaders returns the headers that are not reserved envelope headers.
func plainHeaders(headers envelope.Headers, sessions Sessions) map[string]string {
	reserved := make(map[string]struct{}, 6)
	for _, s := range []*envelope.Session{sessions.Key, sessions.Value} {
		if s == nil {
			continue
		}
		keys := s.HeaderKeys()
		reserved[keys.GlobalID] = struct{}{}
		reserved[keys.ArtifactID] = struct{}{}
		reserved[keys.Version] = struct{}{}
	}

	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if _, ok := reserved[k]; ok {
			continue
		}
		out[k] = string(v)
	}
	return out
}
