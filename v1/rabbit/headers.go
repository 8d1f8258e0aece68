package rabbit

import (
	"fmt"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	amqp "github.com/rabbitmq/amqp091-go"
)

// toTable merges envelope headers with plain headers into an AMQP table.
// Envelope headers are sent as byte arrays and win on a name clash.
func toTable(envelopeHeaders envelope.Headers, extra map[string]interface{}) amqp.Table {
	if len(envelopeHeaders) == 0 && len(extra) == 0 {
		return nil
	}
	table := make(amqp.Table, len(envelopeHeaders)+len(extra))
	for k, v := range extra {
		table[k] = v
	}
	for k, v := range envelopeHeaders {
		table[k] = v
	}
	return table
}

// fromTable splits an AMQP table into the envelope headers named by keys and
// the remaining plain headers. Envelope headers may arrive as byte arrays or
// as long strings depending on the producing client.
func fromTable(table amqp.Table, keys envelope.HeaderKeys) (envelope.Headers, map[string]interface{}, error) {
	headers := envelope.Headers{}
	plain := make(map[string]interface{}, len(table))
	for k, v := range table {
		switch k {
		case keys.GlobalID, keys.ArtifactID, keys.Version:
			b, err := headerBytes(v)
			if err != nil {
				return nil, nil, fmt.Errorf("header %s: %w", k, err)
			}
			headers[k] = b
		default:
			plain[k] = v
		}
	}
	return headers, plain, nil
}

func headerBytes(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("%w: unexpected header type %T", envelope.ErrMalformedEnvelope, v)
	}
}

// carrier returns the string valued headers for trace propagation.
func carrier(headers map[string]interface{}) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
