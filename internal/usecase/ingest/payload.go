package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/simaogato/transactions-backend/internal/usecase/normalizer"
)

// ErrInvalidPayload is returned when an aggregator payload does not have the expected shape
var ErrInvalidPayload = errors.New("invalid payload")

const payloadTransactionsKey = "transactions"

// DecodePayload parses an aggregator JSON payload.
// Numbers are kept as json.Number so amounts keep their exact decimal form.
func DecodePayload(data []byte) (booked, pending []normalizer.Record, err error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return RecordsFromPayload(payload)
}

// RecordsFromPayload extracts booked and pending records from a decoded payload.
// The lists may sit under a "transactions" object or at the top level; a missing list is empty.
func RecordsFromPayload(payload map[string]any) (booked, pending []normalizer.Record, err error) {
	if payload == nil {
		return nil, nil, fmt.Errorf("%w: payload is empty", ErrInvalidPayload)
	}

	lists := payload
	if raw, present := payload[payloadTransactionsKey]; present {
		nested, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s must be an object", ErrInvalidPayload, payloadTransactionsKey)
		}
		lists = nested
	}

	booked, err = recordList(lists, StatusBooked)
	if err != nil {
		return nil, nil, err
	}
	pending, err = recordList(lists, StatusPending)
	if err != nil {
		return nil, nil, err
	}
	return booked, pending, nil
}

func recordList(lists map[string]any, key string) ([]normalizer.Record, error) {
	raw, present := lists[key]
	if !present || raw == nil {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list", ErrInvalidPayload, key)
	}

	records := make([]normalizer.Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be an object", ErrInvalidPayload, key, i)
		}
		records = append(records, normalizer.Record(obj))
	}
	return records, nil
}
