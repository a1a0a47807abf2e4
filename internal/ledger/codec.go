package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var decoders = map[Type]func([]byte) (Event, error){
	TypeVaultCreated:         decode[VaultCreated],
	TypeVaultDeposited:       decode[VaultDeposited],
	TypeVaultWithdrawn:       decode[VaultWithdrawn],
	TypeChallengeStarted:     decode[ChallengeStarted],
	TypeChallengeWeekSuccess: decode[ChallengeWeekSuccess],
	TypeChallengeFailed:      decode[ChallengeFailed],
	TypeChallengeQuit:        decode[ChallengeQuit],
	TypeDebtCreated:          decode[DebtCreated],
	TypeDebtPaymentApplied:   decode[DebtPaymentApplied],
	TypeTransferRequested:    decode[TransferRequested],
	TypeTransferSucceeded:    decode[TransferSucceeded],
	TypeTransferFailed:       decode[TransferFailed],
}

// Marshal encodes e as a flat JSON object with a leading "type" field.
func Marshal(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.Type(), err)
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	typ, _ := json.Marshal(e.Type())
	buf.Write(typ)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a record produced by Marshal. Unknown types and unknown
// fields are rejected.
func Unmarshal(data []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	rawType, ok := fields["type"]
	if !ok {
		return nil, fmt.Errorf("unmarshal event: missing type")
	}
	var typ Type
	if err := json.Unmarshal(rawType, &typ); err != nil {
		return nil, fmt.Errorf("unmarshal event type: %w", err)
	}
	dec, ok := decoders[typ]
	if !ok {
		return nil, fmt.Errorf("unmarshal event: unknown type %q", typ)
	}
	delete(fields, "type")
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", typ, err)
	}
	return dec(body)
}

func decode[T Event](body []byte) (Event, error) {
	var e T
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", e.Type(), err)
	}
	return e, nil
}

// MarshalLog encodes events as a JSON array of records.
func MarshalLog(events []Event) ([]byte, error) {
	records := make([]json.RawMessage, len(events))
	for i, e := range events {
		b, err := Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		records[i] = b
	}
	return json.Marshal(records)
}

// UnmarshalLog decodes a JSON array produced by MarshalLog.
func UnmarshalLog(data []byte) ([]Event, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal log: %w", err)
	}
	events := make([]Event, len(records))
	for i, r := range records {
		e, err := Unmarshal(r)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events[i] = e
	}
	return events, nil
}
