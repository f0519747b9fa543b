package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// infinityToken is how INF travels over JSON, which has no literal for it.
const infinityToken = "Infinity"

var ErrInvalidCost = errors.New("invalid cost")

func (m Metric) MarshalJSON() ([]byte, error) {
	if m.IsInf() {
		return []byte(strconv.Quote(infinityToken)), nil
	}
	if math.IsNaN(float64(m)) || math.IsInf(float64(m), -1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCost, float64(m))
	}
	return []byte(strconv.FormatFloat(float64(m), 'g', -1, 64)), nil
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: null", ErrInvalidCost)
	}
	if len(data) > 0 && data[0] == '"' {
		var tok string
		if err := json.Unmarshal(data, &tok); err != nil {
			return err
		}
		if tok != infinityToken {
			return fmt.Errorf("%w: unexpected token %q", ErrInvalidCost, tok)
		}
		*m = INF
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCost, err)
	}
	return m.set(f)
}

func (m Metric) MarshalYAML() (any, error) {
	return float64(m), nil
}

func (m *Metric) UnmarshalYAML(unmarshal func(any) error) error {
	var f float64
	if err := unmarshal(&f); err == nil {
		return m.set(f)
	}
	var tok string
	if err := unmarshal(&tok); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCost, err)
	}
	switch strings.ToLower(strings.TrimSpace(tok)) {
	case "inf", ".inf", "+inf", "infinity":
		*m = INF
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCost, tok)
	}
	return m.set(f)
}

func (m *Metric) set(f float64) error {
	if math.IsNaN(f) || f < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCost, f)
	}
	*m = Metric(f)
	return nil
}

// EncodeUpdates serializes an advertisement for transmission.
func EncodeUpdates(updates []Update) ([]byte, error) {
	return json.Marshal(updates)
}

// wireUpdate tells an absent or null cost apart from a cost of 0.
type wireUpdate struct {
	Id   NodeId  `json:"id"`
	Cost *Metric `json:"cost"`
}

// DecodeUpdates parses a received advertisement. The whole batch fails if any record is malformed.
func DecodeUpdates(payload []byte) ([]Update, error) {
	var records []wireUpdate
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, err
	}
	updates := make([]Update, 0, len(records))
	for i, r := range records {
		if r.Id == "" {
			return nil, fmt.Errorf("update %d has no destination id", i)
		}
		if r.Cost == nil {
			return nil, fmt.Errorf("%w: update %d for %s has no cost", ErrInvalidCost, i, r.Id)
		}
		updates = append(updates, Update{Id: r.Id, Cost: *r.Cost})
	}
	return updates, nil
}
