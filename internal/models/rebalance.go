package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Action is a rebalancing decision.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// RebalanceRecommendation is one derived buy/sell/hold suggestion. Not persisted.
type RebalanceRecommendation struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	CurrentWeight float64 `json:"currentWeight"`
	TargetWeight  float64 `json:"targetWeight"`
	Amount        float64 `json:"amount"`
	Action        Action  `json:"action"`
	Reason        string  `json:"reason"`
	// Matched is false when an optimizer symbol did not resolve to a stored position.
	Matched bool `json:"matched"`
}

// RebalanceAction is a confirmed action submitted for application.
type RebalanceAction struct {
	Symbol   string  `json:"symbol"`
	Action   Action  `json:"action"`
	Amount   float64 `json:"amount"`
	AvgPrice float64 `json:"avgPrice"`
}

// ApplyResult reports the outcome of applying confirmed actions.
type ApplyResult struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Version int `json:"version"`
}

// SymbolWeight is one optimizer output entry (weight in percent).
type SymbolWeight struct {
	Symbol string
	Weight float64
}

// TargetWeights is the optimizer's symbol -> weight mapping, kept in the
// order the service returned it.
type TargetWeights []SymbolWeight

// UnmarshalJSON decodes a JSON object while preserving key order.
func (tw *TargetWeights) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*tw = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("weights: expected object, got %v", tok)
	}

	out := TargetWeights{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("weights: expected string key, got %v", keyTok)
		}
		var w float64
		if err := dec.Decode(&w); err != nil {
			return fmt.Errorf("weights[%s]: %w", key, err)
		}
		out = append(out, SymbolWeight{Symbol: key, Weight: w})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*tw = out
	return nil
}

// MarshalJSON encodes the weights as an object in stored order.
func (tw TargetWeights) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sw := range tw {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(sw.Symbol)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(sw.Weight)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
