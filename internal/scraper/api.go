package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

type momentumPayload struct {
	Momentum []momentumJSON `json:"momentum"`
}

type momentumJSON struct {
	Set     int      `json:"set"`
	Game    int      `json:"game"`
	Value   *float64 `json:"value"`
	Break   *bool    `json:"break"`
	Zone    string   `json:"zone"`
	Favored string   `json:"favored"`
}

// UnmarshalJSON handles value fields that come as number, string or null.
func (m *momentumJSON) UnmarshalJSON(data []byte) error {
	type Alias momentumJSON
	aux := &struct {
		Value interface{} `json:"value"`
		Break interface{} `json:"break"`
		*Alias
	}{
		Alias: (*Alias)(m),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch v := aux.Value.(type) {
	case float64:
		m.Value = models.Float(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			m.Value = models.Float(f)
		}
	}
	switch v := aux.Break.(type) {
	case bool:
		m.Break = models.Bool(v)
	case float64:
		m.Break = models.Bool(v != 0)
	case string:
		m.Break = models.Bool(isTruthy(v))
	}
	return nil
}

// ParseMomentumAPI decodes a provider momentum feed. Entries without a valid
// set and game number are dropped.
func ParseMomentumAPI(data []byte) ([]models.MomentumPoint, error) {
	var payload momentumPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode momentum payload: %w", err)
	}
	out := make([]models.MomentumPoint, 0, len(payload.Momentum))
	for _, m := range payload.Momentum {
		if m.Set < 1 || m.Game < 1 {
			continue
		}
		out = append(out, models.MomentumPoint{
			SetNumber:     m.Set,
			GameNumber:    m.Game,
			Value:         m.Value,
			BreakOccurred: m.Break,
			Zone:          m.Zone,
			FavoredPlayer: m.Favored,
		})
	}
	return out, nil
}
