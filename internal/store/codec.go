package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/verte-zerg/studyclock/internal/model"
)

// document is the stored shape of a daily record:
// {"study":{"seconds":N},"break":{"seconds":M}}.
type document struct {
	Study *secondsField `json:"study,omitempty"`
	Break *secondsField `json:"break,omitempty"`
}

type secondsField struct {
	Seconds float64 `json:"seconds"`
}

// decodeRecord parses a stored document. Older records hold a bare number of
// study seconds.
func decodeRecord(raw []byte) (model.DailyRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return model.DailyRecord{}, nil
	}
	if raw[0] != '{' {
		var legacy float64
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return model.DailyRecord{}, fmt.Errorf("failed to decode legacy record: %w", err)
		}
		return model.DailyRecord{StudySeconds: toSeconds(legacy)}, nil
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.DailyRecord{}, fmt.Errorf("failed to decode record: %w", err)
	}
	var rec model.DailyRecord
	if doc.Study != nil {
		rec.StudySeconds = toSeconds(doc.Study.Seconds)
	}
	if doc.Break != nil {
		rec.BreakSeconds = toSeconds(doc.Break.Seconds)
	}
	return rec, nil
}

func encodeRecord(rec model.DailyRecord) ([]byte, error) {
	doc := document{
		Study: &secondsField{Seconds: float64(clampSeconds(rec.StudySeconds))},
		Break: &secondsField{Seconds: float64(clampSeconds(rec.BreakSeconds))},
	}
	return json.Marshal(doc)
}

func toSeconds(v float64) int64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return int64(math.Round(v))
}

func clampSeconds(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
