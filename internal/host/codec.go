package host

import (
	"encoding/json"
	"fmt"

	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmehdipour/teams-notify/internal/util"
)

// DecodeRecord parses the wire form {"id":..., "attributes":{...}} and
// assigns an ID when the producer did not.
func DecodeRecord(raw []byte) (*model.Record, error) {
	var rec model.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if err := model.ValidateID(rec.ID); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec.Attributes == nil {
		rec.Attributes = map[string]string{}
	}
	rec.ID = util.EnsureID(rec.ID)
	return &rec, nil
}

// EncodeRecord is the inverse of DecodeRecord; Handle is never encoded.
func EncodeRecord(rec *model.Record) ([]byte, error) {
	return json.Marshal(rec)
}
