package document

import (
	"encoding/json"
	"fmt"

	"github.com/inamate/vecta/backend-go/internal/geom"
	"github.com/inamate/vecta/backend-go/internal/typeid"
)

// NewEntity builds a plain entity with a fresh id.
func NewEntity(points []geom.Point, style Style, closed bool, tension float64) Entity {
	return Entity{
		ID:      typeid.NewEntityID(),
		Points:  points,
		Style:   style,
		Closed:  closed,
		Tension: tension,
	}
}

// Decode parses the exchanged entity array. Compound entities have their
// parallel arrays normalized to the segment count; missing ids are assigned.
func Decode(data []byte) ([]Entity, error) {
	var entities []Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	for i := range entities {
		e := &entities[i]
		if e.ID == "" {
			e.ID = typeid.NewEntityID()
		}
		e.NormalizeSegments()
	}
	return entities, nil
}

// Encode serializes entities in the exchanged array form.
func Encode(entities []Entity) ([]byte, error) {
	if entities == nil {
		entities = []Entity{}
	}
	data, err := json.Marshal(entities)
	if err != nil {
		return nil, fmt.Errorf("encode entities: %w", err)
	}
	return data, nil
}
