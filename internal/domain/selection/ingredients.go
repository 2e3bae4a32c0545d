package selection

import (
	"encoding/json"
	"slices"
)

// IngredientSet is an immutable, insertion-ordered set of ingredient ids.
type IngredientSet struct {
	ids []int
}

func NewIngredientSet(ids ...int) IngredientSet {
	var s IngredientSet
	for _, id := range ids {
		if !s.Has(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Toggle returns a new set with id added if absent, removed if present.
func (s IngredientSet) Toggle(id int) IngredientSet {
	if i := slices.Index(s.ids, id); i >= 0 {
		return IngredientSet{ids: slices.Delete(slices.Clone(s.ids), i, i+1)}
	}
	next := make([]int, len(s.ids), len(s.ids)+1)
	copy(next, s.ids)
	return IngredientSet{ids: append(next, id)}
}

func (s IngredientSet) Has(id int) bool {
	return slices.Contains(s.ids, id)
}

func (s IngredientSet) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the ids in insertion order.
func (s IngredientSet) IDs() []int {
	return slices.Clone(s.ids)
}

func (s IngredientSet) MarshalJSON() ([]byte, error) {
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

func (s *IngredientSet) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIngredientSet(ids...)
	return nil
}
