package model

import (
	"encoding/json"
	"strings"
)

// stateWire has State's fields without its methods.
type stateWire State

var knownStateFields = []string{
	"tick", "seed", "company", "hidden", "events",
	"ending", "bankruptTicks", "delisted", "catastrophicFailure", "headcountAtLastTick",
}

func isKnownStateField(k string) bool {
	for _, f := range knownStateFields {
		// encoding/json matches field names case-insensitively.
		if strings.EqualFold(f, k) {
			return true
		}
	}
	return false
}

// MarshalJSON writes nil slices as empty arrays and merges Extra back in.
// Extra never overrides a known field.
func (s State) MarshalJSON() ([]byte, error) {
	w := stateWire(s)
	if w.Events == nil {
		w.Events = []GameEvent{}
	}
	if w.Company.Agents == nil {
		w.Company.Agents = []Agent{}
	}
	b, err := json.Marshal(w)
	if err != nil || len(s.Extra) == 0 {
		return b, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for k, v := range s.Extra {
		if isKnownStateField(k) {
			continue
		}
		fields[k] = v
	}
	return json.Marshal(fields)
}

func (s *State) UnmarshalJSON(b []byte) error {
	var w stateWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	w.Extra = nil
	for k, v := range fields {
		if isKnownStateField(k) {
			continue
		}
		if w.Extra == nil {
			w.Extra = make(map[string]json.RawMessage)
		}
		w.Extra[k] = v
	}
	*s = State(w)
	return nil
}
