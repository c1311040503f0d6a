package resources

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Extra holds the JSON members of a record that are not declared by its type,
// so the records returned by the AWS APIs are persisted unchanged.
type Extra map[string]json.RawMessage

var (
	knownNames   = map[reflect.Type]map[string]bool{}
	knownNamesMu sync.Mutex
)

// declaredNames returns the JSON names of the fields of the struct type.
func declaredNames(t reflect.Type) map[string]bool {
	knownNamesMu.Lock()
	defer knownNamesMu.Unlock()

	if names, ok := knownNames[t]; ok {
		return names
	}
	names := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names[name] = true
	}
	knownNames[t] = names
	return names
}

// unmarshalRecord decodes data into v, a pointer to a struct without
// custom unmarshaling, and returns the undeclared members.
func unmarshalRecord(data []byte, v any) (Extra, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	names := declaredNames(reflect.TypeOf(v).Elem())
	var extra Extra
	for k, raw := range all {
		// encoding/json matches the names case-insensitively
		if names[k] || matchesFold(names, k) {
			continue
		}
		if extra == nil {
			extra = Extra{}
		}
		extra[k] = raw
	}
	return extra, nil
}

func matchesFold(names map[string]bool, key string) bool {
	for n := range names {
		if strings.EqualFold(n, key) {
			return true
		}
	}
	return false
}

// marshalRecord encodes v, a struct without custom marshaling,
// with the extra members added back.
func marshalRecord(v any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err = json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := all[k]; !ok {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}

func (e Extra) clone() Extra {
	if e == nil {
		return nil
	}
	c := make(Extra, len(e))
	for k, v := range e {
		c[k] = append(json.RawMessage(nil), v...)
	}
	return c
}
