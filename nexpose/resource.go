package nexpose

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Resource is a single API object (site, asset, tag, scan template, ...)
// Only the fields a caller reads are interpreted; everything else passes through
type Resource map[string]interface{}

// Page is the paging block attached to every list response
type Page struct {
	Number         int `json:"number"`
	Size           int `json:"size"`
	TotalResources int `json:"totalResources"`
	TotalPages     int `json:"totalPages"`
}

type pageResponse struct {
	Resources []Resource `json:"resources"`
	Page      *Page      `json:"page"`
}

// Link is a hypermedia link returned by write operations
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// Ack is the acknowledgement of a PUT or DELETE
type Ack struct {
	StatusCode int    `json:"-"`
	Links      []Link `json:"links"`
}

// ID returns the numeric "id" field, or 0 when absent or not numeric
func (r Resource) ID() int64 {
	id, _ := r.Int("id")
	return id
}

// IDString returns "id" as text. Some resources (scan templates) use string IDs
func (r Resource) IDString() string {
	return r.String("id")
}

// Name returns the "name" field
func (r Resource) Name() string {
	return r.String("name")
}

// Value walks nested objects by key
func (r Resource) Value(path ...string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(r)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String formats the value at key for display. Missing keys yield ""
func (r Resource) String(path ...string) string {
	v, ok := r.Value(path...)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case []interface{}, map[string]interface{}:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// Int returns the value at key as an integer
func (r Resource) Int(path ...string) (int64, bool) {
	v, ok := r.Value(path...)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Bool returns the value at key as a boolean; absent means false
func (r Resource) Bool(path ...string) bool {
	v, ok := r.Value(path...)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Strings returns the value at key as a list of strings
func (r Resource) Strings(path ...string) []string {
	v, ok := r.Value(path...)
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		default:
			out = append(out, fmt.Sprint(t))
		}
	}
	return out
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case Resource:
		return t, true
	}
	return nil, false
}
