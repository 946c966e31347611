package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"fimfiction/lib/formatted"
)

// DateLayout is the layout dates are serialized with.
const DateLayout = time.RFC3339Nano

// Serialize converts a record into a JSON compatible tree keyed by key id.
// Only keys that are set are written, empty optionals become null.
func Serialize(r *Record) (map[string]any, error) {
	if r == nil {
		return nil, fmt.Errorf("serialize: nil record")
	}
	tree := make(map[string]any, len(r.schema.keys))
	for _, k := range r.SetKeys() {
		v, err := encodeValue(k.kind, r.value(k))
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", k, err)
		}
		tree[k.id] = v
	}
	return tree, nil
}

func (r *Record) MarshalJSON() ([]byte, error) {
	tree, err := Serialize(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

func encodeFormatted(t formatted.Text) map[string]any {
	markers := make([]any, 0, len(t.Markers()))
	for _, m := range t.Markers() {
		markers = append(markers, map[string]any{
			"at":    m.Offset,
			"tag":   m.Style.Tag(),
			"start": m.Start,
		})
	}
	return map[string]any{
		"text":    t.String(),
		"markers": markers,
	}
}

func encodeValue(kind Kind, value any) (any, error) {
	switch kind.tag {
	case TagNumber, TagText, TagBoolean:
		return value, nil
	case TagFormatted:
		return encodeFormatted(value.(formatted.Text)), nil
	case TagURL:
		return value.(*url.URL).String(), nil
	case TagDate:
		return value.(time.Time).Format(DateLayout), nil
	case TagRecord:
		return Serialize(value.(*Record))
	case TagEnum:
		return value.(Identifiable).ID(), nil
	case TagOptional:
		inner, present := value.(Optional).Get()
		if !present {
			return nil, nil
		}
		return encodeValue(*kind.elem, inner)
	case TagList, TagSet:
		items, _ := sliceItems(value)
		out := make([]any, 0, len(items))
		for _, item := range items {
			v, err := encodeValue(*kind.elem, item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
}

// Marshal serializes a record straight to JSON.
func Marshal(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

// Codec reads serialized records back, it needs an EnumResolver to turn
// enum ids into constants.
type Codec struct {
	Enums EnumResolver
}

// errSkip marks values that are dropped instead of failing the whole
// record, this is the case for enum ids the resolver doesn't know.
var errSkip = errors.New("skip value")

// Deserialize builds a mutable record of schema from a tree produced by
// Serialize or decoded from JSON. Unknown fields are ignored.
func (c Codec) Deserialize(tree map[string]any, schema *Schema) (*Record, error) {
	r := schema.New()
	for id, raw := range tree {
		k, ok := schema.KeyByID(id)
		if !ok {
			continue
		}
		v, err := c.decodeValue(k.kind, raw)
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("deserialize %s: %w", k, err)
		}
		err = r.Set(k, v)
		if err != nil {
			return nil, fmt.Errorf("deserialize %s: %w", k, err)
		}
	}
	return r, nil
}

// Unmarshal reads a JSON object into a record of schema.
func (c Codec) Unmarshal(data []byte, schema *Schema) (*Record, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var tree map[string]any
	err := decoder.Decode(&tree)
	if err != nil {
		return nil, fmt.Errorf("deserialize %s: %w", schema.name, err)
	}
	return c.Deserialize(tree, schema)
}

func mismatch(kind Kind, raw any) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrInvalidValue, kind, raw)
}

func decodeFormatted(raw any) (formatted.Text, error) {
	switch v := raw.(type) {
	case string:
		return formatted.ParseHTML(v)
	case map[string]any:
		text, _ := v["text"].(string)
		rawMarkers, _ := v["markers"].([]any)
		markers := make([]formatted.Marker, 0, len(rawMarkers))
		for _, rm := range rawMarkers {
			m, ok := rm.(map[string]any)
			if !ok {
				return formatted.Text{}, fmt.Errorf("marker is %T", rm)
			}
			tag, _ := m["tag"].(string)
			style, ok := formatted.ParseTag(tag)
			if !ok {
				return formatted.Text{}, fmt.Errorf("unknown style tag %q", tag)
			}
			at, ok := toNumber(m["at"])
			if !ok {
				return formatted.Text{}, fmt.Errorf("marker offset is %T", m["at"])
			}
			start, _ := m["start"].(bool)
			markers = append(markers, formatted.Marker{
				Style:  style,
				Offset: int(numberAsFloat(at)),
				Start:  start,
			})
		}
		return formatted.NewText(text, markers)
	}
	return formatted.Text{}, mismatch(Formatted, raw)
}

func (c Codec) decodeEnum(kind Kind, raw any) (any, error) {
	id, ok := raw.(string)
	if !ok {
		return nil, mismatch(kind, raw)
	}
	if c.Enums == nil {
		return nil, fmt.Errorf("no enum resolver for %s", kind)
	}
	v, ok := c.Enums.ForID(kind.enum, id)
	if !ok {
		return nil, errSkip
	}
	return v, nil
}

func (c Codec) decodeCollection(kind Kind, raw any) ([]any, error) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		// {"Romance": true, "Comedy": false} selects by flag, in name order.
		names := make([]string, 0, len(v))
		for name, selected := range v {
			if b, _ := selected.(bool); b {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			items = append(items, name)
		}
	default:
		return nil, mismatch(kind, raw)
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := c.decodeValue(*kind.elem, item)
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c Codec) decodeValue(kind Kind, raw any) (any, error) {
	switch kind.tag {
	case TagNumber:
		v, ok := toNumber(raw)
		if !ok {
			return nil, mismatch(kind, raw)
		}
		return v, nil
	case TagText:
		v, ok := raw.(string)
		if !ok {
			return nil, mismatch(kind, raw)
		}
		return v, nil
	case TagBoolean:
		v, ok := raw.(bool)
		if !ok {
			return nil, mismatch(kind, raw)
		}
		return v, nil
	case TagFormatted:
		return decodeFormatted(raw)
	case TagURL:
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch(kind, raw)
		}
		return url.Parse(s)
	case TagDate:
		switch v := raw.(type) {
		case string:
			return time.Parse(DateLayout, v)
		default:
			n, ok := toNumber(raw)
			if !ok {
				return nil, mismatch(kind, raw)
			}
			return time.Unix(int64(numberAsFloat(n)), 0).UTC(), nil
		}
	case TagRecord:
		tree, ok := raw.(map[string]any)
		if !ok {
			return nil, mismatch(kind, raw)
		}
		return c.Deserialize(tree, kind.schema)
	case TagEnum:
		return c.decodeEnum(kind, raw)
	case TagOptional:
		if raw == nil {
			return None(), nil
		}
		v, err := c.decodeValue(*kind.elem, raw)
		if err != nil {
			return nil, err
		}
		return Some(v), nil
	case TagList:
		items, err := c.decodeCollection(kind, raw)
		return List(items), err
	case TagSet:
		items, err := c.decodeCollection(kind, raw)
		return Set(items), err
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
}
