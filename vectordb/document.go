package vectordb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentic-platform/ragcore/schema"
	"github.com/viant/bintly"
)

// Document aliases schema.Document to attach the snapshot binary codec
// used by the in-memory store.
type Document schema.Document

// EncodeBinary writes the document to a binary stream. Metadata values
// are grouped by type: integers fold into the int group, bools and the
// scalar kinds keep their width, and any other JSON-marshalable value
// round-trips through a JSON group so the codec accepts the same
// metadata the sqlite store does.
func (d *Document) EncodeBinary(stream *bintly.Writer) error {
	stream.String(d.PageContent)
	intKeys := make([]string, 0, len(d.Metadata))
	float32Keys := make([]string, 0, len(d.Metadata))
	float64Keys := make([]string, 0, len(d.Metadata))
	stringKeys := make([]string, 0, len(d.Metadata))
	boolKeys := make([]string, 0, len(d.Metadata))
	timeKeys := make([]string, 0, len(d.Metadata))
	jsonKeys := make([]string, 0, len(d.Metadata))
	jsonValues := make(map[string]string, len(d.Metadata))
	for k, v := range d.Metadata {
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
			intKeys = append(intKeys, k)
		case float32:
			float32Keys = append(float32Keys, k)
		case float64:
			float64Keys = append(float64Keys, k)
		case string:
			stringKeys = append(stringKeys, k)
		case bool:
			boolKeys = append(boolKeys, k)
		case time.Time:
			timeKeys = append(timeKeys, k)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("metadata %q: %w", k, err)
			}
			jsonKeys = append(jsonKeys, k)
			jsonValues[k] = string(data)
		}
	}

	stream.Int16(int16(len(intKeys)))
	for _, k := range intKeys {
		stream.String(k)
		stream.Int(asInt(d.Metadata[k]))
	}

	stream.Int16(int16(len(float32Keys)))
	for _, k := range float32Keys {
		stream.String(k)
		stream.Float32(d.Metadata[k].(float32))
	}

	stream.Int16(int16(len(float64Keys)))
	for _, k := range float64Keys {
		stream.String(k)
		stream.Float64(d.Metadata[k].(float64))
	}

	stream.Int16(int16(len(stringKeys)))
	for _, k := range stringKeys {
		stream.String(k)
		stream.String(d.Metadata[k].(string))
	}

	stream.Int16(int16(len(boolKeys)))
	for _, k := range boolKeys {
		stream.String(k)
		stream.Bool(d.Metadata[k].(bool))
	}

	stream.Int16(int16(len(timeKeys)))
	for _, k := range timeKeys {
		stream.String(k)
		stream.Time(d.Metadata[k].(time.Time))
	}

	stream.Int16(int16(len(jsonKeys)))
	for _, k := range jsonKeys {
		stream.String(k)
		stream.String(jsonValues[k])
	}
	return nil
}

// DecodeBinary restores a document written by EncodeBinary. Integer
// metadata comes back as int; JSON-group values come back with JSON
// types (maps, slices, float64 numbers).
func (d *Document) DecodeBinary(stream *bintly.Reader) error {
	stream.String(&d.PageContent)

	var size int16
	stream.Int16(&size)
	d.Metadata = make(map[string]interface{})
	for i := 0; i < int(size); i++ {
		var key string
		stream.String(&key)
		var value int
		stream.Int(&value)
		d.Metadata[key] = value
	}

	stream.Int16(&size)
	for i := 0; i < int(size); i++ {
		var key string
		stream.String(&key)
		var value float32
		stream.Float32(&value)
		d.Metadata[key] = value
	}

	stream.Int16(&size)
	for i := 0; i < int(size); i++ {
		var key string
		stream.String(&key)
		var value float64
		stream.Float64(&value)
		d.Metadata[key] = value
	}

	stream.Int16(&size)
	for i := 0; i < int(size); i++ {
		var key string
		stream.String(&key)
		var value string
		stream.String(&value)
		d.Metadata[key] = value
	}

	stream.Int16(&size)
	for i := 0; i < int(size); i++ {
		var key string
		stream.String(&key)
		var value bool
		stream.Bool(&value)
		d.Metadata[key] = value
	}

	stream.Int16(&size)
	for i := 0; i < int(size); i++ {
		var key string
		stream.String(&key)
		var value time.Time
		stream.Time(&value)
		d.Metadata[key] = value
	}

	stream.Int16(&size)
	for i := 0; i < int(size); i++ {
		var key string
		stream.String(&key)
		var raw string
		stream.String(&raw)
		var value interface{}
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return fmt.Errorf("metadata %q: %w", key, err)
		}
		d.Metadata[key] = value
	}
	return nil
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	}
	return 0
}
