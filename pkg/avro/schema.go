package avro

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"

	schemaregistry "github.com/Landoop/schema-registry"
	"github.com/linkedin/goavro/v2"
	"golang.org/x/sync/singleflight"
)

// wireHeaderLen is the magic byte plus the big endian schema id.
const wireHeaderLen = 5

// SchemaCache renders Confluent wire-format payloads. Schemas are fetched
// from the registry once per id and kept compiled.
type SchemaCache struct {
	client *schemaregistry.Client

	fetch  singleflight.Group
	codecs sync.Map // int -> *goavro.Codec
}

// NewSchemaCache returns a cache backed by the registry at url.
func NewSchemaCache(url string) (*SchemaCache, error) {
	client, err := schemaregistry.NewClient(url)
	if err != nil {
		return nil, err
	}
	return &SchemaCache{client: client}, nil
}

// codecFor returns the compiled schema registered under id. Concurrent
// lookups of the same id share one registry request; failures are not
// cached so a later call can retry.
func (c *SchemaCache) codecFor(id int) (*goavro.Codec, error) {
	if v, ok := c.codecs.Load(id); ok {
		return v.(*goavro.Codec), nil
	}

	v, err, _ := c.fetch.Do(strconv.Itoa(id), func() (any, error) {
		schema, err := c.client.GetSchemaById(id)
		if err != nil {
			return nil, fmt.Errorf("fetch schema %d: %w", id, err)
		}
		codec, err := goavro.NewCodec(schema)
		if err != nil {
			return nil, fmt.Errorf("compile schema %d: %w", id, err)
		}
		c.codecs.Store(id, codec)
		return codec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*goavro.Codec), nil
}

// Decode returns the JSON form of a wire-format payload: magic byte 0, the
// schema id as big endian uint32, then Avro binary data. Payloads without
// the header are returned unchanged.
func (c *SchemaCache) Decode(b []byte) ([]byte, error) {
	if len(b) < wireHeaderLen || b[0] != 0x00 {
		return b, nil
	}

	codec, err := c.codecFor(int(binary.BigEndian.Uint32(b[1:wireHeaderLen])))
	if err != nil {
		return nil, err
	}
	return textual(codec, b[wireHeaderLen:])
}
