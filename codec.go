package bond

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec turns a raw payload into a value. Sources use JSONCodec unless told
// otherwise.
type Codec interface {
	Unmarshal(data []byte, v any) error
	// ContentType names the format in log and error messages.
	ContentType() string
}

// JSONCodec decodes JSON.
type JSONCodec struct{}

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONCodec) ContentType() string                { return "application/json" }

// YAMLCodec decodes YAML. Since YAML is a superset of JSON it also accepts
// JSON payloads.
type YAMLCodec struct{}

func (YAMLCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }
func (YAMLCodec) ContentType() string                { return "application/x-yaml" }

var (
	_ Codec = JSONCodec{}
	_ Codec = YAMLCodec{}
)

var codecsByExt = map[string]Codec{
	".json": JSONCodec{},
	".yaml": YAMLCodec{},
	".yml":  YAMLCodec{},
}

// CodecFor picks a codec from the extension of path, ignoring case. It
// reports false for extensions it does not know.
func CodecFor(path string) (Codec, bool) {
	c, ok := codecsByExt[strings.ToLower(filepath.Ext(path))]
	return c, ok
}
