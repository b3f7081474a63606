package sourcemap

import "encoding/json"

// V3 is the raw Source Map v3 document shape (ECMA-426). Sections-form
// index maps ("sections" field) are rejected explicitly by ParseV3 rather
// than flattened — see SPEC_FULL.md §7.
type V3 struct {
	Version        int               `json:"version"`
	Sources        []string          `json:"sources"`
	SourcesContent []*string         `json:"sourcesContent"`
	SourceRoot     string            `json:"sourceRoot"`
	Mappings       string            `json:"mappings"`
	Names          []string          `json:"names"`
	Sections       []json.RawMessage `json:"sections"`
}

// ErrIndexMapUnsupported is returned when a source map uses the "sections"
// (index map) form, which this implementation does not support.
const ErrIndexMapUnsupported = "ERR_INDEX_MAP_UNSUPPORTED"

// ParseV3 parses raw JSON into a V3 source map, rejecting index maps.
func ParseV3(data []byte) (*V3, error) {
	var m V3
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Sections) > 0 {
		return nil, indexMapError{}
	}
	return &m, nil
}

type indexMapError struct{}

func (indexMapError) Error() string {
	return ErrIndexMapUnsupported + ": index maps (sections form) are not supported"
}
