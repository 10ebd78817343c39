// Package config implements a hierarchical, dotted-path configuration
// document: path lookup with `[i]` list indexing and scalar-to-group
// reference resolution. Documents are loaded from disk with
// github.com/spf13/viper (matching nabbar-golib's viper dependency), then
// walked with a lookup/resolve layer grounded on
// original_source/src/lib/types/src/conf/mod.rs's Conf::resolve_reference
// and Vec<T>::from_config.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/workanator/wrustlr/internal/apperr"
)

// Document is a loaded, in-memory configuration tree.
type Document struct {
	root map[string]interface{}
}

// Load reads and parses the file at path as YAML. The server's own
// config file is conventionally named server.conf (not server.yaml), so
// the format is fixed rather than inferred from the extension — viper
// only infers format from a recognized suffix, and ".conf" isn't one.
func Load(path string) (*Document, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, apperr.Wrap(apperr.Config, "load "+path, err)
	}
	return &Document{root: v.AllSettings()}, nil
}

// segments splits an xpath like "servers.[0].listen" into ["servers",
// "[0]", "listen"], dropping empty segments so both "a.b" and "a..[0].b"
// forms normalize the same way.
func segments(xpath string) []string {
	raw := strings.Split(xpath, ".")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// index parses a "[N]" path segment. ok is false for any other segment.
func index(seg string) (n int, ok bool) {
	if len(seg) < 3 || seg[0] != '[' || seg[len(seg)-1] != ']' {
		return 0, false
	}
	n, err := strconv.Atoi(seg[1 : len(seg)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// lookup walks xpath against the document and returns the raw value found,
// mirroring wrust_types::conf::Conf::get().lookup(xpath).
func (d *Document) lookup(xpath string) (interface{}, bool) {
	var cur interface{} = d.root
	for _, seg := range segments(xpath) {
		if i, ok := index(seg); ok {
			list, ok := cur.([]interface{})
			if !ok || i < 0 || i >= len(list) {
				return nil, false
			}
			cur = list[i]
			continue
		}

		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// asMap normalizes viper's two possible map shapes (map[string]interface{}
// from nested YAML/JSON, map[interface{}]interface{} from some decoders)
// into one.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// ResolveReference resolves a path that may itself be a pointer: a scalar
// string value at xpath is a pointer, so its value becomes the resolved
// path; a group (map) at xpath is already the target, so xpath resolves
// to itself; anything else (missing, list, number, bool) is not a valid
// reference.
func (d *Document) ResolveReference(xpath string) (string, error) {
	v, ok := d.lookup(xpath)
	if !ok {
		return "", apperr.Wrap(apperr.Config, "resolve_reference",
			fmt.Errorf("reference or group is not found at %q", xpath))
	}
	switch t := v.(type) {
	case string:
		return t, nil
	default:
		if _, ok := asMap(t); ok {
			return xpath, nil
		}
		return "", apperr.Wrap(apperr.Config, "resolve_reference",
			fmt.Errorf("reference or group is not found at %q", xpath))
	}
}

// String reads a required string leaf at xpath.
func (d *Document) String(xpath string) (string, bool) {
	v, ok := d.lookup(xpath)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int reads a required integer leaf at xpath. Decoded JSON/YAML numbers
// commonly surface as int, int64, or float64 depending on the source
// format, so all three are accepted.
func (d *Document) Int(xpath string) (int, bool) {
	v, ok := d.lookup(xpath)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Bool reads a required boolean leaf at xpath.
func (d *Document) Bool(xpath string) (bool, bool) {
	v, ok := d.lookup(xpath)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Len reports the element count of the list at xpath, mirroring the
// Value::List branch of Vec<T>::from_config.
func (d *Document) Len(xpath string) (int, bool) {
	v, ok := d.lookup(xpath)
	if !ok {
		return 0, false
	}
	l, ok := v.([]interface{})
	if !ok {
		return 0, false
	}
	return len(l), true
}

// elementPath builds the bracket-indexed child path used to address list
// elements, matching format!("{}.[{}]", xpath, i) in the original.
func elementPath(xpath string, i int) string {
	return fmt.Sprintf("%s.[%d]", xpath, i)
}
