package loader

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	fileConfig "github.com/olebedev/config"
	"gopkg.in/yaml.v3"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/internal/hydrate"
	"github.com/goliatone/go-params/layering"
)

// Decode parses data in the given format. source labels errors and the
// resulting document.
func Decode(format Format, source string, data []byte) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch format {
	case FormatXML:
		doc, err = decodeXML(data)
	case FormatYAML:
		var payload map[string]any
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("loader: parse %s: %w", source, err)
		}
		doc, err = hydrateDocument(format, source, payload)
	case FormatTOML:
		var payload map[string]any
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
			return nil, fmt.Errorf("loader: parse %s: %w", source, err)
		}
		doc, err = hydrateDocument(format, source, payload)
	case FormatJSON:
		cfg, err := fileConfig.ParseJson(string(data))
		if err != nil {
			return nil, fmt.Errorf("loader: parse %s: %w", source, err)
		}
		payload, ok := cfg.Root.(map[string]any)
		if cfg.Root != nil && !ok {
			return nil, fmt.Errorf("loader: parse %s: top level must be an object", source)
		}
		doc, err = hydrateDocument(format, source, payload)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("loader: decode %s: %w", source, err)
	}
	doc.Source = source
	if doc.Params == nil {
		doc.Params = map[string][]string{}
	}
	if doc.Defaults == nil {
		doc.Defaults = map[string]string{}
	}
	return doc, nil
}

type xmlDocument struct {
	XMLName  xml.Name   `xml:"config"`
	Params   []xmlEntry `xml:"param"`
	Defaults []xmlEntry `xml:"default"`
	Rules    []xmlRule  `xml:"rule"`
}

type xmlEntry struct {
	Name   string   `xml:"name"`
	Values []string `xml:"value"`
}

type xmlRule struct {
	Name   string `xml:"name,attr"`
	Prefix string `xml:"prefix,attr"`
	Expr   string `xml:",chardata"`
}

func decodeXML(data []byte) (*Document, error) {
	var raw xmlDocument
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	doc := &Document{
		Params:   make(map[string][]string, len(raw.Params)),
		Defaults: make(map[string]string, len(raw.Defaults)),
	}
	for _, entry := range raw.Params {
		name := strings.TrimSpace(entry.Name)
		if len(entry.Values) > 1 {
			return nil, fmt.Errorf("%w: %q has %d", ErrMultipleValues, name, len(entry.Values))
		}
		doc.Params[name] = entry.Values
	}
	for _, entry := range raw.Defaults {
		name := strings.TrimSpace(entry.Name)
		if len(entry.Values) > 1 {
			return nil, fmt.Errorf("%w: default %q has %d", ErrMultipleValues, name, len(entry.Values))
		}
		value := ""
		if len(entry.Values) == 1 {
			value = entry.Values[0]
		}
		doc.Defaults[name] = value
	}
	for _, rule := range raw.Rules {
		doc.Rules = append(doc.Rules, params.Rule{
			Name:   rule.Name,
			Prefix: rule.Prefix,
			Expr:   strings.TrimSpace(rule.Expr),
		})
	}
	return doc, nil
}

var documentDecoder = hydrate.NewDecoder(
	hydrate.WithPreHook[Document](normalizePayload),
	hydrate.WithDisallowUnknownFields[Document](),
)

func hydrateDocument(format Format, source string, payload map[string]any) (*Document, error) {
	doc, err := documentDecoder.Decode(hydrate.Context{Source: source, Format: string(format)}, payload)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// normalizePayload flattens nested params and defaults into dotted names and
// turns every scalar into its text form, so the payload matches Document.
func normalizePayload(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		switch key {
		case "params":
			flat := map[string]any{}
			if err := flatten(flat, "", value, true); err != nil {
				return nil, fmt.Errorf("params: %w", err)
			}
			out[key] = flat
		case "defaults":
			flat := map[string]any{}
			if err := flatten(flat, "", value, false); err != nil {
				return nil, fmt.Errorf("defaults: %w", err)
			}
			out[key] = flat
		default:
			out[key] = value
		}
	}
	return out, nil
}

func flatten(out map[string]any, prefix string, value any, lists bool) error {
	if value == nil && prefix == "" {
		return nil
	}
	if nested, ok := value.(map[string]any); ok {
		for _, key := range slices.Sorted(maps.Keys(nested)) {
			if err := flatten(out, layering.Qualify(prefix, key), nested[key], lists); err != nil {
				return err
			}
		}
		return nil
	}
	if prefix == "" {
		return fmt.Errorf("%w: expected a table of names", ErrInvalidValue)
	}
	if items, ok := value.([]any); ok {
		if !lists {
			return fmt.Errorf("%w: %q must hold a single value", ErrInvalidValue, prefix)
		}
		values := make([]string, 0, len(items))
		for _, item := range items {
			text, err := scalarText(item)
			if err != nil {
				return fmt.Errorf("%q: %w", prefix, err)
			}
			values = append(values, text)
		}
		out[prefix] = values
		return nil
	}
	text, err := scalarText(value)
	if err != nil {
		return fmt.Errorf("%q: %w", prefix, err)
	}
	if lists {
		out[prefix] = []string{text}
	} else {
		out[prefix] = text
	}
	return nil
}

func scalarText(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: unsupported %T", ErrInvalidValue, value)
	}
}
