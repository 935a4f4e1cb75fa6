package loaders

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/tplforge/tplforge/pkg/coerce"
	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

// loadXML converts an XML document into a mapping. Attributes become
// "@"-prefixed keys (plain keys with ConvertAttributes), repeated
// sibling elements collapse into a list, element text lands under
// "#text" when attributes or children are present, and a root element
// named "_" is flattened away. Leaf text and attribute values are
// coerced.
func loadXML(path string, content []byte, opts types.Options, _ *report.Reporter) (map[string]any, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, errors.Wrapf(err, errors.ErrVarParse, "cannot parse XML variables file '%s'", path)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.Newf(errors.ErrVarParse, "XML variables file '%s' has no root element", path)
	}

	value := elementToValue(root, opts.XML)
	if elementName(root, opts.XML) == "_" {
		mapping, ok := value.(map[string]any)
		if !ok {
			return nil, errors.Newf(errors.ErrVarParse,
				"XML variables file '%s' flattens its root but holds no elements", path)
		}
		return mapping, nil
	}
	return map[string]any{elementName(root, opts.XML): value}, nil
}

func elementName(el *etree.Element, opts types.XMLOptions) string {
	if el.Space == "" || opts.RemoveNamespaces {
		return el.Tag
	}
	return el.Space + ":" + el.Tag
}

func elementToValue(el *etree.Element, opts types.XMLOptions) any {
	mapping := map[string]any{}

	for _, attr := range el.Attr {
		if attr.Space == "xmlns" || attr.Key == "xmlns" {
			continue
		}
		key := attr.Key
		if attr.Space != "" && !opts.RemoveNamespaces {
			key = attr.Space + ":" + attr.Key
		}
		if !opts.ConvertAttributes {
			key = "@" + key
		}
		mapping[key] = coerce.Coerce(attr.Value)
	}

	children := el.ChildElements()
	text := strings.TrimSpace(el.Text())

	if len(children) == 0 && len(mapping) == 0 {
		return coerce.Coerce(text)
	}
	if text != "" {
		mapping["#text"] = coerce.Coerce(text)
	}

	for _, child := range children {
		name := elementName(child, opts)
		value := elementToValue(child, opts)
		if existing, ok := mapping[name]; ok {
			if list, ok := existing.([]any); ok {
				mapping[name] = append(list, value)
			} else {
				mapping[name] = []any{existing, value}
			}
			continue
		}
		mapping[name] = value
	}
	return mapping
}
