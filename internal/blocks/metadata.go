package blocks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/xpath"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/dom"
)

var metaExpr = xpath.MustCompile(".//meta[@name or @property]")

// PageMetadata is the typed view of the <meta> tags of a page.
type PageMetadata struct {
	Title       string         `mapstructure:"title"`
	Description string         `mapstructure:"description"`
	Template    string         `mapstructure:"template"`
	Theme       string         `mapstructure:"theme"`
	Image       string         `mapstructure:"og:image"`
	Extra       map[string]any `mapstructure:",remain"`
}

// SectionMetadata is the typed view of a section-metadata block.
type SectionMetadata struct {
	Style []string       `mapstructure:"style"`
	Data  map[string]any `mapstructure:",remain"`
}

// Metadata returns the content of the named <meta> tag, or "".
// Names containing a colon match the property attribute, others the name
// attribute. Repeated tags are joined with ", ".
func Metadata(doc *dom.Document, name string) string {
	attr := "name"
	if strings.Contains(name, ":") {
		attr = "property"
	}
	var values []string
	for _, m := range dom.Find(doc.Head(), metaExpr) {
		if dom.AttrOr(m, attr, "") == name {
			values = append(values, dom.AttrOr(m, "content", ""))
		}
	}
	return strings.Join(values, ", ")
}

// ReadPageMetadata decodes every <meta> tag of the head into a PageMetadata.
func ReadPageMetadata(doc *dom.Document) (PageMetadata, error) {
	raw := make(map[string]any)
	for _, m := range dom.Find(doc.Head(), metaExpr) {
		key := dom.AttrOr(m, "name", dom.AttrOr(m, "property", ""))
		if key == "" {
			continue
		}
		if _, seen := raw[key]; seen {
			continue
		}
		raw[key] = Metadata(doc, key)
	}

	var md PageMetadata
	if err := decode(raw, &md); err != nil {
		return PageMetadata{}, fmt.Errorf("decoding page metadata: %w", err)
	}
	return md, nil
}

// DecorateTemplateAndTheme adds the template and theme metadata as body classes.
func DecorateTemplateAndTheme(doc *dom.Document) error {
	md, err := ReadPageMetadata(doc)
	if err != nil {
		return err
	}
	body := doc.Body()
	addClasses(body, md.Template)
	addClasses(body, md.Theme)
	return nil
}

func addClasses(el *html.Node, list string) {
	if el == nil || list == "" {
		return
	}
	for _, c := range strings.Split(list, ",") {
		if name := ToClassName(c); name != "" {
			dom.AddClass(el, name)
		}
	}
}

// applySectionMetadata copies a section-metadata block onto its section:
// style entries become classes, other keys become data-* attributes.
func applySectionMetadata(section, meta *html.Node) error {
	var sm SectionMetadata
	if err := decode(ReadBlockConfig(meta), &sm); err != nil {
		return fmt.Errorf("decoding section metadata: %w", err)
	}

	for _, style := range sm.Style {
		addClasses(section, style)
	}

	keys := make([]string, 0, len(sm.Data))
	for k := range sm.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dom.SetAttr(section, "data-"+ToClassName(k), stringValue(sm.Data[k]))
	}
	return nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	}
	return fmt.Sprint(v)
}

func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
