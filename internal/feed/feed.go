// Package feed models the upstream advertising feed document: an RSS
// envelope whose items carry Google-namespaced (g:) product fields.
package feed

import (
	"encoding/xml"
	"fmt"

	"github.com/fairyhunter13/feedbridge/internal/apperr"
)

// NSGoogle is the namespace URL bound to the g: prefix in merchant feeds.
const NSGoogle = "http://base.google.com/ns/1.0"

const opParse = "feed.parse"

// Document is the full rss envelope.
type Document struct {
	XMLName  xml.Name `xml:"rss"`
	Version  string   `xml:"version,attr"`
	NSGoogle string   `xml:"xmlns:g,attr"`
	Channel  Channel  `xml:"channel"`
}

// Channel carries the feed metadata and item list.
type Channel struct {
	Title       string       `xml:"title"`
	Link        string       `xml:"link"`
	Description string       `xml:"description"`
	Extra       []RawElement `xml:",any"`
	Items       []Item       `xml:"item"`
}

// Item is one feed entry. Fields the reconciler touches are modeled
// explicitly; everything else is carried through Extra verbatim.
//
// The struct tags drive decoding only; serialization goes through
// MarshalXML so g: fields keep their prefix on output.
type Item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`

	ID               string `xml:"http://base.google.com/ns/1.0 id"`
	Price            string `xml:"http://base.google.com/ns/1.0 price"`
	SalePrice        string `xml:"http://base.google.com/ns/1.0 sale_price"`
	Brand            string `xml:"http://base.google.com/ns/1.0 brand"`
	Condition        string `xml:"http://base.google.com/ns/1.0 condition"`
	Availability     string `xml:"http://base.google.com/ns/1.0 availability"`
	ImageLink        string `xml:"http://base.google.com/ns/1.0 image_link"`
	GTIN             string `xml:"http://base.google.com/ns/1.0 gtin"`
	MPN              string `xml:"http://base.google.com/ns/1.0 mpn"`
	IdentifierExists string `xml:"http://base.google.com/ns/1.0 identifier_exists"`
	ProductType      string `xml:"http://base.google.com/ns/1.0 product_type"`
	ItemGroupID      string `xml:"http://base.google.com/ns/1.0 item_group_id"`
	ShippingWeight   string `xml:"http://base.google.com/ns/1.0 shipping_weight"`
	Shipping         string `xml:"http://base.google.com/ns/1.0 shipping"`

	Extra []RawElement `xml:",any"`
}

// RawElement preserves a feed field the reconciler does not touch. The inner
// XML is carried verbatim through the round-trip.
type RawElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// MarshalXML writes the item with prefixed g: element names, omitting empty
// fields, then appends the untouched extras.
func (it Item) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = nil
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	fields := []struct{ name, val string }{
		{"title", it.Title},
		{"link", it.Link},
		{"description", it.Description},
		{"g:id", it.ID},
		{"g:price", it.Price},
		{"g:sale_price", it.SalePrice},
		{"g:brand", it.Brand},
		{"g:condition", it.Condition},
		{"g:availability", it.Availability},
		{"g:image_link", it.ImageLink},
		{"g:gtin", it.GTIN},
		{"g:mpn", it.MPN},
		{"g:identifier_exists", it.IdentifierExists},
		{"g:product_type", it.ProductType},
		{"g:item_group_id", it.ItemGroupID},
		{"g:shipping_weight", it.ShippingWeight},
		{"g:shipping", it.Shipping},
	}
	for _, f := range fields {
		if f.val == "" {
			continue
		}
		el := xml.StartElement{Name: xml.Name{Local: f.name}}
		if err := e.EncodeElement(f.val, el); err != nil {
			return err
		}
	}
	for _, ex := range it.Extra {
		if err := e.Encode(ex); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// Parse decodes an upstream feed body. Any XML error, including a non-rss
// root, is a parse failure for the whole request.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, apperr.ParseErr(opParse, err)
	}
	doc.normalize()
	return &doc, nil
}

// Serialize re-encodes the document, restoring the xml declaration and the
// g: namespace binding on the envelope.
func Serialize(doc *Document) ([]byte, error) {
	if doc.Version == "" {
		doc.Version = "2.0"
	}
	doc.NSGoogle = NSGoogle
	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize feed: %w", err)
	}
	return append([]byte(xml.Header), append(b, '\n')...), nil
}

// normalize rewrites decoded element names back to prefixed form so raw
// fields re-encode as g:name instead of a namespace-URL attribute.
func (d *Document) normalize() {
	normalizeRaw(d.Channel.Extra)
	for i := range d.Channel.Items {
		normalizeRaw(d.Channel.Items[i].Extra)
	}
}

func normalizeRaw(els []RawElement) {
	for i := range els {
		els[i].XMLName = prefixed(els[i].XMLName)
		attrs := els[i].Attrs[:0]
		for _, a := range els[i].Attrs {
			if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
				continue
			}
			a.Name = prefixed(a.Name)
			attrs = append(attrs, a)
		}
		els[i].Attrs = attrs
	}
}

func prefixed(n xml.Name) xml.Name {
	if n.Space == NSGoogle {
		return xml.Name{Local: "g:" + n.Local}
	}
	return xml.Name{Local: n.Local}
}
