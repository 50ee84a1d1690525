package order

import (
	"encoding/xml"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// XMLCodec persists the order as an XML list, the format the property has
// historically been stored in. Uncategorized entries omit the category
// attribute entirely.
type XMLCodec struct{}

var _ Codec = XMLCodec{}

type (
	xmlOrderList struct {
		XMLName xml.Name       `xml:"list"`
		Items   []xmlOrderItem `xml:"assignmentOrder"`
	}

	xmlOrderItem struct {
		AssignmentID string  `xml:"assignmentId,attr"`
		Category     *string `xml:"category,attr,omitempty"`
		Order        int     `xml:"order,attr"`
	}
)

func (XMLCodec) Encode(entries []Entry) ([]byte, error) {
	list := xmlOrderList{Items: make([]xmlOrderItem, 0, len(entries))}
	for _, e := range entries {
		item := xmlOrderItem{AssignmentID: e.AssignmentID, Order: e.Position}
		if e.Category.Valid {
			cat := e.Category.String
			item.Category = &cat
		}
		list.Items = append(list.Items, item)
	}
	data, err := xml.Marshal(list)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling order list")
	}
	return data, nil
}

func (XMLCodec) Decode(data []byte) ([]Entry, error) {
	var list xmlOrderList
	if err := xml.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "unmarshalling order list")
	}
	entries := make([]Entry, 0, len(list.Items))
	for _, item := range list.Items {
		e := Entry{AssignmentID: item.AssignmentID, Position: item.Order}
		if item.Category != nil {
			e.Category = null.StringFrom(*item.Category)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
