package model

import "time"

// EnvelopeVersion is the wire version stamped on every export envelope.
const EnvelopeVersion = "1.0"

type SharedItem struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type SharedList struct {
	Name  string       `json:"name"`
	Items []SharedItem `json:"items"`
}

// ShareEnvelope is the device-independent projection of one or more lists
// used for export, sharing and import. Exactly one of List or Lists is set.
// Ids, checked flags and creation times are absent; they carry no meaning
// on another device.
type ShareEnvelope struct {
	Version    string       `json:"version"`
	ExportDate time.Time    `json:"exportDate"`
	List       *SharedList  `json:"list,omitempty"`
	Lists      []SharedList `json:"lists,omitempty"`
}

// NewSingleEnvelope builds an envelope for one list.
func NewSingleEnvelope(l ShoppingList, now time.Time) ShareEnvelope {
	return ShareEnvelope{
		Version:    EnvelopeVersion,
		ExportDate: now,
		List:       projectList(l),
	}
}

// NewMultiEnvelope builds an envelope for the whole collection.
func NewMultiEnvelope(lists []ShoppingList, now time.Time) ShareEnvelope {
	env := ShareEnvelope{
		Version:    EnvelopeVersion,
		ExportDate: now,
		Lists:      make([]SharedList, 0, len(lists)),
	}
	for _, l := range lists {
		env.Lists = append(env.Lists, *projectList(l))
	}
	return env
}

func projectList(l ShoppingList) *SharedList {
	out := SharedList{Name: l.Name, Items: make([]SharedItem, 0, len(l.Items))}
	for _, item := range l.Items {
		out.Items = append(out.Items, SharedItem{Name: item.Name, Amount: item.Amount})
	}
	return &out
}

// Flatten returns the envelope's lists as a flat slice, unwrapping the
// single-list form.
func (e ShareEnvelope) Flatten() []SharedList {
	if e.List != nil {
		return []SharedList{*e.List}
	}
	return e.Lists
}
