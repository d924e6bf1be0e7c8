package models

import (
	"sort"
	"strings"
)

// Profile is the metadata an author publishes about themselves.
// json tags follow the wire format of kind 0 content; msgpack tags are the stored layout.
type Profile struct {
	Name        string `json:"name,omitempty" msgpack:"name"`
	DisplayName string `json:"display_name,omitempty" msgpack:"display_name"`
	About       string `json:"about,omitempty" msgpack:"about"`
	Picture     string `json:"picture,omitempty" msgpack:"picture"`
	Banner      string `json:"banner,omitempty" msgpack:"banner"`
	Website     string `json:"website,omitempty" msgpack:"website"`
	NIP05       string `json:"nip05,omitempty" msgpack:"nip05"`
	LUD16       string `json:"lud16,omitempty" msgpack:"lud16"`
}

// DisplayNameOr returns the best human label for pk.
func (p *Profile) DisplayNameOr(pk PublicKey) string {
	if p != nil {
		if s := strings.TrimSpace(p.DisplayName); s != "" {
			return s
		}
		if s := strings.TrimSpace(p.Name); s != "" {
			return s
		}
	}
	return pk.Short()
}

// Contact is one entry of the local identity's follow list.
type Contact struct {
	PublicKey PublicKey `msgpack:"pk"`
	RelayURL  string    `msgpack:"relay_url"`
	Alias     string    `msgpack:"alias"`
}

// Less orders contacts by key, then relay hint, then alias.
func (c Contact) Less(other Contact) bool {
	if cmp := c.PublicKey.Compare(other.PublicKey); cmp != 0 {
		return cmp < 0
	}
	if c.RelayURL != other.RelayURL {
		return c.RelayURL < other.RelayURL
	}
	return c.Alias < other.Alias
}

func SortContacts(list []Contact) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Less(list[j]) })
}

// TextNote is a short post. Timestamp is unix seconds as carried by the protocol.
type TextNote struct {
	ID        EventID    `msgpack:"id"`
	Author    PublicKey  `msgpack:"author"`
	Timestamp uint64     `msgpack:"ts"`
	Content   string     `msgpack:"content"`
	Tags      [][]string `msgpack:"tags"`
}

// ReplyTo returns the last "e" tag reference, the note this one answers.
func (n *TextNote) ReplyTo() (EventID, bool) {
	for i := len(n.Tags) - 1; i >= 0; i-- {
		tag := n.Tags[i]
		if len(tag) >= 2 && tag[0] == "e" {
			if id, err := ParseEventID(tag[1]); err == nil {
				return id, true
			}
		}
	}
	return EventID{}, false
}

// Mentions returns the public keys referenced by "p" tags, skipping malformed ones.
func (n *TextNote) Mentions() []PublicKey {
	var out []PublicKey
	for _, tag := range n.Tags {
		if len(tag) >= 2 && tag[0] == "p" {
			if pk, err := ParsePublicKey(tag[1]); err == nil {
				out = append(out, pk)
			}
		}
	}
	return out
}
