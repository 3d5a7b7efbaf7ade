package types

import "strings"

// Address is a postal address snapshot. Orders copy it at placement time
// so later profile edits never rewrite shipping history.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zipcode string `json:"zipcode,omitempty"`
	Country string `json:"country,omitempty"`
}

// HasStreet reports whether the address carries a non-blank street line.
func (a *Address) HasStreet() bool {
	return a != nil && strings.TrimSpace(a.Street) != ""
}

// Normalized returns a copy with surrounding whitespace stripped.
func (a Address) Normalized() Address {
	return Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Zipcode: strings.TrimSpace(a.Zipcode),
		Country: strings.TrimSpace(a.Country),
	}
}

// Lines renders the address as display lines, skipping empty parts.
func (a Address) Lines() []string {
	lines := []string{}
	if s := strings.TrimSpace(a.Street); s != "" {
		lines = append(lines, s)
	}
	locality := []string{}
	for _, part := range []string{a.City, a.State, a.Zipcode} {
		if p := strings.TrimSpace(part); p != "" {
			locality = append(locality, p)
		}
	}
	if len(locality) > 0 {
		lines = append(lines, strings.Join(locality, ", "))
	}
	if c := strings.TrimSpace(a.Country); c != "" {
		lines = append(lines, c)
	}
	return lines
}
