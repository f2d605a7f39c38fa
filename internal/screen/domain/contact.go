package domain

import (
	"fmt"
	"strings"
)

// Contact is one directory entry. Numbers keep the form they were written in.
type Contact struct {
	Name    string
	Numbers []string
	Source  string // file the contact was loaded from
}

// NewContact trims its inputs, drops empty numbers and requires at least one number.
func NewContact(name string, numbers []string, source string) (Contact, error) {
	c := Contact{Name: strings.TrimSpace(name), Source: strings.TrimSpace(source)}
	for _, n := range numbers {
		if n = strings.TrimSpace(n); n != "" {
			c.Numbers = append(c.Numbers, n)
		}
	}
	if len(c.Numbers) == 0 {
		return Contact{}, fmt.Errorf("contact %q has no numbers", c.Name)
	}
	return c, nil
}
