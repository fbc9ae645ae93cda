// Package nav holds the two-page view switch of the storefront.
package nav

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Page names a top-level view.
type Page string

const (
	Catalog Page = "catalog"
	About   Page = "about"
)

// ErrUnknownPage is returned by ParsePage for anything but catalog or about.
var ErrUnknownPage = errors.New("unknown page")

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	switch Page(s) {
	case Catalog, About:
		return Page(s), nil
	}
	return "", errors.Wrapf(ErrUnknownPage, "%q", s)
}

// Navigator tracks the current page. The zero value is on the catalog.
type Navigator struct {
	current Page
}

// Current returns the selected page.
func (n *Navigator) Current() Page {
	if n.current == "" {
		return Catalog
	}
	return n.current
}

// Go selects p.
func (n *Navigator) Go(p Page) { n.current = p }

func (n Navigator) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Current())
}

func (n *Navigator) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	p, err := ParsePage(s)
	if err != nil {
		p = Catalog
	}
	n.current = p
	return nil
}
