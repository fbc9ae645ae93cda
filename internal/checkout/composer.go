// Package checkout turns a cart and buyer details into an order message and
// the messaging deep link that carries it.
package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/fairyhunter13/hampers-storefront/internal/cart"
	"github.com/fairyhunter13/hampers-storefront/internal/model"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrMissingName    = errors.New("buyer name is required")
	ErrMissingAddress = errors.New("delivery address is required")
)

// Settings fixes the merchant-specific parts of every message.
type Settings struct {
	Greeting      string
	CurrencyLabel string
	BaseURL       string
	Phone         string
	Locale        language.Tag
}

// Order is the composed checkout. Nothing about it is stored.
type Order struct {
	Reference string          `json:"reference"`
	Message   string          `json:"message"`
	Link      string          `json:"link"`
	Total     decimal.Decimal `json:"total"`
	Items     int             `json:"item_count"`
}

// Composer builds order messages. It is safe for concurrent use.
type Composer struct {
	s       Settings
	printer *message.Printer
}

// ParseLocale maps a BCP 47 tag to a language, defaulting to Indonesian.
func ParseLocale(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Indonesian
	}
	return tag
}

// NewComposer returns a composer for the given merchant settings.
func NewComposer(s Settings) *Composer {
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	return &Composer{s: s, printer: message.NewPrinter(s.Locale)}
}

// FormatAmount renders an amount with the currency label and locale
// grouping, e.g. "Rp 300.000".
func (c *Composer) FormatAmount(d decimal.Decimal) string {
	return c.s.CurrencyLabel + " " + c.printer.Sprintf("%v", number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(3)))
}

// FormatPrice is FormatAmount for an optional unit price; nil or unusable
// prices render as the bare label.
func (c *Composer) FormatPrice(p *float64) string {
	if p == nil || !model.ValidPrice(*p) {
		return c.s.CurrencyLabel
	}
	return c.FormatAmount(decimal.NewFromFloat(*p))
}

// Message lays out the order text. The buyer phone is not part of it.
func (c *Composer) Message(lines []model.CartLine, total decimal.Decimal, form model.OrderForm) string {
	items := make([]string, 0, len(lines))
	for _, l := range lines {
		items = append(items, fmt.Sprintf("%s (%dx)", l.Name, l.Quantity))
	}
	var b strings.Builder
	b.WriteString(c.s.Greeting)
	b.WriteString("\n\nProduk: ")
	b.WriteString(strings.Join(items, ", "))
	b.WriteString("\nTotal: ")
	b.WriteString(c.FormatAmount(total))
	b.WriteString("\n\nNama: ")
	b.WriteString(form.Name)
	b.WriteString("\nAlamat: ")
	b.WriteString(form.Address)
	return b.String()
}

// Link returns the deep link carrying msg to the merchant's number.
func (c *Composer) Link(msg string) string {
	return c.s.BaseURL + "/" + c.s.Phone + "?text=" + escapeComponent(msg)
}

// Compose validates the form, then builds message and link. The cart is
// left untouched.
func (c *Composer) Compose(ct *cart.Cart, form model.OrderForm) (Order, error) {
	if ct.Empty() {
		return Order{}, ErrEmptyCart
	}
	for _, f := range form.Missing() {
		switch f {
		case "name":
			return Order{}, ErrMissingName
		case "address":
			return Order{}, ErrMissingAddress
		}
	}
	total := ct.Total()
	msg := c.Message(ct.Lines(), total, form)
	return Order{
		Reference: uuid.NewString(),
		Message:   msg,
		Link:      c.Link(msg),
		Total:     total,
		Items:     ct.ItemCount(),
	}, nil
}

// componentUnescaper undoes the QueryEscape choices that encodeURIComponent
// does not make.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent escapes like encodeURIComponent: spaces become %20 and
// !'()* stay literal.
func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
