package proposals

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Display locales supported by the rendered proposal.
const (
	LocaleRu = "ru"
	LocaleIt = "it"
)

var (
	printerRu = message.NewPrinter(language.Russian)
	printerIt = message.NewPrinter(language.Italian)
)

// FormatMoney renders an amount for display: two fraction digits with the
// locale's digit grouping and decimal separator. This is the only place
// monetary values are rounded.
func FormatMoney(amount float64, locale string) string {
	p := printerRu
	if locale == LocaleIt {
		p = printerIt
	}
	return p.Sprint(number.Decimal(amount,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2)))
}

// DocumentView is a document dressed for one display locale. Derived amounts
// stay as raw numbers on the embedded document; the Display block carries
// their locale-formatted renditions.
type DocumentView struct {
	*Document
	Locale  string       `json:"locale"`
	Display MoneyDisplay `json:"display"`
	Groups  []GroupView  `json:"groups"`
}

type GroupView struct {
	*Group
	Display   MoneyDisplay   `json:"display"`
	Positions []PositionView `json:"positions"`
}

type PositionView struct {
	*Position
	Display MoneyDisplay `json:"display"`
}

// MoneyDisplay holds the formatted monetary fields relevant at each level;
// unused fields are omitted from the JSON.
type MoneyDisplay struct {
	Subtotal       string `json:"subtotal,omitempty"`
	Discount       string `json:"discount,omitempty"`
	DiscountAmount string `json:"discount_amount,omitempty"`
	VatAmount      string `json:"vat_amount,omitempty"`
	UnitPrice      string `json:"unit_price,omitempty"`
	Total          string `json:"total"`
}

// NewDocumentView localises a document for display. Unknown locales fall back
// to ru.
func NewDocumentView(doc *Document, locale string) DocumentView {
	if locale != LocaleIt {
		locale = LocaleRu
	}
	view := DocumentView{
		Document: doc,
		Locale:   locale,
		Display: MoneyDisplay{
			Subtotal:  FormatMoney(doc.Subtotal, locale),
			Discount:  FormatMoney(doc.Discount, locale),
			VatAmount: FormatMoney(doc.VatAmount, locale),
			Total:     FormatMoney(doc.Total, locale),
		},
		Groups: make([]GroupView, 0, len(doc.Groups)),
	}
	for gi := range doc.Groups {
		g := &doc.Groups[gi]
		gv := GroupView{
			Group: g,
			Display: MoneyDisplay{
				Subtotal: FormatMoney(g.Subtotal, locale),
				Discount: FormatMoney(g.Discount, locale),
				Total:    FormatMoney(g.Total, locale),
			},
			Positions: make([]PositionView, 0, len(g.Positions)),
		}
		for pi := range g.Positions {
			p := &g.Positions[pi]
			gv.Positions = append(gv.Positions, PositionView{
				Position: p,
				Display: MoneyDisplay{
					UnitPrice:      FormatMoney(p.UnitPrice, locale),
					DiscountAmount: FormatMoney(p.DiscountAmount, locale),
					VatAmount:      FormatMoney(p.VatAmount, locale),
					Total:          FormatMoney(p.Total, locale),
				},
			})
		}
		view.Groups = append(view.Groups, gv)
	}
	return view
}
