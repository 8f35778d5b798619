// Package source holds the static registry of bank sources. Adding a source
// is a data change only; no protocol change is required.
package source

import "mzohaib/bankdealworker/internal/deal"

// Registry returns the fixed ordered list of bank sources. Sources with a
// WidgetBase are scraped through the discovery-widget API; the rest go
// through search discovery plus page/PDF text extraction.
func Registry() []deal.BankSource {
	return []deal.BankSource{
		{
			Name:       "UBL",
			Website:    "https://www.ubldigital.com/discounts",
			BaseDomain: "ubldigital.com",
		},
		{
			Name:       "Meezan Bank",
			Website:    "https://www.meezanbank.com/card-discounts/",
			BaseDomain: "meezanbank.com",
			WidgetBase: "meezan-web.peekaboo.guru",
		},
		{
			Name:       "Bank Alfalah",
			Website:    "https://www.bankalfalah.com/conventional/discounts-privileges/",
			BaseDomain: "bankalfalah.com",
			WidgetBase: "alfalah-web.peekaboo.guru",
		},
		{
			Name:       "HBL",
			Website:    "https://www.hbl.com/personal/cards/hbl-deals-and-discounts",
			BaseDomain: "hbl.com",
			WidgetBase: "hbl-web.peekaboo.guru",
		},
		{
			Name:       "Bank of Punjab",
			Website:    "https://www.bop.com.pk/Card-Discounts",
			BaseDomain: "bop.com.pk",
			WidgetBase: "bop-web.peekaboo.guru",
		},
		{
			Name:       "Standard Chartered Bank",
			Website:    "https://www.sc.com/pk/promotions/",
			BaseDomain: "sc.com/pk",
		},
		{
			Name:       "BankIslami",
			Website:    "https://bankislami.com.pk/discounts/",
			BaseDomain: "bankislami.com.pk",
		},
		{
			Name:       "JS Bank",
			Website:    "https://www.jsbl.com/discounts/",
			BaseDomain: "jsbl.com",
		},
		{
			Name:       "Bank AL Habib",
			Website:    "https://www.bankalhabib.com/discounts/",
			BaseDomain: "bankalhabib.com",
		},
		{
			Name:       "Habib Metro",
			Website:    "https://www.habibmetro.com/discounts/",
			BaseDomain: "habibmetro.com",
		},
	}
}
