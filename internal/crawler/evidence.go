package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
)

// phishingPhrases is a bilingual (EN/ES) corpus of urgency/social-engineering
// phrases (SPEC_FULL.md item 5), grounded on original_source's
// crawler_service.py PHISHING_PHRASES list plus the Colombian-Spanish
// phrasing its BRAND_PATTERNS implies (bancolombia/davivienda/nequi
// phishing campaigns routinely use these).
var phishingPhrases = []string{
	"verify your account", "confirm your identity", "your account has been suspended",
	"unusual activity", "click here immediately", "your account will be closed",
	"update your payment information", "security alert",
	"verifique su cuenta", "confirme su identidad", "su cuenta ha sido suspendida",
	"actividad inusual", "haga clic aqui", "su cuenta sera cerrada",
	"actualice su informacion de pago", "alerta de seguridad", "clave dinamica",
}

var suspiciousInputNames = []string{"ssn", "social_security", "pin", "cvv", "cvc", "card_number", "tarjeta"}

var parkingMarkers = []string{
	"domain is for sale", "this domain is parked", "buy this domain",
	"dominio en venta", "página en construcción", "under construction",
}

var errorPageMarkers = []string{
	"404 not found", "403 forbidden", "page not found", "this site can't be reached",
}

// extractEvidence performs the "single document query pass" spec.md §4.7
// requires, deriving every CrawlEvidence field from one parsed goquery
// document.
func (c *Crawler) extractEvidence(html, finalURL string) *model.CrawlEvidence {
	ev := &model.CrawlEvidence{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ev
	}

	ev.PageTitle = strings.TrimSpace(doc.Find("title").First().Text())
	ev.IframeCount = doc.Find("iframe").Length()

	bodyText := strings.ToLower(doc.Text())

	for _, marker := range parkingMarkers {
		if strings.Contains(bodyText, marker) {
			ev.IsParkingPage = true
			break
		}
	}
	for _, marker := range errorPageMarkers {
		if strings.Contains(bodyText, marker) {
			ev.IsErrorPage = true
			break
		}
	}

	for _, phrase := range phishingPhrases {
		if strings.Contains(bodyText, phrase) {
			ev.PhishingPhrasesCount++
		}
	}

	for brand := range c.catalog.Brands {
		if strings.Contains(bodyText, brand) {
			ev.BrandsDetected = append(ev.BrandsDetected, brand)
		}
	}

	finalHost := ""
	if u, err := url.Parse(finalURL); err == nil {
		finalHost = strings.ToLower(u.Hostname())
	}

	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		hasPassword := form.Find("input[type='password']").Length() > 0
		if hasPassword {
			ev.HasPasswordField = true
			if form.Find("input[name*='user'],input[name*='email'],input[type='email'],input[type='text']").Length() > 0 {
				ev.HasLoginForm = true
			}
		}
		if form.Find("input[name*='card'],input[name*='cvv'],input[name*='cvc'],input[autocomplete='cc-number']").Length() > 0 {
			ev.HasCreditCardField = true
		}
		form.Find("input").Each(func(_ int, input *goquery.Selection) {
			name := strings.ToLower(input.AttrOr("name", ""))
			for _, marker := range suspiciousInputNames {
				if strings.Contains(name, marker) {
					ev.HasSuspiciousInputs = true
				}
			}
			if typ, _ := input.Attr("type"); strings.EqualFold(typ, "hidden") {
				ev.HiddenInputCount++
			}
		})

		action := form.AttrOr("action", "")
		if action == "" || finalHost == "" {
			return
		}
		if u, err := url.Parse(action); err == nil && u.IsAbs() {
			actionHost := strings.ToLower(u.Hostname())
			if actionHost != "" && actionHost != finalHost {
				ev.FormSubmitsExternally = true
			}
		}
	})

	return ev
}
