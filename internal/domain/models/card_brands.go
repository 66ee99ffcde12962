package models

// cardBrandNames maps Cybersource numeric brand codes to display names.
// Display-only; never used for routing decisions.
var cardBrandNames = map[string]string{
	"001": "Visa",
	"002": "Mastercard",
	"003": "American Express",
	"004": "Discover",
	"005": "Diners Club",
	"006": "Carte Blanche",
	"007": "JCB",
	"014": "EnRoute",
	"021": "JAL",
	"024": "Maestro (UK Domestic)",
	"031": "Delta",
	"033": "Visa Electron",
	"034": "Dankort",
	"036": "Cartes Bancaires",
	"037": "Carta Si",
	"039": "EAN",
	"040": "UATP",
	"042": "Maestro (International)",
	"050": "Hipercard",
	"051": "Aura",
	"054": "Elo",
	"062": "China UnionPay",
}

// CardBrandName resolves a detected brand code to its display name
func CardBrandName(code string) string {
	if name, ok := cardBrandNames[code]; ok {
		return name
	}
	return "Unknown"
}
