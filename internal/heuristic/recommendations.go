package heuristic

import "github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"

// Recommendations is spec.md §6.2's recommendations[] field; its content is
// not specified by spec.md itself, so this carries over
// original_source/backend/app/services/heuristic_predictor.py's
// get_recommendations table (SPEC_FULL.md item 2): tiered by risk level,
// with signal-specific appends, truncated to 5 entries.
func Recommendations(level model.RiskLevel, signals []model.Signal) []string {
	var recs []string
	switch level {
	case model.RiskHigh:
		recs = []string{
			"Do not enter any personal information or credentials on this page.",
			"Do not download or execute any files from this URL.",
			"Report this URL using the /report endpoint.",
			"Close the page and delete any messages that linked to it.",
		}
	case model.RiskMedium:
		recs = []string{
			"Proceed with caution and verify the domain before entering credentials.",
			"Check the URL spelling carefully against the legitimate site.",
			"Avoid submitting payment or personal information until verified.",
		}
	case model.RiskLow:
		recs = []string{
			"No strong indicators of risk were found, but stay alert for unexpected requests for data.",
		}
	default: // SAFE
		recs = []string{
			"This URL shows no indicators of risk.",
		}
	}

	for _, s := range signals {
		switch s.ID {
		case "URL_SHORTENER":
			recs = append(recs, "This is a shortened URL; its real destination is hidden — expand it before trusting it.")
		case "BRAND_IMPERSONATION":
			recs = append(recs, "This domain impersonates a well-known brand; verify you are on the brand's official site.")
		case "VIRUSTOTAL_MALICIOUS_LOW", "VIRUSTOTAL_MALICIOUS_MED", "VIRUSTOTAL_MALICIOUS_HIGH", "VIRUSTOTAL_MALICIOUS_CRITICAL":
			recs = append(recs, "Multiple antivirus engines flagged this URL as malicious.")
		}
	}

	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}
