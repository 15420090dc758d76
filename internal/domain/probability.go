package domain

// probability.go — estimación de la probabilidad real de resolución.
//
// El prior es el base rate histórico de la categoría; el ajuste es el
// sensacionalismo del texto: los mercados hypeados sobreestiman el YES,
// así que cuanto más sensacional el texto, más se recorta el prior.

import "strings"

// SensationalismScore devuelve la densidad normalizada de keywords
// sensacionalistas en el texto: matches/norm, capado a 1.0.
// norm es el número de keywords que satura el score (≥ norm → 1.0).
func SensationalismScore(text string, keywords []string, norm float64) float64 {
	if norm <= 0 || len(keywords) == 0 || text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}
	return clamp01(float64(matches) / norm)
}

// CategorizeText devuelve la categoría con más keywords presentes en el texto,
// o "" si ninguna matchea. Empates: gana la primera en orden alfabético para
// que el resultado no dependa del orden de iteración del map.
func CategorizeText(text string, categories map[string][]string) string {
	if text == "" || len(categories) == 0 {
		return ""
	}
	lower := strings.ToLower(text)

	best := ""
	bestHits := 0
	for cat, kws := range categories {
		hits := 0
		for _, kw := range kws {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && (best == "" || cat < best)) {
			best = cat
			bestHits = hits
		}
	}
	return best
}

// EstimateTrueYes aplica el ajuste por sensacionalismo al base rate:
//
//	true_yes = r × (1 − α × s)
//
// con r el base rate de la categoría, s el sensacionalismo [0,1] y α el
// factor de ajuste configurado. Resultado capado a [0,1]; true_no = 1 − true_yes.
func EstimateTrueYes(baseRate, sensationalism, alpha float64) float64 {
	return clamp01(baseRate * (1 - alpha*sensationalism))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
