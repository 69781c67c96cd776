// Package orchestrator implements C10: the pipeline that composes C1-C9
// and C12 into a single Verdict, per spec.md §4.8. Grounded structurally on
// moku's internal/app/orchestrator.go (deleted from the live tree, still
// readable under _examples/) for the "one struct holding every collaborator,
// one top-level method calling each stage in order" shape, though every
// stage's actual logic is new — moku's orchestrator drove a scan/diff
// pipeline, this one drives the analyze(url, options) -> Verdict pipeline.
package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/crawler"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/features"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/heuristic"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/mlmodel"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/reputation"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/urlsafety"
)

// divergenceThreshold is spec.md §4.8's tie-break trigger: when
// |score_ml - score_heuristic| exceeds this, an ML_HEURISTIC_DIVERGENCE
// signal (weight 0, origin "ml") naming both scores is added. The heuristic
// signals are kept in every case; the ML predictor contributes no signals.
const divergenceThreshold = 50

// Options controls one analyze() call (spec.md §4.8).
type Options struct {
	Model         string // "ml" (default) or "heuristic"
	Mode          string // "auto" (default), "online", or "offline" — recorded as mode_used, does not change behavior (spec.md §9 open question 3, DESIGN.md)
	EnableCrawler bool
	Timeout       time.Duration
	MaxRedirects  int
}

// Engine wires every collaborator C10 depends on.
type Engine struct {
	safetyGate *urlsafety.SafetyGate
	extractor  *features.Extractor
	predictor  *mlmodel.Predictor
	heuristic  *heuristic.Predictor
	weights    *catalog.WeightsTable
	catalog    *catalog.Catalog
	tranco     *reputation.TrancoClient
	virustotal *reputation.VirusTotalClient
	whois      *reputation.WHOISClient
	crawler    *crawler.Crawler
	logger     logging.Logger

	trancoRankThreshold int
	vtUncertaintyMin    int
	vtUncertaintyMax    int
}

type Config struct {
	SafetyGate          *urlsafety.SafetyGate
	Extractor           *features.Extractor
	Predictor           *mlmodel.Predictor
	Heuristic           *heuristic.Predictor
	Weights             *catalog.WeightsTable
	Catalog             *catalog.Catalog
	Tranco              *reputation.TrancoClient
	VirusTotal          *reputation.VirusTotalClient
	WHOIS               *reputation.WHOISClient
	Crawler             *crawler.Crawler
	Logger              logging.Logger
	TrancoRankThreshold int
	VTUncertaintyMin    int
	VTUncertaintyMax    int
}

func New(cfg Config) *Engine {
	return &Engine{
		safetyGate:          cfg.SafetyGate,
		extractor:           cfg.Extractor,
		predictor:           cfg.Predictor,
		heuristic:           cfg.Heuristic,
		weights:             cfg.Weights,
		catalog:             cfg.Catalog,
		tranco:              cfg.Tranco,
		virustotal:          cfg.VirusTotal,
		whois:               cfg.WHOIS,
		crawler:             cfg.Crawler,
		logger:              cfg.Logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		trancoRankThreshold: cfg.TrancoRankThreshold,
		vtUncertaintyMin:    cfg.VTUncertaintyMin,
		vtUncertaintyMax:    cfg.VTUncertaintyMax,
	}
}

// Analyze runs spec.md §4.8's full 11-step pipeline.
func (e *Engine) Analyze(ctx context.Context, rawURL string, opts Options) (*model.Verdict, error) {
	start := time.Now()
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
		if opts.EnableCrawler {
			opts.Timeout = 30 * time.Second
		}
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	modelChoice := opts.Model
	if modelChoice == "" {
		modelChoice = "ml"
	}
	mode := opts.Mode
	if mode == "" {
		mode = "auto"
	}

	// Step 1: normalize + safety gate.
	urlCtx, err := urlsafety.Normalize(rawURL, e.safetyGate)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: step 1 normalize: %w", err)
	}

	// Step 2: extract features.
	fv := e.extractor.Extract(urlCtx)

	// Step 3: base signals (local rules only).
	baseSignals := e.heuristic.BaseSignals(urlCtx, fv)
	scoreHeuristicPartial := heuristic.Clamp(heuristic.BaseScore + sumWeights(baseSignals))

	apis := model.ApisConsulted{}
	var allSignals []model.Signal
	allSignals = append(allSignals, baseSignals...)

	// Step 4: Tranco lookup, always attempted.
	trancoResult := e.tranco.Lookup(ctx, urlCtx.RegistrableDomain)
	inTopK := false
	if trancoResult.OK {
		apis.Tranco = true
		inTopK = trancoResult.Value.InTopK
		features.ApplyTrancoResult(fv, inTopK, trancoResult.Value.Rank, e.trancoRankThreshold)
	}

	// Step 5: base score per model choice.
	var scoreML int
	mlAvailable := false
	if modelChoice == "ml" && e.predictor.IsLoaded() {
		res := e.predictor.Predict(fv)
		if res.OK {
			mlAvailable = true
			scoreML = mlmodel.ScoreFromProbability(res.Value)
		}
	}

	scoreBase := scoreHeuristicPartial
	if modelChoice == "ml" && mlAvailable && scoreML > scoreHeuristicPartial {
		scoreBase = scoreML
	}

	// Step 6: Tranco adjustment. DOMAIN_NOT_IN_TRANCO only fires when Tranco
	// was actually, successfully consulted (spec.md §4.5: "tranco consulted
	// ∧ ¬in_tranco") — a failed lookup must not be scored as confirmed absence.
	if inTopK {
		if sig := e.heuristic.DomainInTrancoSignal(fv); sig != nil {
			scoreBase = max0(scoreBase - 30)
			allSignals = append(allSignals, *sig)
		}
	} else if trancoResult.OK {
		allSignals = append(allSignals, e.heuristic.DomainNotInTrancoSignal())
	}

	// Step 7: uncertainty window -> VirusTotal.
	if scoreBase >= e.vtUncertaintyMin && scoreBase <= e.vtUncertaintyMax {
		vtResult := e.virustotal.Lookup(ctx, urlCtx.Normalized)
		if vtResult.OK {
			apis.VirusTotal = true
			if sig := e.heuristic.VirusTotalSignal(vtResult.Value); sig != nil {
				scoreBase = clampAdjust(scoreBase, sig.Weight)
				allSignals = append(allSignals, *sig)
			}
		}
	}

	// Step 8: WHOIS policy — only when not in Tranco top-k.
	if !inTopK {
		whoisResult := e.whois.Lookup(ctx, urlCtx.RegistrableDomain)
		if whoisResult.OK {
			apis.WHOIS = true
			if sig := e.heuristic.WHOISSignal(whoisResult.Value); sig != nil {
				scoreBase = clampAdjust(scoreBase, sig.Weight)
				allSignals = append(allSignals, *sig)
			}
		}
	}

	// Step 9: optional crawler.
	var crawlReport *model.CrawlReport
	if opts.EnableCrawler && e.crawler != nil {
		maxRedirects := opts.MaxRedirects
		if maxRedirects <= 0 {
			maxRedirects = 5
		}
		crawlResult := e.crawler.Crawl(ctx, urlCtx.Normalized, opts.Timeout, maxRedirects)
		if crawlResult.OK {
			apis.Crawler = true
			report := crawlResult.Value
			crawlReport = &report
			redirectedToDifferentDomain := crawlRedirectsOffDomain(report, urlCtx.RegistrableDomain)
			crawlSignals := crawler.Signals(report, e.weights, inTopK, redirectedToDifferentDomain)
			for _, sig := range crawlSignals {
				scoreBase = clampAdjust(scoreBase, sig.Weight)
			}
			allSignals = append(allSignals, crawlSignals...)
		}
	}

	// Divergence tie-break (spec.md §4.8): record an ML_HEURISTIC_DIVERGENCE
	// signal if the ML score disagrees substantially with the heuristic score.
	if modelChoice == "ml" && mlAvailable {
		if absInt(scoreML-scoreHeuristicPartial) > divergenceThreshold {
			allSignals = append(allSignals, model.Signal{
				ID:          "ML_HEURISTIC_DIVERGENCE",
				Severity:    model.SeverityMedium,
				Weight:      0,
				Explanation: fmt.Sprintf("ML score %d diverges from heuristic score %d by more than %d points", scoreML, scoreHeuristicPartial, divergenceThreshold),
				Origin:      "ml",
			})
		}
	}

	// Step 10: clamp + bucket.
	finalScore := clampScore(scoreBase)
	level := model.LevelForScore(finalScore)

	// Step 11: order signals, recommendations, apis_consulted already
	// populated above.
	model.SortSignals(allSignals)
	recs := heuristic.Recommendations(level, allSignals)

	modelUsed := "heuristic"
	if modelChoice == "ml" && mlAvailable {
		modelUsed = "ml"
	}

	verdict := &model.Verdict{
		URL:             rawURL,
		NormalizedURL:   urlCtx.Normalized,
		Score:           finalScore,
		RiskLevel:       level,
		ModelUsed:       modelUsed,
		ModeUsed:        mode,
		ApisConsulted:   apis,
		Signals:         allSignals,
		Recommendations: recs,
		Crawl:           crawlReport,
		Timestamps: model.Timestamps{
			RequestedAt: start,
			CompletedAt: time.Now(),
			DurationMS:  time.Since(start).Milliseconds(),
		},
	}
	return verdict, nil
}

func sumWeights(signals []model.Signal) int {
	total := 0
	for _, s := range signals {
		total += s.Weight
	}
	return total
}

func clampAdjust(score, delta int) int {
	return clampScore(score + delta)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func crawlRedirectsOffDomain(report model.CrawlReport, registrableDomain string) bool {
	if report.FinalURL == "" {
		return false
	}
	u, err := url.Parse(report.FinalURL)
	if err != nil {
		return false
	}
	finalHost := strings.ToLower(u.Hostname())
	return finalHost != "" && finalHost != registrableDomain && !hostBelongsToDomain(finalHost, registrableDomain)
}

func hostBelongsToDomain(host, domain string) bool {
	if host == domain {
		return true
	}
	return len(host) > len(domain) && host[len(host)-len(domain)-1:] == "."+domain
}
