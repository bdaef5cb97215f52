package engine

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/hscode-tools/hscode-engine/internal/audit"
	"github.com/hscode-tools/hscode-engine/internal/cache"
	"github.com/hscode-tools/hscode-engine/internal/observability"
	"github.com/hscode-tools/hscode-engine/internal/textproc"
)

// Search classifies a free-text product description into a tariff code.
// limit caps the similar and suggestion lists, zero means the configured
// defaults. The error is non-nil only for empty queries and context
// cancellation; operational failures degrade to a StatusSystemError
// response so callers always have something to return.
func (e *SearchEngine) Search(ctx context.Context, query, language string, limit int) (*Response, error) {
	start := time.Now()
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	lang := textproc.ParseLanguage(language)
	langCode := string(lang)

	traceID := observability.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = observability.NewTraceID()
		ctx = observability.ContextWithTraceID(ctx, traceID)
	}
	log := e.logger.With().Str("trace_id", traceID).Logger()

	key := cache.SearchKey(langCode, q)
	if resp, ok := e.cache.get(ctx, key); ok {
		resp.Diagnostics.FromCache = true
		resp.Diagnostics.TraceID = traceID
		resp.Diagnostics.ProcessingTimeMS = elapsedMS(start)
		capSimilar(resp, limit)
		log.Debug().Str("query", q).Msg("Search served from cache")
		return resp, nil
	}

	idx := e.indexes.Load()
	if idx == nil {
		log.Warn().Str("query", q).Msg("Search requested before index build")
		return e.systemError(traceID, ErrIndexNotReady.Error(), start), nil
	}

	variants := e.expander.Expand(q)
	res, err := e.runCascade(ctx, idx, q, lang, variants)
	if err != nil {
		return nil, err
	}

	resp := e.assemble(res, variants, q, limit)
	resp.Diagnostics.TraceID = traceID
	resp.Diagnostics.ProcessingTimeMS = elapsedMS(start)

	e.recordAudit(ctx, resp, q, langCode)
	e.cache.put(ctx, key, resp)

	log.Info().
		Str("query", q).
		Str("language", langCode).
		Str("status", string(resp.Status)).
		Str("stage", resp.Diagnostics.Source).
		Float64("confidence", resp.Confidence).
		Int("candidates", resp.Diagnostics.TotalCandidates).
		Int64("elapsed_ms", resp.Diagnostics.ProcessingTimeMS).
		Msg("Search completed")
	return resp, nil
}

// assemble turns the winning stage's candidates into the response the
// caller sees: status band, best match, similar or suggestion list.
func (e *SearchEngine) assemble(res stageResult, variants []string, q string, limit int) *Response {
	resp := &Response{
		Diagnostics: Diagnostics{
			Source:          res.stage,
			TotalCandidates: res.total,
			Warnings:        res.warnings,
		},
	}
	if len(variants) > 1 {
		resp.Diagnostics.ExpandedQueries = variants
	}
	if !e.worthReturning(res.cands) {
		resp.Status = StatusNotFound
		resp.Message = notFoundMessage(q)
		resp.Diagnostics.Source = sourceNone
		return resp
	}

	best := res.cands[0]
	if best.score >= e.cfg.BestMatchFloor {
		resp.Status = e.statusFor(best.score)
		resp.Message = statusMessage(resp.Status)
		resp.Confidence = round4(best.score)
		resp.BestMatch = toMatch(best)
		n := listCap(e.cfg.TopSimilar, limit)
		for _, c := range res.cands[1:] {
			if len(resp.Similar) >= n {
				break
			}
			if c.score < e.cfg.SimilarFloor {
				continue
			}
			resp.Similar = append(resp.Similar, *toMatch(c))
		}
		return resp
	}

	// Nothing confident enough for a best match, everything above the
	// suggestion floor is offered instead.
	resp.Status = StatusNotFoundWithSuggestions
	resp.Message = "No confident match found, review the closest catalog entries"
	n := listCap(e.cfg.TopSuggestions, limit)
	for _, c := range res.cands {
		if len(resp.Similar) >= n {
			break
		}
		if c.score < e.cfg.SuggestionFloor {
			continue
		}
		resp.Similar = append(resp.Similar, *toMatch(c))
	}
	return resp
}

func (e *SearchEngine) statusFor(score float64) Status {
	switch {
	case score >= e.cfg.HighConfidence:
		return StatusHighConfidence
	case score >= e.cfg.MediumConfidence:
		return StatusMediumConfidence
	default:
		return StatusLowConfidence
	}
}

func statusMessage(s Status) string {
	switch s {
	case StatusHighConfidence:
		return "High confidence match found"
	case StatusMediumConfidence:
		return "Medium confidence match found"
	case StatusLowConfidence:
		return "Low confidence match found, verify the code before use"
	default:
		return ""
	}
}

// notFoundMessage distinguishes recognized product names from unparseable
// input so the caller can suggest the right next step.
func notFoundMessage(q string) string {
	if textproc.KnownProductTerm(q) {
		return "The product is recognized but no tariff code matched, try a more specific description"
	}
	return "No tariff code matched the query, rephrase the product description"
}

// recordAudit persists the outcome. Not-found queries feed the catalog
// curation backlog, answered ones the result log. System errors are not
// audited.
func (e *SearchEngine) recordAudit(ctx context.Context, resp *Response, query, langCode string) {
	if e.audit == nil {
		return
	}
	switch resp.Status {
	case StatusSystemError:
	case StatusNotFound:
		e.audit.LogNotFound(ctx, query, langCode, e.cfg.AuditSource)
	default:
		rec := audit.SearchRecord{
			TraceID:    resp.Diagnostics.TraceID,
			Query:      query,
			Language:   langCode,
			Status:     string(resp.Status),
			TotalFound: resp.Diagnostics.TotalCandidates,
			Duration:   time.Duration(resp.Diagnostics.ProcessingTimeMS) * time.Millisecond,
		}
		if resp.BestMatch != nil {
			rec.Main = &audit.RankedCode{
				Code:        resp.BestMatch.Code,
				Description: resp.BestMatch.Description,
				Confidence:  resp.BestMatch.Confidence,
			}
		}
		for _, m := range resp.Similar {
			rec.Similar = append(rec.Similar, audit.RankedCode{
				Code:        m.Code,
				Description: m.Description,
				Confidence:  m.Confidence,
			})
		}
		e.audit.SaveSearchResult(ctx, rec)
	}
}

// systemError is the degraded response for searches that cannot run.
func (e *SearchEngine) systemError(traceID, msg string, start time.Time) *Response {
	return &Response{
		Status:  StatusSystemError,
		Message: msg,
		Diagnostics: Diagnostics{
			TraceID:          traceID,
			Source:           sourceNone,
			ProcessingTimeMS: elapsedMS(start),
		},
	}
}

func toMatch(c candidate) *Match {
	return &Match{
		Code:        c.code,
		Description: textproc.CleanDescription(c.description),
		Confidence:  round4(c.score),
		Source:      c.source,
	}
}

// capSimilar trims the similar list of a cached response when the caller
// asks for fewer rows than were stored.
func capSimilar(resp *Response, limit int) {
	if limit > 0 && len(resp.Similar) > limit {
		resp.Similar = resp.Similar[:limit]
	}
}

func listCap(configured, limit int) int {
	if limit > 0 && limit < configured {
		return limit
	}
	return configured
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// elapsedMS reports wall time in whole milliseconds, never less than one so
// even instant cache hits register.
func elapsedMS(start time.Time) int64 {
	if ms := time.Since(start).Milliseconds(); ms > 1 {
		return ms
	}
	return 1
}
