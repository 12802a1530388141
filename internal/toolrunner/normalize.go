package toolrunner

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Tool names served by the tool runner.
const (
	ToolGetSummaryData  = "get_summary_data"
	ToolGetEndpointData = "get_endpoint_data"
	ToolFilterTrades    = "filter_trades"
	ToolFilterLosses    = "filter_losses"
)

// Default max_results policy shared by every tool that accepts it.
const (
	defaultMaxResults = 10
	maxMaxResults     = 50
)

func defaultTradeFields() []any {
	return []any{"id", "entryTime", "symbol", "pnl", "mistakes"}
}

func defaultLossFields() []any {
	return []any{"exitOrderId", "entryTime", "pointsLost", "symbol", "side", "hasMistake"}
}

// KnownTool reports whether the tool runner serves the named tool.
func KnownTool(name string) bool {
	switch name {
	case ToolGetSummaryData, ToolGetEndpointData, ToolFilterTrades, ToolFilterLosses:
		return true
	}
	return false
}

// Normalize produces the argument object to send to the tool runner for the
// named tool. The input map is never mutated. userText is the triggering user
// message; it is consulted only by the loss-filter intent inference.
// Unknown tool names pass their arguments through untouched.
func Normalize(name string, args map[string]any, userText string) map[string]any {
	switch name {
	case ToolGetSummaryData:
		return map[string]any{}
	case ToolGetEndpointData:
		return normalizeEndpointData(args)
	case ToolFilterTrades:
		return normalizeFilterTrades(args)
	case ToolFilterLosses:
		return normalizeFilterLosses(args, userText)
	default:
		return cloneArgs(args)
	}
}

func normalizeEndpointData(args map[string]any) map[string]any {
	out := cloneArgs(args)

	// The server expects `name`, but models occasionally send `topic`.
	if truthy(out["topic"]) && !truthy(out["name"]) {
		out["name"] = out["topic"]
		delete(out, "topic")
	}

	if _, ok := out["keys_only"]; !ok && !truthy(out["top"]) {
		out["keys_only"] = true
	}

	if out["top"] == "trades" && !isArray(out["fields"]) {
		out["fields"] = defaultTradeFields()
	}

	out["max_results"] = clampMaxResults(out["max_results"])
	return out
}

func normalizeFilterTrades(args map[string]any) map[string]any {
	out := cloneArgs(args)

	if _, ok := out["include_total"]; !ok {
		out["include_total"] = true
	}

	// "any" is not a real mistake type; it means "no mistake filter".
	if arr, ok := out["mistakes"].([]any); ok {
		filtered := make([]any, 0, len(arr))
		for _, m := range arr {
			if s, ok := m.(string); ok && strings.EqualFold(s, "any") {
				continue
			}
			filtered = append(filtered, m)
		}
		if len(filtered) == 0 {
			delete(out, "mistakes")
		} else {
			out["mistakes"] = filtered
		}
	}

	if !isArray(out["fields"]) {
		out["fields"] = defaultTradeFields()
	}

	out["max_results"] = clampMaxResults(out["max_results"])
	return out
}

// Phrasing rules for the loss-filter intent inference. Extrema (single-row)
// results are gated behind singular intent only: "the worst loss" yields one
// record, "101 worst losses" yields a deterministically ordered list.
var (
	pluralLossesRe      = regexp.MustCompile(`\blosses\b`)
	singularWorstLossRe = regexp.MustCompile(`\b(?:the\s+)?(?:worst|biggest|largest|max(?:imum)?)\s+loss\b`)
	explicitSingleRe    = regexp.MustCompile(`\b(?:single|one|1)\b`)
)

func normalizeFilterLosses(args map[string]any, userText string) map[string]any {
	out := cloneArgs(args)

	if _, ok := out["include_total"]; !ok {
		out["include_total"] = true
	}

	if !isArray(out["fields"]) {
		out["fields"] = defaultLossFields()
	}

	txt := strings.ToLower(userText)
	pluralLosses := pluralLossesRe.MatchString(txt)
	singularWorstLoss := singularWorstLossRe.MatchString(txt)
	explicitSingle := explicitSingleRe.MatchString(txt)

	requested, hasRequested := toNumber(out["max_results"])
	wantsSingle := (hasRequested && requested == 1) ||
		(!hasRequested && (explicitSingle || singularWorstLoss))

	if !truthy(out["extrema"]) && wantsSingle && !pluralLosses {
		out["extrema"] = map[string]any{"field": "pointsLost", "mode": "max"}
	} else {
		// List requests get deterministic ordering.
		if !truthy(out["sort_by"]) {
			out["sort_by"] = "pointsLost"
		}
		if !truthy(out["sort_dir"]) {
			out["sort_dir"] = "desc"
		}
	}

	out["max_results"] = clampMaxResults(out["max_results"])
	return out
}

// clampMaxResults coerces v into the [1, 50] range, defaulting to 10 for
// absent, non-numeric, or non-positive input.
func clampMaxResults(v any) int {
	n, ok := toNumber(v)
	if !ok {
		return defaultMaxResults
	}
	r := int(n)
	if r < 1 {
		return defaultMaxResults
	}
	if r > maxMaxResults {
		return maxMaxResults
	}
	return r
}

// toNumber coerces JSON-decoded scalar values to a finite float64.
func toNumber(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// truthy mirrors the loose presence checks of the upstream tool contract:
// nil, "", false, and numeric zero are all treated as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

func isArray(v any) bool {
	_, ok := v.([]any)
	return ok
}

func cloneArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}
