package adapter

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"storefront/internal/config"
	"storefront/internal/model"
)

// Defaults for popular-navigation calls.
const (
	DefaultRecommendationsSize   = 10
	DefaultRecommendationsWindow = "day"
)

// BuildURL renders a recommendations endpoint:
//
//	https://{customer}.{domain}/wisdom/v2/public/recommendations/{scope}/_get{suffix}
func BuildURL(customerID, domain, scope, suffix string) string {
	return fmt.Sprintf("https://%s.%s/wisdom/v2/public/recommendations/%s/_get%s",
		customerID, withDefault(domain, config.DefaultDomain), scope, suffix)
}

// BuildNavigationsRequest describes the call fetching the popular navigations
// that reference sorting orders against.
func BuildNavigationsRequest(customerID, domain string, cfg config.Recommendations) model.Request {
	size := cfg.Size
	if size <= 0 {
		size = DefaultRecommendationsSize
	}
	data, _ := json.Marshal(model.RecommendationsRequest{ // plain fields, cannot fail
		Size:   size,
		Window: withDefault(cfg.Window, DefaultRecommendationsWindow),
		Type:   "popular",
	})
	return model.Request{
		Method: http.MethodPost,
		URL:    BuildURL(customerID, domain, "navigations", "Popular"),
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   data,
	}
}

func navigationName(n model.Navigation) string { return n.Field }

func refinementValue(r model.Refinement) string { return r.Value }

// PinNavigations moves the pinned navigations to the front in pin order.
// The rest keep their original order.
func PinNavigations(results []model.Navigation, pinned []string) []model.Navigation {
	return pin(results, pinned, navigationName)
}

// PinRefinements reorders each navigation's refinements so its pinned values come
// first. Navigations without a pin list are returned unchanged.
func PinRefinements(results []model.Navigation, pinned map[string][]string) []model.Navigation {
	out := slices.Clone(results)
	for i, nav := range out {
		if pins := pinned[nav.Field]; len(pins) > 0 {
			out[i].Refinements = pin(nav.Refinements, pins, refinementValue)
		}
	}
	return out
}

// SortNavigations orders navigations by the configured mode. Reference mode follows
// the popularity list; navigations it does not mention go last in original order.
func SortNavigations(navs []model.Navigation, setting config.SortSetting, reference []model.RecommendationNavigation) []model.Navigation {
	switch setting.Mode {
	case config.SortReference:
		order := make([]string, 0, len(reference))
		for _, r := range reference {
			order = append(order, r.Name)
		}
		return sortByOrder(navs, order, navigationName)
	case config.SortAlphabetical:
		return sortAlphabetically(navs, navigationName)
	case config.SortExplicit:
		return sortByOrder(navs, setting.Order, navigationName)
	default:
		return slices.Clone(navs)
	}
}

// SortRefinements orders the refinements of every navigation by the configured mode.
// Range navigations keep their order.
func SortRefinements(navs []model.Navigation, setting config.SortSetting, reference []model.RecommendationNavigation) []model.Navigation {
	out := slices.Clone(navs)
	for i, nav := range out {
		if nav.Range {
			continue
		}
		switch setting.Mode {
		case config.SortReference:
			j := slices.IndexFunc(reference, func(r model.RecommendationNavigation) bool { return r.Name == nav.Field })
			if j < 0 {
				continue
			}
			order := make([]string, 0, len(reference[j].Values))
			for _, v := range reference[j].Values {
				order = append(order, v.Value)
			}
			out[i].Refinements = sortByOrder(nav.Refinements, order, refinementValue)
		case config.SortAlphabetical:
			out[i].Refinements = sortAlphabetically(nav.Refinements, refinementValue)
		case config.SortExplicit:
			if order := setting.OrderFor(nav.Field); len(order) > 0 {
				out[i].Refinements = sortByOrder(nav.Refinements, order, refinementValue)
			}
		}
	}
	return out
}

// SortAndPinNavigations applies navigation sorting, navigation pinning, refinement
// sorting and refinement pinning in that order, each only when configured.
func SortAndPinNavigations(results []model.Navigation, reference []model.RecommendationNavigation, cfg config.Recommendations) []model.Navigation {
	out := slices.Clone(results)
	if cfg.Navigations.Sort.Enabled() {
		out = SortNavigations(out, cfg.Navigations.Sort, reference)
	}
	if len(cfg.Navigations.Pinned) > 0 {
		out = PinNavigations(out, cfg.Navigations.Pinned)
	}
	if cfg.Refinements.Sort.Enabled() {
		out = SortRefinements(out, cfg.Refinements.Sort, reference)
	}
	if len(cfg.Refinements.Pinned) > 0 {
		out = PinRefinements(out, cfg.Refinements.Pinned)
	}
	if out == nil {
		out = []model.Navigation{}
	}
	return out
}

// pin returns items with the pinned names first (in pin order, each taken once)
// followed by the rest in original order.
func pin[T any](items []T, pins []string, name func(T) string) []T {
	out := make([]T, 0, len(items))
	used := make([]bool, len(items))
	for _, p := range pins {
		for i, item := range items {
			if !used[i] && name(item) == p {
				used[i] = true
				out = append(out, item)
				break
			}
		}
	}
	for i, item := range items {
		if !used[i] {
			out = append(out, item)
		}
	}
	return out
}

// sortByOrder stably orders items by their name's position in order.
// Unlisted items follow in their original relative order.
func sortByOrder[T any](items []T, order []string, name func(T) string) []T {
	rank := make(map[string]int, len(order))
	for i, n := range order {
		if _, dup := rank[n]; !dup {
			rank[n] = i
		}
	}
	rankOf := func(item T) int {
		if r, ok := rank[name(item)]; ok {
			return r
		}
		return len(order)
	}

	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(rankOf(a), rankOf(b)) })
	return out
}

func sortAlphabetically[T any](items []T, name func(T) string) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return strings.Compare(strings.ToLower(name(a)), strings.ToLower(name(b)))
	})
	return out
}
