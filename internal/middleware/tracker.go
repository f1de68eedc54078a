package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dunglas/httpsfv"

	"storefront/internal/model"
)

// TrackerHeader carries the visitor and session identifiers of the shopper.
// Format (RFC 8941 Dictionary): visitor="v-123", session="s-456"
const TrackerHeader = "Storefront-Tracker"

type trackerKey struct{}

// ParseTrackerHeader extracts visitor and session IDs from a tracker header.
// Either key may be omitted, but at least one must be present.
//
// Examples:
//   - visitor="v1", session="s1"      → {v1, s1}
//   - session="s1";ttl=30             → {"", s1} (params ignored)
func ParseTrackerHeader(header string) (model.TrackerInfo, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return model.TrackerInfo{}, errors.New("empty tracker header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return model.TrackerInfo{}, fmt.Errorf("invalid tracker header: %w", err)
	}

	var info model.TrackerInfo
	if info.VisitorID, err = stringMember(dict, "visitor"); err != nil {
		return model.TrackerInfo{}, err
	}
	if info.SessionID, err = stringMember(dict, "session"); err != nil {
		return model.TrackerInfo{}, err
	}
	if info.IsZero() {
		return model.TrackerInfo{}, errors.New("tracker header has neither visitor nor session")
	}
	return info, nil
}

// stringMember returns the string value of key, or "" when absent.
func stringMember(dict *httpsfv.Dictionary, key string) (string, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", nil
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("%s value must be an item", key)
	}
	s, ok := item.Value.(string)
	if !ok {
		return "", fmt.Errorf("%s value must be a string", key)
	}
	return s, nil
}

// Tracker parses the tracker header when present and stores the result in the
// request context. Requests without the header pass through untouched; a
// malformed header is rejected with 400 Bad Request.
func Tracker(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(TrackerHeader)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			info, err := ParseTrackerHeader(header)
			if err != nil {
				logger.Warn("invalid tracker header",
					slog.String("header", header),
					slog.String("error", err.Error()))
				writeError(w, model.NewValidationError(TrackerHeader, err.Error()))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTracker(r.Context(), info)))
		})
	}
}

// WithTracker returns a context carrying info.
func WithTracker(ctx context.Context, info model.TrackerInfo) context.Context {
	return context.WithValue(ctx, trackerKey{}, info)
}

// TrackerFromContext returns the tracker info stored by Tracker, if any.
func TrackerFromContext(ctx context.Context) (model.TrackerInfo, bool) {
	info, ok := ctx.Value(trackerKey{}).(model.TrackerInfo)
	return info, ok
}

// writeError mirrors the handler's {"error": {...}} envelope.
func writeError(w http.ResponseWriter, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": apiErr.Code, "message": apiErr.Message},
	})
}
