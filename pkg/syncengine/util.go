package syncengine

import (
	"errors"

	"github.com/deenmate/sync-core/pkg/errs"
)

// isUpstream5xx reports whether err is an upstream error with a 5xx
// status, the only case the translation-resource fallback applies to.
func isUpstream5xx(err error) bool {
	var upstream *errs.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status >= 500
	}
	return false
}
