package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/ardanlabs/utxochain/business/sys/metrics"
	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/foundation/validate"
	"github.com/ardanlabs/utxochain/foundation/web"
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			start := time.Now()

			// Call the next handler.
			err := handler(ctx, w, r)

			// Errors runs after this middleware returns, so the status of a
			// failed request is taken from the error itself.
			status := http.StatusOK
			switch {
			case err != nil:
				status = errorStatus(err)
			default:
				if v, verr := web.GetValues(ctx); verr == nil && v.StatusCode != 0 {
					status = v.StatusCode
				}
			}
			metrics.AddRequest(r.Method, status, time.Since(start))

			// Handle updates to the error count.
			if err != nil || status >= http.StatusBadRequest {
				metrics.AddError()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}

// errorStatus returns the status the Errors middleware will respond with.
func errorStatus(err error) int {
	switch {
	case validate.IsFieldErrors(err):
		return http.StatusBadRequest
	case errs.IsTrusted(err):
		return errs.GetTrusted(err).Status
	default:
		return http.StatusInternalServerError
	}
}
