// Package retry provides bounded retry with exponential backoff for the
// portal's network calls.
//
// Only transient failures are retried: transport errors, 429 responses and
// 5xx responses, as classified by the errors package. Authentication and
// other client errors fail on the first attempt. Waiting between attempts
// honours context cancellation.
//
//	cfg := retry.FromSettings(appCfg.Retry, logger.GetLogger())
//	body, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
//		return session.get(ctx, url)
//	}, cfg)
package retry
