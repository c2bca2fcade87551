// Package ratelimit throttles requests to the Transparent Classroom portal.
//
// A SlidingWindow tracks the requests made within a moving window and blocks
// in Wait until a slot frees up or the context is cancelled. FromSettings
// builds a per-minute window from configuration; a limit of zero yields
// Unlimited.
//
//	limiter := ratelimit.FromSettings(cfg.RateLimit)
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
