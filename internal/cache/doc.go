// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

/*
Package cache provides a thread-safe in-memory cache with TTL support.

The operations API uses it to keep aggregate queries, such as the per-status
cell counts, from hitting the work-item store on every request.

Expiry is lazy: an expired entry is removed when it is next read, or by
Cleanup. There is no background goroutine, so a Cache needs no Close.

Example:

	c := cache.New(5 * time.Second)
	if v, ok := c.Get("cells:summary"); ok {
	    return v.(models.CellSummary)
	}
	c.Set("cells:summary", summary)
*/
package cache
