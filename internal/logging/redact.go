// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package logging

import (
	"strings"
)

// SanitizeToken masks a credential for logging, keeping only the last four
// characters so two tokens can still be told apart.
//
//	logging.Info().Str("access_token", logging.SanitizeToken(tok)).Msg("Token refreshed")
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

// SanitizeBody truncates an upstream response body before it is logged and
// masks anything that looks like a bearer credential.
func SanitizeBody(body string, maxLen int) string {
	if idx := strings.Index(strings.ToLower(body), "access_token"); idx >= 0 {
		body = body[:idx] + "access_token=[REDACTED]"
	}
	if maxLen > 0 && len(body) > maxLen {
		return body[:maxLen] + "..."
	}
	return body
}
