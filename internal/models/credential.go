// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package models

import "time"

// Credential is the OAuth token tuple used to call the segment API.
//
// The access-token secret stores this document without RefreshToken;
// the refresh token lives in its own secret.
type Credential struct {
	TokenType    string `json:"token_type,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// Expired reports whether the token is no longer valid at now.
// A token expiring exactly at now is treated as expired.
func (c *Credential) Expired(now time.Time) bool {
	return c.ExpiresAt <= now.Unix()
}

// WithoutRefreshToken returns a copy of the credential with the refresh token cleared.
func (c Credential) WithoutRefreshToken() Credential {
	c.RefreshToken = ""
	return c
}
