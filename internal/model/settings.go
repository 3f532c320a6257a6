// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Settings is the single global settings row, created lazily on first read.
type Settings struct {
	ID          int64     `json:"-"`
	AllowSignup bool      `json:"allow_signup"`
	UpdatedAt   time.Time `json:"updated_at"`
}
