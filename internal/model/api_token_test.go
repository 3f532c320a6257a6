// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	// 32 random bytes hex encoded
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}

	other, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if token == other {
		t.Error("two generated tokens are identical")
	}
}

func TestHashToken(t *testing.T) {
	hash := HashToken("some-token")

	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64", len(hash))
	}
	if hash != HashToken("some-token") {
		t.Error("hashing the same token twice gave different results")
	}
	if hash == HashToken("other-token") {
		t.Error("different tokens hashed to the same value")
	}
	if hash == "some-token" {
		t.Error("hash equals the raw token")
	}
}
