// Twitter Tracker - X/Twitter Account Monitoring and Realtime Alerts
// Copyright 2026 pitch6767
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pitch6767/twitter-tracker25

package config

import (
	"fmt"
	"strings"

	"github.com/pitch6767/twitter-tracker25/internal/models"
)

// ParseAccountsList parses the compact env-only account list form
// "Name:handle,Name:handle". Handles may carry a leading @ which is
// stripped. Empty entries are skipped.
func ParseAccountsList(raw string) ([]models.TrackedAccount, error) {
	var accounts []models.TrackedAccount
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, handle, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("account entry %q missing ':' separator", entry)
		}
		name = strings.TrimSpace(name)
		handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
		acct := models.TrackedAccount{DisplayName: name, Handle: handle}
		if !acct.Valid() {
			return nil, fmt.Errorf("account entry %q needs both name and handle", entry)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}
