// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package redirect

import "errors"

// ErrOverrideBounds means a redirected read would go outside the override file.
var ErrOverrideBounds = errors.New("read outside override file bounds")
