// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// roundup rounds n up to the next multiple of m. m must be a power of 2.
// (if n%m != 0 { n += m - n%m })
func roundup(n, m int) int { return (n + m - 1) &^ (m - 1) }
