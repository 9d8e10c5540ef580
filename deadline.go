// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbudp

import (
	"time"

	"code.hybscloud.com/rbudp/transport"
)

// armDeadline applies the session's bounded inactivity timer (§5) to the
// next control-channel operation on c, if one is configured. A zero
// ReadTimeout preserves the protocol's base behavior: a stalled control
// channel stalls the session indefinitely.
func armDeadline(c transport.StreamConn, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	return c.SetDeadline(time.Now().Add(timeout))
}
