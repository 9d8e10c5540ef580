// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command rbudp-recv waits for one RBUDP sender and writes the received
// file to disk.
package main

import (
	"flag"
	"fmt"
	"os"

	"code.hybscloud.com/rbudp"
)

func main() {
	var (
		host = flag.String("host", "0.0.0.0", "address to bind the control and data channels to")
		port = flag.Int("port", 9000, "port to bind the control and data channels to")
	)
	flag.Parse()

	r := rbudp.NewReceiver()
	if err := r.Receive(*host, *port); err != nil {
		fmt.Fprintln(os.Stderr, "rbudp-recv:", err)
		os.Exit(1)
	}
}
