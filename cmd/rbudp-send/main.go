// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command rbudp-send blasts a file to a waiting rbudp-recv over RBUDP.
//
// CLI argument parsing and log formatting are outside the protocol core
// (see spec.md §1); this command is the thin, documented boundary that
// wires flag-parsed configuration into the rbudp.Sender API.
package main

import (
	"flag"
	"fmt"
	"os"

	"code.hybscloud.com/rbudp"
)

func main() {
	var (
		source      = flag.String("source", "", "path of the file to send")
		destination = flag.String("destination", "", "destination path on the receiver")
		host        = flag.String("host", "127.0.0.1", "receiver hostname/IP")
		port        = flag.Int("port", 9000, "receiver port (shared by the control and data channels)")
		blockSize   = flag.Uint("block-size", rbudp.DefaultBlockSize, "block size in bytes (power of two)")
	)
	flag.Parse()

	if *source == "" || *destination == "" {
		fmt.Fprintln(os.Stderr, "usage: rbudp-send -source <path> -destination <path> -host <host> -port <port>")
		os.Exit(2)
	}

	s := rbudp.NewSender(rbudp.WithBlockSize(uint32(*blockSize)))
	if err := s.Send(*source, *destination, *host, *port); err != nil {
		fmt.Fprintln(os.Stderr, "rbudp-send:", err)
		os.Exit(1)
	}
}
