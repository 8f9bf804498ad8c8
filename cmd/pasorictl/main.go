// Command pasorictl opens a PaSoRi reader, polls for a single FeliCa card,
// and prints what it finds.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dotside-studios/pasori-go"
	"github.com/dotside-studios/pasori-go/internal/buildinfo"
)

func main() {
	var (
		systemCode = flag.Uint("system-code", uint(pasori.SystemCodeAny), "FeliCa system code to poll for")
		timeoutMs  = flag.Int("timeout-ms", pasori.DefaultReadTimeoutMs, "per-command receive timeout, in milliseconds")
		verbose    = flag.Bool("v", false, "log debug diagnostics to stderr")
		showVer    = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Println(buildinfo.BuildInfo())
		return
	}

	transport, err := pasori.OpenUSB()
	if err != nil {
		log.Fatalf("open reader: %v", err)
	}

	dev := pasori.Open(transport)
	if *verbose {
		dev.SetLogger(log.New(os.Stderr, "", log.LstdFlags))
	}

	initDev, err := dev.Initialize()
	if err != nil {
		log.Fatalf("initialize reader: %v", err)
	}
	defer initDev.Close()

	fmt.Printf("reader ready: %s\n", initDev.DeviceType())

	start := time.Now()
	card, err := initDev.PollingWithTimeout(pasori.SystemCode(*systemCode), *timeoutMs)
	if err != nil {
		log.Fatalf("polling (after %v, timeout %dms): %v", time.Since(start), *timeoutMs, err)
	}

	info := pasori.NewCardInfo(card)
	fmt.Printf("card type: %s\n", info.CardTypeName)
	fmt.Printf("idm:       %s\n", info.IDMHex)
	fmt.Printf("system:    %s\n", info.SystemCodeHex)
}
