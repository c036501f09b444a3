package main

import (
	"CCSpectra/pkg/pcap"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	n := flag.Int("n", 5, "Number of records to print")
	engine := flag.String("engine", pcap.EnginePcapgo, "Capture engine, pcapgo or libpcap")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./scripts/pcapana [-n 5] [-engine pcapgo] <path_to_capture>")
		os.Exit(1)
	}
	reader, err := pcap.Open(flag.Arg(0), pcap.Options{Engine: *engine})
	if err != nil {
		log.Fatal(err)
	}
	defer reader.Close()

	records, err := reader.ReadAll()
	if err != nil {
		log.Fatal(err)
	}
	for i, r := range records {
		if i >= *n {
			break
		}
		fmt.Printf("[%.6f] len=%d payload=%d flags=%s seq=%d ack=%d win=%d",
			r.Timestamp, r.TotalSize, r.PayloadLength, r.Flags, r.Seq, r.Ack, r.Window)
		if r.HasWindowScale {
			fmt.Printf(" wscale=%d", r.WindowScale)
		}
		fmt.Println()
	}
	c := reader.Counts()
	fmt.Printf("frames=%d tcp=%d non_tcp=%d unparseable=%d\n", c.Total, c.TCP, c.NonTCP, c.Unparseable)
}
