package main

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/pkg/pcap"
	"bufio"
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"time"
)

const mss = 1448

func main() {
	outputFile := flag.String("o", "test.pcap", "Output capture file path")
	rateMbps := flag.Float64("rate", 10, "Sender data rate in Mbps")
	duration := flag.Duration("d", 10*time.Second, "Length of the data phase")
	wscale := flag.Uint("wscale", 7, "Window scale advertised on the handshake")
	drop := flag.Float64("drop", 0, "Probability of omitting an ACK, between 0 and 1")
	ng := flag.Bool("ng", false, "Write pcapng instead of pcap")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	if *rateMbps <= 0 || *drop < 0 || *drop > 1 || *wscale > math.MaxUint8 {
		log.Fatalf("Invalid flags: rate must be positive, drop within [0,1], wscale at most %d", math.MaxUint8)
	}

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	var w *pcap.Writer
	if *ng {
		w, err = pcap.NewNgWriter(bw)
	} else {
		w, err = pcap.NewWriter(bw)
	}
	if err != nil {
		log.Fatalf("Failed to write capture header: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	clientISN, serverISN := rng.Uint32(), rng.Uint32()
	ws := uint8(*wscale)
	t := time.Now()

	handshake := []pcap.Segment{
		{Timestamp: t, Flags: core.FlagSYN, Seq: clientISN, Window: 64240, WindowScale: ws, HasWindowScale: true},
		{Timestamp: t.Add(time.Millisecond), FromServer: true, Flags: core.FlagSYN | core.FlagACK, Seq: serverISN, Ack: clientISN + 1, Window: 65160, WindowScale: ws, HasWindowScale: true},
		{Timestamp: t.Add(2 * time.Millisecond), Flags: core.FlagACK, Seq: clientISN + 1, Ack: serverISN + 1, Window: 502},
	}
	for _, s := range handshake {
		if err := w.WriteSegment(s); err != nil {
			log.Fatalf("Failed to write segment: %v", err)
		}
	}

	interval := time.Duration(float64(mss*8) / (*rateMbps * 1e6) * float64(time.Second))
	if interval <= 0 {
		log.Fatalf("Rate %.0f Mbps is too high for nanosecond timestamps", *rateMbps)
	}
	start := t.Add(3 * time.Millisecond)
	seq := clientISN + 1
	packets, dropped := 0, 0
	log.Printf("Generating %v of traffic at %.1f Mbps into %s...", *duration, *rateMbps, *outputFile)

	for at := start; at.Sub(start) < *duration; at = at.Add(interval) {
		data := pcap.Segment{Timestamp: at, Flags: core.FlagACK | core.FlagPSH, Seq: seq, Ack: serverISN + 1, Window: 502, PayloadLength: mss}
		if err := w.WriteSegment(data); err != nil {
			log.Fatalf("Failed to write segment: %v", err)
		}
		seq += mss
		packets++

		if rng.Float64() < *drop {
			dropped++
			continue
		}
		// The receive window opens up as the flow ramps.
		win := uint16(min(65535, 512+packets))
		ack := pcap.Segment{Timestamp: at.Add(interval / 2), FromServer: true, Flags: core.FlagACK, Seq: serverISN + 1, Ack: seq, Window: win}
		if err := w.WriteSegment(ack); err != nil {
			log.Fatalf("Failed to write segment: %v", err)
		}
		if packets%100000 == 0 {
			log.Printf("Generated %d data segments...", packets)
		}
	}

	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to flush capture: %v", err)
	}
	if err := bw.Flush(); err != nil {
		log.Fatalf("Failed to flush output file: %v", err)
	}
	log.Printf("Successfully generated %d data segments (%d ACKs dropped) into %s.", packets, dropped, *outputFile)
}
