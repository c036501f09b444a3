package pcap

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/engine/protocol"
	"CCSpectra/internal/logging"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const (
	EnginePcapgo  = "pcapgo"
	EngineLibpcap = "libpcap"
)

// ErrLibpcapUnavailable is returned when the libpcap engine is requested from
// a binary built without the libpcap tag.
var ErrLibpcapUnavailable = errors.New("libpcap engine not compiled in (build with -tags libpcap)")

// pcapngMagic is the block type of a pcapng section header.
var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

// Options selects the engine used to open a capture.
type Options struct {
	Engine string
	// BPFFilter is applied by the libpcap engine only.
	BPFFilter string
}

type dataSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// Reader reads packets from a capture file and turns them into PacketRecords.
type Reader struct {
	path     string
	source   dataSource
	linkType layers.LinkType
	closer   func() error
	counts   core.PacketCounts
}

// NewReader opens a pcap or pcapng file with the pure Go engine.
func NewReader(filePath string) (*Reader, error) {
	return Open(filePath, Options{Engine: EnginePcapgo})
}

// Open opens a capture file with the engine named in opts.
func Open(filePath string, opts Options) (*Reader, error) {
	switch opts.Engine {
	case "", EnginePcapgo:
		return openPcapgo(filePath)
	case EngineLibpcap:
		src, linkType, closer, err := openLibpcap(filePath, opts.BPFFilter)
		if err != nil {
			return nil, err
		}
		return &Reader{path: filePath, source: src, linkType: linkType, closer: closer}, nil
	default:
		return nil, fmt.Errorf("unknown capture engine %q", opts.Engine)
	}
}

func openPcapgo(filePath string) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	br := bufio.NewReader(f)
	magic, err := br.Peek(len(pcapngMagic))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read capture header of %s: %w", filePath, err)
	}

	r := &Reader{path: filePath, closer: f.Close}
	if bytes.Equal(magic, pcapngMagic) {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to read pcapng %s: %w", filePath, err)
		}
		r.source, r.linkType = ng, ng.LinkType()
	} else {
		pr, err := pcapgo.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to read pcap %s: %w", filePath, err)
		}
		r.source, r.linkType = pr, pr.LinkType()
	}
	return r, nil
}

// Close releases the underlying file or handle.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer()
	r.closer = nil
	return err
}

// Counts returns the frame accounting of everything read so far.
func (r *Reader) Counts() core.PacketCounts {
	return r.counts
}

// ReadPackets reads every packet of the capture and sends the TCP records to
// out in capture order. Frames that are not TCP or cannot be decoded are
// counted and skipped. It closes the channel when done.
func (r *Reader) ReadPackets(out chan<- *core.PacketRecord) error {
	defer close(out)
	return r.each(func(record *core.PacketRecord) {
		out <- record
	})
}

// ReadAll materializes the TCP records of the whole capture.
func (r *Reader) ReadAll() ([]core.PacketRecord, error) {
	var records []core.PacketRecord
	err := r.each(func(record *core.PacketRecord) {
		records = append(records, *record)
	})
	return records, err
}

func (r *Reader) each(fn func(*core.PacketRecord)) error {
	packetSource := gopacket.NewPacketSource(r.source, r.linkType)
	for {
		packet, err := packetSource.NextPacket()
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			logging.Logger.WithField("file", r.path).Warn("capture ends with a truncated record")
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read packet %d of %s: %w", r.counts.Total+1, r.path, err)
		}

		r.counts.Total++
		record, err := protocol.ParsePacket(packet)
		switch {
		case errors.Is(err, protocol.ErrNotTCP):
			r.counts.NonTCP++
			continue
		case err != nil:
			r.counts.Unparseable++
			logging.Logger.WithFields(log.Fields{
				"file":   r.path,
				"packet": r.counts.Total,
			}).WithError(err).Debug("skipping packet")
			continue
		}
		r.counts.TCP++
		fn(record)
	}

	logging.Logger.WithFields(log.Fields{
		"file":        r.path,
		"total":       r.counts.Total,
		"tcp":         r.counts.TCP,
		"non_tcp":     r.counts.NonTCP,
		"unparseable": r.counts.Unparseable,
	}).Debug("capture read")
	return nil
}
