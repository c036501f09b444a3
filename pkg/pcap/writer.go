package pcap

import (
	core "CCSpectra/internal/core/model"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const snapLen = 65536

var (
	clientMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	serverMAC = net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA}
	clientIP  = net.IP{10, 0, 0, 1}
	serverIP  = net.IP{10, 0, 0, 2}
)

// Segment describes one synthetic frame of a single client/server flow.
type Segment struct {
	Timestamp time.Time
	// FromServer reverses the direction of the segment.
	FromServer bool
	Flags      core.TCPFlags
	Seq, Ack   uint32
	Window     uint16

	WindowScale    uint8
	HasWindowScale bool

	PayloadLength int
	// UDP emits a datagram of PayloadLength bytes instead of a TCP segment.
	UDP bool
}

// EncodeSegment serializes s as an Ethernet/IPv4 frame.
func EncodeSegment(s Segment) ([]byte, error) {
	eth := &layers.Ethernet{SrcMAC: clientMAC, DstMAC: serverMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{SrcIP: clientIP, DstIP: serverIP, Version: 4, TTL: 64, Protocol: layers.IPProtocolTCP}
	srcPort, dstPort := uint16(40000), uint16(5001)
	if s.FromServer {
		eth.SrcMAC, eth.DstMAC = eth.DstMAC, eth.SrcMAC
		ip.SrcIP, ip.DstIP = ip.DstIP, ip.SrcIP
		srcPort, dstPort = dstPort, srcPort
	}

	var transport gopacket.SerializableLayer
	if s.UDP {
		ip.Protocol = layers.IPProtocolUDP
		udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
		udp.SetNetworkLayerForChecksum(ip)
		transport = udp
	} else {
		tcp := &layers.TCP{
			SrcPort: layers.TCPPort(srcPort),
			DstPort: layers.TCPPort(dstPort),
			Seq:     s.Seq,
			Ack:     s.Ack,
			Window:  s.Window,
			FIN:     s.Flags.Has(core.FlagFIN),
			SYN:     s.Flags.Has(core.FlagSYN),
			RST:     s.Flags.Has(core.FlagRST),
			PSH:     s.Flags.Has(core.FlagPSH),
			ACK:     s.Flags.Has(core.FlagACK),
			URG:     s.Flags.Has(core.FlagURG),
			ECE:     s.Flags.Has(core.FlagECE),
			CWR:     s.Flags.Has(core.FlagCWR),
			NS:      s.Flags.Has(core.FlagNS),
		}
		if s.HasWindowScale {
			tcp.Options = []layers.TCPOption{
				{OptionType: layers.TCPOptionKindNop},
				{OptionType: layers.TCPOptionKindWindowScale, OptionData: []byte{s.WindowScale}},
			}
		}
		tcp.SetNetworkLayerForChecksum(ip)
		transport = tcp
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	payload := gopacket.Payload(make([]byte, s.PayloadLength))
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, transport, payload); err != nil {
		return nil, fmt.Errorf("failed to serialize layers: %w", err)
	}
	return buf.Bytes(), nil
}

type packetWriter interface {
	WritePacket(ci gopacket.CaptureInfo, data []byte) error
}

// Writer writes synthetic segments to a capture stream.
type Writer struct {
	w     packetWriter
	flush func() error
}

// NewWriter writes a classic pcap header to w.
func NewWriter(w io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriterNanos(w)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}
	return &Writer{w: pw, flush: func() error { return nil }}, nil
}

// NewNgWriter writes a pcapng section and interface header to w.
func NewNgWriter(w io.Writer) (*Writer, error) {
	ng, err := pcapgo.NewNgWriter(w, layers.LinkTypeEthernet)
	if err != nil {
		return nil, fmt.Errorf("failed to write pcapng header: %w", err)
	}
	return &Writer{w: ng, flush: ng.Flush}, nil
}

// WriteSegment encodes and appends one segment.
func (w *Writer) WriteSegment(s Segment) error {
	data, err := EncodeSegment(s)
	if err != nil {
		return err
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     s.Timestamp,
		CaptureLength: len(data),
		Length:        len(data),
	}
	return w.w.WritePacket(ci, data)
}

// Flush writes out any buffered data.
func (w *Writer) Flush() error {
	return w.flush()
}

// WriteFile writes segments to a new capture at path, as pcapng when ng is set.
func WriteFile(path string, ng bool, segments []Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create capture: %w", err)
	}
	defer f.Close()

	var w *Writer
	if ng {
		w, err = NewNgWriter(f)
	} else {
		w, err = NewWriter(f)
	}
	if err != nil {
		return err
	}
	for i, s := range segments {
		if err := w.WriteSegment(s); err != nil {
			return fmt.Errorf("failed to write segment %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
