package protocol

import (
	"CCSpectra/internal/core/model"
	"errors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	// ErrNotTCP is returned for frames that decode cleanly but carry no TCP segment.
	ErrNotTCP = errors.New("not a TCP packet")
	// ErrUnparseable is returned for frames whose TCP header could not be decoded.
	ErrUnparseable = errors.New("unparseable packet")
)

// ParsePacket extracts a PacketRecord from a decoded packet. Non-TCP frames
// yield ErrNotTCP and broken ones ErrUnparseable; callers skip both.
func ParsePacket(packet gopacket.Packet) (*model.PacketRecord, error) {
	l := packet.Layer(layers.LayerTypeTCP)
	if l == nil {
		if packet.ErrorLayer() != nil {
			return nil, ErrUnparseable
		}
		return nil, ErrNotTCP
	}
	tcp, ok := l.(*layers.TCP)
	if !ok {
		return nil, ErrUnparseable
	}

	record := &model.PacketRecord{
		TotalSize:     len(packet.Data()),
		IsTCP:         true,
		PayloadLength: len(tcp.LayerPayload()),
		Flags:         Flags(tcp),
		Seq:           tcp.Seq,
		Ack:           tcp.Ack,
		Window:        tcp.Window,
		Options:       DecodeOptions(tcp.Options),
	}
	if meta := packet.Metadata(); meta != nil {
		record.Timestamp = float64(meta.Timestamp.UnixNano()) / 1e9
		if meta.Length > 0 {
			record.TotalSize = meta.Length
		}
	}
	record.WindowScale, record.HasWindowScale = WindowScaleOf(record.Options)

	return record, nil
}

// Flags packs the control bits of a TCP header.
func Flags(tcp *layers.TCP) model.TCPFlags {
	var f model.TCPFlags
	set := func(on bool, flag model.TCPFlags) {
		if on {
			f |= flag
		}
	}
	set(tcp.FIN, model.FlagFIN)
	set(tcp.SYN, model.FlagSYN)
	set(tcp.RST, model.FlagRST)
	set(tcp.PSH, model.FlagPSH)
	set(tcp.ACK, model.FlagACK)
	set(tcp.URG, model.FlagURG)
	set(tcp.ECE, model.FlagECE)
	set(tcp.CWR, model.FlagCWR)
	set(tcp.NS, model.FlagNS)
	return f
}

// DecodeOptions maps raw TCP options onto the Option variants. A window scale
// option whose payload is not exactly one byte becomes an OtherOption.
// Padding and end-of-list markers are dropped.
func DecodeOptions(opts []layers.TCPOption) []model.Option {
	if len(opts) == 0 {
		return nil
	}
	out := make([]model.Option, 0, len(opts))
	for _, o := range opts {
		switch {
		case o.OptionType == layers.TCPOptionKindNop || o.OptionType == layers.TCPOptionKindEndList:
			continue
		case o.OptionType == layers.TCPOptionKindWindowScale && len(o.OptionData) == 1:
			out = append(out, model.WindowScale{Shift: o.OptionData[0]})
		default:
			data := append([]byte(nil), o.OptionData...)
			out = append(out, model.OtherOption{Kind: uint8(o.OptionType), Data: data})
		}
	}
	return out
}

// WindowScaleOf returns the shift of the last window scale option in opts.
func WindowScaleOf(opts []model.Option) (uint8, bool) {
	var (
		shift uint8
		found bool
	)
	for _, o := range opts {
		if ws, ok := o.(model.WindowScale); ok {
			shift, found = ws.Shift, true
		}
	}
	return shift, found
}
