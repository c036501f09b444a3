//go:build !libpcap

package pcap

import "github.com/google/gopacket/layers"

func openLibpcap(string, string) (dataSource, layers.LinkType, func() error, error) {
	return nil, 0, nil, ErrLibpcapUnavailable
}
