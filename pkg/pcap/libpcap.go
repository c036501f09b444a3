//go:build libpcap

package pcap

import (
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// openLibpcap opens a capture through libpcap, which also understands the
// formats pcapgo does not and can apply a BPF filter while reading.
func openLibpcap(filePath, filter string) (dataSource, layers.LinkType, func() error, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("libpcap: %w", err)
	}
	if filter != "" {
		if err := handle.SetBPFFilter(filter); err != nil {
			handle.Close()
			return nil, 0, nil, fmt.Errorf("libpcap: invalid filter %q: %w", filter, err)
		}
	}
	closer := func() error {
		handle.Close()
		return nil
	}
	return handle, handle.LinkType(), closer, nil
}
