package netjoin

import (
	"net"
)

// interfaceSource lists the host's network interfaces and their addresses.
type interfaceSource interface {
	Interfaces() ([]net.Interface, error)
	Addrs(iface net.Interface) ([]net.Addr, error)
}

type hostInterfaces struct{}

func (hostInterfaces) Interfaces() ([]net.Interface, error) { return net.Interfaces() }

func (hostInterfaces) Addrs(iface net.Interface) ([]net.Addr, error) { return iface.Addrs() }

// InterfaceJoiner is ready when a network interface is up with an IPv4 address.
//
// With an empty Name any non-loopback interface qualifies.
type InterfaceJoiner struct {
	Name string

	source interfaceSource
}

var _ Joiner = (*InterfaceJoiner)(nil)

// NewInterfaceJoiner creates a joiner for the named interface, or any interface if name is empty.
func NewInterfaceJoiner(name string) *InterfaceJoiner {
	return &InterfaceJoiner{Name: name, source: hostInterfaces{}}
}

// IsReady implements Joiner.
func (j *InterfaceJoiner) IsReady() bool {
	return j.LocalAddress() != nil
}

// LocalAddress implements Joiner. It returns nil while no address is assigned.
func (j *InterfaceJoiner) LocalAddress() net.IP {
	ifaces, err := j.source.Interfaces()
	if err != nil {
		return nil
	}

	for _, iface := range ifaces {
		if j.Name != "" && iface.Name != j.Name {
			continue
		}
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if j.Name == "" && iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := j.source.Addrs(iface)
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok {
				if ip4 := ipNet.IP.To4(); ip4 != nil {
					return ip4
				}
			}
		}
	}

	return nil
}
