package rigctld

import (
	"context"
	"net"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

// serviceType is the DNS-SD service type rigctld advertises under, the
// rig-control analogue of the teacher's own "_kiss-tnc._tcp".
const serviceType = "_rigctl._tcp"

// startAdvertising announces the bound listener over mDNS/DNS-SD so clients
// on the local network can discover this rigctld without a hardcoded
// address, grounded on the teacher's dns_sd.go use of
// github.com/brutella/dnssd. Failures are logged, not fatal: advertisement
// is a convenience, not a requirement for the TCP protocol itself to work.
func (s *Server) startAdvertising() {
	port := s.listener.Addr().(*net.TCPAddr).Port
	name := s.advertiseName
	if name == "" {
		name = "rigctld"
	}

	cfg := dnssd.Config{
		Name: name,
		Type: serviceType,
		Port: port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		log.Error("dns-sd: failed to create service", "err", err)
		return
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		log.Error("dns-sd: failed to create responder", "err", err)
		return
	}

	if _, err := rp.Add(sv); err != nil {
		log.Error("dns-sd: failed to add service", "err", err)
		return
	}

	log.Info("dns-sd: announcing rigctld", "port", port, "name", name)

	go func() {
		if err := rp.Respond(context.Background()); err != nil {
			log.Error("dns-sd: responder stopped", "err", err)
		}
	}()
}
