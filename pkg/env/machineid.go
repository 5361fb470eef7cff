package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
)

const appID = "repcode"

// MachineID retrieves an ID identifying the machine, hashed with the
// application ID. It falls back to the host name.
func MachineID() string {
	if id, err := machineid.ProtectedID(appID); err == nil {
		return id[:16]
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return appID
}

// ClientIDOrDefault returns ClientID or derives one from the machine ID.
func (c *Config) ClientIDOrDefault() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return appID + "-" + c.Name + "-" + MachineID()
}
