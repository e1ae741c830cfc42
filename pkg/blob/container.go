package blob

import "time"

// ContainerProperties holds the system properties of a container.
type ContainerProperties struct {
	LastModified time.Time
	ETag         string

	LeaseState    LeaseState
	LeaseStatus   LeaseStatus
	LeaseID       string
	LeaseDuration LeaseDuration
	LeaseExpiry   time.Time
	LeaseBreakAt  time.Time

	PublicAccess PublicAccess

	// Immutability policies and legal holds are not emulated; both are
	// always reported false.
	HasImmutabilityPolicy bool
	HasLegalHold          bool
}

// Touch refreshes the ETag and last-modified time.
func (p *ContainerProperties) Touch() {
	p.ETag = NewETag()
	p.LastModified = time.Now().UTC()
}

// AccessPolicy is a stored access policy attached to a signed identifier.
type AccessPolicy struct {
	Start      time.Time
	Expiry     time.Time
	Permission string
}

// SignedIdentifier associates a stored access policy with an identifier
// that service SAS tokens can reference via the si parameter.
type SignedIdentifier struct {
	ID     string
	Policy AccessPolicy
}

// Container is the metadata record of a container.
type Container struct {
	Account string
	Name    string

	Props    ContainerProperties
	Metadata map[string]string
	ACL      []SignedIdentifier
}

// NewContainer creates a container record with fresh properties.
func NewContainer(account, name string) *Container {
	return &Container{
		Account: account,
		Name:    name,
		Props: ContainerProperties{
			LastModified: time.Now().UTC(),
			ETag:         NewETag(),
			LeaseState:   LeaseStateAvailable,
			LeaseStatus:  LeaseStatusUnlocked,
		},
		Metadata: map[string]string{},
	}
}

// Key returns the unique store key of this container record.
func (c *Container) Key() string { return c.Account + "/" + c.Name }

// Clone returns a deep copy of the container record.
func (c *Container) Clone() *Container {
	cc := *c
	cc.Metadata = make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		cc.Metadata[k] = v
	}
	cc.ACL = append([]SignedIdentifier(nil), c.ACL...)
	return &cc
}
