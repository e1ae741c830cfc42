package blob

// Type identifies the kind of a blob.
type Type string

const (
	TypeBlock  Type = "BlockBlob"
	TypePage   Type = "PageBlob"
	TypeAppend Type = "AppendBlob"
)

// ParseType parses a blob type from its wire representation.
// Returns TypeBlock and false for unknown values.
func ParseType(s string) (Type, bool) {
	switch s {
	case "BlockBlob":
		return TypeBlock, true
	case "PageBlob":
		return TypePage, true
	case "AppendBlob":
		return TypeAppend, true
	default:
		return TypeBlock, false
	}
}

func (t Type) String() string { return string(t) }

// AccessTier is the storage access tier of a blob.
type AccessTier string

const (
	TierHot     AccessTier = "Hot"
	TierCool    AccessTier = "Cool"
	TierCold    AccessTier = "Cold"
	TierArchive AccessTier = "Archive"
)

// ParseAccessTier parses an access tier, case-insensitively on the first letter
// as the service does not accept arbitrary case variants.
func ParseAccessTier(s string) (AccessTier, bool) {
	switch s {
	case "Hot", "hot":
		return TierHot, true
	case "Cool", "cool":
		return TierCool, true
	case "Cold", "cold":
		return TierCold, true
	case "Archive", "archive":
		return TierArchive, true
	default:
		return "", false
	}
}

func (t AccessTier) String() string { return string(t) }

// LeaseState is the lease state machine position of a resource.
type LeaseState string

const (
	LeaseStateAvailable LeaseState = "available"
	LeaseStateLeased    LeaseState = "leased"
	LeaseStateExpired   LeaseState = "expired"
	LeaseStateBreaking  LeaseState = "breaking"
	LeaseStateBroken    LeaseState = "broken"
)

func (s LeaseState) String() string { return string(s) }

// LeaseStatus reports whether a resource is currently locked by a lease.
type LeaseStatus string

const (
	LeaseStatusLocked   LeaseStatus = "locked"
	LeaseStatusUnlocked LeaseStatus = "unlocked"
)

func (s LeaseStatus) String() string { return string(s) }

// LeaseDuration distinguishes fixed-duration from infinite leases.
type LeaseDuration string

const (
	LeaseDurationInfinite LeaseDuration = "infinite"
	LeaseDurationFixed    LeaseDuration = "fixed"
)

func (d LeaseDuration) String() string { return string(d) }

// CopyStatus is the state of a copy operation.
type CopyStatus string

const (
	CopyStatusPending CopyStatus = "pending"
	CopyStatusSuccess CopyStatus = "success"
	CopyStatusAborted CopyStatus = "aborted"
	CopyStatusFailed  CopyStatus = "failed"
)

func (s CopyStatus) String() string { return string(s) }

// PublicAccess is the anonymous-access level of a container.
// The empty value means no public access.
type PublicAccess string

const (
	PublicAccessNone      PublicAccess = ""
	PublicAccessContainer PublicAccess = "container"
	PublicAccessBlob      PublicAccess = "blob"
)

// ParsePublicAccess maps the x-ms-blob-public-access header value.
// "", "none" and "private" all mean no public access.
func ParsePublicAccess(s string) PublicAccess {
	switch s {
	case "container":
		return PublicAccessContainer
	case "blob":
		return PublicAccessBlob
	default:
		return PublicAccessNone
	}
}

func (a PublicAccess) String() string { return string(a) }

// BlockListScope selects which blocks a Get Block List call returns.
type BlockListScope string

const (
	BlockListCommitted   BlockListScope = "committed"
	BlockListUncommitted BlockListScope = "uncommitted"
	BlockListAll         BlockListScope = "all"
)

// ParseBlockListScope defaults to BlockListAll for unknown values,
// matching service behavior for the blocklisttype query parameter.
func ParseBlockListScope(s string) BlockListScope {
	switch s {
	case "committed":
		return BlockListCommitted
	case "uncommitted":
		return BlockListUncommitted
	default:
		return BlockListAll
	}
}

// AccountKind is reported by Get Account Information.
type AccountKind string

const AccountKindStorageV2 AccountKind = "StorageV2"

// SkuName is reported by Get Account Information.
type SkuName string

const SkuStandardLRS SkuName = "Standard_LRS"
