package blob

import "time"

// RetentionPolicy is the delete retention section of the service properties.
type RetentionPolicy struct {
	Enabled bool
	Days    int
}

// LoggingProperties is the storage analytics logging configuration.
type LoggingProperties struct {
	Version         string
	Delete          bool
	Read            bool
	Write           bool
	RetentionPolicy RetentionPolicy
}

// MetricsProperties is one of the hour/minute metrics configurations.
type MetricsProperties struct {
	Version         string
	Enabled         bool
	IncludeAPIs     bool
	RetentionPolicy RetentionPolicy
}

// CorsRule is a single CORS rule of the service properties.
type CorsRule struct {
	AllowedOrigins  string
	AllowedMethods  string
	AllowedHeaders  string
	ExposedHeaders  string
	MaxAgeInSeconds int
}

// ServiceProperties is the account-level configuration surfaced by the
// Get/Set Blob Service Properties operations. The emulator stores whatever
// the client sets but none of it changes behavior.
type ServiceProperties struct {
	Logging               LoggingProperties
	HourMetrics           MetricsProperties
	MinuteMetrics         MetricsProperties
	Cors                  []CorsRule
	DefaultServiceVersion string
	StaticWebsite         StaticWebsite
}

// StaticWebsite is the static website section of the service properties.
type StaticWebsite struct {
	Enabled              bool
	IndexDocument        string
	ErrorDocument404Path string
}

// DefaultServiceProperties returns the properties a fresh account reports.
func DefaultServiceProperties() ServiceProperties {
	return ServiceProperties{
		Logging: LoggingProperties{
			Version: "1.0",
		},
		HourMetrics: MetricsProperties{
			Version:         "1.0",
			Enabled:         true,
			IncludeAPIs:     true,
			RetentionPolicy: RetentionPolicy{Enabled: true, Days: 7},
		},
		MinuteMetrics: MetricsProperties{
			Version: "1.0",
		},
	}
}

// GeoReplication is the replication section of the service stats. Local
// emulation always reports live status with a current sync time.
type GeoReplication struct {
	Status       string
	LastSyncTime time.Time
}

// ServiceStats is returned by Get Blob Service Stats.
type ServiceStats struct {
	GeoReplication GeoReplication
}

// NewServiceStats reports a healthy single-region deployment.
func NewServiceStats() ServiceStats {
	return ServiceStats{
		GeoReplication: GeoReplication{
			Status:       "live",
			LastSyncTime: time.Now().UTC(),
		},
	}
}

// UserDelegationKey is returned by the Get User Delegation Key operation.
// The emulator mints a random key per request; user delegation SAS
// validation is out of scope.
type UserDelegationKey struct {
	SignedOID     string
	SignedTID     string
	SignedStart   time.Time
	SignedExpiry  time.Time
	SignedService string
	SignedVersion string
	Value         string
}
