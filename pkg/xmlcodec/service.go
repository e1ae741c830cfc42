package xmlcodec

import (
	"encoding/xml"
	"io"
	"net/http"
	"time"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
)

// ServiceProperties renders the response of Get Blob Service Properties.
func ServiceProperties(p *blob.ServiceProperties) string {
	w := newWriter()
	w.open("StorageServiceProperties")

	w.open("Logging")
	w.elem("Version", p.Logging.Version)
	w.elemBool("Delete", p.Logging.Delete)
	w.elemBool("Read", p.Logging.Read)
	w.elemBool("Write", p.Logging.Write)
	writeRetention(w, p.Logging.RetentionPolicy)
	w.close("Logging")

	writeMetrics(w, "HourMetrics", p.HourMetrics)
	writeMetrics(w, "MinuteMetrics", p.MinuteMetrics)

	w.open("Cors")
	for _, rule := range p.Cors {
		w.open("CorsRule")
		w.elem("AllowedOrigins", rule.AllowedOrigins)
		w.elem("AllowedMethods", rule.AllowedMethods)
		w.elem("AllowedHeaders", rule.AllowedHeaders)
		w.elem("ExposedHeaders", rule.ExposedHeaders)
		w.elemInt("MaxAgeInSeconds", rule.MaxAgeInSeconds)
		w.close("CorsRule")
	}
	w.close("Cors")

	w.elemOpt("DefaultServiceVersion", p.DefaultServiceVersion)

	if p.StaticWebsite.Enabled {
		w.open("StaticWebsite")
		w.elemBool("Enabled", true)
		w.elemOpt("IndexDocument", p.StaticWebsite.IndexDocument)
		w.elemOpt("ErrorDocument404Path", p.StaticWebsite.ErrorDocument404Path)
		w.close("StaticWebsite")
	}

	w.close("StorageServiceProperties")
	return w.String()
}

func writeMetrics(w *writer, name string, m blob.MetricsProperties) {
	w.open(name)
	w.elem("Version", m.Version)
	w.elemBool("Enabled", m.Enabled)
	// IncludeAPIs is only meaningful while metrics are enabled.
	if m.Enabled {
		w.elemBool("IncludeAPIs", m.IncludeAPIs)
	}
	writeRetention(w, m.RetentionPolicy)
	w.close(name)
}

func writeRetention(w *writer, rp blob.RetentionPolicy) {
	w.open("RetentionPolicy")
	w.elemBool("Enabled", rp.Enabled)
	if rp.Enabled {
		w.elemInt("Days", rp.Days)
	}
	w.close("RetentionPolicy")
}

// ParseServiceProperties parses a Set Blob Service Properties request body.
// Sections absent from the request keep their zero values; the handler
// merges them over the stored properties.
func ParseServiceProperties(r io.Reader) (*blob.ServiceProperties, error) {
	var doc struct {
		XMLName xml.Name `xml:"StorageServiceProperties"`
		Logging *struct {
			Version         string           `xml:"Version"`
			Delete          bool             `xml:"Delete"`
			Read            bool             `xml:"Read"`
			Write           bool             `xml:"Write"`
			RetentionPolicy retentionPolicyXML `xml:"RetentionPolicy"`
		} `xml:"Logging"`
		HourMetrics           *metricsXML `xml:"HourMetrics"`
		MinuteMetrics         *metricsXML `xml:"MinuteMetrics"`
		Cors                  *struct {
			Rules []struct {
				AllowedOrigins  string `xml:"AllowedOrigins"`
				AllowedMethods  string `xml:"AllowedMethods"`
				AllowedHeaders  string `xml:"AllowedHeaders"`
				ExposedHeaders  string `xml:"ExposedHeaders"`
				MaxAgeInSeconds int    `xml:"MaxAgeInSeconds"`
			} `xml:"CorsRule"`
		} `xml:"Cors"`
		DefaultServiceVersion string `xml:"DefaultServiceVersion"`
		StaticWebsite         *struct {
			Enabled              bool   `xml:"Enabled"`
			IndexDocument        string `xml:"IndexDocument"`
			ErrorDocument404Path string `xml:"ErrorDocument404Path"`
		} `xml:"StaticWebsite"`
	}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, bloberror.New(bloberror.InvalidXMLDocument)
	}

	var p blob.ServiceProperties
	if doc.Logging != nil {
		p.Logging = blob.LoggingProperties{
			Version:         doc.Logging.Version,
			Delete:          doc.Logging.Delete,
			Read:            doc.Logging.Read,
			Write:           doc.Logging.Write,
			RetentionPolicy: doc.Logging.RetentionPolicy.model(),
		}
	}
	if doc.HourMetrics != nil {
		p.HourMetrics = doc.HourMetrics.model()
	}
	if doc.MinuteMetrics != nil {
		p.MinuteMetrics = doc.MinuteMetrics.model()
	}
	if doc.Cors != nil {
		for _, rule := range doc.Cors.Rules {
			p.Cors = append(p.Cors, blob.CorsRule(rule))
		}
	}
	p.DefaultServiceVersion = doc.DefaultServiceVersion
	if doc.StaticWebsite != nil {
		p.StaticWebsite = blob.StaticWebsite(*doc.StaticWebsite)
	}
	return &p, nil
}

type retentionPolicyXML struct {
	Enabled bool `xml:"Enabled"`
	Days    int  `xml:"Days"`
}

func (r retentionPolicyXML) model() blob.RetentionPolicy {
	return blob.RetentionPolicy{Enabled: r.Enabled, Days: r.Days}
}

type metricsXML struct {
	Version         string           `xml:"Version"`
	Enabled         bool             `xml:"Enabled"`
	IncludeAPIs     bool             `xml:"IncludeAPIs"`
	RetentionPolicy retentionPolicyXML `xml:"RetentionPolicy"`
}

func (m metricsXML) model() blob.MetricsProperties {
	return blob.MetricsProperties{
		Version:         m.Version,
		Enabled:         m.Enabled,
		IncludeAPIs:     m.IncludeAPIs,
		RetentionPolicy: m.RetentionPolicy.model(),
	}
}

// ServiceStats renders the response of Get Blob Service Stats.
func ServiceStats(stats blob.ServiceStats) string {
	w := newWriter()
	w.open("StorageServiceStats")
	w.open("GeoReplication")
	w.elem("Status", stats.GeoReplication.Status)
	w.elemTime("LastSyncTime", stats.GeoReplication.LastSyncTime, http.TimeFormat)
	w.close("GeoReplication")
	w.close("StorageServiceStats")
	return w.String()
}

// UserDelegationKey renders the response of Get User Delegation Key.
func UserDelegationKey(key blob.UserDelegationKey) string {
	w := newWriter()
	w.open("UserDelegationKey")
	w.elem("SignedOid", key.SignedOID)
	w.elem("SignedTid", key.SignedTID)
	w.elemTime("SignedStart", key.SignedStart, AccessPolicyTimeFormat)
	w.elemTime("SignedExpiry", key.SignedExpiry, AccessPolicyTimeFormat)
	w.elem("SignedService", key.SignedService)
	w.elem("SignedVersion", key.SignedVersion)
	w.elem("Value", key.Value)
	w.close("UserDelegationKey")
	return w.String()
}

// ParseUserDelegationKeyRequest parses the Start and Expiry of a Get User
// Delegation Key request body.
func ParseUserDelegationKeyRequest(r io.Reader) (start, expiry time.Time, err error) {
	var doc struct {
		XMLName xml.Name `xml:"KeyInfo"`
		Start   string   `xml:"Start"`
		Expiry  string   `xml:"Expiry"`
	}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return time.Time{}, time.Time{}, bloberror.New(bloberror.InvalidXMLDocument)
	}

	if doc.Start != "" {
		start, err = parsePolicyTime(doc.Start)
		if err != nil {
			return time.Time{}, time.Time{}, bloberror.New(bloberror.InvalidXMLDocument)
		}
	}
	expiry, err = parsePolicyTime(doc.Expiry)
	if err != nil {
		return time.Time{}, time.Time{}, bloberror.New(bloberror.InvalidXMLDocument)
	}
	return start, expiry, nil
}
