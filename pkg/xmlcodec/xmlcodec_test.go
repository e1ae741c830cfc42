package xmlcodec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/store/metadata"
)

func TestContainerList(t *testing.T) {
	c := blob.NewContainer("devstoreaccount1", "photos")
	c.Props.LastModified = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.Props.ETag = `"0xabc"`
	c.Metadata["owner"] = "ops"

	out := ContainerList("http://127.0.0.1:10000/devstoreaccount1",
		metadata.ListContainersParams{MaxResults: 100},
		metadata.ContainerPage{Items: []*blob.Container{c}})

	assert.True(t, strings.HasPrefix(out, Prolog))
	assert.Contains(t, out, `ServiceEndpoint="http://127.0.0.1:10000/devstoreaccount1"`)
	assert.Contains(t, out, "<MaxResults>100</MaxResults>")
	assert.Contains(t, out, "<Name>photos</Name>")
	assert.Contains(t, out, "<Last-Modified>Sun, 01 Jun 2025 12:00:00 GMT</Last-Modified>")
	assert.Contains(t, out, "<Etag>&quot;0xabc&quot;</Etag>")
	assert.Contains(t, out, "<LeaseStatus>unlocked</LeaseStatus>")
	assert.Contains(t, out, "<LeaseState>available</LeaseState>")
	assert.Contains(t, out, "<HasImmutabilityPolicy>false</HasImmutabilityPolicy>")
	assert.Contains(t, out, "<Metadata><owner>ops</owner></Metadata>")
	assert.NotContains(t, out, "<PublicAccess>")
	assert.NotContains(t, out, "<NextMarker>")
}

func TestBlobListOrderingAndPrefixes(t *testing.T) {
	b := blob.New("devstoreaccount1", "c1", "top.txt", blob.TypeBlock, 11)
	b.Props.ContentType = "text/plain"

	out := BlobList("http://127.0.0.1:10000/devstoreaccount1", "c1",
		metadata.ListBlobsParams{Delimiter: "/"},
		metadata.BlobPage{
			Items:    []*blob.Blob{b},
			Prefixes: []string{"a/", "b/"},
		})

	assert.Contains(t, out, `ContainerName="c1"`)
	assert.Contains(t, out, "<Delimiter>/</Delimiter>")
	assert.Contains(t, out, "<Name>top.txt</Name>")
	assert.Contains(t, out, "<Content-Length>11</Content-Length>")
	assert.Contains(t, out, "<Content-Type>text/plain</Content-Type>")
	assert.Contains(t, out, "<BlobType>BlockBlob</BlobType>")
	assert.Contains(t, out, "<AccessTier>Hot</AccessTier>")
	assert.Contains(t, out, "<BlobPrefix><Name>a/</Name></BlobPrefix>")
	assert.Contains(t, out, "<BlobPrefix><Name>b/</Name></BlobPrefix>")

	// Prefix entries come after blob entries within Blobs.
	assert.Less(t, strings.Index(out, "<Blob>"), strings.Index(out, "<BlobPrefix>"))
}

func TestBlobListPageBlobSequenceNumber(t *testing.T) {
	b := blob.New("devstoreaccount1", "c1", "disk.vhd", blob.TypePage, 512)
	b.Props.SequenceNumber = 7

	out := BlobList("e", "c1", metadata.ListBlobsParams{}, metadata.BlobPage{Items: []*blob.Blob{b}})
	assert.Contains(t, out, "<x-ms-blob-sequence-number>7</x-ms-blob-sequence-number>")
}

func TestBlockListSerialization(t *testing.T) {
	committed := []blob.CommittedBlock{{ID: "QUFB", Size: 3}}
	uncommitted := []blob.CommittedBlock{{ID: "QkJC", Size: 5}}

	out := BlockList(blob.BlockListAll, committed, uncommitted)
	assert.Contains(t, out, "<CommittedBlocks><Block><Name>QUFB</Name><Size>3</Size></Block></CommittedBlocks>")
	assert.Contains(t, out, "<UncommittedBlocks><Block><Name>QkJC</Name><Size>5</Size></Block></UncommittedBlocks>")

	out = BlockList(blob.BlockListCommitted, committed, uncommitted)
	assert.Contains(t, out, "<CommittedBlocks>")
	assert.NotContains(t, out, "<UncommittedBlocks>")

	out = BlockList(blob.BlockListUncommitted, committed, uncommitted)
	assert.NotContains(t, out, "<CommittedBlocks>")
	assert.Contains(t, out, "<UncommittedBlocks>")
}

func TestParseBlockListPreservesOrder(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<BlockList>
  <Latest>AAA=</Latest>
  <Committed>BBB=</Committed>
  <Uncommitted>CCC=</Uncommitted>
  <Latest>DDD=</Latest>
</BlockList>`

	refs, err := ParseBlockList(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, refs, 4)
	assert.Equal(t, BlockRef{BlockRefLatest, "AAA="}, refs[0])
	assert.Equal(t, BlockRef{BlockRefCommitted, "BBB="}, refs[1])
	assert.Equal(t, BlockRef{BlockRefUncommitted, "CCC="}, refs[2])
	assert.Equal(t, BlockRef{BlockRefLatest, "DDD="}, refs[3])
}

func TestParseBlockListRejectsMalformed(t *testing.T) {
	_, err := ParseBlockList(strings.NewReader("<BlockList><Latest>x</Latest>"))
	assert.True(t, bloberror.IsCode(err, bloberror.InvalidXMLDocument))

	_, err = ParseBlockList(strings.NewReader("<WrongRoot></WrongRoot>"))
	assert.True(t, bloberror.IsCode(err, bloberror.InvalidXMLDocument))

	_, err = ParseBlockList(strings.NewReader("<BlockList><Bogus>x</Bogus></BlockList>"))
	assert.True(t, bloberror.IsCode(err, bloberror.InvalidXMLDocument))
}

func TestPageList(t *testing.T) {
	out := PageList(
		[]blob.PageRange{{Start: 0, End: 511}, {Start: 1024, End: 1535}},
		[]blob.PageRange{{Start: 512, End: 1023}},
	)
	assert.Equal(t, Prolog+
		"<PageList>"+
		"<PageRange><Start>0</Start><End>511</End></PageRange>"+
		"<PageRange><Start>1024</Start><End>1535</End></PageRange>"+
		"<ClearRange><Start>512</Start><End>1023</End></ClearRange>"+
		"</PageList>", out)
}

func TestTagsRoundTrip(t *testing.T) {
	out := Tags(map[string]string{"env": "prod", "app": "billing"})
	// Keys sorted.
	assert.Contains(t, out, "<Tag><Key>app</Key><Value>billing</Value></Tag><Tag><Key>env</Key><Value>prod</Value></Tag>")

	parsed, err := ParseTags(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"env": "prod", "app": "billing"}, parsed)
}

func TestSignedIdentifiersRoundTrip(t *testing.T) {
	ids := []blob.SignedIdentifier{{
		ID: "policy-1",
		Policy: blob.AccessPolicy{
			Start:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Expiry:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Permission: "rwd",
		},
	}}

	out := SignedIdentifiers(ids)
	assert.Contains(t, out, "<Id>policy-1</Id>")
	assert.Contains(t, out, "<Start>2025-01-01T00:00:00Z</Start>")
	assert.Contains(t, out, "<Expiry>2026-01-01T00:00:00Z</Expiry>")
	assert.Contains(t, out, "<Permission>rwd</Permission>")

	parsed, err := ParseSignedIdentifiers(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "policy-1", parsed[0].ID)
	assert.Equal(t, "rwd", parsed[0].Policy.Permission)
	assert.True(t, parsed[0].Policy.Expiry.Equal(ids[0].Policy.Expiry))
}

func TestParseSignedIdentifiersEmptyBodyClearsACL(t *testing.T) {
	parsed, err := ParseSignedIdentifiers(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestServicePropertiesRoundTrip(t *testing.T) {
	props := blob.DefaultServiceProperties()
	props.Cors = []blob.CorsRule{{
		AllowedOrigins:  "*",
		AllowedMethods:  "GET,PUT",
		MaxAgeInSeconds: 3600,
	}}
	props.DefaultServiceVersion = "2021-10-04"

	out := ServiceProperties(&props)
	assert.Contains(t, out, "<Logging><Version>1.0</Version>")
	assert.Contains(t, out, "<HourMetrics><Version>1.0</Version><Enabled>true</Enabled><IncludeAPIs>true</IncludeAPIs>")
	assert.Contains(t, out, "<RetentionPolicy><Enabled>true</Enabled><Days>7</Days></RetentionPolicy>")
	assert.Contains(t, out, "<AllowedOrigins>*</AllowedOrigins>")
	assert.Contains(t, out, "<DefaultServiceVersion>2021-10-04</DefaultServiceVersion>")
	// Disabled minute metrics carry no IncludeAPIs element.
	assert.Contains(t, out, "<MinuteMetrics><Version>1.0</Version><Enabled>false</Enabled><RetentionPolicy>")

	parsed, err := ParseServiceProperties(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, props.Logging, parsed.Logging)
	assert.Equal(t, props.HourMetrics, parsed.HourMetrics)
	assert.Equal(t, props.Cors, parsed.Cors)
	assert.Equal(t, "2021-10-04", parsed.DefaultServiceVersion)
}

func TestParseServicePropertiesMalformed(t *testing.T) {
	_, err := ParseServiceProperties(strings.NewReader("not xml at all"))
	assert.True(t, bloberror.IsCode(err, bloberror.InvalidXMLDocument))
}

func TestServiceStats(t *testing.T) {
	stats := blob.ServiceStats{GeoReplication: blob.GeoReplication{
		Status:       "live",
		LastSyncTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}
	out := ServiceStats(stats)
	assert.Contains(t, out, "<Status>live</Status>")
	assert.Contains(t, out, "<LastSyncTime>Sun, 01 Jun 2025 12:00:00 GMT</LastSyncTime>")
}

func TestUserDelegationKeyRequestRoundTrip(t *testing.T) {
	key := blob.UserDelegationKey{
		SignedOID:     "oid-1",
		SignedTID:     "tid-1",
		SignedStart:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		SignedExpiry:  time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		SignedService: "b",
		SignedVersion: "2021-10-04",
		Value:         "c2VjcmV0",
	}
	out := UserDelegationKey(key)
	assert.Contains(t, out, "<SignedOid>oid-1</SignedOid>")
	assert.Contains(t, out, "<SignedStart>2025-01-01T00:00:00Z</SignedStart>")
	assert.Contains(t, out, "<Value>c2VjcmV0</Value>")

	body := `<?xml version="1.0" encoding="utf-8"?>
<KeyInfo><Start>2025-01-01T00:00:00Z</Start><Expiry>2025-01-02T00:00:00Z</Expiry></KeyInfo>`
	start, expiry, err := ParseUserDelegationKeyRequest(strings.NewReader(body))
	require.NoError(t, err)
	assert.True(t, start.Equal(key.SignedStart))
	assert.True(t, expiry.Equal(key.SignedExpiry))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;v&gt;&amp;&quot;&apos;", Escape(`<v>&"'`))
}
