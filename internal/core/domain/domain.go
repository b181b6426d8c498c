// Package domain holds the core entities of the claim ingestion and
// verification pipeline: messages, clusters, verdicts, evidence, sightings,
// and the memory graph's edges.
package domain

import "time"

// MessageSource identifies where an ingested message originated.
type MessageSource string

// Recognized message sources.
const (
	SourceWebForm       MessageSource = "web_form"
	SourceTelegram      MessageSource = "telegram"
	SourceDiscord       MessageSource = "discord"
	SourceWhatsAppMock  MessageSource = "whatsapp_mock"
	SourceAPI           MessageSource = "api"
)

// ParseMessageSource validates a raw source string against the closed set.
func ParseMessageSource(s string) (MessageSource, bool) {
	switch MessageSource(s) {
	case SourceWebForm, SourceTelegram, SourceDiscord, SourceWhatsAppMock, SourceAPI:
		return MessageSource(s), true
	default:
		return "", false
	}
}

// ClaimStatus is the closed set of verdict statuses.
type ClaimStatus string

// Recognized claim statuses.
const (
	StatusUnknown        ClaimStatus = "UNKNOWN"
	StatusTrue           ClaimStatus = "TRUE"
	StatusFalse          ClaimStatus = "FALSE"
	StatusMisleading     ClaimStatus = "MISLEADING"
	StatusPartiallyTrue  ClaimStatus = "PARTIALLY_TRUE"
	StatusUnverifiable   ClaimStatus = "UNVERIFIABLE"
)

// ParseClaimStatus maps a free-form status token (as emitted by an
// adjudicator) onto the closed set, defaulting to StatusUnknown.
func ParseClaimStatus(s string) ClaimStatus {
	switch ClaimStatus(s) {
	case StatusTrue, StatusFalse, StatusMisleading, StatusPartiallyTrue, StatusUnverifiable:
		return ClaimStatus(s)
	default:
		return StatusUnknown
	}
}

// Terminal reports whether the status represents a completed verification
// pass rather than the initial unverified state.
func (s ClaimStatus) Terminal() bool {
	return s != StatusUnknown
}

// CoverageLevel discretizes how much of a claim's content is addressed by
// retrieved evidence.
type CoverageLevel string

// Recognized coverage levels, ordered low to high.
const (
	CoverageNone   CoverageLevel = "NONE"
	CoverageLow    CoverageLevel = "LOW"
	CoverageMedium CoverageLevel = "MEDIUM"
	CoverageHigh   CoverageLevel = "HIGH"
)

// Message is an ingested text plus its provenance. Immutable once stored.
type Message struct {
	ID         int64
	ExternalID string // stable client-facing key, distinct from the store's int64 primary id
	Text       string
	Embedding  []float32 // unit-norm; nil for non-claim messages
	Source        MessageSource
	ChatID        string
	UserID        string
	ReceivedAt    time.Time
	IsClaim       bool
	CanonicalText string
	ClusterID     int64 // 0 when the message was not a claim
}

// Cluster groups messages judged to express the same claim.
type Cluster struct {
	ID           int64
	CanonicalText string
	Topic        string
	Centroid     []float32 // unit-length at creation; mean thereafter
	MessageCount int64
	FirstSeen    time.Time
	LastSeen     time.Time
	VerdictID    int64 // 0 until a verdict has been created
}

// Verdict is the single verification outcome attached to a cluster.
type Verdict struct {
	ID         int64
	ClusterID  int64
	Status     ClaimStatus
	Confidence float64
	ShortReply string
	LongReply  string
	Evidence   []EvidenceItem
	VerifiedAt *time.Time // nil iff Status == StatusUnknown
}

// EvidenceItem is a single piece of retrieved web evidence.
type EvidenceItem struct {
	URL         string
	Domain      string
	Title       string
	Snippet     string
	Relevance   float64 // in [0,1]
	RetrievedAt time.Time
}

// Sighting is an append-only observation of a claim at a time and source.
type Sighting struct {
	ClusterID int64
	Source    MessageSource
	ChatID    string
	UserID    string
	SeenAt    time.Time
}

// GraphEdge is an undirected weighted relationship between two clusters.
type GraphEdge struct {
	ClusterA     int64
	ClusterB     int64
	Weight       float64
	Relationship string
}

// Key returns a canonical, order-independent identity for the edge so that
// (a, b) and (b, a) collapse to the same graph key.
func (e GraphEdge) Key() (int64, int64) {
	if e.ClusterA <= e.ClusterB {
		return e.ClusterA, e.ClusterB
	}
	return e.ClusterB, e.ClusterA
}
