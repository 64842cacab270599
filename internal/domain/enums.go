package domain

// ImportStatus represents the lifecycle state of a staging record.
type ImportStatus string

const (
	ImportStatusPending      ImportStatus = "pending"
	ImportStatusNeedsReview  ImportStatus = "needs_review"
	ImportStatusMatched      ImportStatus = "matched"
	ImportStatusDraftCreated ImportStatus = "draft_created"
	ImportStatusCompleted    ImportStatus = "completed"
	ImportStatusNoAction     ImportStatus = "no_action"
	ImportStatusError        ImportStatus = "error"
)

// TerminalStatuses are states a record never leaves automatically.
var TerminalStatuses = map[ImportStatus]bool{
	ImportStatusCompleted: true,
	ImportStatusNoAction:  true,
}

// MatchStatus represents how (or whether) an extracted value was resolved.
type MatchStatus string

const (
	MatchAutoMatched   MatchStatus = "auto_matched"
	MatchServiceMapped MatchStatus = "service_mapped"
	MatchSuggested     MatchStatus = "suggested"
	MatchConfirmed     MatchStatus = "confirmed"
	MatchUnmatched     MatchStatus = "unmatched"
)

// ConfirmedMatchStates are the resolution states that count as settled for the
// needs-review/matched status rule. A suggestion is advisory and does not count.
var ConfirmedMatchStates = map[MatchStatus]bool{
	MatchAutoMatched:   true,
	MatchServiceMapped: true,
	MatchConfirmed:     true,
}

// DocumentKind identifies which accounting document a staging record produces.
type DocumentKind string

const (
	KindPurchaseInvoice DocumentKind = "purchase_invoice"
	KindPurchaseReceipt DocumentKind = "purchase_receipt"
	KindJournalEntry    DocumentKind = "journal_entry"
)

// ValidDocumentKinds is used for request validation.
var ValidDocumentKinds = map[DocumentKind]bool{
	KindPurchaseInvoice: true,
	KindPurchaseReceipt: true,
	KindJournalEntry:    true,
}

// DocStatus is the lifecycle state of a created output document, as reported
// by the document store.
type DocStatus string

const (
	DocStatusDraft     DocStatus = "draft"
	DocStatusSubmitted DocStatus = "submitted"
	DocStatusCancelled DocStatus = "cancelled"
)

// SourceType identifies the ingestion channel a staging record came from.
type SourceType string

const (
	SourceManualUpload SourceType = "manual_upload"
	SourceEmail        SourceType = "email"
	SourceFolderScan   SourceType = "folder_scan"
)

// LifecycleEvent is an external notification about a created output document.
type LifecycleEvent string

const (
	EventSubmitted LifecycleEvent = "submitted"
	EventCancelled LifecycleEvent = "cancelled"
)

// UserRole defines the role hierarchy.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

// AllowedContentTypes maps upload MIME types we accept for extraction.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}
