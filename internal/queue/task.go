package queue

// ChangeKind tags what happened to a subject's history log.
type ChangeKind string

const (
	ChangeAppend ChangeKind = "append"
	ChangeClear  ChangeKind = "clear"
)

// ChangeMessage is one observed mutation of the history log, published on
// the Redis stream and consumed by the snapshot feed.
type ChangeMessage struct {
	SubjectID string
	Kind      ChangeKind
	EntryID   *int64
	TraceID   *string
}
