package domain

import "time"

// StoredObjectRef identifies a stored segment bundle. The Locator is an
// identity token for the permanent object location; it is never handed to
// untrusted clients, which only ever receive short-lived signed URLs.
type StoredObjectRef struct {
	Key     string `json:"key" bson:"key"`
	Locator string `json:"locator" bson:"locator"`
}

// SignedURL grants time-bounded read access to a stored bundle. It is minted
// fresh on every request and never persisted.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PodcastRecord is what the backend registry holds for a processed episode:
// metadata plus the storage pointer. It never contains segment content.
type PodcastRecord struct {
	Episode     Episode         `json:"episode" bson:"episode"`
	Stored      StoredObjectRef `json:"stored" bson:"stored"`
	RegisteredAt time.Time      `json:"registered_at" bson:"registered_at"`
}

// Pipeline stage names, used for failure reporting. Within one episode the
// stages always run in this order.
const (
	StageFetch      = "fetch"
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageUpload     = "upload"
	StageRegister   = "register"
)
