package models

// RecoverableError is implemented by enriched errors that carry structured
// context and remediation hints. The engine, store and output packages all
// use this interface, so it lives here to avoid an import cycle.
type RecoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}
