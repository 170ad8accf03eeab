package storage

// Store abstracts the flat string key-value persistence the bot runs on.
// Keys are opaque strings ("chat/thread" session keys plus one singleton
// key for the reverse index); values are strings, so structured state goes
// through JSON or the codec package before landing here.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Keys() ([]string, error)
}
