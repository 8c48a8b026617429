package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark record keys
	KeyPrefixBookmark = "marks:bookmark:"
	// KeyPrefixOwner is the prefix for per-owner keys
	KeyPrefixOwner = "marks:owner:"
	// KeyPrefixEvents is the prefix for per-owner change feed channels
	KeyPrefixEvents = "marks:events:"
)

// BookmarkKey returns the Redis key for a bookmark record by ID
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// OwnerIndexKey returns the key of the sorted set holding one owner's
// bookmark IDs, scored by creation time
func OwnerIndexKey(owner string) string {
	return KeyPrefixOwner + owner + ":bookmarks"
}

// OwnerURLsKey returns the key of the set enforcing URL uniqueness
// within one owner's bookmarks
func OwnerURLsKey(owner string) string {
	return KeyPrefixOwner + owner + ":urls"
}

// ListCacheKey returns the key of the cached rendered list for an owner
func ListCacheKey(owner string) string {
	return KeyPrefixOwner + owner + ":listcache"
}

// EventsChannel returns the pub/sub channel carrying an owner's
// change events
func EventsChannel(owner string) string {
	return KeyPrefixEvents + owner
}
