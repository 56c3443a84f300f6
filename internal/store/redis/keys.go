package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyUsers holds the JSON array of every user
	KeyUsers = "bookmarker:users"
	// KeyPrefixBookmarks is the prefix for per-owner bookmark collections
	KeyPrefixBookmarks = "bookmarker:bookmarks:"
	// KeyPrefixSession is the prefix for session slots
	KeyPrefixSession = "bookmarker:session:"
)

// BookmarksKey returns the Redis key for the bookmarks of ownerID
func BookmarksKey(ownerID string) string {
	return KeyPrefixBookmarks + ownerID
}

// SessionKey returns the Redis key for a session slot
func SessionKey(id string) string {
	return KeyPrefixSession + id
}

// ExtractOwnerID extracts the owner ID from a bookmarks key
func ExtractOwnerID(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixBookmarks) || len(key) == len(KeyPrefixBookmarks) {
		return "", fmt.Errorf("invalid bookmarks key: %s", key)
	}
	return key[len(KeyPrefixBookmarks):], nil
}
