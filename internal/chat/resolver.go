package chat

import (
	"context"
	"log/slog"
	"strings"
)

const (
	defaultPageSize  = 1000
	defaultCacheSize = 256

	// maxPages bounds a directory scan even if the service keeps returning
	// cursors. At the default page size this covers 50k entries.
	maxPages = 50
)

// Resolver maps human-readable destination names to service identifiers.
// Results, including misses, are kept in bounded LRU caches so a sweep
// resolves each label against the directory at most once.
type Resolver struct {
	api      API
	pageSize int
	logger   *slog.Logger

	channels *lruCache
	users    *lruCache
	dms      *lruCache
}

// ResolverConfig holds resolver tuning knobs.
type ResolverConfig struct {
	PageSize  int
	CacheSize int
}

// NewResolver creates a directory resolver on top of the chat API.
func NewResolver(api API, config ResolverConfig, logger *slog.Logger) *Resolver {
	if config.PageSize <= 0 {
		config.PageSize = defaultPageSize
	}
	if config.CacheSize <= 0 {
		config.CacheSize = defaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		api:      api,
		pageSize: config.PageSize,
		logger:   logger,
		channels: newLRUCache(config.CacheSize),
		users:    newLRUCache(config.CacheSize),
		dms:      newLRUCache(config.CacheSize),
	}
}

// looksLikeID reports whether s is already a canonical service identifier.
// The first byte encodes the entity type: C channel, D direct message,
// G group, U user.
func looksLikeID(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case 'C', 'D', 'G', 'U':
		return true
	}
	return false
}

// ResolveChannel resolves a channel name (with or without leading '#') or a
// literal conversation ID. Returns ("", false) when the name cannot be
// resolved; directory errors are logged and treated as not found.
func (r *Resolver) ResolveChannel(ctx context.Context, nameOrID string) (string, bool) {
	if nameOrID == "" {
		return "", false
	}
	if looksLikeID(nameOrID) {
		return nameOrID, true
	}

	if id, found, ok := r.channels.Get(nameOrID); ok {
		recordCacheLookup("channel", true)
		return id, found
	}
	recordCacheLookup("channel", false)

	name := strings.TrimPrefix(nameOrID, "#")
	id, found := r.scanChannels(ctx, name)
	r.channels.Set(nameOrID, id, found)
	return id, found
}

func (r *Resolver) scanChannels(ctx context.Context, name string) (string, bool) {
	cursor := ""
	for page := 0; page < maxPages; page++ {
		channels, next, err := r.api.ListChannels(ctx, cursor, r.pageSize)
		if err != nil {
			r.logger.Error("channel resolution failed",
				"channel", "#"+name,
				"error", ErrorCode(err),
			)
			return "", false
		}
		for _, ch := range channels {
			if ch.Name == name {
				return ch.ID, true
			}
		}
		if next == "" {
			return "", false
		}
		cursor = next
	}

	r.logger.Warn("channel scan exceeded page limit", "channel", "#"+name, "pages", maxPages)
	return "", false
}

// ResolveUser resolves a username, display name or real name (with or
// without leading '@') or a literal user ID to a user ID.
func (r *Resolver) ResolveUser(ctx context.Context, nameOrID string) (string, bool) {
	if nameOrID == "" {
		return "", false
	}
	if looksLikeID(nameOrID) && nameOrID[0] == 'U' {
		return nameOrID, true
	}

	if id, found, ok := r.users.Get(nameOrID); ok {
		recordCacheLookup("user", true)
		return id, found
	}
	recordCacheLookup("user", false)

	needle := strings.TrimPrefix(nameOrID, "@")
	id, found := r.scanUsers(ctx, needle)
	r.users.Set(nameOrID, id, found)
	return id, found
}

func (r *Resolver) scanUsers(ctx context.Context, needle string) (string, bool) {
	cursor := ""
	for page := 0; page < maxPages; page++ {
		users, next, err := r.api.ListUsers(ctx, cursor, r.pageSize)
		if err != nil {
			r.logger.Error("user resolution failed",
				"user", needle,
				"error", ErrorCode(err),
			)
			return "", false
		}
		for _, u := range users {
			if u.Deleted {
				continue
			}
			if needle == u.Name || needle == u.Profile.DisplayName || needle == u.Profile.RealName {
				return u.ID, true
			}
		}
		if next == "" {
			return "", false
		}
		cursor = next
	}

	r.logger.Warn("user scan exceeded page limit", "user", needle, "pages", maxPages)
	return "", false
}

// OpenDM opens (or reuses) the direct-message conversation for a user ID.
func (r *Resolver) OpenDM(ctx context.Context, userID string) (string, bool) {
	if userID == "" {
		return "", false
	}

	if id, found, ok := r.dms.Get(userID); ok {
		recordCacheLookup("dm", true)
		return id, found
	}
	recordCacheLookup("dm", false)

	id, err := r.api.OpenDM(ctx, userID)
	if err != nil {
		r.logger.Error("open dm failed",
			"user_id", userID,
			"error", ErrorCode(err),
		)
		r.dms.Set(userID, "", false)
		return "", false
	}

	r.dms.Set(userID, id, true)
	return id, true
}
