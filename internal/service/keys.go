package service

import (
	"strconv"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/query"
)

// Cache key roots. Mutations invalidate by these prefixes.
var (
	UsersKey         = query.NewKey("users")
	ProfileKey       = query.NewKey("profile")
	ProfileMeKey     = ProfileKey.Append("me")
	NotificationsKey = query.NewKey("notifications")
	UnreadCountKey   = NotificationsKey.Append("unread-count")
	MediaKey         = query.NewKey("media")
	SystemDataKey    = query.NewKey("system-data")
)

// UserListKey addresses one page of the users list by its fingerprint.
func UserListKey(params domain.ListParams) query.Key {
	return UsersKey.Append("list", params.Fingerprint())
}

// UserKey addresses a single user.
func UserKey(id domain.FlexID) query.Key {
	return UsersKey.Append("detail", id.String())
}

// NotificationListKey addresses one page of the inbox.
func NotificationListKey(page, perPage int) query.Key {
	return NotificationsKey.Append("list", strconv.Itoa(page), strconv.Itoa(perPage))
}

// MediaListKey addresses one page of media.
func MediaListKey(params domain.ListParams) query.Key {
	return MediaKey.Append("list", params.Fingerprint())
}
