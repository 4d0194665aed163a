package redis

import (
	"fmt"

	"github.com/mcoot/coursehub/internal/model"
)

// Key prefix for all platform data
const keyPrefix = "coursehub"

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// usersIndexKey returns the Redis key for the SET of all user IDs
func usersIndexKey() string {
	return fmt.Sprintf("%s:idx:users", keyPrefix)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// resetIndexKey returns the Redis key for the reset code -> user_id index
func resetIndexKey(code string) string {
	return fmt.Sprintf("%s:idx:reset:%s", keyPrefix, code)
}

func videoKey(id model.VideoID) string {
	return fmt.Sprintf("%s:video:%s", keyPrefix, id)
}

func videosIndexKey() string {
	return fmt.Sprintf("%s:idx:videos", keyPrefix)
}

// tutorVideosIndexKey returns the Redis key for the SET of a tutor's video IDs
func tutorVideosIndexKey(tutorID model.UserID) string {
	return fmt.Sprintf("%s:idx:tutor_videos:%s", keyPrefix, tutorID)
}

func productKey(id model.ProductID) string {
	return fmt.Sprintf("%s:product:%s", keyPrefix, id)
}

func productsIndexKey() string {
	return fmt.Sprintf("%s:idx:products", keyPrefix)
}
