package redis

import (
	"fmt"

	"github.com/mcoot/tichu/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "tichu"

// codeKey returns the Redis key for a game code -> game id entry
func codeKey(code model.GameCode) string {
	return fmt.Sprintf("%s:code:%s", keyPrefix, code)
}

// summaryKey returns the Redis key for a GameSummary
func summaryKey(id model.GameID) string {
	return fmt.Sprintf("%s:summary:%s", keyPrefix, id)
}

// recentSummariesIndexKey returns the Redis key for the ZSET of summaries by completion time
func recentSummariesIndexKey() string {
	return fmt.Sprintf("%s:idx:recent_summaries", keyPrefix)
}
