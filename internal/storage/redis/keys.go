package redis

import (
	"fmt"

	"github.com/mcoot/dartleague/internal/model"
	"github.com/mcoot/dartleague/internal/storage"
)

// DefaultKeyPrefix namespaces league data when Config.KeyPrefix is empty
const DefaultKeyPrefix = "dleague"

// keyspace builds every key under one prefix, so several leagues can share
// a Redis database
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return keyspace{prefix: prefix}
}

func (k keyspace) player(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", k.prefix, id)
}

// playersIndex is the SET of all player ids
func (k keyspace) playersIndex() string {
	return fmt.Sprintf("%s:idx:players", k.prefix)
}

func (k keyspace) credential(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:credential:%s", k.prefix, playerID)
}

// emailIndex maps a normalized login email to a player id
func (k keyspace) emailIndex(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", k.prefix, storage.NormalizeEmail(email))
}

func (k keyspace) match(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", k.prefix, id)
}

// matchesIndex is the SET of all match ids
func (k keyspace) matchesIndex() string {
	return fmt.Sprintf("%s:idx:matches", k.prefix)
}

// playerMatches is the SET of match ids a player appears in
func (k keyspace) playerMatches(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_matches:%s", k.prefix, playerID)
}

func (k keyspace) weekLabel() string {
	return fmt.Sprintf("%s:week_label", k.prefix)
}
