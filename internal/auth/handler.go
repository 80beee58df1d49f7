package auth

import (
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	Store UserStore
	RDB   *redis.Client // refresh tokens need Redis; nil disables them
}

func New(store UserStore, rdb *redis.Client) *Handler {
	return &Handler{Store: store, RDB: rdb}
}
