package admin

import (
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	RDB *redis.Client // optional; admin action limits are skipped without it
	Sto Store
}

func NewHandler(rdb *redis.Client, store Store) *Handler {
	return &Handler{
		RDB: rdb,
		Sto: store,
	}
}
