package service

import (
	"strings"
	"time"
)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func avatarURL(name string) string {
	seed := strings.ReplaceAll(strings.ToLower(name), " ", "")
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + seed
}
