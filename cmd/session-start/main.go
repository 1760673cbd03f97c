package main

import (
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/hookio"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/session"
)

func main() {
	hookio.Run(session.HookName, session.Hook)
}
