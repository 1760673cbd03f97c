package main

import (
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/deployverify"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/hookio"
)

func main() {
	hookio.Run(deployverify.HookName, deployverify.Hook)
}
