package main

import (
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/hookio"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/predeploy"
)

func main() {
	hookio.Run(predeploy.HookName, predeploy.Hook)
}
