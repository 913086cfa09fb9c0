package keystore

import (
	"os"
	"strings"

	"github.com/kevinburke/ssh_config"
	"github.com/rileyhilliard/skm/internal/config"
)

// identityFileHosts parses an ssh_config file and returns a map from
// IdentityFile path to the host patterns that reference it. A missing or
// unparseable config is not an error; keys simply get no annotations.
func identityFileHosts(configPath string) map[string][]string {
	f, err := os.Open(configPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return nil
	}

	out := make(map[string][]string)
	for _, host := range cfg.Hosts {
		if len(host.Patterns) == 0 {
			continue
		}
		pattern := host.Patterns[0].String()
		if pattern == "*" {
			// The catch-all block annotates every key; skip it.
			continue
		}
		for _, node := range host.Nodes {
			kv, ok := node.(*ssh_config.KV)
			if !ok || !strings.EqualFold(kv.Key, "IdentityFile") {
				continue
			}
			path := config.ExpandHome(strings.Trim(kv.Value, `"`))
			out[path] = append(out[path], pattern)
		}
	}
	return out
}
