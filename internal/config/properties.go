package config

import (
	"fmt"
	"strings"

	"github.com/magiconair/properties"
)

// omittedClientProperties are schema-registry settings that share
// client.properties with the producer but are rejected by librdkafka.
var omittedClientProperties = map[string]struct{}{
	"schema.registry.url":           {},
	"basic.auth.credentials.source": {},
	"basic.auth.user.info":          {},
}

// ReadClientProperties parses a Kafka client.properties file into producer
// settings. Blank lines and # comments are skipped; values are trimmed.
func ReadClientProperties(path string) (map[string]string, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client properties: %w", err)
	}
	out := make(map[string]string, p.Len())
	for _, key := range p.Keys() {
		if _, skip := omittedClientProperties[key]; skip {
			continue
		}
		value, _ := p.Get(key)
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
