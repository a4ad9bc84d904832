package config

import (
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/magiconair/properties"
)

var propertyKeys = map[string]bool{
	"name":          true,
	"alphabet":      true,
	"padding":       true,
	"strict":        true,
	"constant-time": true,
	"wrap":          true,
	"output":        true,
}

// ImportProfile reads a profile from a Java style .properties file, e.g.
//
//	name = mime
//	alphabet = std
//	wrap = 76
//
// Keys may carry a "b64." prefix. Without a name key the file name minus
// its extension is used.
func ImportProfile(path string) (*Profile, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	if prefixed := p.FilterStripPrefix("b64."); prefixed.Len() > 0 {
		p = prefixed
	}

	for _, key := range p.Keys() {
		if !propertyKeys[key] {
			return nil, fmt.Errorf("unsupported property %q in %v", key, path)
		}
	}

	name := p.GetString("name", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	profile := &Profile{
		Name:         name,
		Alphabet:     p.GetString("alphabet", ""),
		Strict:       p.GetBool("strict", false),
		ConstantTime: p.GetBool("constant-time", false),
		Wrap:         p.GetInt("wrap", 0),
		Output:       p.GetString("output", ""),
	}
	if _, ok := p.Get("padding"); ok {
		padding := p.GetBool("padding", true)
		profile.Padding = &padding
	}

	if _, err := profile.CodecOptions(); err != nil {
		return nil, err
	}
	return profile, nil
}
