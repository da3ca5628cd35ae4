// Package presets defines the named image transforms used when rendering
// stored images.
package presets

import (
	"sort"

	"github.com/tendant/simple-image/pkg/simpleimage/imagor"
)

// Preset is a named transform and the image purposes it applies to
type Preset struct {
	Name     string
	Options  imagor.Options
	Purposes []string
}

var registry = map[string]Preset{
	"avatar-sm": {
		Name:     "avatar-sm",
		Options:  imagor.Options{Width: 64, Height: 64, Smart: true, Filters: []string{"quality(80)"}},
		Purposes: []string{"avatars"},
	},
	"avatar": {
		Name:     "avatar",
		Options:  imagor.Options{Width: 256, Height: 256, Smart: true, Filters: []string{"quality(85)"}},
		Purposes: []string{"avatars"},
	},
	"thumbnail": {
		Name:     "thumbnail",
		Options:  imagor.Options{Width: 320, Height: 180, Smart: true, Filters: []string{"quality(80)"}},
		Purposes: []string{"posts"},
	},
	"cover": {
		Name:     "cover",
		Options:  imagor.Options{Width: 1200, Height: 630, Fit: imagor.FitIn, Filters: []string{"quality(85)", "format(webp)"}},
		Purposes: []string{"posts"},
	},
	"original": {
		Name:     "original",
		Purposes: []string{"avatars", "posts"},
	},
}

// Get returns the transform options for a preset name.
// The returned filters are a copy and may be modified by the caller.
func Get(name string) (imagor.Options, bool) {
	p, ok := registry[name]
	if !ok {
		return imagor.Options{}, false
	}
	opts := p.Options
	if p.Options.Filters != nil {
		opts.Filters = append([]string(nil), p.Options.Filters...)
	}
	return opts, true
}

// Names returns all preset names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForPurpose returns the sorted preset names that apply to purpose
func ForPurpose(purpose string) []string {
	var names []string
	for name, p := range registry {
		for _, pp := range p.Purposes {
			if pp == purpose {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}
