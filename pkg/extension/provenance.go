package extension

import (
	"io/fs"
	"time"
)

type fsProvenance struct {
	fsys  fs.FS
	names []string
}

// FSProvenance reports the newest modification time among the named files in
// fsys. Files that cannot be stat'ed are skipped; when none can, it declines.
func FSProvenance(fsys fs.FS, names ...string) Provenance {
	return fsProvenance{fsys: fsys, names: append([]string(nil), names...)}
}

func (p fsProvenance) LastModified() (time.Time, bool) {
	if p.fsys == nil {
		return time.Time{}, false
	}
	var (
		latest time.Time
		found  bool
	)
	for _, name := range p.names {
		info, err := fs.Stat(p.fsys, name)
		if err != nil {
			continue
		}
		if mod := info.ModTime(); !found || mod.After(latest) {
			latest = mod
			found = true
		}
	}
	return latest, found
}

// FixedProvenance always reports t.
func FixedProvenance(t time.Time) Provenance {
	return fixedProvenance(t)
}

type fixedProvenance time.Time

func (p fixedProvenance) LastModified() (time.Time, bool) {
	return time.Time(p), true
}
